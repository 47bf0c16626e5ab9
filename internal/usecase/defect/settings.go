package defect

import (
	"context"
	"errors"
	"fmt"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
)

// Settings returns the effective settings, falling back to the built-in
// defaults before first initialization.
func (s *Service) Settings(ctx context.Context) (defect.Settings, error) {
	return s.loadSettings(ctx)
}

// UpdateSettingsInput mutates the singleton in place: nil fields keep
// their current value.
type UpdateSettingsInput struct {
	DefaultModel        *string
	UnsafeBasic         *[]string
	UnsafeGraded        *[]string
	BeforeAfterRequired *bool
}

// UpdateSettings validates and persists the new thresholds. Settings
// gate what admins tune, so the actor needs the delete capability, the
// widest one in the table.
func (s *Service) UpdateSettings(ctx context.Context, actor Actor, input UpdateSettingsInput) (defect.Settings, error) {
	if !s.roles.CanDelete(actor.Role) {
		return defect.Settings{}, fmt.Errorf("%w: role %q cannot change settings", defect.ErrPermissionDenied, actor.Role)
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return defect.Settings{}, err
	}

	var reasons []string

	if input.DefaultModel != nil {
		model, err := defect.ParseSeverityModel(*input.DefaultModel)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("unknown severity model %q", *input.DefaultModel))
		} else {
			settings.DefaultModel = model
		}
	}
	if input.UnsafeBasic != nil {
		severities, bad := parseSeverityList(defect.ModelBasic, *input.UnsafeBasic)
		reasons = append(reasons, bad...)
		if len(bad) == 0 {
			settings.UnsafeSeverities[defect.ModelBasic] = severities
		}
	}
	if input.UnsafeGraded != nil {
		severities, bad := parseSeverityList(defect.ModelGraded, *input.UnsafeGraded)
		reasons = append(reasons, bad...)
		if len(bad) == 0 {
			settings.UnsafeSeverities[defect.ModelGraded] = severities
		}
	}
	if input.BeforeAfterRequired != nil {
		settings.BeforeAfterRequired = *input.BeforeAfterRequired
	}

	if len(reasons) > 0 {
		return defect.Settings{}, defect.NewValidationError(reasons...)
	}

	settings.UpdatedAt = nowUTC()
	if err := s.settings.Save(ctx, settings); err != nil {
		return defect.Settings{}, errs.Wrap(err, "save settings")
	}
	return settings, nil
}

// SeedSettings writes initial settings only when the singleton row does
// not exist yet. Used at database initialization.
func (s *Service) SeedSettings(ctx context.Context, seed defect.Settings) error {
	_, err := s.settings.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, defect.ErrNotFound) {
		return errs.Wrap(err, "read settings")
	}
	seed.UpdatedAt = nowUTC()
	if err := s.settings.Save(ctx, seed); err != nil {
		return errs.Wrap(err, "seed settings")
	}
	return nil
}

func parseSeverityList(model defect.SeverityModel, raw []string) ([]defect.Severity, []string) {
	var severities []defect.Severity
	var reasons []string
	for _, item := range raw {
		severity := defect.Severity(item)
		if !defect.ValidSeverity(model, severity) {
			reasons = append(reasons, fmt.Sprintf("severity %q is not part of the %s scale", item, model))
			continue
		}
		severities = append(severities, severity)
	}
	return severities, reasons
}
