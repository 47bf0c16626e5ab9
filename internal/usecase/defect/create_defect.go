package defect

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/ports"
)

type ActionInput struct {
	Description string
	Required    bool
}

type CreateDefectInput struct {
	Title       string
	Description string

	// SeverityModel is optional; the settings default applies when empty.
	SeverityModel string
	Severity      string

	// Status may be draft or open; open when empty.
	Status string

	TargetRectificationDate string
	ComplianceTag           string

	AssetID      string
	LocationID   string
	InspectionID string
	WorkOrderID  string
	SiteID       string

	AssigneeID   string
	AssigneeName string

	Actions []ActionInput
}

// Create raises a new defect: assigns an id and the next sequence code,
// derives the unsafe flag, and stages a create mutation on the outbox in
// the same transaction as the insert.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateDefectInput) (defect.Defect, error) {
	if !s.roles.CanRaise(actor.Role) {
		return defect.Defect{}, fmt.Errorf("%w: role %q cannot raise defects", defect.ErrPermissionDenied, actor.Role)
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return defect.Defect{}, err
	}

	d, err := s.buildDefect(actor, input, settings)
	if err != nil {
		return defect.Defect{}, err
	}

	code, err := s.codes.NextCode(ctx, codeSequence, defect.CodePrefix)
	if err != nil {
		return defect.Defect{}, errs.Wrap(err, "generate defect code")
	}
	d.Code = code

	err = s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, d); err != nil {
			return err
		}
		return s.appendOutbox(ctx, ports.MutationCreate, d.ID, ports.CreateDefectPayload{Defect: d})
	})
	if err != nil {
		return defect.Defect{}, errs.Wrap(err, "create defect")
	}

	s.cacheStatus(ctx, d)
	return d, nil
}

func (s *Service) buildDefect(actor Actor, input CreateDefectInput, settings defect.Settings) (defect.Defect, error) {
	var reasons []string

	title := strings.TrimSpace(input.Title)
	if title == "" {
		reasons = append(reasons, "title is required")
	}

	model := settings.DefaultModel
	if strings.TrimSpace(input.SeverityModel) != "" {
		parsed, err := defect.ParseSeverityModel(input.SeverityModel)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("unknown severity model %q", input.SeverityModel))
		} else {
			model = parsed
		}
	}

	severity := defect.Severity(strings.TrimSpace(input.Severity))
	if severity == "" {
		reasons = append(reasons, "severity is required")
	} else if !defect.ValidSeverity(model, severity) {
		reasons = append(reasons, fmt.Sprintf("severity %q is not part of the %s scale", severity, model))
	}

	status := defect.StatusOpen
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := defect.ParseStatus(input.Status)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("unknown status %q", input.Status))
		} else if parsed != defect.StatusDraft && parsed != defect.StatusOpen {
			reasons = append(reasons, fmt.Sprintf("a defect cannot be raised as %s", parsed))
		} else {
			status = parsed
		}
	}

	if len(reasons) > 0 {
		return defect.Defect{}, defect.NewValidationError(reasons...)
	}

	now := nowUTC()
	d := defect.Defect{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		SeverityModel: model,
		Severity:      severity,
		Unsafe:        defect.IsUnsafe(severity, model, settings),
		Status:        status,

		TargetRectificationDate: input.TargetRectificationDate,
		ComplianceTag:           input.ComplianceTag,

		AssetID:      input.AssetID,
		LocationID:   input.LocationID,
		InspectionID: input.InspectionID,
		WorkOrderID:  input.WorkOrderID,
		SiteID:       input.SiteID,

		AssigneeID:   input.AssigneeID,
		AssigneeName: input.AssigneeName,

		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedByID:   actor.ID,
		CreatedByName: actor.Name,
		UpdatedByID:   actor.ID,
		UpdatedByName: actor.Name,
	}

	for _, action := range input.Actions {
		desc := strings.TrimSpace(action.Description)
		if desc == "" {
			continue
		}
		d.Actions = append(d.Actions, defect.ActionItem{
			ID:          uuid.NewString(),
			Description: desc,
			Required:    action.Required,
		})
	}

	d.History = append(d.History, historyEntry(
		defect.HistoryStatusChange,
		fmt.Sprintf("raised as %s", status),
		actor,
	))

	return d, nil
}
