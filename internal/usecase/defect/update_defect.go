package defect

import (
	"context"
	"fmt"
	"strings"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/ports"
)

// UpdateDefectInput carries a partial update: nil fields keep their
// current value. Actions and Attachments replace the whole collection
// when present.
type UpdateDefectInput struct {
	Title       *string
	Description *string

	SeverityModel *string
	Severity      *string

	Status *string

	TargetRectificationDate *string
	ComplianceTag           *string

	AssetID      *string
	LocationID   *string
	InspectionID *string
	WorkOrderID  *string
	SiteID       *string

	AssigneeID   *string
	AssigneeName *string

	Actions     *[]defect.ActionItem
	Attachments *[]defect.Attachment
}

// Update merges the input into the stored record. Status changes follow
// the state machine restricted to non-closure edges; severity changes
// re-derive the unsafe flag.
func (s *Service) Update(ctx context.Context, actor Actor, id string, input UpdateDefectInput) (defect.Defect, error) {
	if !s.roles.CanEdit(actor.Role) {
		return defect.Defect{}, fmt.Errorf("%w: role %q cannot edit defects", defect.ErrPermissionDenied, actor.Role)
	}

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return defect.Defect{}, err
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return defect.Defect{}, err
	}

	prevStatus := d.Status
	prevSeverity := d.Severity

	if err := mergeUpdate(&d, input, settings); err != nil {
		return defect.Defect{}, err
	}

	if d.Status != prevStatus {
		d.History = append(d.History, historyEntry(
			defect.HistoryStatusChange,
			fmt.Sprintf("status changed from %s to %s", prevStatus, d.Status),
			actor,
		))
	}
	if d.Severity != prevSeverity {
		d.History = append(d.History, historyEntry(
			defect.HistorySeverityChange,
			fmt.Sprintf("severity changed from %s to %s", prevSeverity, d.Severity),
			actor,
		))
	}
	if d.Status == prevStatus && d.Severity == prevSeverity {
		d.History = append(d.History, historyEntry(defect.HistoryUpdate, "record updated", actor))
	}
	stamp(&d, actor)

	err = s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, d); err != nil {
			return err
		}
		return s.appendOutbox(ctx, ports.MutationUpdate, d.ID, ports.UpdateDefectPayload{DefectID: d.ID, Defect: d})
	})
	if err != nil {
		return defect.Defect{}, errs.Wrap(err, "update defect")
	}

	s.cacheStatus(ctx, d)
	return d, nil
}

func mergeUpdate(d *defect.Defect, input UpdateDefectInput, settings defect.Settings) error {
	var reasons []string

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			reasons = append(reasons, "title cannot be blank")
		} else {
			d.Title = title
		}
	}
	if input.Description != nil {
		d.Description = strings.TrimSpace(*input.Description)
	}

	model := d.SeverityModel
	if input.SeverityModel != nil {
		parsed, err := defect.ParseSeverityModel(*input.SeverityModel)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("unknown severity model %q", *input.SeverityModel))
		} else {
			model = parsed
		}
	}
	severity := d.Severity
	if input.Severity != nil {
		severity = defect.Severity(strings.TrimSpace(*input.Severity))
	}
	if !defect.ValidSeverity(model, severity) {
		reasons = append(reasons, fmt.Sprintf("severity %q is not part of the %s scale", severity, model))
	} else {
		d.SeverityModel = model
		d.Severity = severity
		d.Unsafe = defect.IsUnsafe(severity, model, settings)
	}

	if input.Status != nil {
		parsed, err := defect.ParseStatus(*input.Status)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("unknown status %q", *input.Status))
		} else if !defect.CanUpdateTransition(d.Status, parsed) {
			reasons = append(reasons, fmt.Sprintf("status cannot change from %s to %s here", d.Status, parsed))
		} else {
			d.Status = parsed
		}
	}

	if input.TargetRectificationDate != nil {
		d.TargetRectificationDate = *input.TargetRectificationDate
	}
	if input.ComplianceTag != nil {
		d.ComplianceTag = *input.ComplianceTag
	}
	if input.AssetID != nil {
		d.AssetID = *input.AssetID
	}
	if input.LocationID != nil {
		d.LocationID = *input.LocationID
	}
	if input.InspectionID != nil {
		d.InspectionID = *input.InspectionID
	}
	if input.WorkOrderID != nil {
		d.WorkOrderID = *input.WorkOrderID
	}
	if input.SiteID != nil {
		d.SiteID = *input.SiteID
	}
	if input.AssigneeID != nil {
		d.AssigneeID = *input.AssigneeID
	}
	if input.AssigneeName != nil {
		d.AssigneeName = *input.AssigneeName
	}
	if input.Actions != nil {
		d.Actions = *input.Actions
	}
	if input.Attachments != nil {
		d.Attachments = *input.Attachments
	}

	if len(reasons) > 0 {
		return defect.NewValidationError(reasons...)
	}
	return nil
}
