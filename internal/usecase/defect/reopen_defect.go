package defect

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/ports"
)

// ReopenMode selects how a closed record comes back.
type ReopenMode string

const (
	// ReopenSameOccurrence flips the closed record back to open and
	// increments its reopened count.
	ReopenSameOccurrence ReopenMode = "same_occurrence"
	// ReopenNewOccurrence leaves the closed record untouched and raises
	// a fresh record, with its own id and code, linked back to it.
	ReopenNewOccurrence ReopenMode = "new_occurrence"
)

type ReopenDefectInput struct {
	Mode ReopenMode
}

// Reopen is the only path out of closed. It returns the record the
// caller should work with next: the reopened record itself, or the new
// occurrence.
func (s *Service) Reopen(ctx context.Context, actor Actor, id string, input ReopenDefectInput) (defect.Defect, error) {
	if !s.roles.CanReopen(actor.Role) {
		return defect.Defect{}, fmt.Errorf("%w: role %q cannot reopen defects", defect.ErrPermissionDenied, actor.Role)
	}

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return defect.Defect{}, err
	}
	if d.Status != defect.StatusClosed {
		return defect.Defect{}, defect.NewValidationError("only a closed defect can be reopened")
	}

	switch input.Mode {
	case ReopenSameOccurrence, "":
		return s.reopenSame(ctx, actor, d)
	case ReopenNewOccurrence:
		return s.reopenNew(ctx, actor, d)
	}
	return defect.Defect{}, defect.NewValidationError(fmt.Sprintf("unknown reopen mode %q", input.Mode))
}

func (s *Service) reopenSame(ctx context.Context, actor Actor, d defect.Defect) (defect.Defect, error) {
	d.Status = defect.StatusOpen
	d.ReopenedCount++
	d.History = append(d.History, historyEntry(
		defect.HistoryReopened,
		fmt.Sprintf("reopened (reopen count %d)", d.ReopenedCount),
		actor,
	))
	stamp(&d, actor)

	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, d); err != nil {
			return err
		}
		return s.appendOutbox(ctx, ports.MutationReopen, d.ID, ports.ReopenDefectPayload{
			DefectID: d.ID,
			Mode:     string(ReopenSameOccurrence),
		})
	})
	if err != nil {
		return defect.Defect{}, errs.Wrap(err, "reopen defect")
	}

	s.cacheStatus(ctx, d)
	return d, nil
}

func (s *Service) reopenNew(ctx context.Context, actor Actor, original defect.Defect) (defect.Defect, error) {
	code, err := s.codes.NextCode(ctx, codeSequence, defect.CodePrefix)
	if err != nil {
		return defect.Defect{}, errs.Wrap(err, "generate defect code")
	}

	now := nowUTC()
	next := defect.Defect{
		ID:   uuid.NewString(),
		Code: code,

		Title:       original.Title,
		Description: original.Description,

		SeverityModel: original.SeverityModel,
		Severity:      original.Severity,
		Unsafe:        original.Unsafe,

		Status:               defect.StatusOpen,
		PreviousOccurrenceID: original.ID,

		TargetRectificationDate: original.TargetRectificationDate,
		ComplianceTag:           original.ComplianceTag,

		AssetID:      original.AssetID,
		LocationID:   original.LocationID,
		InspectionID: original.InspectionID,
		WorkOrderID:  original.WorkOrderID,
		SiteID:       original.SiteID,

		AssigneeID:   original.AssigneeID,
		AssigneeName: original.AssigneeName,

		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedByID:   actor.ID,
		CreatedByName: actor.Name,
		UpdatedByID:   actor.ID,
		UpdatedByName: actor.Name,
	}

	// Rectification starts over on a new occurrence.
	for _, action := range original.Actions {
		next.Actions = append(next.Actions, defect.ActionItem{
			ID:          uuid.NewString(),
			Description: action.Description,
			Required:    action.Required,
		})
	}

	next.History = append(next.History, historyEntry(
		defect.HistoryReopened,
		fmt.Sprintf("raised as new occurrence of %s", original.Code),
		actor,
	))

	err = s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, next); err != nil {
			return err
		}
		return s.appendOutbox(ctx, ports.MutationReopen, original.ID, ports.ReopenDefectPayload{
			DefectID:             original.ID,
			Mode:                 string(ReopenNewOccurrence),
			NewOccurrenceID:      next.ID,
			NewOccurrenceCode:    next.Code,
			PreviousOccurrenceID: original.ID,
		})
	})
	if err != nil {
		return defect.Defect{}, errs.Wrap(err, "reopen defect as new occurrence")
	}

	s.cacheStatus(ctx, next)
	return next, nil
}
