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

type CloseDefectInput struct {
	Resolution string
}

// Close transitions a record to closed. Four gates apply: the actor's
// role, a non-empty resolution, the status graph (a draft has no edge
// to closed), and the close-eligibility rule. Every failed rule reason
// is reported at once. The resolution is recorded as a comment and a
// history entry in the same operation.
func (s *Service) Close(ctx context.Context, actor Actor, id string, input CloseDefectInput) (defect.Defect, error) {
	if !s.roles.CanClose(actor.Role) {
		return defect.Defect{}, fmt.Errorf("%w: role %q cannot close defects", defect.ErrPermissionDenied, actor.Role)
	}

	resolution := strings.TrimSpace(input.Resolution)
	if resolution == "" {
		return defect.Defect{}, defect.NewValidationError("a resolution note is required to close a defect")
	}

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return defect.Defect{}, err
	}
	if d.Status == defect.StatusClosed {
		return defect.Defect{}, defect.NewValidationError("defect is already closed")
	}
	if !defect.CanTransition(d.Status, defect.StatusClosed) {
		return defect.Defect{}, defect.NewValidationError(fmt.Sprintf("a %s defect cannot be closed", d.Status))
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return defect.Defect{}, err
	}
	if check := defect.CanClose(d, settings); !check.OK {
		return defect.Defect{}, defect.NewValidationError(check.Reasons...)
	}

	closedAt := nowUTC()
	d.Status = defect.StatusClosed
	d.Comments = append(d.Comments, defect.Comment{
		ID:         uuid.NewString(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       resolution,
		CreatedAt:  closedAt,
	})
	d.History = append(d.History, historyEntry(
		defect.HistoryClosed,
		fmt.Sprintf("closed: %s", resolution),
		actor,
	))
	stamp(&d, actor)

	err = s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, d); err != nil {
			return err
		}
		return s.appendOutbox(ctx, ports.MutationClose, d.ID, ports.CloseDefectPayload{
			DefectID:   d.ID,
			Resolution: resolution,
			ClosedAt:   closedAt,
		})
	})
	if err != nil {
		return defect.Defect{}, errs.Wrap(err, "close defect")
	}

	s.cacheStatus(ctx, d)
	return d, nil
}
