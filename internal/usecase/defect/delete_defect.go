package defect

import (
	"context"
	"fmt"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/ports"
)

// Delete removes a record locally and stages the deletion for the
// remote. The record and its children go in one transaction.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if !s.roles.CanDelete(actor.Role) {
		return fmt.Errorf("%w: role %q cannot delete defects", defect.ErrPermissionDenied, actor.Role)
	}

	// Surface not-found before touching the outbox.
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.appendOutbox(ctx, ports.MutationDelete, id, ports.DeleteDefectPayload{DefectID: id})
	})
	if err != nil {
		return errs.Wrap(err, "delete defect")
	}

	s.dropStatusCache(ctx, id)
	return nil
}
