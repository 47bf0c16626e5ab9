package defect

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
)

// AddComment appends a comment and its history entry. Comments ride to
// the remote inside the full record carried by the next staged mutation,
// so no outbox entry is appended here.
func (s *Service) AddComment(ctx context.Context, actor Actor, id string, body string) (defect.Defect, error) {
	if !s.roles.CanEdit(actor.Role) {
		return defect.Defect{}, fmt.Errorf("%w: role %q cannot comment on defects", defect.ErrPermissionDenied, actor.Role)
	}

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return defect.Defect{}, defect.NewValidationError("comment body cannot be blank")
	}

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return defect.Defect{}, err
	}

	d.Comments = append(d.Comments, defect.Comment{
		ID:         uuid.NewString(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       trimmed,
		CreatedAt:  nowUTC(),
	})
	d.History = append(d.History, historyEntry(defect.HistoryComment, "comment added", actor))
	stamp(&d, actor)

	if err := s.repo.Save(ctx, d); err != nil {
		return defect.Defect{}, errs.Wrap(err, "save comment")
	}
	return d, nil
}
