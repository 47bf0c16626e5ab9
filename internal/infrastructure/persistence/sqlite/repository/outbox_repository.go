package repository

import (
	"context"

	"gorm.io/gorm"

	"faultline/internal/errs"
	"faultline/internal/infrastructure/persistence/sqlite/model"
	"faultline/internal/ports"
)

type OutboxRepository struct {
	db *gorm.DB
}

var _ ports.OutboxRepository = (*OutboxRepository)(nil)

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Append(ctx context.Context, entry ports.OutboxEntry) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := entryToModel(entry)
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert outbox entry")
	}
	return nil
}

func (r *OutboxRepository) ListPending(ctx context.Context) ([]ports.OutboxEntry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.OutboxEntry
	if err := db.Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query outbox entries")
	}

	entries := make([]ports.OutboxEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryToPort(row))
	}
	return entries, nil
}

func (r *OutboxRepository) Update(ctx context.Context, entry ports.OutboxEntry) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Model(&model.OutboxEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"attempts":        entry.Attempts,
			"next_attempt_at": entry.NextAttemptAt,
		}).Error; err != nil {
		return errs.Wrap(err, "update outbox entry")
	}
	return nil
}

func (r *OutboxRepository) Delete(ctx context.Context, id string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Where("id = ?", id).Delete(&model.OutboxEntry{}).Error; err != nil {
		return errs.Wrap(err, "delete outbox entry")
	}
	return nil
}

func (r *OutboxRepository) Count(ctx context.Context) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.OutboxEntry{}).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count outbox entries")
	}
	return count, nil
}

func (r *OutboxRepository) AddDeadLetter(ctx context.Context, letter ports.DeadLetter) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.DeadLetter{
		ID:       letter.ID,
		EntryID:  letter.EntryID,
		Kind:     string(letter.Kind),
		DefectID: letter.DefectID,
		Payload:  string(letter.Payload),
		Attempts: letter.Attempts,
		Reason:   letter.Reason,
		FailedAt: letter.FailedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert dead letter")
	}
	return nil
}

func (r *OutboxRepository) ListDeadLetters(ctx context.Context, limit int) ([]ports.DeadLetter, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.DeadLetter{}).Order("failed_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.DeadLetter
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query dead letters")
	}

	letters := make([]ports.DeadLetter, 0, len(rows))
	for _, row := range rows {
		letters = append(letters, ports.DeadLetter{
			ID:       row.ID,
			EntryID:  row.EntryID,
			Kind:     ports.MutationKind(row.Kind),
			DefectID: row.DefectID,
			Payload:  []byte(row.Payload),
			Attempts: row.Attempts,
			Reason:   row.Reason,
			FailedAt: row.FailedAt,
		})
	}
	return letters, nil
}

func (r *OutboxRepository) CountDeadLetters(ctx context.Context) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.DeadLetter{}).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count dead letters")
	}
	return count, nil
}

func entryToModel(entry ports.OutboxEntry) model.OutboxEntry {
	return model.OutboxEntry{
		ID:            entry.ID,
		Kind:          string(entry.Kind),
		DefectID:      entry.DefectID,
		Payload:       string(entry.Payload),
		Attempts:      entry.Attempts,
		NextAttemptAt: entry.NextAttemptAt,
		CreatedAt:     entry.CreatedAt,
	}
}

func entryToPort(row model.OutboxEntry) ports.OutboxEntry {
	return ports.OutboxEntry{
		ID:            row.ID,
		Kind:          ports.MutationKind(row.Kind),
		DefectID:      row.DefectID,
		Payload:       []byte(row.Payload),
		Attempts:      row.Attempts,
		NextAttemptAt: row.NextAttemptAt,
		CreatedAt:     row.CreatedAt,
	}
}
