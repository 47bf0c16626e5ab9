package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"faultline/internal/errs"
	"faultline/internal/infrastructure/persistence/sqlite/model"
	"faultline/internal/ports"
)

// SequenceRepository stores named counters. Serialization of the
// read-increment-write cycle is the code generator's responsibility; the
// repository only persists values.
type SequenceRepository struct {
	db *gorm.DB
}

var _ ports.SequenceRepository = (*SequenceRepository)(nil)

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

func (r *SequenceRepository) Value(ctx context.Context, name string) (uint64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var row model.Counter
	if err := db.Where("name = ?", name).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, errs.Wrap(err, "query counter")
	}
	return row.Value, nil
}

func (r *SequenceRepository) Save(ctx context.Context, name string, value uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.Counter{
		Name:      name,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := db.Save(&row).Error; err != nil {
		return errs.Wrap(err, "save counter")
	}
	return nil
}
