package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/infrastructure/persistence/sqlite/model"
	"faultline/internal/ports"
)

const settingsRowID = 1

type SettingsRepository struct {
	db *gorm.DB
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (defect.Settings, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return defect.Settings{}, err
	}

	var row model.Settings
	if err := db.Where("id = ?", settingsRowID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defect.Settings{}, defect.ErrNotFound
		}
		return defect.Settings{}, errs.Wrap(err, "query settings")
	}

	var unsafeBasic []defect.Severity
	if err := json.Unmarshal([]byte(row.UnsafeBasicJSON), &unsafeBasic); err != nil {
		return defect.Settings{}, errs.Wrap(err, "decode basic unsafe severities")
	}
	var unsafeGraded []defect.Severity
	if err := json.Unmarshal([]byte(row.UnsafeGradedJSON), &unsafeGraded); err != nil {
		return defect.Settings{}, errs.Wrap(err, "decode graded unsafe severities")
	}

	return defect.Settings{
		DefaultModel: defect.SeverityModel(row.DefaultModel),
		UnsafeSeverities: map[defect.SeverityModel][]defect.Severity{
			defect.ModelBasic:  unsafeBasic,
			defect.ModelGraded: unsafeGraded,
		},
		BeforeAfterRequired: row.BeforeAfterRequired,
		UpdatedAt:           row.UpdatedAt,
	}, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s defect.Settings) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	unsafeBasic, err := json.Marshal(s.UnsafeSeverities[defect.ModelBasic])
	if err != nil {
		return errs.Wrap(err, "encode basic unsafe severities")
	}
	unsafeGraded, err := json.Marshal(s.UnsafeSeverities[defect.ModelGraded])
	if err != nil {
		return errs.Wrap(err, "encode graded unsafe severities")
	}

	updatedAt := s.UpdatedAt
	if updatedAt == "" {
		updatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	row := model.Settings{
		ID:                  settingsRowID,
		DefaultModel:        string(s.DefaultModel),
		UnsafeBasicJSON:     string(unsafeBasic),
		UnsafeGradedJSON:    string(unsafeGraded),
		BeforeAfterRequired: s.BeforeAfterRequired,
		UpdatedAt:           updatedAt,
	}
	if err := db.Save(&row).Error; err != nil {
		return errs.Wrap(err, "save settings")
	}
	return nil
}
