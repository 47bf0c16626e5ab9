package ports

import (
	"context"

	"faultline/internal/domain/defect"
)

// DefectRepository persists whole defect records including their ordered
// child collections (actions, attachments, comments, history). There is
// no partial-document update primitive: Save re-persists the record.
type DefectRepository interface {
	// Create fails when the id already exists.
	Create(ctx context.Context, d defect.Defect) error
	// Save overwrites the full record.
	Save(ctx context.Context, d defect.Defect) error
	Get(ctx context.Context, id string) (defect.Defect, error)
	GetByCode(ctx context.Context, code string) (defect.Defect, error)
	List(ctx context.Context) ([]defect.Defect, error)
	Delete(ctx context.Context, id string) error
}

// SettingsRepository stores the singleton settings row.
type SettingsRepository interface {
	// Get returns defect.ErrNotFound before first initialization.
	Get(ctx context.Context) (defect.Settings, error)
	Save(ctx context.Context, s defect.Settings) error
}

// SequenceRepository stores named monotonic counters for code generation.
type SequenceRepository interface {
	// Value returns 0 for a sequence that has never been incremented.
	Value(ctx context.Context, name string) (uint64, error)
	Save(ctx context.Context, name string, value uint64) error
}
