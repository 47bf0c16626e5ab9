package repository

import (
	"context"
	"errors"
	"testing"

	"faultline/internal/domain/defect"
)

func TestSettingsGetBeforeInit(t *testing.T) {
	repo := NewSettingsRepository(setupDB(t))

	_, err := repo.Get(context.Background())
	if !errors.Is(err, defect.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSettingsSaveGetRoundTrip(t *testing.T) {
	repo := NewSettingsRepository(setupDB(t))
	ctx := context.Background()

	want := defect.DefaultSettings()
	want.BeforeAfterRequired = true
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DefaultModel != defect.ModelBasic || !got.BeforeAfterRequired {
		t.Fatalf("Get() = %+v", got)
	}
	if len(got.UnsafeSeverities[defect.ModelGraded]) != 2 {
		t.Fatalf("graded thresholds = %v", got.UnsafeSeverities[defect.ModelGraded])
	}

	// Mutate in place: the singleton row is overwritten, not duplicated.
	want.DefaultModel = defect.ModelGraded
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() again error = %v", err)
	}
	got, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DefaultModel != defect.ModelGraded {
		t.Fatalf("DefaultModel = %q", got.DefaultModel)
	}
}

func TestSequenceValueDefaultsToZero(t *testing.T) {
	repo := NewSequenceRepository(setupDB(t))
	ctx := context.Background()

	value, err := repo.Value(ctx, "defect_code")
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if value != 0 {
		t.Fatalf("Value() = %d, want 0", value)
	}

	if err := repo.Save(ctx, "defect_code", 7); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	value, err = repo.Value(ctx, "defect_code")
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if value != 7 {
		t.Fatalf("Value() = %d, want 7", value)
	}
}
