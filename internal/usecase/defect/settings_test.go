package defect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"faultline/internal/domain/defect"
)

func TestSettingsFallBackToDefaults(t *testing.T) {
	deps := setupService(t)

	settings, err := deps.service.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings.DefaultModel != defect.ModelBasic || settings.BeforeAfterRequired {
		t.Fatalf("Settings() = %+v", settings)
	}
}

func TestUpdateSettings(t *testing.T) {
	deps := setupService(t)
	ctx := context.Background()

	model := "graded"
	graded := []string{"critical"}
	updated, err := deps.service.UpdateSettings(ctx, admin, UpdateSettingsInput{
		DefaultModel: &model,
		UnsafeGraded: &graded,
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if updated.DefaultModel != defect.ModelGraded {
		t.Fatalf("DefaultModel = %v", updated.DefaultModel)
	}
	if len(updated.UnsafeSeverities[defect.ModelGraded]) != 1 {
		t.Fatalf("graded thresholds = %v", updated.UnsafeSeverities[defect.ModelGraded])
	}

	// Persisted: a major defect is no longer unsafe under the new thresholds.
	d := mustCreate(t, deps, engineer, CreateDefectInput{Title: "x", Severity: "major"})
	if d.Unsafe {
		t.Fatalf("major should not be unsafe after threshold change")
	}

	_, err = deps.service.UpdateSettings(ctx, engineer, UpdateSettingsInput{})
	if !errors.Is(err, defect.ErrPermissionDenied) {
		t.Fatalf("engineer UpdateSettings() error = %v, want ErrPermissionDenied", err)
	}

	bad := []string{"catastrophic"}
	_, err = deps.service.UpdateSettings(ctx, admin, UpdateSettingsInput{UnsafeGraded: &bad})
	if !errors.Is(err, defect.ErrValidationFailed) {
		t.Fatalf("UpdateSettings(bad) error = %v, want ErrValidationFailed", err)
	}
}

func TestSeedSettingsOnlyOnce(t *testing.T) {
	deps := setupService(t)
	ctx := context.Background()

	seed := defect.DefaultSettings()
	seed.DefaultModel = defect.ModelGraded
	if err := deps.service.SeedSettings(ctx, seed); err != nil {
		t.Fatalf("SeedSettings() error = %v", err)
	}

	again := defect.DefaultSettings()
	if err := deps.service.SeedSettings(ctx, again); err != nil {
		t.Fatalf("SeedSettings() again error = %v", err)
	}

	settings, err := deps.service.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings.DefaultModel != defect.ModelGraded {
		t.Fatalf("DefaultModel = %v, second seed must not overwrite", settings.DefaultModel)
	}
}

func TestLoadSeverityProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "severity.toml")
	profile := `
default_model = "graded"
before_after_required = true

[unsafe]
basic = ["medium", "high"]
graded = ["critical"]
`
	if err := os.WriteFile(path, []byte(profile), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	settings, err := LoadSeverityProfile(path)
	if err != nil {
		t.Fatalf("LoadSeverityProfile() error = %v", err)
	}
	if settings.DefaultModel != defect.ModelGraded || !settings.BeforeAfterRequired {
		t.Fatalf("settings = %+v", settings)
	}
	if len(settings.UnsafeSeverities[defect.ModelBasic]) != 2 {
		t.Fatalf("basic thresholds = %v", settings.UnsafeSeverities[defect.ModelBasic])
	}

	if _, err := LoadSeverityProfile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("LoadSeverityProfile(missing) expected error")
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte(`default_model = "fancy"`), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if _, err := LoadSeverityProfile(bad); err == nil {
		t.Fatalf("LoadSeverityProfile(bad model) expected error")
	}
}
