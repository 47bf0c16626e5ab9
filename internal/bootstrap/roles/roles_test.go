package roles

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"faultline/internal/domain/defect"
)

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	table, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !table.CanDelete(defect.RoleAdmin) || table.CanDelete(defect.RoleSupervisor) {
		t.Fatalf("table = %+v", table)
	}
}

func TestLoadOverridesNamedRolesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	override := `
operator:
  raise: true
  edit: true
auditor:
  raise: false
`
	if err := os.WriteFile(path, []byte(override), 0o600); err != nil {
		t.Fatalf("write roles file: %v", err)
	}

	table, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !table.CanEdit(defect.RoleOperator) {
		t.Fatalf("operator edit override not applied: %+v", table[defect.RoleOperator])
	}
	if !table.CanClose(defect.RoleEngineer) {
		t.Fatalf("engineer defaults lost: %+v", table[defect.RoleEngineer])
	}
	if table.CanRaise(defect.Role("auditor")) {
		t.Fatalf("auditor should deny raise")
	}

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load(missing) expected error")
	}
}
