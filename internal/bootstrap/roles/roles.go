// Package roles loads the role capability table, optionally overridden
// from a YAML file so a deployment can tighten or loosen who may raise,
// edit, close, reopen or delete defects.
package roles

import (
	"context"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/domain/defect"
	"faultline/internal/errs"
)

// Load returns the built-in table when path is empty. An override file
// replaces the capabilities of the roles it names and leaves the rest of
// the table untouched.
func Load(ctx context.Context, path string) (defect.RoleTable, error) {
	table := defect.DefaultRoleTable()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read roles file %s", path)
	}

	var overrides map[defect.Role]defect.Capabilities
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, errs.Wrapf(err, "parse roles file %s", path)
	}

	for role, caps := range overrides {
		table[role] = caps
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "bootstrap.roles")),
		"role table loaded",
		slog.String("path", path),
		slog.Int("overrides", len(overrides)),
	)
	return table, nil
}
