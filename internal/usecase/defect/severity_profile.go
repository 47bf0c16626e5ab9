package defect

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
)

// severityProfile is the on-disk seed for the settings singleton, kept
// as TOML so operators can version it next to the rest of the deploy.
type severityProfile struct {
	DefaultModel        string              `toml:"default_model"`
	BeforeAfterRequired bool                `toml:"before_after_required"`
	Unsafe              map[string][]string `toml:"unsafe"`
}

// LoadSeverityProfile reads a settings seed from a TOML file. Thresholds
// missing from the file keep their built-in defaults.
func LoadSeverityProfile(path string) (defect.Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return defect.Settings{}, errs.Wrapf(err, "read severity profile %s", path)
	}

	var profile severityProfile
	if err := toml.Unmarshal(raw, &profile); err != nil {
		return defect.Settings{}, errs.Wrapf(err, "parse severity profile %s", path)
	}

	settings := defect.DefaultSettings()

	if profile.DefaultModel != "" {
		model, err := defect.ParseSeverityModel(profile.DefaultModel)
		if err != nil {
			return defect.Settings{}, errs.Wrapf(err, "severity profile %s", path)
		}
		settings.DefaultModel = model
	}
	settings.BeforeAfterRequired = profile.BeforeAfterRequired

	for rawModel, rawSeverities := range profile.Unsafe {
		model, err := defect.ParseSeverityModel(rawModel)
		if err != nil {
			return defect.Settings{}, errs.Wrapf(err, "severity profile %s", path)
		}
		severities, bad := parseSeverityList(model, rawSeverities)
		if len(bad) > 0 {
			return defect.Settings{}, fmt.Errorf("severity profile %s: %s", path, bad[0])
		}
		settings.UnsafeSeverities[model] = severities
	}

	return settings, nil
}
