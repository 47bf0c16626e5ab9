package defect

import "fmt"

// SeverityModel selects which of the two fixed three-level scales a
// defect is graded on.
type SeverityModel string

const (
	ModelBasic  SeverityModel = "basic"
	ModelGraded SeverityModel = "graded"
)

type Severity string

// basic scale
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// graded scale
const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

var modelSeverities = map[SeverityModel][]Severity{
	ModelBasic:  {SeverityLow, SeverityMedium, SeverityHigh},
	ModelGraded: {SeverityMinor, SeverityMajor, SeverityCritical},
}

func ParseSeverityModel(raw string) (SeverityModel, error) {
	model := SeverityModel(raw)
	if _, ok := modelSeverities[model]; !ok {
		return "", fmt.Errorf("%w: unknown severity model %q", ErrValidationFailed, raw)
	}
	return model, nil
}

// ModelSeverities returns the ordered scale for a model, lowest first.
func ModelSeverities(model SeverityModel) []Severity {
	scale := modelSeverities[model]
	out := make([]Severity, len(scale))
	copy(out, scale)
	return out
}

// ValidSeverity reports whether severity belongs to the model's scale.
func ValidSeverity(model SeverityModel, severity Severity) bool {
	for _, s := range modelSeverities[model] {
		if s == severity {
			return true
		}
	}
	return false
}

// HighBand reports whether a severity sits in the top band of its scale.
// These severities gate closure on completed required actions.
func HighBand(severity Severity) bool {
	switch severity {
	case SeverityHigh, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}
