package defect

import "fmt"

// IsUnsafe reports whether a severity counts as unsafe under the current
// settings thresholds. Pure: identical inputs always yield the same result.
func IsUnsafe(severity Severity, model SeverityModel, settings Settings) bool {
	for _, s := range settings.UnsafeSeverities[model] {
		if s == severity {
			return true
		}
	}
	return false
}

// CloseCheck is the result of the close-eligibility rule. When OK is
// false every failed reason is reported, not just the first.
type CloseCheck struct {
	OK      bool
	Reasons []string
}

// CanClose evaluates both closure gates independently:
//   - a high-band severity requires at least one completed required action
//   - BeforeAfterRequired requires one "before" and one "after" photo
func CanClose(d Defect, settings Settings) CloseCheck {
	var reasons []string

	if HighBand(d.Severity) && !hasCompletedRequiredAction(d.Actions) {
		reasons = append(reasons, fmt.Sprintf(
			"severity %s requires at least one completed required action before closure", d.Severity))
	}

	if settings.BeforeAfterRequired && !hasBeforeAfterPhotos(d.Attachments) {
		reasons = append(reasons, "closure requires before and after photo evidence")
	}

	return CloseCheck{OK: len(reasons) == 0, Reasons: reasons}
}

func hasCompletedRequiredAction(actions []ActionItem) bool {
	for _, action := range actions {
		if action.Required && action.Completed {
			return true
		}
	}
	return false
}

func hasBeforeAfterPhotos(attachments []Attachment) bool {
	hasBefore := false
	hasAfter := false
	for _, att := range attachments {
		if att.Kind != AttachmentPhoto {
			continue
		}
		switch att.Label {
		case LabelBefore:
			hasBefore = true
		case LabelAfter:
			hasAfter = true
		}
	}
	return hasBefore && hasAfter
}
