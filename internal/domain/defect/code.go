package defect

import (
	"fmt"
	"regexp"
	"strings"
)

// Human-readable code layout. Codes were historically 4 digits wide
// before moving to 6; the resolver still honors both widths.
const (
	CodePrefix = "DEF"
	CodeWidth  = 6
)

var LegacyCodeWidths = []int{4, 6}

var codeShape = regexp.MustCompile(`^([A-Za-z]+)[-_ ]?(\d+)$`)

// FormatCode renders a sequence value as a fixed-width code, for
// example FormatCode("DEF", 7) -> "DEF-000007".
func FormatCode(prefix string, value uint64) string {
	return fmt.Sprintf("%s-%0*d", prefix, CodeWidth, value)
}

// NormalizeCode uppercases a loosely-formatted code and inserts the
// separator when missing ("def0042" -> "DEF-0042"). Inputs that are not
// code-shaped come back trimmed and uppercased only.
func NormalizeCode(raw string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	m := codeShape.FindStringSubmatch(trimmed)
	if m == nil {
		return trimmed
	}
	return m[1] + "-" + m[2]
}

// SplitCode breaks a code-shaped string into its prefix and numeric
// text. ok is false when the input has no such shape.
func SplitCode(raw string) (prefix string, digits string, ok bool) {
	m := codeShape.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", "", false
	}
	return strings.ToUpper(m[1]), m[2], true
}
