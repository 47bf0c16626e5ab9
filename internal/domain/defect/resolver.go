package defect

import (
	"regexp"
	"strconv"
	"strings"
)

// Matcher is one strategy for mapping a loosely-formatted external
// string to a persisted defect. Matchers are tried in order; the first
// hit wins. A nil result means "no match", never an error.
type Matcher interface {
	Name() string
	Match(defects []Defect, query string) *Defect
}

// Matchers returns the resolution chain in priority order.
func Matchers() []Matcher {
	return []Matcher{
		exactIDMatcher{},
		shortIDMatcher{},
		codeMatcher{},
		numericCodeMatcher{},
	}
}

// Resolve runs the matcher chain over the full record set. Callers must
// treat a nil result as "not found".
func Resolve(defects []Defect, query string) *Defect {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	for _, matcher := range Matchers() {
		if d := matcher.Match(defects, trimmed); d != nil {
			return d
		}
	}
	return nil
}

// exactIDMatcher matches the internal identifier verbatim.
type exactIDMatcher struct{}

func (exactIDMatcher) Name() string { return "exact_id" }

func (exactIDMatcher) Match(defects []Defect, query string) *Defect {
	for i := range defects {
		if defects[i].ID == query {
			return &defects[i]
		}
	}
	return nil
}

var shortIDShape = regexp.MustCompile(`^[A-Za-z]+-\d+$`)

// shortIDMatcher matches a short informal prefix-number form against the
// internal identifier, ignoring case.
type shortIDMatcher struct{}

func (shortIDMatcher) Name() string { return "short_id" }

func (shortIDMatcher) Match(defects []Defect, query string) *Defect {
	if !shortIDShape.MatchString(query) {
		return nil
	}
	for i := range defects {
		if strings.EqualFold(defects[i].ID, query) {
			return &defects[i]
		}
	}
	return nil
}

// codeMatcher matches the human code after normalization.
type codeMatcher struct{}

func (codeMatcher) Name() string { return "code" }

func (codeMatcher) Match(defects []Defect, query string) *Defect {
	normalized := NormalizeCode(query)
	for i := range defects {
		if strings.EqualFold(defects[i].Code, normalized) {
			return &defects[i]
		}
	}
	return nil
}

// numericCodeMatcher extracts the number from a code-shaped query and
// retries it padded to each historical width plus the unpadded form.
type numericCodeMatcher struct{}

func (numericCodeMatcher) Name() string { return "numeric_code" }

func (numericCodeMatcher) Match(defects []Defect, query string) *Defect {
	prefix, digits, ok := SplitCode(query)
	if !ok {
		return nil
	}

	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return nil
	}

	candidates := make([]string, 0, len(LegacyCodeWidths)+1)
	for _, width := range LegacyCodeWidths {
		candidates = append(candidates, padCode(prefix, value, width))
	}
	candidates = append(candidates, prefix+"-"+strconv.FormatUint(value, 10))

	for i := range defects {
		for _, candidate := range candidates {
			if strings.EqualFold(defects[i].Code, candidate) {
				return &defects[i]
			}
		}
	}
	return nil
}

func padCode(prefix string, value uint64, width int) string {
	text := strconv.FormatUint(value, 10)
	for len(text) < width {
		text = "0" + text
	}
	return prefix + "-" + text
}
