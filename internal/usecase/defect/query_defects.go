package defect

import (
	"context"
	"strings"
	"time"

	"faultline/internal/domain/defect"
)

// QueryFilter is AND-composed: a record must pass every set criterion.
// Zero values mean "no constraint".
type QueryFilter struct {
	Status        string
	Severity      string
	SeverityModel string

	AssetID       string
	LocationID    string
	SiteID        string
	AssigneeID    string
	ComplianceTag string

	Overdue    bool
	Unsafe     bool
	Unassigned bool

	// Search matches case-insensitively against code, title, description
	// and asset id.
	Search string
}

// Query filters the full record set in memory. The store is a local
// working set, small by construction, so no query pushdown is needed.
func (s *Service) Query(ctx context.Context, filter QueryFilter) ([]defect.Defect, error) {
	defects, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]defect.Defect, 0, len(defects))
	for _, d := range defects {
		if matchesFilter(d, filter, now) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Summary aggregates the headline counts shown on a dashboard.
type Summary struct {
	Total   int `json:"total"`
	Open    int `json:"open"`
	Overdue int `json:"overdue"`
	Unsafe  int `json:"unsafe"`
}

// Summarize counts all records, those not yet closed, those past their
// target rectification date, and those flagged unsafe.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	defects, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	now := time.Now().UTC()
	summary := Summary{Total: len(defects)}
	for _, d := range defects {
		if d.Status != defect.StatusClosed {
			summary.Open++
		}
		if isOverdue(d, now) {
			summary.Overdue++
		}
		if d.Unsafe {
			summary.Unsafe++
		}
	}
	return summary, nil
}

// Resolve finds one record from a loosely-specified identifier: exact
// id, short id, normalized code or bare number. Returns nil when
// nothing matches; an unresolvable query is not an error.
func (s *Service) Resolve(ctx context.Context, query string) (*defect.Defect, error) {
	defects, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return defect.Resolve(defects, query), nil
}

func matchesFilter(d defect.Defect, f QueryFilter, now time.Time) bool {
	if f.Status != "" && d.Status != defect.Status(f.Status) {
		return false
	}
	if f.Severity != "" && d.Severity != defect.Severity(f.Severity) {
		return false
	}
	if f.SeverityModel != "" && d.SeverityModel != defect.SeverityModel(f.SeverityModel) {
		return false
	}
	if f.AssetID != "" && d.AssetID != f.AssetID {
		return false
	}
	if f.LocationID != "" && d.LocationID != f.LocationID {
		return false
	}
	if f.SiteID != "" && d.SiteID != f.SiteID {
		return false
	}
	if f.AssigneeID != "" && d.AssigneeID != f.AssigneeID {
		return false
	}
	if f.ComplianceTag != "" && d.ComplianceTag != f.ComplianceTag {
		return false
	}
	if f.Overdue && !isOverdue(d, now) {
		return false
	}
	if f.Unsafe && !d.Unsafe {
		return false
	}
	if f.Unassigned && d.AssigneeID != "" {
		return false
	}
	if f.Search != "" && !matchesSearch(d, f.Search) {
		return false
	}
	return true
}

// isOverdue: target date in the past and the record not closed. An
// unparseable or absent date never counts as overdue.
func isOverdue(d defect.Defect, now time.Time) bool {
	if d.Status == defect.StatusClosed || d.TargetRectificationDate == "" {
		return false
	}
	target, err := time.Parse(time.RFC3339, d.TargetRectificationDate)
	if err != nil {
		return false
	}
	return target.Before(now)
}

func matchesSearch(d defect.Defect, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	for _, haystack := range []string{d.Code, d.Title, d.Description, d.AssetID} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}
