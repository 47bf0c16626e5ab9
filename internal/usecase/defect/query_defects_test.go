package defect

import (
	"context"
	"testing"
	"time"

	"faultline/internal/domain/defect"
)

func seedQueryFixtures(t *testing.T, deps testDeps) (unsafe, overdue, assigned defect.Defect) {
	t.Helper()

	unsafe = mustCreate(t, deps, engineer, CreateDefectInput{
		Title:    "exposed wiring",
		Severity: "high",
		AssetID:  "asset-1",
		SiteID:   "site-a",
	})
	overdue = mustCreate(t, deps, engineer, CreateDefectInput{
		Title:                   "cracked weld",
		Severity:                "medium",
		TargetRectificationDate: time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339Nano),
		SiteID:                  "site-b",
	})
	assigned = mustCreate(t, deps, engineer, CreateDefectInput{
		Title:        "worn belt",
		Severity:     "low",
		AssigneeID:   "u9",
		AssigneeName: "Robin",
		SiteID:       "site-a",
	})
	return unsafe, overdue, assigned
}

func TestQueryFilters(t *testing.T) {
	deps := setupService(t)
	ctx := context.Background()
	unsafeRec, overdueRec, assignedRec := seedQueryFixtures(t, deps)

	got, err := deps.service.Query(ctx, QueryFilter{Unsafe: true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != unsafeRec.ID {
		t.Fatalf("unsafe filter = %+v", got)
	}

	got, err = deps.service.Query(ctx, QueryFilter{Overdue: true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != overdueRec.ID {
		t.Fatalf("overdue filter = %+v", got)
	}

	got, err = deps.service.Query(ctx, QueryFilter{Unassigned: true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unassigned filter len = %d", len(got))
	}

	got, err = deps.service.Query(ctx, QueryFilter{SiteID: "site-a", AssigneeID: "u9"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != assignedRec.ID {
		t.Fatalf("composed filter = %+v", got)
	}

	got, err = deps.service.Query(ctx, QueryFilter{Search: "WELD"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != overdueRec.ID {
		t.Fatalf("search filter = %+v", got)
	}

	got, err = deps.service.Query(ctx, QueryFilter{Status: "closed"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("closed filter = %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	deps := setupService(t)
	ctx := context.Background()
	_, _, assignedRec := seedQueryFixtures(t, deps)
	closeForTest(t, deps, assignedRec.ID)

	summary, err := deps.service.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Total != 3 || summary.Open != 2 || summary.Overdue != 1 || summary.Unsafe != 1 {
		t.Fatalf("Summarize() = %+v", summary)
	}
}

func TestResolveThroughService(t *testing.T) {
	deps := setupService(t)
	ctx := context.Background()
	unsafeRec, _, _ := seedQueryFixtures(t, deps)

	for _, query := range []string{unsafeRec.ID, unsafeRec.Code, "def000001", "DEF-1"} {
		got, err := deps.service.Resolve(ctx, query)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", query, err)
		}
		if got == nil || got.ID != unsafeRec.ID {
			t.Fatalf("Resolve(%q) = %+v", query, got)
		}
	}

	got, err := deps.service.Resolve(ctx, "DEF-999999")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Resolve(miss) = %+v, want nil", got)
	}
}
