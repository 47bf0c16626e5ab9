package defect

import "testing"

func resolverFixtures() []Defect {
	return []Defect{
		{ID: "7d8f7e9a-1111-4222-8333-944445555666", Code: "DEF-000007", Title: "cracked housing"},
		{ID: "def-7", Code: "DEF-0042", Title: "legacy record"},
		{ID: "b2c3d4e5-aaaa-4bbb-8ccc-9ddddeeeefff", Code: "DEF-000113", Title: "oil leak"},
	}
}

func TestResolveExactInternalID(t *testing.T) {
	defects := resolverFixtures()
	got := Resolve(defects, "b2c3d4e5-aaaa-4bbb-8ccc-9ddddeeeefff")
	if got == nil || got.Code != "DEF-000113" {
		t.Fatalf("Resolve() = %+v", got)
	}
}

func TestResolveShortInformalID(t *testing.T) {
	defects := resolverFixtures()
	got := Resolve(defects, "DEF-7")
	// "DEF-7" first hits the legacy record whose internal id is "def-7".
	if got == nil || got.ID != "def-7" {
		t.Fatalf("Resolve() = %+v", got)
	}
}

func TestResolveNumericRepadding(t *testing.T) {
	defects := []Defect{
		{ID: "x1", Code: "DEF-000007"},
	}
	got := Resolve(defects, "DEF-7")
	if got == nil || got.Code != "DEF-000007" {
		t.Fatalf("Resolve() = %+v, want DEF-000007 via 6-digit repadding", got)
	}

	got = Resolve(defects, "def 7")
	if got == nil || got.Code != "DEF-000007" {
		t.Fatalf("Resolve() = %+v for spaced lowercase form", got)
	}
}

func TestResolveNormalizedCode(t *testing.T) {
	defects := resolverFixtures()
	got := Resolve(defects, "def0042")
	if got == nil || got.Code != "DEF-0042" {
		t.Fatalf("Resolve() = %+v", got)
	}
}

func TestResolveNoMatchReturnsNil(t *testing.T) {
	defects := resolverFixtures()
	if got := Resolve(defects, "WO-900001"); got != nil {
		t.Fatalf("Resolve() = %+v, want nil", got)
	}
	if got := Resolve(defects, ""); got != nil {
		t.Fatalf("Resolve(\"\") = %+v, want nil", got)
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"def-7":    "DEF-7",
		"def0042":  "DEF-0042",
		"DEF_113":  "DEF-113",
		" def 9 ":  "DEF-9",
		"not code": "NOT CODE",
	}
	for in, want := range cases {
		if got := NormalizeCode(in); got != want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCode(t *testing.T) {
	if got := FormatCode(CodePrefix, 7); got != "DEF-000007" {
		t.Fatalf("FormatCode() = %q", got)
	}
}
