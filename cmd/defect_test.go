package cmd

import "testing"

func TestListFlagsCoverEveryFilter(t *testing.T) {
	names := []string{
		"status", "severity", "site", "asset", "location", "assignee",
		"compliance-tag", "overdue", "unsafe", "unassigned", "search",
	}
	for _, name := range names {
		if defectListCmd.Flags().Lookup(name) == nil {
			t.Fatalf("list is missing the --%s flag", name)
		}
	}
}
