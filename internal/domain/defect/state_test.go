package defect

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("in_progress")
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if status != StatusInProgress {
		t.Fatalf("ParseStatus() = %q", status)
	}

	_, err = ParseStatus("resolved")
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("ParseStatus() error = %v, want ErrValidationFailed", err)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusOpen, true},
		{StatusOpen, StatusAcknowledged, true},
		{StatusAcknowledged, StatusInProgress, true},
		{StatusInProgress, StatusDeferred, true},
		{StatusDeferred, StatusInProgress, true},
		{StatusInProgress, StatusClosed, true},
		{StatusClosed, StatusOpen, true},
		{StatusDraft, StatusClosed, false},
		{StatusClosed, StatusInProgress, false},
		{StatusOpen, StatusDraft, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanUpdateTransitionExcludesCloseAndReopen(t *testing.T) {
	if CanUpdateTransition(StatusInProgress, StatusClosed) {
		t.Fatalf("plain update must not close a defect")
	}
	if CanUpdateTransition(StatusClosed, StatusOpen) {
		t.Fatalf("plain update must not reopen a defect")
	}
	if !CanUpdateTransition(StatusOpen, StatusInProgress) {
		t.Fatalf("open -> in_progress should be allowed for updates")
	}
}
