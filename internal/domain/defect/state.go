package defect

import "fmt"

type Status string

const (
	StatusDraft        Status = "draft"
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
	StatusInProgress   Status = "in_progress"
	StatusDeferred     Status = "deferred"
	StatusClosed       Status = "closed"
)

func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	switch status {
	case StatusDraft, StatusOpen, StatusAcknowledged, StatusInProgress, StatusDeferred, StatusClosed:
		return status, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidationFailed, raw)
}

// allowedTransitions is the full status graph. Entering closed and
// leaving closed are listed here but only reachable through the Close
// and Reopen operations; a plain update must not cross them.
var allowedTransitions = map[Status][]Status{
	StatusDraft:        {StatusOpen},
	StatusOpen:         {StatusAcknowledged, StatusInProgress, StatusDeferred, StatusClosed},
	StatusAcknowledged: {StatusInProgress, StatusDeferred, StatusClosed},
	StatusInProgress:   {StatusDeferred, StatusClosed},
	StatusDeferred:     {StatusAcknowledged, StatusInProgress, StatusClosed},
	StatusClosed:       {StatusOpen},
}

// CanTransition reports whether from -> to is an edge of the status graph.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanUpdateTransition is CanTransition restricted to plain updates:
// closing and reopening have their own gated operations.
func CanUpdateTransition(from, to Status) bool {
	if from == StatusClosed && to != StatusClosed {
		return false
	}
	if to == StatusClosed && from != StatusClosed {
		return false
	}
	return CanTransition(from, to)
}
