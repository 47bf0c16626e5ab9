package defect

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("defect not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDeliveryFailed marks a transient remote delivery failure; the
	// entry stays queued and is retried with backoff.
	ErrDeliveryFailed = errors.New("remote delivery failed")

	// ErrDeliveryAbandoned marks an entry dropped after exhausting the
	// retry bound. It is surfaced through sync health, never thrown at
	// the caller whose local mutation already succeeded.
	ErrDeliveryAbandoned = errors.New("remote delivery abandoned")
)

// ValidationError carries the individual reasons a validation check
// failed. errors.Is(err, ErrValidationFailed) holds for every instance.
type ValidationError struct {
	Reasons []string
}

func NewValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Reasons, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
