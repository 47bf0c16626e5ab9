package ports

import (
	"context"

	"faultline/internal/domain/defect"
)

// MutationKind tags an outbox entry with the repository operation that
// produced it. The flush routine dispatches on it; each kind maps to one
// RemoteGateway call.
type MutationKind string

const (
	MutationCreate MutationKind = "create_defect"
	MutationUpdate MutationKind = "update_defect"
	MutationDelete MutationKind = "delete_defect"
	MutationClose  MutationKind = "close_defect"
	MutationReopen MutationKind = "reopen_defect"
)

// OutboxEntry is one durable not-yet-delivered mutation. Entries are
// appended in the same transaction as the local mutation and drained in
// creation order.
type OutboxEntry struct {
	ID            string
	Kind          MutationKind
	DefectID      string
	Payload       []byte
	Attempts      int
	NextAttemptAt string
	CreatedAt     string
}

// DeadLetter records an entry dropped after exhausting the retry bound,
// kept for sync-health auditing.
type DeadLetter struct {
	ID       string
	EntryID  string
	Kind     MutationKind
	DefectID string
	Payload  []byte
	Attempts int
	Reason   string
	FailedAt string
}

type OutboxRepository interface {
	Append(ctx context.Context, entry OutboxEntry) error
	// ListPending returns all entries in creation order.
	ListPending(ctx context.Context) ([]OutboxEntry, error)
	Update(ctx context.Context, entry OutboxEntry) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	AddDeadLetter(ctx context.Context, letter DeadLetter) error
	ListDeadLetters(ctx context.Context, limit int) ([]DeadLetter, error)
	CountDeadLetters(ctx context.Context) (int64, error)
}

// Outbox payloads: one typed variant per mutation kind. The remote
// collaborator receives the JSON encoding of these structs.

type CreateDefectPayload struct {
	Defect defect.Defect `json:"defect"`
}

type UpdateDefectPayload struct {
	DefectID string        `json:"defect_id"`
	Defect   defect.Defect `json:"defect"`
}

type DeleteDefectPayload struct {
	DefectID string `json:"defect_id"`
}

type CloseDefectPayload struct {
	DefectID   string `json:"defect_id"`
	Resolution string `json:"resolution"`
	ClosedAt   string `json:"closed_at"`
}

type ReopenDefectPayload struct {
	DefectID             string `json:"defect_id"`
	Mode                 string `json:"mode"`
	NewOccurrenceID      string `json:"new_occurrence_id,omitempty"`
	NewOccurrenceCode    string `json:"new_occurrence_code,omitempty"`
	PreviousOccurrenceID string `json:"previous_occurrence_id,omitempty"`
}
