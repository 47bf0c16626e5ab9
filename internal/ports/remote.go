package ports

import "context"

// RemoteGateway is the system of record that eventually receives queued
// mutations, one call per mutation kind. Implementations must respect
// ctx deadlines; any returned error is treated as a transient delivery
// failure and retried by the sync processor.
type RemoteGateway interface {
	CreateDefect(ctx context.Context, payload []byte) error
	UpdateDefect(ctx context.Context, payload []byte) error
	DeleteDefect(ctx context.Context, payload []byte) error
	CloseDefect(ctx context.Context, payload []byte) error
	ReopenDefect(ctx context.Context, payload []byte) error
}
