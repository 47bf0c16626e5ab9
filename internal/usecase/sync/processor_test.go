package sync

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"faultline/internal/domain/defect"
	"faultline/internal/infrastructure/persistence/sqlite/model"
	"faultline/internal/infrastructure/persistence/sqlite/repository"
	"faultline/internal/ports"
)

type fakeGateway struct {
	mu       sync.Mutex
	calls    []string
	failures int
}

func (g *fakeGateway) record(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, op)
	if g.failures != 0 {
		if g.failures > 0 {
			g.failures--
		}
		return defect.ErrDeliveryFailed
	}
	return nil
}

func (g *fakeGateway) CreateDefect(_ context.Context, _ []byte) error { return g.record("create") }
func (g *fakeGateway) UpdateDefect(_ context.Context, _ []byte) error { return g.record("update") }
func (g *fakeGateway) DeleteDefect(_ context.Context, _ []byte) error { return g.record("delete") }
func (g *fakeGateway) CloseDefect(_ context.Context, _ []byte) error  { return g.record("close") }
func (g *fakeGateway) ReopenDefect(_ context.Context, _ []byte) error { return g.record("reopen") }

func setupProcessor(t *testing.T, gateway ports.RemoteGateway) (*Processor, ports.OutboxRepository) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "sync.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.OutboxEntry{}, &model.DeadLetter{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	outbox := repository.NewOutboxRepository(db)
	return NewProcessor(outbox, gateway, time.Second), outbox
}

func appendEntry(t *testing.T, outbox ports.OutboxRepository, id string, kind ports.MutationKind, at time.Time) {
	t.Helper()
	stamp := at.Format(time.RFC3339Nano)
	err := outbox.Append(context.Background(), ports.OutboxEntry{
		ID:            id,
		Kind:          kind,
		DefectID:      "d1",
		Payload:       []byte(`{}`),
		NextAttemptAt: stamp,
		CreatedAt:     stamp,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestFlushDeliversInCreationOrder(t *testing.T) {
	gateway := &fakeGateway{}
	processor, outbox := setupProcessor(t, gateway)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	appendEntry(t, outbox, "e1", ports.MutationCreate, base)
	appendEntry(t, outbox, "e2", ports.MutationUpdate, base.Add(time.Second))
	appendEntry(t, outbox, "e3", ports.MutationClose, base.Add(2*time.Second))

	report, err := processor.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if report.Delivered != 3 || report.Remaining != 0 || report.Retried != 0 {
		t.Fatalf("Flush() = %+v", report)
	}
	want := []string{"create", "update", "close"}
	if len(gateway.calls) != len(want) {
		t.Fatalf("calls = %v", gateway.calls)
	}
	for i, op := range want {
		if gateway.calls[i] != op {
			t.Fatalf("calls = %v, want %v", gateway.calls, want)
		}
	}
}

func TestFlushRetriesWithBackoffThenAbandons(t *testing.T) {
	gateway := &fakeGateway{failures: -1}
	processor, outbox := setupProcessor(t, gateway)
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	processor.now = func() time.Time { return clock }

	appendEntry(t, outbox, "e1", ports.MutationCreate, clock.Add(-time.Minute))

	var schedule []time.Time
	for pass := 0; pass < 4; pass++ {
		report, err := processor.Flush(ctx)
		if err != nil {
			t.Fatalf("Flush() pass %d error = %v", pass, err)
		}
		if report.Retried != 1 || report.Abandoned != 0 {
			t.Fatalf("Flush() pass %d = %+v", pass, report)
		}

		entries, err := outbox.ListPending(ctx)
		if err != nil {
			t.Fatalf("ListPending() error = %v", err)
		}
		next, err := time.Parse(time.RFC3339Nano, entries[0].NextAttemptAt)
		if err != nil {
			t.Fatalf("parse NextAttemptAt: %v", err)
		}
		schedule = append(schedule, next)

		// An early re-flush finds the entry deferred, not retried.
		report, err = processor.Flush(ctx)
		if err != nil {
			t.Fatalf("early Flush() error = %v", err)
		}
		if report.Deferred != 1 || report.Retried != 0 {
			t.Fatalf("early Flush() = %+v", report)
		}

		clock = next.Add(time.Millisecond)
	}

	for i := 1; i < len(schedule); i++ {
		if !schedule[i].After(schedule[i-1]) {
			t.Fatalf("backoff schedule not increasing: %v", schedule)
		}
	}

	report, err := processor.Flush(ctx)
	if err != nil {
		t.Fatalf("final Flush() error = %v", err)
	}
	if report.Abandoned != 1 || report.Remaining != 0 {
		t.Fatalf("final Flush() = %+v", report)
	}
	if got := len(gateway.calls); got != maxAttempts {
		t.Fatalf("delivery attempts = %d, want %d", got, maxAttempts)
	}

	status, err := processor.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Pending != 0 || status.DeadLetters != 1 {
		t.Fatalf("Status() = %+v", status)
	}
	if status.Recent[0].Attempts != maxAttempts || status.Recent[0].EntryID != "e1" {
		t.Fatalf("dead letter = %+v", status.Recent[0])
	}
}

func TestFlushDeliversAfterTransientFailures(t *testing.T) {
	gateway := &fakeGateway{failures: 2}
	processor, outbox := setupProcessor(t, gateway)
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	processor.now = func() time.Time { return clock }

	appendEntry(t, outbox, "e1", ports.MutationUpdate, clock.Add(-time.Minute))

	for pass := 0; pass < 2; pass++ {
		report, err := processor.Flush(ctx)
		if err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
		if report.Retried != 1 {
			t.Fatalf("Flush() pass %d = %+v", pass, report)
		}
		clock = clock.Add(time.Minute)
	}

	report, err := processor.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if report.Delivered != 1 || report.Remaining != 0 {
		t.Fatalf("Flush() = %+v", report)
	}

	status, err := processor.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.DeadLetters != 0 {
		t.Fatalf("Status() = %+v", status)
	}
}

func TestFlushSkipsWhenAlreadyRunning(t *testing.T) {
	processor, _ := setupProcessor(t, &fakeGateway{})

	processor.mu.Lock()
	report, err := processor.Flush(context.Background())
	processor.mu.Unlock()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !report.Skipped {
		t.Fatalf("Flush() = %+v, want Skipped", report)
	}
}

func TestDeliverRejectsUnknownKind(t *testing.T) {
	processor, outbox := setupProcessor(t, &fakeGateway{})
	ctx := context.Background()

	appendEntry(t, outbox, "e1", ports.MutationKind("explode_defect"), time.Now().UTC().Add(-time.Minute))

	report, err := processor.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if report.Retried != 1 || report.Delivered != 0 {
		t.Fatalf("Flush() = %+v", report)
	}

	entries, err := outbox.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if entries[0].Attempts != 1 {
		t.Fatalf("entry = %+v", entries[0])
	}
}
