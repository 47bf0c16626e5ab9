// Package sync drains the mutation outbox to the remote system of
// record. Entries are delivered in creation order, retried with
// exponential backoff, and dead-lettered after the retry bound.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/ports"
)

const (
	// maxAttempts is the retry bound: an entry that fails this many
	// deliveries is moved to the dead letter table.
	maxAttempts = 5

	defaultDeliveryTimeout = 10 * time.Second
)

// Report summarizes one flush pass.
type Report struct {
	// Delivered entries were acknowledged and removed.
	Delivered int `json:"delivered"`
	// Retried entries failed and were rescheduled with backoff.
	Retried int `json:"retried"`
	// Abandoned entries exhausted the retry bound and were dead-lettered.
	Abandoned int `json:"abandoned"`
	// Deferred entries were not yet due for their next attempt.
	Deferred int `json:"deferred"`
	// Remaining is the queue depth after the pass.
	Remaining int64 `json:"remaining"`
	// Skipped is set when another flush already held the lock.
	Skipped bool `json:"skipped"`
}

// Status is the sync-health snapshot.
type Status struct {
	Pending     int64              `json:"pending"`
	DeadLetters int64              `json:"dead_letters"`
	Recent      []ports.DeadLetter `json:"recent_dead_letters,omitempty"`
}

type Processor struct {
	outbox  ports.OutboxRepository
	gateway ports.RemoteGateway
	timeout time.Duration

	mu sync.Mutex

	// now is swapped in tests to drive the backoff schedule.
	now func() time.Time
}

func NewProcessor(outbox ports.OutboxRepository, gateway ports.RemoteGateway, timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Processor{
		outbox:  outbox,
		gateway: gateway,
		timeout: timeout,
		now:     time.Now,
	}
}

// Flush makes one delivery pass over the pending entries. Only one pass
// runs at a time; a concurrent call returns immediately with Skipped
// set. A local mutation is never rolled back here: delivery failures
// only reschedule or dead-letter the outbox entry.
func (p *Processor) Flush(ctx context.Context) (Report, error) {
	if !p.mu.TryLock() {
		return Report{Skipped: true}, nil
	}
	defer p.mu.Unlock()

	entries, err := p.outbox.ListPending(ctx)
	if err != nil {
		return Report{}, errs.Wrap(err, "list pending entries")
	}

	var report Report
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		if p.deferred(entry) {
			report.Deferred++
			continue
		}

		if err := p.deliver(ctx, entry); err != nil {
			logging.Warn(ctx, "outbox delivery failed",
				slog.String("entry_id", entry.ID),
				slog.String("kind", string(entry.Kind)),
				slog.Int("attempts", entry.Attempts+1),
				slog.Any("error", errs.Loggable(err)),
			)
			abandoned, err := p.recordFailure(ctx, entry, err)
			if err != nil {
				return report, err
			}
			if abandoned {
				report.Abandoned++
			} else {
				report.Retried++
			}
			continue
		}

		if err := p.outbox.Delete(ctx, entry.ID); err != nil {
			return report, errs.Wrap(err, "remove delivered entry")
		}
		report.Delivered++
	}

	remaining, err := p.outbox.Count(ctx)
	if err != nil {
		return report, errs.Wrap(err, "count remaining entries")
	}
	report.Remaining = remaining
	return report, nil
}

// Status reports queue depth and recent dead letters.
func (p *Processor) Status(ctx context.Context) (Status, error) {
	pending, err := p.outbox.Count(ctx)
	if err != nil {
		return Status{}, errs.Wrap(err, "count pending entries")
	}
	deadLetters, err := p.outbox.CountDeadLetters(ctx)
	if err != nil {
		return Status{}, errs.Wrap(err, "count dead letters")
	}
	recent, err := p.outbox.ListDeadLetters(ctx, 10)
	if err != nil {
		return Status{}, errs.Wrap(err, "list dead letters")
	}
	return Status{Pending: pending, DeadLetters: deadLetters, Recent: recent}, nil
}

func (p *Processor) deferred(entry ports.OutboxEntry) bool {
	if entry.NextAttemptAt == "" {
		return false
	}
	next, err := time.Parse(time.RFC3339, entry.NextAttemptAt)
	if err != nil {
		return false
	}
	return next.After(p.now().UTC())
}

func (p *Processor) deliver(ctx context.Context, entry ports.OutboxEntry) error {
	deliverCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	switch entry.Kind {
	case ports.MutationCreate:
		return p.gateway.CreateDefect(deliverCtx, entry.Payload)
	case ports.MutationUpdate:
		return p.gateway.UpdateDefect(deliverCtx, entry.Payload)
	case ports.MutationDelete:
		return p.gateway.DeleteDefect(deliverCtx, entry.Payload)
	case ports.MutationClose:
		return p.gateway.CloseDefect(deliverCtx, entry.Payload)
	case ports.MutationReopen:
		return p.gateway.ReopenDefect(deliverCtx, entry.Payload)
	}
	return fmt.Errorf("%w: unknown mutation kind %q", defect.ErrDeliveryFailed, entry.Kind)
}

// recordFailure reschedules the entry with exponential backoff, or
// dead-letters it when the retry bound is reached.
func (p *Processor) recordFailure(ctx context.Context, entry ports.OutboxEntry, cause error) (abandoned bool, err error) {
	entry.Attempts++

	if entry.Attempts >= maxAttempts {
		letter := ports.DeadLetter{
			ID:       uuid.NewString(),
			EntryID:  entry.ID,
			Kind:     entry.Kind,
			DefectID: entry.DefectID,
			Payload:  entry.Payload,
			Attempts: entry.Attempts,
			Reason:   fmt.Sprintf("%v: %v", defect.ErrDeliveryAbandoned, cause),
			FailedAt: p.now().UTC().Format(time.RFC3339Nano),
		}
		if err := p.outbox.AddDeadLetter(ctx, letter); err != nil {
			return false, errs.Wrap(err, "record dead letter")
		}
		if err := p.outbox.Delete(ctx, entry.ID); err != nil {
			return false, errs.Wrap(err, "remove abandoned entry")
		}
		return true, nil
	}

	entry.NextAttemptAt = p.now().UTC().Add(backoff(entry.Attempts)).Format(time.RFC3339Nano)
	if err := p.outbox.Update(ctx, entry); err != nil {
		return false, errs.Wrap(err, "reschedule entry")
	}
	return false, nil
}

// backoff doubles per failed attempt: 2s, 4s, 8s, 16s.
func backoff(attempts int) time.Duration {
	return time.Duration(1<<attempts) * time.Second
}
