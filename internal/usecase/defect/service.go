// Package defect implements the defect lifecycle use cases: raising,
// updating, closing and reopening records, querying them, and staging
// every successful mutation on the outbox inside the same transaction.
package defect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/ports"
)

const codeSequence = "defect_code"

// Actor identifies who performs an operation. Role decides whether the
// operation is permitted at all.
type Actor struct {
	ID   string
	Name string
	Role defect.Role
}

type Service struct {
	repo     ports.DefectRepository
	settings ports.SettingsRepository
	outbox   ports.OutboxRepository
	uow      ports.UnitOfWork
	cache    ports.Cache
	codes    *CodeGenerator
	roles    defect.RoleTable
}

func NewService(
	repo ports.DefectRepository,
	settings ports.SettingsRepository,
	outbox ports.OutboxRepository,
	uow ports.UnitOfWork,
	cache ports.Cache,
	codes *CodeGenerator,
	roles defect.RoleTable,
) *Service {
	if roles == nil {
		roles = defect.DefaultRoleTable()
	}
	return &Service{
		repo:     repo,
		settings: settings,
		outbox:   outbox,
		uow:      uow,
		cache:    cache,
		codes:    codes,
		roles:    roles,
	}
}

// Get returns one record by its immutable id.
func (s *Service) Get(ctx context.Context, id string) (defect.Defect, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode looks a record up by its human-readable code. The code is
// normalized first so "def0042" finds "DEF-0042".
func (s *Service) GetByCode(ctx context.Context, code string) (defect.Defect, error) {
	return s.repo.GetByCode(ctx, defect.NormalizeCode(code))
}

// List returns every record in creation order.
func (s *Service) List(ctx context.Context) ([]defect.Defect, error) {
	return s.repo.List(ctx)
}

// Status answers the hot "where does this defect stand" question from
// the status cache, falling back to the store and backfilling the cache
// on a miss. Cache read errors degrade to the store path.
func (s *Service) Status(ctx context.Context, id string) (defect.Status, error) {
	if s.cache != nil {
		value, found, err := s.cache.Get(ctx, statusCacheKey(id))
		if err != nil {
			logging.Warn(ctx, "read defect status cache", slog.String("defect_id", id), slog.Any("error", errs.Loggable(err)))
		} else if found {
			return defect.Status(value), nil
		}
	}

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	s.cacheStatus(ctx, d)
	return d.Status, nil
}

// loadSettings falls back to the built-in defaults when the singleton
// row has not been initialized yet.
func (s *Service) loadSettings(ctx context.Context) (defect.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, defect.ErrNotFound) {
			return defect.DefaultSettings(), nil
		}
		return defect.Settings{}, errs.Wrap(err, "load settings")
	}
	return settings, nil
}

// appendOutbox stages a mutation for delivery. Must run inside the same
// transaction as the mutation it mirrors.
func (s *Service) appendOutbox(ctx context.Context, kind ports.MutationKind, defectID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "marshal outbox payload")
	}
	now := nowUTC()
	return s.outbox.Append(ctx, ports.OutboxEntry{
		ID:            uuid.NewString(),
		Kind:          kind,
		DefectID:      defectID,
		Payload:       raw,
		NextAttemptAt: now,
		CreatedAt:     now,
	})
}

// cacheStatus is best effort: a cache failure never fails the mutation.
func (s *Service) cacheStatus(ctx context.Context, d defect.Defect) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, statusCacheKey(d.ID), string(d.Status), 0); err != nil {
		logging.Warn(ctx, "cache defect status", slog.String("defect_id", d.ID), slog.Any("error", errs.Loggable(err)))
	}
}

func (s *Service) dropStatusCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statusCacheKey(id)); err != nil {
		logging.Warn(ctx, "drop defect status cache", slog.String("defect_id", id), slog.Any("error", errs.Loggable(err)))
	}
}

func statusCacheKey(id string) string { return "defect_status:" + id }

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func historyEntry(kind defect.HistoryKind, summary string, actor Actor) defect.HistoryEntry {
	return defect.HistoryEntry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Summary:   summary,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: nowUTC(),
	}
}

func stamp(d *defect.Defect, actor Actor) {
	d.UpdatedAt = nowUTC()
	d.UpdatedByID = actor.ID
	d.UpdatedByName = actor.Name
}
