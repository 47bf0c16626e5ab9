package defect

import (
	"context"
	"sync"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/ports"
)

// CodeGenerator hands out gapless-per-process, strictly increasing code
// sequence values. The read-increment-write runs inside one transaction
// and a per-sequence mutex serializes concurrent callers, so two raises
// can never observe the same value. A consumed value is never reused,
// even when the mutation that requested it fails afterwards.
type CodeGenerator struct {
	seq ports.SequenceRepository
	uow ports.UnitOfWork

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCodeGenerator(seq ports.SequenceRepository, uow ports.UnitOfWork) *CodeGenerator {
	return &CodeGenerator{
		seq:   seq,
		uow:   uow,
		locks: make(map[string]*sync.Mutex),
	}
}

// NextCode increments the named sequence and returns the formatted code,
// for example "DEF-000042".
func (g *CodeGenerator) NextCode(ctx context.Context, sequence string, prefix string) (string, error) {
	value, err := g.NextValue(ctx, sequence)
	if err != nil {
		return "", err
	}
	return defect.FormatCode(prefix, value), nil
}

// NextValue increments the named sequence and returns the new value. The
// first call on a fresh store returns 1.
func (g *CodeGenerator) NextValue(ctx context.Context, sequence string) (uint64, error) {
	lock := g.sequenceLock(sequence)
	lock.Lock()
	defer lock.Unlock()

	var next uint64
	err := g.uow.WithTx(ctx, func(ctx context.Context) error {
		current, err := g.seq.Value(ctx, sequence)
		if err != nil {
			return errs.Wrapf(err, "read sequence %s", sequence)
		}
		next = current + 1
		if err := g.seq.Save(ctx, sequence, next); err != nil {
			return errs.Wrapf(err, "save sequence %s", sequence)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (g *CodeGenerator) sequenceLock(sequence string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	lock, ok := g.locks[sequence]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[sequence] = lock
	}
	return lock
}
