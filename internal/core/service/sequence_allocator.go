package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/port"
)

// SequenceAllocator hands out serials from the shared counter row. It keeps no
// counter state of its own so any number of service instances can share it.
type SequenceAllocator struct {
	repo   port.SequenceRepository
	logger *zap.Logger

	synced atomic.Bool
	mu     sync.Mutex
}

func NewSequenceAllocator(repo port.SequenceRepository, logger *zap.Logger) *SequenceAllocator {
	return &SequenceAllocator{repo: repo, logger: logger}
}

func (a *SequenceAllocator) Next(ctx context.Context) (int64, error) {
	if err := a.ensureSynced(ctx); err != nil {
		return 0, err
	}

	v, err := a.repo.NextSequence(ctx)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return v, nil
}

func (a *SequenceAllocator) Peek(ctx context.Context) (int64, error) {
	if err := a.ensureSynced(ctx); err != nil {
		return 0, err
	}

	v, err := a.repo.PeekSequence(ctx)
	if err != nil {
		return 0, fmt.Errorf("peek sequence: %w", err)
	}
	return v, nil
}

// ensureSynced lifts a zero counter past items created before the counter existed.
// The repository does it as one conditional statement, so concurrent instances are safe.
func (a *SequenceAllocator) ensureSynced(ctx context.Context) error {
	if a.synced.Load() {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.synced.Load() {
		return nil
	}

	value, moved, err := a.repo.ResyncSequence(ctx)
	if err != nil {
		return fmt.Errorf("resync sequence: %w", err)
	}
	if moved {
		a.logger.Info("sequence counter resynchronized with legacy items",
			zap.Int64("sequence_value", value))
	}

	a.synced.Store(true)
	return nil
}
