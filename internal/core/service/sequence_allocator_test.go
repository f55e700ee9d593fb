package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/adapter/storage"
	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

func TestNext_ConcurrentUniqueAndContiguous(t *testing.T) {
	mem := storage.NewMemoryAdapter()
	allocator := NewSequenceAllocator(mem, zap.NewNop())

	const callers = 200
	values := make([]int64, callers)
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := allocator.Next(context.Background())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			values[i] = v
		}(i)
	}
	wg.Wait()

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i+1), v, "serials must be contiguous without duplicates")
	}
}

func TestPeek_DoesNotIncrement(t *testing.T) {
	mem := storage.NewMemoryAdapter()
	allocator := NewSequenceAllocator(mem, zap.NewNop())
	ctx := context.Background()

	_, err := allocator.Next(ctx)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, err := allocator.Peek(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	}

	v, err := allocator.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestNext_ResyncsWithLegacyItems(t *testing.T) {
	mem := storage.NewMemoryAdapter()
	ctx := context.Background()

	// items written before the counter existed
	err := mem.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		for _, uid := range []string{"INV/--/---/--/001", "INV/--/---/--/002", "INV/--/---/--/003"} {
			item := &domain.InventoryItem{ID: uid, UniqueID: uid, Status: domain.ItemStatusAvailable}
			if err := tx.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	allocator := NewSequenceAllocator(mem, zap.NewNop())
	v, err := allocator.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

func TestNext_ConcurrentResyncNeverDuplicates(t *testing.T) {
	mem := storage.NewMemoryAdapter()
	ctx := context.Background()

	err := mem.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		for i := 0; i < 5; i++ {
			uid := domain.FormatUniqueID(domain.UniqueIDParts{Prefix: "INV"}, int64(i+1))
			if err := tx.InsertItem(ctx, &domain.InventoryItem{ID: uid, UniqueID: uid, Status: domain.ItemStatusAvailable}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	// one allocator per simulated instance, all racing on a zero counter
	const instances = 20
	seen := make(chan int64, instances)
	var wg sync.WaitGroup
	for i := 0; i < instances; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := NewSequenceAllocator(mem, zap.NewNop()).Next(ctx)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			seen <- v
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		assert.False(t, unique[v], "duplicate serial %d", v)
		assert.Greater(t, v, int64(5))
		unique[v] = true
	}
	assert.Len(t, unique, instances)
}

type failingSequence struct {
	port.SequenceRepository
}

func (failingSequence) ResyncSequence(ctx context.Context) (int64, bool, error) {
	return 0, false, errors.New("connection refused")
}

func TestNext_ResyncFailure(t *testing.T) {
	allocator := NewSequenceAllocator(failingSequence{SequenceRepository: storage.NewMemoryAdapter()}, zap.NewNop())

	_, err := allocator.Next(context.Background())
	assert.Error(t, err)
}
