package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/adapter/storage"
	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

var errInjected = errors.New("injected storage failure")

type testEnv struct {
	store     port.Store
	memory    *storage.MemoryAdapter
	cache     *storage.MemoryCache
	allocator *SequenceAllocator
	lifecycle *LifecycleService
	ledger    *LedgerService
	cascade   *CascadeService
	occupancy *OccupancyService
	approval  *ApprovalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := storage.NewMemoryAdapter()
	return newTestEnvWithStore(t, mem, mem)
}

func newTestEnvWithStore(t *testing.T, store port.Store, mem *storage.MemoryAdapter) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	cache := storage.NewMemoryCache(0)
	allocator := NewSequenceAllocator(store, logger)
	lifecycle := NewLifecycleService(store, allocator, logger, "INV")

	return &testEnv{
		store:     store,
		memory:    mem,
		cache:     cache,
		allocator: allocator,
		lifecycle: lifecycle,
		ledger:    NewLedgerService(store),
		cascade:   NewCascadeService(store, logger),
		occupancy: NewOccupancyService(store, logger),
		approval:  NewApprovalService(store, cache, lifecycle, logger),
	}
}

func (e *testEnv) createItem(t *testing.T, quantity int) *domain.InventoryItem {
	t.Helper()
	m, err := e.lifecycle.CreateItem(context.Background(), CreateItemInput{
		Name:              "Laptop",
		InitialQuantity:   quantity,
		MinimumStockLevel: 2,
		UnitPrice:         decimal.NewFromInt(100),
		AssetCode:         "LAP",
		CreatedBy:         "Admin",
	})
	require.NoError(t, err)
	return m.Item
}

func (e *testEnv) createLocation(t *testing.T, code string, capacity int, isDefault bool) *domain.Location {
	t.Helper()
	loc, err := e.occupancy.CreateLocation(context.Background(), CreateLocationInput{
		Name:      code + " store",
		Code:      code,
		Capacity:  capacity,
		IsActive:  true,
		IsDefault: isDefault,
	})
	require.NoError(t, err)
	return loc
}

// faultyStore injects a failure into one repository call inside every transaction.
type faultyStore struct {
	port.Store
	failOn string
}

func (f *faultyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.TxRepository) error) error {
	return f.Store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		return fn(ctx, &faultyTx{TxRepository: tx, failOn: f.failOn})
	})
}

type faultyTx struct {
	port.TxRepository
	failOn string
}

func (f *faultyTx) AppendTransaction(ctx context.Context, t *domain.InventoryTransaction) error {
	if f.failOn == "AppendTransaction" {
		return errInjected
	}
	return f.TxRepository.AppendTransaction(ctx, t)
}

func (f *faultyTx) DeleteReturnRequestsByItem(ctx context.Context, itemID string) (int64, error) {
	if f.failOn == "DeleteReturnRequestsByItem" {
		return 0, errInjected
	}
	return f.TxRepository.DeleteReturnRequestsByItem(ctx, itemID)
}

func (f *faultyTx) DeleteItem(ctx context.Context, id string) error {
	if f.failOn == "DeleteItem" {
		return errInjected
	}
	return f.TxRepository.DeleteItem(ctx, id)
}

func (f *faultyTx) UpdateRequest(ctx context.Context, r *domain.Request) error {
	if f.failOn == "UpdateRequest" {
		return errInjected
	}
	return f.TxRepository.UpdateRequest(ctx, r)
}
