package storage_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/adapter/storage"
	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/core/service"
)

type testEnv struct {
	redis     *redis.Client
	mysql     *sqlx.DB
	allocator *service.SequenceAllocator
	lifecycle *service.LifecycleService
	cascade   *service.CascadeService
	approval  *service.ApprovalService
	ledger    *service.LedgerService
	cleanup   func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/inventory?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sqlx.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	require.NoError(t, storage.Migrate(context.Background(), db))

	logger := zap.NewNop()
	store := storage.NewMySQLAdapter(db)
	allocator := service.NewSequenceAllocator(store, logger)
	lifecycle := service.NewLifecycleService(store, allocator, logger, "ITG")

	return &testEnv{
		redis:     rdb,
		mysql:     db,
		allocator: allocator,
		lifecycle: lifecycle,
		cascade:   service.NewCascadeService(store, logger),
		approval:  service.NewApprovalService(store, storage.NewRedisAdapter(rdb, time.Minute), lifecycle, logger),
		ledger:    service.NewLedgerService(store),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func (e *testEnv) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.mysql.Get(&n, query, args...))
	return n
}

func TestIntegration_IssueReturnLedger(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()
	ctx := context.Background()

	created, err := env.lifecycle.CreateItem(ctx, service.CreateItemInput{
		Name:            "integration-laptop",
		InitialQuantity: 5,
		AssetCode:       "LAP",
		CreatedBy:       "Admin",
	})
	require.NoError(t, err)
	itemID := created.Item.ID

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.lifecycle.IssueItem(ctx, service.IssueInput{ItemID: itemID, IssuedTo: "Bob", IssuedBy: "Admin"})
			if err == nil {
				successCount.Add(1)
				return
			}
			if !errors.Is(err, domain.ErrAlreadyIssued) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), successCount.Load())

	_, err = env.lifecycle.ReturnItem(ctx, itemID, "Admin")
	require.NoError(t, err)

	entries, err := env.ledger.ListForItem(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Nil(t, domain.VerifyChain(entries))
	assert.Equal(t, 5, entries[2].NewQuantity)
}

func TestIntegration_ConcurrentSerials(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()
	ctx := context.Background()

	const callers = 50
	seen := make(chan int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := env.allocator.Next(ctx)
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
		unique[v] = true
	}
	assert.Len(t, unique, callers)
}

func TestIntegration_CascadeDelete(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()
	ctx := context.Background()

	created, err := env.lifecycle.CreateItem(ctx, service.CreateItemInput{
		UniqueID:        "ITG-" + uuid.NewString(),
		Name:            "integration-projector",
		InitialQuantity: 2,
		CreatedBy:       "Admin",
	})
	require.NoError(t, err)
	itemID := created.Item.ID

	req, err := env.approval.SubmitRequest(ctx, service.SubmitRequestInput{ItemID: itemID, RequestedBy: "Bob", Quantity: 1})
	require.NoError(t, err)
	_, err = env.approval.ApproveRequest(ctx, service.ApproveInput{RequestID: req.ID, ApprovedBy: "Admin"})
	require.NoError(t, err)

	_, err = env.cascade.DeleteItem(ctx, itemID)
	assert.ErrorIs(t, err, domain.ErrItemCurrentlyIssued)

	rr, err := env.approval.SubmitReturnRequest(ctx, itemID, &req.ID, "Bob")
	require.NoError(t, err)
	_, err = env.approval.ApproveReturnRequest(ctx, rr.ID, "Admin")
	require.NoError(t, err)

	res, err := env.cascade.DeleteItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TransactionsDeleted)

	assert.Zero(t, env.count(t, `SELECT COUNT(*) FROM inventory_items WHERE id = ?`, itemID))
	assert.Zero(t, env.count(t, `SELECT COUNT(*) FROM inventory_transactions WHERE inventory_item_id = ?`, itemID))
	assert.Zero(t, env.count(t, `SELECT COUNT(*) FROM requests WHERE item_id = ? OR assigned_item_id = ?`, itemID, itemID))
	assert.Zero(t, env.count(t, `SELECT COUNT(*) FROM return_requests WHERE item_id = ?`, itemID))
}
