package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/rl1809/asset-ledger/internal/adapter/storage"
	"github.com/rl1809/asset-ledger/internal/config"
	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/core/service"
	"github.com/rl1809/asset-ledger/internal/port"
)

const (
	allocations  = 500
	issueCallers = 50
	initialStock = 20
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var store port.Store
	if cfg.StoreBackend == config.BackendMySQL {
		db, err := sqlx.ConnectContext(ctx, "mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}
		defer db.Close()
		if err := storage.Migrate(ctx, db); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		store = storage.NewMySQLAdapter(db)
	} else {
		store = storage.NewMemoryAdapter()
	}

	logger := zap.NewNop()
	allocator := service.NewSequenceAllocator(store, logger)
	lifecycle := service.NewLifecycleService(store, allocator, logger, cfg.UniqueIDPrefix)

	passed := checkSerials(ctx, allocator)
	passed = checkIssue(ctx, lifecycle) && passed

	if passed {
		fmt.Println("ALL CHECKS PASSED")
	} else {
		log.Fatal("stress test failed")
	}
}

// checkSerials allocates concurrently and expects no duplicates and no holes.
func checkSerials(ctx context.Context, allocator *service.SequenceAllocator) bool {
	values := make([]int64, allocations)
	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < allocations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := allocator.Next(ctx)
			if err != nil {
				failCount.Add(1)
				return
			}
			values[i] = v
		}(i)
	}
	wg.Wait()

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	duplicates, holes := 0, 0
	for i := 1; i < len(values); i++ {
		switch d := values[i] - values[i-1]; {
		case d == 0:
			duplicates++
		case d > 1:
			holes++
		}
	}

	fmt.Println("========== SEQUENCE ALLOCATION ==========")
	fmt.Printf("Allocations:      %d\n", allocations)
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Range:            %d..%d\n", values[0], values[len(values)-1])
	fmt.Printf("Duplicates:       %d\n", duplicates)
	fmt.Printf("Holes:            %d\n", holes)
	fmt.Printf("Duration:         %v\n", time.Since(start))
	fmt.Println("==========================================")

	ok := failCount.Load() == 0 && duplicates == 0 && holes == 0
	if ok {
		fmt.Println("PASS: serials are unique and contiguous")
	} else {
		fmt.Println("FAIL: serial allocation is not unique and contiguous")
	}
	return ok
}

// checkIssue races callers on one item. Exactly one may win, the rest see ErrAlreadyIssued.
func checkIssue(ctx context.Context, lifecycle *service.LifecycleService) bool {
	created, err := lifecycle.CreateItem(ctx, service.CreateItemInput{
		Name:            "stress-item",
		InitialQuantity: initialStock,
		CreatedBy:       "stress",
	})
	if err != nil {
		log.Fatalf("failed to create item: %v", err)
	}
	itemID := created.Item.ID

	var successCount, rejectedCount, failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < issueCallers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := lifecycle.IssueItem(ctx, service.IssueInput{
				ItemID:   itemID,
				IssuedTo: fmt.Sprintf("user-%d", n),
				IssuedBy: "stress",
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrAlreadyIssued), errors.Is(err, domain.ErrConcurrentUpdate):
				rejectedCount.Add(1)
			default:
				failCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	item, err := lifecycle.GetItem(ctx, itemID)
	if err != nil {
		log.Fatalf("failed to reload item: %v", err)
	}

	fmt.Println("============ CONCURRENT ISSUE ============")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Callers:          %d\n", issueCallers)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Rejected:         %d\n", rejectedCount.Load())
	fmt.Printf("Errors:           %d\n", failCount.Load())
	fmt.Printf("Final Stock:      %d\n", item.BalanceQuantityInStock)
	fmt.Printf("Duration:         %v\n", time.Since(start))
	fmt.Println("==========================================")

	ok := successCount.Load() == 1 && failCount.Load() == 0 && item.BalanceQuantityInStock == initialStock-1
	if ok {
		fmt.Println("PASS: exactly one issue succeeded")
	} else {
		fmt.Println("FAIL: expected exactly one successful issue")
	}
	return ok
}
