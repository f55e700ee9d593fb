package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/asset-ledger/internal/adapter/handler"
	"github.com/rl1809/asset-ledger/internal/adapter/storage"
	"github.com/rl1809/asset-ledger/internal/config"
	"github.com/rl1809/asset-ledger/internal/core/service"
	"github.com/rl1809/asset-ledger/internal/logger"
	"github.com/rl1809/asset-ledger/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	var store port.Store
	var db *sqlx.DB
	switch cfg.StoreBackend {
	case config.BackendMySQL:
		db, err = sqlx.ConnectContext(ctx, "mysql", cfg.MySQLDSN)
		if err != nil {
			zl.Fatal("failed to connect mysql", zap.Error(err))
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := storage.Migrate(ctx, db); err != nil {
			zl.Fatal("failed to migrate schema", zap.Error(err))
		}
		store = storage.NewMySQLAdapter(db)
		zl.Info("connected to mysql")
	default:
		store = storage.NewMemoryAdapter()
		zl.Warn("using in-memory store, data is lost on exit")
	}

	// Initialize Redis
	var cache port.CacheRepository
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Fatal("failed to connect redis", zap.Error(err))
		}
		cache = storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL)
		zl.Info("connected to redis")
	} else {
		cache = storage.NewMemoryCache(cfg.IdempotencyTTL)
	}

	// Initialize services
	allocator := service.NewSequenceAllocator(store, zl)
	lifecycle := service.NewLifecycleService(store, allocator, zl, cfg.UniqueIDPrefix)
	svc := handler.Services{
		Lifecycle: lifecycle,
		Ledger:    service.NewLedgerService(store),
		Cascade:   service.NewCascadeService(store, zl),
		Occupancy: service.NewOccupancyService(store, zl),
		Approval:  service.NewApprovalService(store, cache, lifecycle, zl),
	}

	// Resync the counter before serving so the first create does not pay for it
	if _, err := allocator.Peek(ctx); err != nil {
		zl.Fatal("failed to sync sequence counter", zap.Error(err))
	}

	// Initialize gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLogger(zl)))
	handler.RegisterInventoryServer(grpcServer, handler.NewGRPCHandler(svc, zl))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		zl.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		zl.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			zl.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger(zl))
	handler.NewHTTPHandler(svc, zl, cfg.RequestTimeout).Register(router)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		zl.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			zl.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP shutdown error", zap.Error(err))
	}
	zl.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	zl.Info("gRPC server stopped")

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	zl.Info("connections closed")
}
