package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/bank-ledger/internal/config"
	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/handler"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/middleware"
	"github.com/josh-kwaku/bank-ledger/internal/notify"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
	"github.com/josh-kwaku/bank-ledger/internal/repository/memory"
	"github.com/josh-kwaku/bank-ledger/internal/service"
	"github.com/josh-kwaku/bank-ledger/internal/service/engine"
	"github.com/josh-kwaku/bank-ledger/internal/service/report"
	"github.com/josh-kwaku/bank-ledger/migrations"
)

const serviceName = "bank-ledger"

type ledgerStore interface {
	Begin(ctx context.Context) (repository.Tx, error)
	GetAccount(ctx context.Context, number string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetEntry(ctx context.Context, id int64) (*domain.Transaction, error)
	ListEntries(ctx context.Context, number string, f repository.EntryFilter) ([]domain.Transaction, error)
	LoanEntries(ctx context.Context, number string) ([]domain.Transaction, error)
	PingContext(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init(serviceName, cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	sink, closeSink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to set up notification sink", "error", err)
		os.Exit(1)
	}
	defer closeSink()

	dispatcher := notify.NewDispatcher(sink, cfg.NotifyBuffer, cfg.NotifyTimeout, logger)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	go dispatcher.Start(dispatchCtx)

	eng := engine.New(store, dispatcher, engine.Config{
		MaxRetries:     cfg.ConflictMaxRetries,
		InitialBackoff: cfg.ConflictBackoffInitial,
		MaxBackoff:     cfg.ConflictBackoffMax,
	})
	accounts := service.NewAccountService(store)
	reports := report.NewService(store)

	mux := http.NewServeMux()
	handler.Routes{
		Health:       handler.NewHealthHandler(store),
		Accounts:     handler.NewAccountHandler(accounts),
		Transactions: handler.NewTransactionHandler(accounts, eng),
		Transfers:    handler.NewTransferHandler(accounts, eng),
		Loans:        handler.NewLoanHandler(accounts, eng),
		Reports:      handler.NewReportHandler(accounts, reports),
		Auth:         middleware.Auth(cfg.JWTSecret),
		Admin:        middleware.RequireAdmin,
	}.Register(mux)

	var h http.Handler = mux
	h = middleware.Logging(h)
	h = middleware.Tracing(h)
	h = middleware.Recovery(h)
	h = otelhttp.NewHandler(h, serviceName)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Requests are finished, so nothing new can be queued; flush what is left.
	stopDispatch()
	select {
	case <-dispatcher.Done():
	case <-shutdownCtx.Done():
		slog.Warn("notification queue not drained before shutdown deadline")
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (ledgerStore, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		slog.Warn("using in-memory storage; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("openStore: %w", err)
		}
		slog.Info("database migrations applied")
	}

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("openStore: %w", err)
	}

	return repository.NewStore(db), func() { db.Close() }, nil
}

// buildSink pushes notifications to Redis behind a circuit breaker when
// REDIS_URL is set, and only logs them otherwise.
func buildSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Sink, func(), error) {
	if cfg.RedisURL == "" {
		return notify.NewLogSink(logger), func() {}, nil
	}

	client, err := notify.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("buildSink: %w", err)
	}

	sink := notify.NewBreakerSink(
		notify.NewRedisSink(client, cfg.NotifyQueueKey),
		notify.BreakerSettings{
			FailureThreshold: cfg.NotifyBreakerFailures,
			OpenTimeout:      cfg.NotifyBreakerOpen,
		},
		logger,
	)
	return sink, func() { client.Close() }, nil
}
