// Package app wires configuration, storage, the marketplace client and the
// orchestrator into a runnable service.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	_ "modernc.org/sqlite"

	"github.com/rl1809/stock-sync/internal/adapter/handler"
	"github.com/rl1809/stock-sync/internal/adapter/marketplace"
	"github.com/rl1809/stock-sync/internal/adapter/storage"
	"github.com/rl1809/stock-sync/internal/config"
	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/core/service"
	"github.com/rl1809/stock-sync/internal/logging"
	"github.com/rl1809/stock-sync/internal/port"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg    *config.Config
	logger zerolog.Logger

	store        port.LocalInventoryStore
	conflicts    port.ConflictStore
	orchestrator *service.Orchestrator

	closers []func() error
}

// New connects every dependency named by cfg. The returned App owns them and
// must be closed.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logging.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	a := &App{cfg: cfg, logger: logger}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openConflictStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	market := marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Token, cfg.MarketplaceTimeout())

	opts := cfg.Sync()
	opts.OnCycle = a.logCycle
	orchestrator, err := service.NewOrchestrator(a.store, market, a.conflicts, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.orchestrator = orchestrator

	if err := orchestrator.RestoreConflicts(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to restore pending conflicts, starting with an empty queue")
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := storage.ConnectPostgres(ctx, a.cfg.Store.DSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		pg := storage.NewPostgresAdapter(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		a.store = pg

	case config.DriverMySQL, config.DriverSQLite:
		db, err := sql.Open(a.cfg.Store.Driver, a.cfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", a.cfg.Store.Driver, err)
		}
		a.closers = append(a.closers, db.Close)

		if a.cfg.Store.Driver == config.DriverSQLite {
			db.SetMaxOpenConns(1)
		} else {
			db.SetMaxOpenConns(20)
			db.SetMaxIdleConns(10)
			db.SetConnMaxLifetime(5 * time.Minute)
		}
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping %s: %w", a.cfg.Store.Driver, err)
		}

		adapter := storage.NewSQLAdapter(db, a.cfg.Store.Driver)
		if err := adapter.EnsureSchema(ctx); err != nil {
			return err
		}
		a.store = adapter

	default:
		return domain.NewValidationError("store.driver", a.cfg.Store.Driver, "unsupported driver")
	}

	a.logger.Info().Str("driver", a.cfg.Store.Driver).Msg("connected to local store")
	return nil
}

func (a *App) openConflictStore(ctx context.Context) error {
	if a.cfg.Redis.Addr == "" {
		a.logger.Info().Msg("redis not configured, manual review queue is in memory only")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.closers = append(a.closers, rdb.Close)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	a.conflicts = storage.NewRedisAdapter(rdb, storage.DefaultConflictKey)
	a.logger.Info().Str("addr", a.cfg.Redis.Addr).Msg("connected to redis")
	return nil
}

func (a *App) logCycle(report domain.RunReport) {
	event := a.logger.Info()
	if report.Status != domain.RunSuccess {
		event = a.logger.Warn().Str("error", report.Error)
	}
	event.Str("status", string(report.Status)).
		Str("run_id", report.RunID).
		Float64("duration_seconds", report.DurationSeconds).
		Msg("scheduled sync finished")
}

func (a *App) Orchestrator() *service.Orchestrator {
	return a.orchestrator
}

// HTTPHandler returns the operator HTTP API.
func (a *App) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	handler.NewHTTPHandler(a.orchestrator).Routes(mux)
	return mux
}

// GRPCServer returns a server with the sync service registered.
func (a *App) GRPCServer() *grpc.Server {
	srv := grpc.NewServer()
	handler.RegisterSyncServiceServer(srv, handler.NewGRPCHandler(a.orchestrator))
	return srv
}

// Run serves HTTP and gRPC and runs continuous sync until ctx is cancelled,
// then shuts the servers down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx = logging.WithLogger(ctx, a.logger)

	grpcLis, err := net.Listen("tcp", a.cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.GRPC.Addr, err)
	}
	httpLis, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		grpcLis.Close()
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.HTTP.Addr, err)
	}

	grpcServer := a.GRPCServer()
	httpServer := &http.Server{
		Handler:           a.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", grpcLis.Addr().String()).Msg("gRPC server listening")
		return grpcServer.Serve(grpcLis)
	})

	g.Go(func() error {
		a.logger.Info().Str("addr", httpLis.Addr().String()).Msg("HTTP server listening")
		if err := httpServer.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := a.orchestrator.StartContinuousSync(ctx, a.cfg.Sync().SyncInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn().Err(err).Msg("HTTP shutdown")
		}
		a.logger.Info().Msg("HTTP server stopped")

		grpcServer.GracefulStop()
		a.logger.Info().Msg("gRPC server stopped")
		return nil
	})

	return g.Wait()
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
