package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"staff/internal/domain/audit"
	"staff/internal/domain/auth"
	"staff/internal/domain/staff"
	"staff/internal/platform/config"
	"staff/internal/platform/db"
	"staff/internal/platform/jobs"
	"staff/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// Run starts the API and blocks until SIGINT/SIGTERM or a fatal error.
func Run(cfg config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty; tokens are signed with an empty key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir, logger); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg, logger); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
	}

	idempotency := middleware.NewIdempotencyStore(pool)
	history := audit.New(pool)
	router, err := NewRouter(Deps{
		Config:      cfg,
		Logger:      logger,
		Staff:       staff.NewStore(pool),
		Users:       auth.NewStore(pool),
		Idempotency: idempotency,
		Audit:       history,
		Ready:       pool.Ping,
	})
	if err != nil {
		return err
	}

	scheduler := jobs.New(logger)
	if cfg.IdempotencyTTL > 0 {
		scheduler.Every("prune_idempotency_keys", cfg.MaintenanceInterval, func(ctx context.Context) (int64, error) {
			return idempotency.Prune(ctx, time.Now().Add(-cfg.IdempotencyTTL))
		})
	}
	if cfg.HistoryRetention > 0 {
		scheduler.Every("prune_history", cfg.MaintenanceInterval, func(ctx context.Context) (int64, error) {
			return history.Prune(ctx, time.Now().Add(-cfg.HistoryRetention))
		})
	}
	scheduler.Start(ctx)
	defer func() {
		stop()
		scheduler.Wait()
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("staff server listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
