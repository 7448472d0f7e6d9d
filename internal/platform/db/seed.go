package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"staff/internal/domain/auth"
	"staff/internal/platform/config"
)

// Seed creates the configured admin login. It is a no-op when no admin
// credentials are configured or the user already exists.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	created, err := auth.NewStore(pool).EnsureUser(ctx, email, hash)
	if err != nil {
		return err
	}
	if created {
		logger.Info("admin user seeded", zap.String("email", email))
	}
	return nil
}
