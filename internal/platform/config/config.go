package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                string
	DatabaseURL         string
	JWTSecret           string
	Environment         string
	MigrationsDir       string
	RunMigrations       bool
	RunSeed             bool
	SeedAdminEmail      string
	SeedAdminPassword   string
	MaxBodyBytes        int64
	RateLimitPerMinute  int
	TokenTTL            time.Duration
	PayslipFontPath     string
	PayslipBoldFontPath string
	PayslipCompress     bool
	MetricsEnabled      bool
	IdempotencyTTL      time.Duration
	HistoryRetention    time.Duration
	MaintenanceInterval time.Duration
}

func Load() Config {
	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		Environment:         getEnv("APP_ENV", "development"),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "migrations"),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:             getEnvBool("RUN_SEED", true),
		SeedAdminEmail:      getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:   getEnv("SEED_ADMIN_PASSWORD", ""),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		TokenTTL:            getEnvDuration("TOKEN_TTL", 12*time.Hour),
		PayslipFontPath:     getEnv("PAYSLIP_FONT_PATH", ""),
		PayslipBoldFontPath: getEnv("PAYSLIP_FONT_BOLD_PATH", ""),
		PayslipCompress:     getEnvBool("PAYSLIP_COMPRESS", true),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
		IdempotencyTTL:      getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		HistoryRetention:    getEnvDuration("HISTORY_RETENTION", 0),
		MaintenanceInterval: getEnvDuration("MAINTENANCE_INTERVAL", time.Hour),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.IsProduction() && c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.TokenTTL < time.Minute {
		return fmt.Errorf("TOKEN_TTL must be at least one minute")
	}
	if c.IdempotencyTTL < 0 || c.HistoryRetention < 0 || c.MaintenanceInterval < 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL, HISTORY_RETENTION and MAINTENANCE_INTERVAL must not be negative")
	}
	if c.IsProduction() && strings.TrimSpace(c.PayslipFontPath) == "" {
		return fmt.Errorf("PAYSLIP_FONT_PATH must point to a Cyrillic TTF font in production")
	}
	if c.PayslipBoldFontPath != "" && c.PayslipFontPath == "" {
		return fmt.Errorf("PAYSLIP_FONT_BOLD_PATH requires PAYSLIP_FONT_PATH")
	}
	for _, path := range []string{c.PayslipFontPath, c.PayslipBoldFontPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("payslip font %q: %w", path, err)
		}
	}
	return nil
}
