package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"staff/internal/domain/auth"
	"staff/internal/domain/payslip"
	"staff/internal/domain/staff"
	"staff/internal/platform/config"
	"staff/internal/platform/metrics"
	"staff/internal/transport/http/api"
	audithandler "staff/internal/transport/http/handlers/audit"
	authhandler "staff/internal/transport/http/handlers/auth"
	staffhandler "staff/internal/transport/http/handlers/staff"
	"staff/internal/transport/http/middleware"
)

// AuditLog records and serves the change history.
type AuditLog interface {
	staffhandler.AuditRecorder
	audithandler.Reader
}

// Deps is everything the HTTP surface needs. Nil Idempotency disables
// Idempotency-Key handling, nil Audit disables change history and nil Ready
// reports ready.
type Deps struct {
	Config      config.Config
	Logger      *zap.Logger
	Staff       staff.StoreAPI
	Users       auth.StoreAPI
	Idempotency staffhandler.IdempotencyStore
	Audit       AuditLog
	Ready       func(ctx context.Context) error
	Options     []staff.Option
}

func NewRouter(d Deps) (http.Handler, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	generator, err := payslip.NewGenerator(payslip.Options{
		FontPath:     d.Config.PayslipFontPath,
		BoldFontPath: d.Config.PayslipBoldFontPath,
		Compress:     d.Config.PayslipCompress,
	})
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	staffService := staff.NewService(d.Staff, logger, d.Options...)
	authService := auth.NewService(d.Users, d.Config.JWTSecret, d.Config.TokenTTL, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(d.Config.IsProduction()))
	router.Use(middleware.Auth(d.Config.JWTSecret))
	router.Use(middleware.Logger(logger, collector))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.BodyLimit(d.Config.MaxBodyBytes))
	router.Use(middleware.RateLimit(d.Config.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if d.Config.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authService, logger)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Get("/auth/me", authHandler.HandleMe)

			staffHandler := staffhandler.NewHandler(staffService, generator, logger)
			staffHandler.Idempotency = d.Idempotency
			staffHandler.Metrics = collector
			if d.Audit != nil {
				staffHandler.Audit = d.Audit
				audithandler.NewHandler(d.Audit, logger).RegisterRoutes(r)
			}
			staffHandler.RegisterRoutes(r)
		})
	})

	return router, nil
}
