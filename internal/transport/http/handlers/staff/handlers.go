package staffhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"staff/internal/domain/payslip"
	"staff/internal/domain/staff"
	"staff/internal/platform/metrics"
	"staff/internal/transport/http/api"
	"staff/internal/transport/http/middleware"
	"staff/internal/transport/http/shared"
)

// IdempotencyStore replays the stored response of a repeated write. Reserve
// admits exactly one request per key; that request either Saves its response
// or Releases the key.
type IdempotencyStore interface {
	Reserve(ctx context.Context, userID int64, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, userID int64, endpoint, key, requestHash string, response json.RawMessage) error
	Release(ctx context.Context, userID int64, endpoint, key string) error
}

type Handler struct {
	Service     *staff.Service
	Payslips    *payslip.Generator
	Idempotency IdempotencyStore
	Audit       AuditRecorder
	Metrics     *metrics.Collector
	logger      *zap.Logger
}

func NewHandler(service *staff.Service, payslips *payslip.Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Payslips: payslips, logger: logger.Named("staffhandler")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.handleListPositions)
		r.Post("/", h.handleCreatePosition)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetPosition)
			r.Put("/", h.handleUpdatePosition)
			r.Delete("/", h.handleDeletePosition)
		})
	})
	r.Route("/schedules", func(r chi.Router) {
		r.Get("/", h.handleListSchedules)
		r.Post("/", h.handleCreateSchedule)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetSchedule)
			r.Put("/", h.handleUpdateSchedule)
			r.Delete("/", h.handleDeleteSchedule)
		})
	})
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleListEmployees)
		r.Post("/", h.handleCreateEmployee)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetEmployee)
			r.Put("/", h.handleUpdateEmployee)
			r.Delete("/", h.handleDeleteEmployee)
		})
	})
	r.Route("/payrolls", func(r chi.Router) {
		r.Get("/", h.handleListPayrolls)
		r.Post("/", h.handleCreatePayroll)
		r.Get("/export.csv", h.handleExportPayrolls)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetPayroll)
			r.Put("/", h.handleUpdatePayroll)
			r.Delete("/", h.handleDeletePayroll)
			r.Get("/payslip", h.handleDownloadPayslip)
		})
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Service.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, "", err)
		return
	}
	api.Page(w, dashboardTitle, dashboard, middleware.GetRequestID(r.Context()))
}

// pathID parses the {id} URL parameter; anything but a positive integer is
// reported as not found.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func notFound(w http.ResponseWriter, r *http.Request, entity string) {
	api.Fail(w, http.StatusNotFound, "not_found", entity+" not found", middleware.GetRequestID(r.Context()))
}

// fail maps domain errors onto the response envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, entity string, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var verr *staff.ValidationError
	if errors.As(err, &verr) {
		shared.FailValidation(w, requestID, verr.Entity, verr.Fields)
		return
	}
	var ierr *staff.IntegrityError
	if errors.As(err, &ierr) {
		api.FailWithDetails(w, http.StatusConflict, "integrity_error", ierr.Error(),
			map[string]any{"entity": ierr.Entity, "referencedBy": ierr.ReferencedBy}, requestID)
		return
	}
	if errors.Is(err, staff.ErrNotFound) {
		notFound(w, r, entity)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}

	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("requestId", requestID),
		zap.Error(err),
	)
	api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
}
