package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"staff/internal/domain/audit"
	"staff/internal/transport/http/api"
	"staff/internal/transport/http/middleware"
	"staff/internal/transport/http/shared"
)

type Reader interface {
	Count(ctx context.Context, filter audit.Filter) (int, error)
	List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Service Reader
	logger  *zap.Logger
}

func NewHandler(service Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, logger: logger.Named("audithandler")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/events", h.handleListEvents)
		r.Get("/events/export", h.handleExportEvents)
	})
}

func parseFilter(r *http.Request) audit.Filter {
	q := r.URL.Query()
	filter := audit.Filter{Action: q.Get("action"), EntityType: q.Get("entityType")}
	if v, err := strconv.ParseInt(q.Get("entityId"), 10, 64); err == nil {
		filter.EntityID = v
	}
	if v, err := strconv.ParseInt(q.Get("actorUserId"), 10, 64); err == nil {
		filter.ActorID = v
	}
	return filter
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, shared.MaxLimit)
	filter := parseFilter(r)
	includeDetails := r.URL.Query().Get("includeDetails") == "true"

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		h.logger.Warn("audit count failed", zap.Error(err))
	}
	events, err := h.Service.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("audit list failed", zap.String("requestId", requestID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Page(w, "История изменений", events, requestID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.List(r.Context(), parseFilter(r), false, 0, 0)
	if err != nil {
		h.logger.Error("audit export failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_user_id", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}); err != nil {
		h.logger.Warn("audit export header failed", zap.Error(err))
	}
	for _, evt := range events {
		row := []string{
			strconv.FormatInt(evt.ID, 10),
			strconv.FormatInt(evt.ActorID, 10),
			evt.Action,
			evt.EntityType,
			strconv.FormatInt(evt.EntityID, 10),
			evt.RequestID,
			evt.IP,
			evt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			h.logger.Warn("audit export row failed", zap.Int64("event_id", evt.ID), zap.Error(err))
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Warn("audit export flush failed", zap.Error(err))
	}
}
