package staffhandler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"staff/internal/domain/audit"
	"staff/internal/domain/staff"
	"staff/internal/platform/requestctx"
	"staff/internal/transport/http/middleware"
)

// AuditRecorder stores the change history of staff records.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// record writes a history entry. A failed write is logged and never fails
// the request that made the change.
func (h *Handler) record(r *http.Request, action, entity string, id int64, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	origin := requestctx.From(r.Context())
	entry := audit.Entry{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entity,
		EntityID:   id,
		RequestID:  origin.RequestID,
		IP:         origin.ClientIP,
		Before:     before,
		After:      after,
	}
	if err := h.Audit.Record(r.Context(), entry); err != nil {
		h.logger.Warn("audit record failed",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Int64("id", id),
			zap.Error(err),
		)
	}
}

// snapshot loads the stored record ahead of a change. It is nil when history
// is off or the record cannot be read.
func (h *Handler) snapshot(r *http.Request, entity string, id int64) any {
	if h.Audit == nil {
		return nil
	}
	var (
		current any
		err     error
	)
	switch entity {
	case staff.EntityPosition:
		current, err = h.Service.GetPosition(r.Context(), id)
	case staff.EntitySchedule:
		current, err = h.Service.GetSchedule(r.Context(), id)
	case staff.EntityEmployee:
		current, err = h.Service.GetEmployee(r.Context(), id)
	case staff.EntityPayroll:
		current, err = h.Service.GetPayroll(r.Context(), id)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return current
}
