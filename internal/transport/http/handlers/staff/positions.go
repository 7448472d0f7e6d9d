package staffhandler

import (
	"net/http"

	"staff/internal/domain/audit"
	"staff/internal/domain/staff"
	"staff/internal/transport/http/api"
	"staff/internal/transport/http/middleware"
	"staff/internal/transport/http/shared"
)

func (h *Handler) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.Service.ListPositions(r.Context(), shared.ParsePagination(r, 0, shared.MaxLimit))
	if err != nil {
		h.fail(w, r, staff.EntityPosition, err)
		return
	}
	api.Page(w, pageTitle(staff.EntityPosition, true), positions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityPosition)
		return
	}
	position, err := h.Service.GetPosition(r.Context(), id)
	if err != nil {
		h.fail(w, r, staff.EntityPosition, err)
		return
	}
	api.Page(w, pageTitle(staff.EntityPosition, false), position, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var in staff.PositionInput
	if !h.decode(w, r, &in) {
		return
	}
	id, err := h.Service.CreatePosition(r.Context(), in)
	if err != nil {
		h.fail(w, r, staff.EntityPosition, err)
		return
	}
	position, err := h.Service.GetPosition(r.Context(), id)
	if err != nil {
		h.fail(w, r, staff.EntityPosition, err)
		return
	}
	h.record(r, audit.ActionCreate, staff.EntityPosition, id, nil, position)
	api.Created(w, position, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityPosition)
		return
	}
	var in staff.PositionInput
	if !h.decode(w, r, &in) {
		return
	}
	before := h.snapshot(r, staff.EntityPosition, id)
	position, err := h.Service.UpdatePosition(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, staff.EntityPosition, err)
		return
	}
	h.record(r, audit.ActionUpdate, staff.EntityPosition, id, before, position)
	api.Success(w, position, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityPosition)
		return
	}
	before := h.snapshot(r, staff.EntityPosition, id)
	if err := h.Service.DeletePosition(r.Context(), id); err != nil {
		h.fail(w, r, staff.EntityPosition, err)
		return
	}
	h.record(r, audit.ActionDelete, staff.EntityPosition, id, before, nil)
	api.NoContent(w)
}
