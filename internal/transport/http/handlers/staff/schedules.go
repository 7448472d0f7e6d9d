package staffhandler

import (
	"net/http"

	"staff/internal/domain/audit"
	"staff/internal/domain/staff"
	"staff/internal/transport/http/api"
	"staff/internal/transport/http/middleware"
	"staff/internal/transport/http/shared"
)

type scheduleView struct {
	staff.WorkSchedule
	Label string `json:"label"`
}

func viewSchedule(s staff.WorkSchedule) scheduleView {
	return scheduleView{WorkSchedule: s, Label: s.Label()}
}

func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Service.ListSchedules(r.Context(), shared.ParsePagination(r, 0, shared.MaxLimit))
	if err != nil {
		h.fail(w, r, staff.EntitySchedule, err)
		return
	}
	out := make([]scheduleView, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, viewSchedule(s))
	}
	api.Page(w, pageTitle(staff.EntitySchedule, true), out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntitySchedule)
		return
	}
	schedule, err := h.Service.GetSchedule(r.Context(), id)
	if err != nil {
		h.fail(w, r, staff.EntitySchedule, err)
		return
	}
	api.Page(w, pageTitle(staff.EntitySchedule, false), viewSchedule(schedule), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var in staff.ScheduleInput
	if !h.decode(w, r, &in) {
		return
	}
	id, err := h.Service.CreateSchedule(r.Context(), in)
	if err != nil {
		h.fail(w, r, staff.EntitySchedule, err)
		return
	}
	schedule, err := h.Service.GetSchedule(r.Context(), id)
	if err != nil {
		h.fail(w, r, staff.EntitySchedule, err)
		return
	}
	h.record(r, audit.ActionCreate, staff.EntitySchedule, id, nil, schedule)
	api.Created(w, viewSchedule(schedule), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntitySchedule)
		return
	}
	var in staff.ScheduleInput
	if !h.decode(w, r, &in) {
		return
	}
	before := h.snapshot(r, staff.EntitySchedule, id)
	schedule, err := h.Service.UpdateSchedule(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, staff.EntitySchedule, err)
		return
	}
	h.record(r, audit.ActionUpdate, staff.EntitySchedule, id, before, schedule)
	api.Success(w, viewSchedule(schedule), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntitySchedule)
		return
	}
	before := h.snapshot(r, staff.EntitySchedule, id)
	if err := h.Service.DeleteSchedule(r.Context(), id); err != nil {
		h.fail(w, r, staff.EntitySchedule, err)
		return
	}
	h.record(r, audit.ActionDelete, staff.EntitySchedule, id, before, nil)
	api.NoContent(w)
}
