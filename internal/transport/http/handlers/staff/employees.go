package staffhandler

import (
	"net/http"

	"staff/internal/domain/audit"
	"staff/internal/domain/staff"
	"staff/internal/transport/http/api"
	"staff/internal/transport/http/middleware"
	"staff/internal/transport/http/shared"
)

type employeeView struct {
	staff.Employee
	FullName string `json:"fullName"`
}

func viewEmployee(e staff.Employee) employeeView {
	return employeeView{Employee: e, FullName: e.FullName()}
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context(), shared.ParsePagination(r, 0, shared.MaxLimit))
	if err != nil {
		h.fail(w, r, staff.EntityEmployee, err)
		return
	}
	out := make([]employeeView, 0, len(employees))
	for _, e := range employees {
		out = append(out, viewEmployee(e))
	}
	api.Page(w, pageTitle(staff.EntityEmployee, true), out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityEmployee)
		return
	}
	employee, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, r, staff.EntityEmployee, err)
		return
	}
	api.Page(w, pageTitle(staff.EntityEmployee, false), viewEmployee(employee), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in staff.EmployeeInput
	if !h.decode(w, r, &in) {
		return
	}
	id, err := h.Service.CreateEmployee(r.Context(), in)
	if err != nil {
		h.fail(w, r, staff.EntityEmployee, err)
		return
	}
	employee, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, r, staff.EntityEmployee, err)
		return
	}
	h.record(r, audit.ActionCreate, staff.EntityEmployee, id, nil, employee)
	api.Created(w, viewEmployee(employee), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityEmployee)
		return
	}
	var in staff.EmployeeInput
	if !h.decode(w, r, &in) {
		return
	}
	before := h.snapshot(r, staff.EntityEmployee, id)
	employee, err := h.Service.UpdateEmployee(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, staff.EntityEmployee, err)
		return
	}
	h.record(r, audit.ActionUpdate, staff.EntityEmployee, id, before, employee)
	api.Success(w, viewEmployee(employee), middleware.GetRequestID(r.Context()))
}

// handleDeleteEmployee also removes the employee's payrolls.
func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityEmployee)
		return
	}
	before := h.snapshot(r, staff.EntityEmployee, id)
	if err := h.Service.DeleteEmployee(r.Context(), id); err != nil {
		h.fail(w, r, staff.EntityEmployee, err)
		return
	}
	h.record(r, audit.ActionDelete, staff.EntityEmployee, id, before, nil)
	api.NoContent(w)
}
