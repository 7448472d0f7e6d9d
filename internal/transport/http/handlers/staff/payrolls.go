package staffhandler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"staff/internal/domain/audit"
	"staff/internal/domain/staff"
	"staff/internal/transport/http/api"
	"staff/internal/transport/http/middleware"
	"staff/internal/transport/http/shared"
)

const createPayrollEndpoint = "payrolls.create"

func (h *Handler) handleListPayrolls(w http.ResponseWriter, r *http.Request) {
	payrolls, err := h.Service.ListPayrolls(r.Context(), shared.ParsePagination(r, 0, shared.MaxLimit))
	if err != nil {
		h.fail(w, r, staff.EntityPayroll, err)
		return
	}
	api.Page(w, pageTitle(staff.EntityPayroll, true), payrolls, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPayroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityPayroll)
		return
	}
	payroll, err := h.Service.GetPayroll(r.Context(), id)
	if err != nil {
		h.fail(w, r, staff.EntityPayroll, err)
		return
	}
	api.Page(w, pageTitle(staff.EntityPayroll, false), payroll, middleware.GetRequestID(r.Context()))
}

// handleCreatePayroll honours an Idempotency-Key header: the key is reserved
// before the payroll is written, so of several requests carrying the same key
// only one pays and the rest replay its response or are told to retry.
func (h *Handler) handleCreatePayroll(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	var in staff.PayrollInput
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if !h.decode(w, r, &in) {
		return
	}

	key := r.Header.Get("Idempotency-Key")
	user, authenticated := middleware.GetUser(r.Context())
	useKey := key != "" && authenticated && h.Idempotency != nil
	requestHash := middleware.RequestHash(raw)
	if useKey {
		stored, reserved, err := h.Idempotency.Reserve(r.Context(), user.UserID, createPayrollEndpoint, key, requestHash)
		switch {
		case errors.Is(err, middleware.ErrIdempotencyConflict):
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", requestID)
			return
		case errors.Is(err, middleware.ErrIdempotencyInProgress):
			w.Header().Set("Retry-After", "1")
			api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this idempotency key is still running", requestID)
			return
		case err != nil:
			h.fail(w, r, staff.EntityPayroll, err)
			return
		case !reserved:
			api.Created(w, stored, requestID)
			return
		}
	}

	id, err := h.Service.CreatePayroll(r.Context(), in)
	if err != nil {
		if useKey {
			if rerr := h.Idempotency.Release(context.WithoutCancel(r.Context()), user.UserID, createPayrollEndpoint, key); rerr != nil {
				h.logger.Warn("idempotency release failed", zap.String("key", key), zap.Error(rerr))
			}
		}
		h.fail(w, r, staff.EntityPayroll, err)
		return
	}
	payroll, err := h.Service.GetPayroll(r.Context(), id)
	if err != nil {
		h.fail(w, r, staff.EntityPayroll, err)
		return
	}

	if useKey {
		encoded, err := json.Marshal(payroll)
		if err == nil {
			err = h.Idempotency.Save(context.WithoutCancel(r.Context()), user.UserID, createPayrollEndpoint, key, requestHash, encoded)
		}
		if err != nil {
			h.logger.Warn("idempotency save failed", zap.Int64("payroll_id", payroll.ID), zap.Error(err))
		}
	}
	h.record(r, audit.ActionCreate, staff.EntityPayroll, payroll.ID, nil, payroll)
	api.Created(w, payroll, requestID)
}

func (h *Handler) handleUpdatePayroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityPayroll)
		return
	}
	var in staff.PayrollInput
	if !h.decode(w, r, &in) {
		return
	}
	before := h.snapshot(r, staff.EntityPayroll, id)
	payroll, err := h.Service.UpdatePayroll(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, staff.EntityPayroll, err)
		return
	}
	h.record(r, audit.ActionUpdate, staff.EntityPayroll, id, before, payroll)
	api.Success(w, payroll, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeletePayroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityPayroll)
		return
	}
	before := h.snapshot(r, staff.EntityPayroll, id)
	if err := h.Service.DeletePayroll(r.Context(), id); err != nil {
		h.fail(w, r, staff.EntityPayroll, err)
		return
	}
	h.record(r, audit.ActionDelete, staff.EntityPayroll, id, before, nil)
	api.NoContent(w)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, staff.EntityPayroll)
		return
	}
	doc, err := h.Payslips.Payslip(r.Context(), h.Service, id)
	if err != nil {
		h.fail(w, r, staff.EntityPayroll, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.PayslipRendered()
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Content); err != nil {
		h.logger.Warn("payslip write failed", zap.Int64("payroll_id", id), zap.Error(err))
	}
}

// attachment quotes ASCII file names directly and falls back to the RFC 2231
// form for anything else.
func attachment(filename string) string {
	for i := 0; i < len(filename); i++ {
		if c := filename[i]; c < 0x20 || c > 0x7e || c == '"' || c == '\\' {
			return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
		}
	}
	return fmt.Sprintf("attachment; filename=%q", filename)
}

func (h *Handler) handleExportPayrolls(w http.ResponseWriter, r *http.Request) {
	payrolls, err := h.Service.ListPayrolls(r.Context(), staff.Page{})
	if err != nil {
		h.fail(w, r, staff.EntityPayroll, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=payrolls.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "employee_id", "employee", "period_start", "period_end", "gross_pay", "bonus", "total_pay", "paid_on", "notes"}); err != nil {
		h.logger.Warn("export payrolls header write failed", zap.Error(err))
	}
	for _, p := range payrolls {
		employee := ""
		if p.Employee != nil {
			employee = p.Employee.FullName()
		}
		row := []string{
			strconv.FormatInt(p.ID, 10),
			strconv.FormatInt(p.EmployeeID, 10),
			employee,
			p.PeriodStart.Format("2006-01-02"),
			p.PeriodEnd.Format("2006-01-02"),
			p.GrossPay.StringFixed(2),
			p.Bonus.StringFixed(2),
			p.TotalPay().StringFixed(2),
			p.PaidOn.Format("2006-01-02"),
			p.Notes,
		}
		if err := writer.Write(row); err != nil {
			h.logger.Warn("export payrolls row write failed", zap.Int64("payroll_id", p.ID), zap.Error(err))
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Warn("export payrolls flush failed", zap.Error(err))
	}
}
