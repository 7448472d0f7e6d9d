package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func fieldsOf(t *testing.T, env envelope) map[string]any {
	t.Helper()
	if env.Error == nil || env.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %+v", env.Error)
	}
	fields, ok := env.Error.Details["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected field details, got %+v", env.Error.Details)
	}
	return fields
}

func TestValidationErrorsCarryFields(t *testing.T) {
	app := newTestApp(t)
	s := app.seed(t)

	env := app.do(t, http.MethodPost, "/employees", map[string]any{"firstName": "Anna", "lastName": "Smirnova"}, http.StatusBadRequest)
	fields := fieldsOf(t, env)
	for _, field := range []string{"email", "hireDate", "positionId", "salary"} {
		if _, ok := fields[field]; !ok {
			t.Fatalf("expected %s in field errors: %v", field, fields)
		}
	}
	if env.Error.Details["entity"] != "employee" {
		t.Fatalf("unexpected entity %v", env.Error.Details["entity"])
	}

	env = app.do(t, http.MethodPost, "/positions", map[string]any{"name": "Engineer"}, http.StatusBadRequest)
	if _, ok := fieldsOf(t, env)["name"]; !ok {
		t.Fatal("expected duplicate position name to be reported on name")
	}

	dup := map[string]any{
		"firstName": "Anna", "lastName": "Smirnova", "email": "ivan@example.com",
		"positionId": s.positionID, "scheduleId": s.scheduleID, "salary": "100", "hireDate": "2024-02-01",
	}
	env = app.do(t, http.MethodPost, "/employees", dup, http.StatusBadRequest)
	if _, ok := fieldsOf(t, env)["email"]; !ok {
		t.Fatal("expected duplicate email to be reported on email")
	}

	env = app.do(t, http.MethodPost, "/schedules", map[string]any{"name": "Late", "startTime": "25:00", "endTime": "18:00", "days": "Mon"}, http.StatusBadRequest)
	if _, ok := fieldsOf(t, env)["startTime"]; !ok {
		t.Fatal("expected invalid start time to be reported")
	}

	body := payrollBody(s.employeeID)
	body["grossPay"] = "-1"
	env = app.do(t, http.MethodPost, "/payrolls", body, http.StatusBadRequest)
	if _, ok := fieldsOf(t, env)["grossPay"]; !ok {
		t.Fatal("expected negative gross pay to be reported")
	}

	body = payrollBody(999)
	env = app.do(t, http.MethodPost, "/payrolls", body, http.StatusBadRequest)
	if _, ok := fieldsOf(t, env)["employeeId"]; !ok {
		t.Fatal("expected unknown employee to be reported")
	}
}

func TestNegativeBonusIsADeduction(t *testing.T) {
	app := newTestApp(t)
	s := app.seed(t)

	body := payrollBody(s.employeeID)
	body["grossPay"] = "1000"
	body["bonus"] = "-150.25"
	env := app.do(t, http.MethodPost, "/payrolls", body, http.StatusCreated)
	var payroll struct {
		TotalPay string `json:"totalPay"`
	}
	decodeData(t, env, &payroll)
	if payroll.TotalPay != "849.75" {
		t.Fatalf("expected 849.75, got %s", payroll.TotalPay)
	}
}

func TestMalformedRequests(t *testing.T) {
	app := newTestApp(t)

	env := app.do(t, http.MethodPost, "/positions", `{"name":`, http.StatusBadRequest)
	if envelopeErrorCode(env) != "invalid_payload" {
		t.Fatalf("expected invalid_payload, got %s", envelopeErrorCode(env))
	}
	app.do(t, http.MethodGet, "/positions/abc", nil, http.StatusNotFound)
	app.do(t, http.MethodGet, "/positions/0", nil, http.StatusNotFound)
	app.do(t, http.MethodGet, "/payrolls/42/payslip", nil, http.StatusNotFound)
	app.do(t, http.MethodPut, "/employees/42", map[string]any{"firstName": "X"}, http.StatusNotFound)
	app.do(t, http.MethodDelete, "/schedules/42", nil, http.StatusNotFound)
}

func TestProtectedDeletesAndCascade(t *testing.T) {
	app := newTestApp(t)
	s := app.seed(t)
	payrollID := app.create(t, "/payrolls", payrollBody(s.employeeID))

	env := app.do(t, http.MethodDelete, fmt.Sprintf("/positions/%d", s.positionID), nil, http.StatusConflict)
	if envelopeErrorCode(env) != "integrity_error" || env.Error.Details["referencedBy"] != "employee" {
		t.Fatalf("unexpected error %+v", env.Error)
	}
	env = app.do(t, http.MethodDelete, fmt.Sprintf("/schedules/%d", s.scheduleID), nil, http.StatusConflict)
	if env.Error.Details["entity"] != "schedule" {
		t.Fatalf("unexpected entity %v", env.Error.Details["entity"])
	}
	app.do(t, http.MethodGet, fmt.Sprintf("/positions/%d", s.positionID), nil, http.StatusOK)

	app.do(t, http.MethodDelete, fmt.Sprintf("/employees/%d", s.employeeID), nil, http.StatusNoContent)
	app.do(t, http.MethodGet, fmt.Sprintf("/payrolls/%d", payrollID), nil, http.StatusNotFound)
	app.do(t, http.MethodDelete, fmt.Sprintf("/positions/%d", s.positionID), nil, http.StatusNoContent)
}

func TestUpdatePayrollKeepsPaidOn(t *testing.T) {
	app := newTestApp(t)
	s := app.seed(t)
	id := app.create(t, "/payrolls", payrollBody(s.employeeID))

	env := app.do(t, http.MethodPut, fmt.Sprintf("/payrolls/%d", id), map[string]any{"bonus": "0", "paidOn": "2020-01-01"}, http.StatusOK)
	var payroll struct {
		TotalPay string `json:"totalPay"`
		PaidOn   string `json:"paidOn"`
	}
	decodeData(t, env, &payroll)
	if payroll.TotalPay != "1200" || !strings.HasPrefix(payroll.PaidOn, "2024-04-05") {
		t.Fatalf("unexpected payroll after update: %+v", payroll)
	}
}
