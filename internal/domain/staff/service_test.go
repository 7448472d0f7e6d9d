package staff_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"staff/internal/domain/staff"
	"staff/internal/domain/staff/stafftest"
)

func strPtr(s string) *string { return &s }

func idPtr(id int64) *int64 { return &id }

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type fixture struct {
	svc        *staff.Service
	store      *stafftest.MemStore
	positionID int64
	scheduleID int64
}

var payday = time.Date(2024, 4, 5, 16, 45, 0, 0, time.UTC)

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := stafftest.NewMemStore()
	svc := staff.NewService(store, zaptest.NewLogger(t), staff.WithClock(func() time.Time { return payday }))
	ctx := context.Background()

	positionID, err := svc.CreatePosition(ctx, staff.PositionInput{Name: strPtr("Accountant"), BaseSalary: money("1100")})
	require.NoError(t, err)
	scheduleID, err := svc.CreateSchedule(ctx, staff.ScheduleInput{
		Name:      strPtr("Day"),
		StartTime: strPtr("09:00"),
		EndTime:   strPtr("18:00"),
		Days:      strPtr("Mon-Fri"),
	})
	require.NoError(t, err)
	return fixture{svc: svc, store: store, positionID: positionID, scheduleID: scheduleID}
}

func (f fixture) employee(t *testing.T, email string) int64 {
	t.Helper()
	id, err := f.svc.CreateEmployee(context.Background(), staff.EmployeeInput{
		FirstName:  strPtr("Ivan"),
		LastName:   strPtr("Petrov"),
		Email:      strPtr(email),
		PositionID: idPtr(f.positionID),
		ScheduleID: idPtr(f.scheduleID),
		Salary:     money("1200"),
		HireDate:   strPtr("2024-01-15"),
	})
	require.NoError(t, err)
	return id
}

func (f fixture) payroll(t *testing.T, employeeID int64, gross, bonus string) int64 {
	t.Helper()
	id, err := f.svc.CreatePayroll(context.Background(), staff.PayrollInput{
		EmployeeID:  idPtr(employeeID),
		PeriodStart: strPtr("2024-03-01"),
		PeriodEnd:   strPtr("2024-03-31"),
		GrossPay:    money(gross),
		Bonus:       money(bonus),
	})
	require.NoError(t, err)
	return id
}

func fieldErrors(t *testing.T, err error) staff.FieldErrors {
	t.Helper()
	var verr *staff.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestCreateEmployeeDefaults(t *testing.T) {
	f := newFixture(t)
	id := f.employee(t, "ivan@example.com")

	emp, err := f.svc.GetEmployee(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, emp.IsActive)
	assert.Empty(t, emp.Phone)
	assert.Equal(t, "1200.00", emp.Salary.StringFixed(2))
}

func TestDuplicateEmailRejected(t *testing.T) {
	f := newFixture(t)
	f.employee(t, "ivan@example.com")

	_, err := f.svc.CreateEmployee(context.Background(), staff.EmployeeInput{
		FirstName:  strPtr("Other"),
		LastName:   strPtr("Person"),
		Email:      strPtr("ivan@example.com"),
		PositionID: idPtr(f.positionID),
		ScheduleID: idPtr(f.scheduleID),
		Salary:     money("10"),
		HireDate:   strPtr("2024-02-01"),
	})
	fe := fieldErrors(t, err)
	assert.True(t, fe.Has("email"))

	list, err := f.svc.ListEmployees(context.Background(), staff.Page{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDuplicatePositionNameRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreatePosition(context.Background(), staff.PositionInput{Name: strPtr("Accountant")})
	assert.True(t, fieldErrors(t, err).Has("name"))
}

func TestCreateEmployeeUnknownReferences(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateEmployee(context.Background(), staff.EmployeeInput{
		FirstName:  strPtr("Ivan"),
		LastName:   strPtr("Petrov"),
		Email:      strPtr("ivan@example.com"),
		PositionID: idPtr(999),
		ScheduleID: idPtr(998),
		Salary:     money("1"),
		HireDate:   strPtr("2024-01-15"),
	})
	fe := fieldErrors(t, err)
	assert.Equal(t, []string{"positionId", "scheduleId"}, fe.Fields())
}

func TestProtectedDeletes(t *testing.T) {
	f := newFixture(t)
	f.employee(t, "ivan@example.com")
	ctx := context.Background()

	err := f.svc.DeletePosition(ctx, f.positionID)
	require.ErrorIs(t, err, staff.ErrIntegrity)
	var ierr *staff.IntegrityError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, staff.EntityEmployee, ierr.ReferencedBy)

	require.ErrorIs(t, f.svc.DeleteSchedule(ctx, f.scheduleID), staff.ErrIntegrity)

	_, err = f.svc.GetPosition(ctx, f.positionID)
	assert.NoError(t, err)
	_, err = f.svc.GetSchedule(ctx, f.scheduleID)
	assert.NoError(t, err)
}

func TestDeleteUnreferencedPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.DeletePosition(ctx, f.positionID))
	_, err := f.svc.GetPosition(ctx, f.positionID)
	assert.ErrorIs(t, err, staff.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeletePosition(ctx, f.positionID), staff.ErrNotFound)
}

func TestDeleteEmployeeCascadesPayrolls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.employee(t, "keep@example.com")
	gone := f.employee(t, "gone@example.com")
	f.payroll(t, gone, "1000", "0")
	f.payroll(t, gone, "1100", "50")
	kept := f.payroll(t, keep, "900", "0")

	require.NoError(t, f.svc.DeleteEmployee(ctx, gone))
	assert.Empty(t, f.store.PayrollIDsFor(gone))
	assert.Equal(t, []int64{kept}, f.store.PayrollIDsFor(keep))

	_, err := f.svc.GetEmployee(ctx, gone)
	assert.ErrorIs(t, err, staff.ErrNotFound)
}

func TestCreatePayrollStampsPaidOn(t *testing.T) {
	f := newFixture(t)
	id := f.payroll(t, f.employee(t, "ivan@example.com"), "1200", "100")

	pay, err := f.svc.GetPayroll(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC), pay.PaidOn)
	assert.Equal(t, "1300.00", pay.TotalPay().StringFixed(2))
}

func TestNegativeBonusIsDeduction(t *testing.T) {
	f := newFixture(t)
	id := f.payroll(t, f.employee(t, "ivan@example.com"), "1000", "-250")

	pay, err := f.svc.GetPayroll(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "750.00", pay.TotalPay().StringFixed(2))
}

func TestNegativeGrossRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreatePayroll(context.Background(), staff.PayrollInput{
		EmployeeID:  idPtr(f.employee(t, "ivan@example.com")),
		PeriodStart: strPtr("2024-03-01"),
		PeriodEnd:   strPtr("2024-03-31"),
		GrossPay:    money("-1"),
	})
	assert.True(t, fieldErrors(t, err).Has("grossPay"))
}

func TestUpdatePayrollKeepsPaidOn(t *testing.T) {
	f := newFixture(t)
	id := f.payroll(t, f.employee(t, "ivan@example.com"), "1200", "0")
	later := staff.NewService(f.store, nil, staff.WithClock(func() time.Time { return payday.AddDate(0, 1, 0) }))

	updated, err := later.UpdatePayroll(context.Background(), id, staff.PayrollInput{Notes: strPtr(" overtime ")})
	require.NoError(t, err)
	assert.Equal(t, "overtime", updated.Notes)
	assert.Equal(t, time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC), updated.PaidOn)
	assert.Equal(t, "1200.00", updated.GrossPay.StringFixed(2))
}

func TestUpdateInvalidLeavesRecordUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.employee(t, "ivan@example.com")

	_, err := f.svc.UpdateEmployee(ctx, id, staff.EmployeeInput{Email: strPtr("broken"), Phone: strPtr("555")})
	assert.True(t, fieldErrors(t, err).Has("email"))

	emp, err := f.svc.GetEmployee(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ivan@example.com", emp.Email)
	assert.Empty(t, emp.Phone)
}

func TestUpdateUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.employee(t, "ivan@example.com")
	payrollID := f.payroll(t, id, "1200", "0")

	_, err := f.svc.UpdateEmployee(ctx, id, staff.EmployeeInput{PositionID: idPtr(404)})
	assert.True(t, fieldErrors(t, err).Has("positionId"))
	_, err = f.svc.UpdateEmployee(ctx, id, staff.EmployeeInput{ScheduleID: idPtr(404)})
	assert.True(t, fieldErrors(t, err).Has("scheduleId"))
	_, err = f.svc.UpdatePayroll(ctx, payrollID, staff.PayrollInput{EmployeeID: idPtr(404)})
	assert.True(t, fieldErrors(t, err).Has("employeeId"))

	emp, err := f.svc.GetEmployee(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.positionID, emp.PositionID)
}

// Updates run their validation while the store holds the row lock; reading
// back through the store from there would never return.
func TestUpdatesDoNotReenterStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.employee(t, "ivan@example.com")
	payrollID := f.payroll(t, id, "1200", "0")

	done := make(chan error, 2)
	go func() {
		_, err := f.svc.UpdateEmployee(ctx, id, staff.EmployeeInput{PositionID: idPtr(f.positionID), Phone: strPtr("555")})
		done <- err
	}()
	go func() {
		_, err := f.svc.UpdatePayroll(ctx, payrollID, staff.PayrollInput{EmployeeID: idPtr(id), Notes: strPtr("ok")})
		done <- err
	}()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("update blocked while holding the row lock")
		}
	}
}

func TestUpdateMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdatePosition(context.Background(), 404, staff.PositionInput{Name: strPtr("x")})
	assert.ErrorIs(t, err, staff.ErrNotFound)
}

func TestListOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"Zoo", "Alpha"} {
		_, err := f.svc.CreatePosition(ctx, staff.PositionInput{Name: strPtr(name)})
		require.NoError(t, err)
	}
	positions, err := f.svc.ListPositions(ctx, staff.Page{})
	require.NoError(t, err)
	names := make([]string, 0, len(positions))
	for _, p := range positions {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Accountant", "Alpha", "Zoo"}, names)

	first := f.payroll(t, f.employee(t, "a@example.com"), "1", "0")
	second := f.payroll(t, f.employee(t, "b@example.com"), "2", "0")
	payrolls, err := f.svc.ListPayrolls(ctx, staff.Page{})
	require.NoError(t, err)
	require.Len(t, payrolls, 2)
	assert.Equal(t, second, payrolls[0].ID)
	assert.Equal(t, first, payrolls[1].ID)
	require.NotNil(t, payrolls[0].Employee)
	assert.Equal(t, "b@example.com", payrolls[0].Employee.Email)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	emp := f.employee(t, "ivan@example.com")
	for i := 0; i < staff.RecentPayrollsLimit+2; i++ {
		f.payroll(t, emp, "100", "0")
	}
	d, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Employees)
	assert.Equal(t, 1, d.Positions)
	assert.Equal(t, staff.RecentPayrollsLimit+2, d.Payrolls)
	assert.Len(t, d.RecentPayrolls, staff.RecentPayrollsLimit)
}

func TestPayrollDetail(t *testing.T) {
	f := newFixture(t)
	id := f.payroll(t, f.employee(t, "ivan@example.com"), "1200", "100")

	d, err := f.svc.PayrollDetail(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Petrov Ivan", d.Employee.FullName())
	assert.Equal(t, "Accountant", d.Position.Name)
	assert.Equal(t, "Day (Mon-Fri)", d.Schedule.Label())

	_, err = f.svc.PayrollDetail(context.Background(), 12345)
	assert.ErrorIs(t, err, staff.ErrNotFound)
}

func TestStoreFailurePropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection reset")
	f.store.FailWith = boom
	_, err := f.svc.ListEmployees(context.Background(), staff.Page{})
	assert.ErrorIs(t, err, boom)
}
