package staff

import "context"

// StoreAPI is the persistent store. Implementations own uniqueness, foreign
// key protect/cascade rules and transactions: every write is atomic, and
// constraint violations come back as *ValidationError or *IntegrityError.
//
// Update methods lock the row, hand the current record to apply and persist
// what it returns, all inside one transaction.
type StoreAPI interface {
	ListPositions(ctx context.Context, page Page) ([]Position, error)
	GetPosition(ctx context.Context, id int64) (Position, error)
	CreatePosition(ctx context.Context, p Position) (int64, error)
	UpdatePosition(ctx context.Context, id int64, apply func(Position) (Position, error)) (Position, error)
	DeletePosition(ctx context.Context, id int64) error

	ListSchedules(ctx context.Context, page Page) ([]WorkSchedule, error)
	GetSchedule(ctx context.Context, id int64) (WorkSchedule, error)
	CreateSchedule(ctx context.Context, s WorkSchedule) (int64, error)
	UpdateSchedule(ctx context.Context, id int64, apply func(WorkSchedule) (WorkSchedule, error)) (WorkSchedule, error)
	DeleteSchedule(ctx context.Context, id int64) error

	ListEmployees(ctx context.Context, page Page) ([]Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	CreateEmployee(ctx context.Context, e Employee) (int64, error)
	UpdateEmployee(ctx context.Context, id int64, apply func(Employee) (Employee, error)) (Employee, error)
	// DeleteEmployee removes the employee's payrolls and then the employee.
	DeleteEmployee(ctx context.Context, id int64) error

	ListPayrolls(ctx context.Context, page Page) ([]Payroll, error)
	GetPayroll(ctx context.Context, id int64) (Payroll, error)
	GetPayrollDetail(ctx context.Context, id int64) (PayrollDetail, error)
	CreatePayroll(ctx context.Context, p Payroll) (int64, error)
	UpdatePayroll(ctx context.Context, id int64, apply func(Payroll) (Payroll, error)) (Payroll, error)
	DeletePayroll(ctx context.Context, id int64) error

	Dashboard(ctx context.Context, recent int) (Dashboard, error)
}
