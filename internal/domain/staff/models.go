package staff

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EntityPosition = "position"
	EntitySchedule = "schedule"
	EntityEmployee = "employee"
	EntityPayroll  = "payroll"
)

type Position struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	BaseSalary  decimal.Decimal `json:"baseSalary" validate:"gte=0"`
}

// WorkSchedule times are kept as canonical clock strings ("09:00"). Start may
// be later than end for overnight shifts.
type WorkSchedule struct {
	ID        int64  `json:"id"`
	Name      string `json:"name" validate:"required,max=100"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Days      string `json:"days" validate:"required,max=120"`
}

// Label renders the schedule the way it is shown in pickers, e.g. "Day (Mon-Fri)".
func (s WorkSchedule) Label() string {
	return s.Name + " (" + s.Days + ")"
}

type Employee struct {
	ID         int64           `json:"id"`
	FirstName  string          `json:"firstName" validate:"required,max=80"`
	LastName   string          `json:"lastName" validate:"required,max=80"`
	Email      string          `json:"email" validate:"required,email,max=254"`
	Phone      string          `json:"phone" validate:"max=20"`
	PositionID int64           `json:"positionId" validate:"required"`
	ScheduleID int64           `json:"scheduleId" validate:"required"`
	Salary     decimal.Decimal `json:"salary" validate:"gte=0"`
	HireDate   time.Time       `json:"hireDate" validate:"required"`
	IsActive   bool            `json:"isActive"`
}

// FullName is "<last> <first>", the form used on lists and payslips.
func (e Employee) FullName() string {
	return e.LastName + " " + e.FirstName
}

type Payroll struct {
	ID          int64           `json:"id"`
	EmployeeID  int64           `json:"employeeId" validate:"required"`
	PeriodStart time.Time       `json:"periodStart" validate:"required"`
	PeriodEnd   time.Time       `json:"periodEnd" validate:"required"`
	GrossPay    decimal.Decimal `json:"grossPay" validate:"gte=0"`
	Bonus       decimal.Decimal `json:"bonus"`
	PaidOn      time.Time       `json:"paidOn"`
	Notes       string          `json:"notes" validate:"max=200"`
	Employee    *Employee       `json:"employee,omitempty"`
}

// TotalPay is gross pay plus bonus. A negative bonus is a deduction.
func (p Payroll) TotalPay() decimal.Decimal {
	return p.GrossPay.Add(p.Bonus)
}

func (p Payroll) MarshalJSON() ([]byte, error) {
	type plain Payroll
	return json.Marshal(struct {
		plain
		TotalPay decimal.Decimal `json:"totalPay"`
	}{plain: plain(p), TotalPay: p.TotalPay()})
}

// PayrollDetail is a payroll with everything a payslip prints about it.
type PayrollDetail struct {
	Payroll  Payroll
	Employee Employee
	Position Position
	Schedule WorkSchedule
}

type Dashboard struct {
	Employees      int       `json:"employees"`
	Positions      int       `json:"positions"`
	Payrolls       int       `json:"payrolls"`
	RecentPayrolls []Payroll `json:"recentPayrolls"`
}

// Page bounds a listing. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

const RecentPayrollsLimit = 5
