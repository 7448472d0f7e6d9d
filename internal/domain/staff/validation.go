package staff

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	msgRequired     = "this field is required"
	msgInvalidEmail = "enter a valid email address"
	msgInvalidDate  = "enter a valid date in YYYY-MM-DD format"
	msgInvalidTime  = "enter a valid time in HH:MM format"
	msgNonNegative  = "ensure this value is greater than or equal to 0"
	msgDecimals     = "ensure that there are no more than 2 decimal places"
	msgMaxDigits    = "ensure that there are no more than 10 digits in total"
	msgInvalidRef   = "select a valid choice; that choice is not one of the available choices"
)

// Money columns are NUMERIC(10,2).
var maxMoney = decimal.New(1, 8)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

type PositionInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	BaseSalary  *decimal.Decimal `json:"baseSalary"`
}

type ScheduleInput struct {
	Name      *string `json:"name"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Days      *string `json:"days"`
}

type EmployeeInput struct {
	FirstName  *string          `json:"firstName"`
	LastName   *string          `json:"lastName"`
	Email      *string          `json:"email"`
	Phone      *string          `json:"phone"`
	PositionID *int64           `json:"positionId"`
	ScheduleID *int64           `json:"scheduleId"`
	Salary     *decimal.Decimal `json:"salary"`
	HireDate   *string          `json:"hireDate"`
	IsActive   *bool            `json:"isActive"`
}

// PayrollInput has no paid_on: it is stamped once at creation.
type PayrollInput struct {
	EmployeeID  *int64           `json:"employeeId"`
	PeriodStart *string          `json:"periodStart"`
	PeriodEnd   *string          `json:"periodEnd"`
	GrossPay    *decimal.Decimal `json:"grossPay"`
	Bonus       *decimal.Decimal `json:"bonus"`
	Notes       *string          `json:"notes"`
}

// ValidatePosition overlays the supplied fields of in onto current (nil when
// creating) and checks the result.
func ValidatePosition(in PositionInput, current *Position) (Position, FieldErrors) {
	out := Position{BaseSalary: decimal.Zero}
	if current != nil {
		out = *current
	}
	fe := FieldErrors{}
	setString(&out.Name, in.Name)
	setString(&out.Description, in.Description)
	if in.BaseSalary != nil {
		out.BaseSalary = *in.BaseSalary
	}
	out.BaseSalary = checkMoney(fe, "baseSalary", out.BaseSalary)
	checkStruct(fe, out)
	return out, orNil(fe)
}

func ValidateSchedule(in ScheduleInput, current *WorkSchedule) (WorkSchedule, FieldErrors) {
	var out WorkSchedule
	if current != nil {
		out = *current
	}
	fe := FieldErrors{}
	setString(&out.Name, in.Name)
	setString(&out.Days, in.Days)
	setClock(fe, "startTime", &out.StartTime, in.StartTime)
	setClock(fe, "endTime", &out.EndTime, in.EndTime)
	checkStruct(fe, out)
	return out, orNil(fe)
}

func ValidateEmployee(in EmployeeInput, current *Employee) (Employee, FieldErrors) {
	out := Employee{IsActive: true}
	if current != nil {
		out = *current
	}
	fe := FieldErrors{}
	setString(&out.FirstName, in.FirstName)
	setString(&out.LastName, in.LastName)
	setString(&out.Email, in.Email)
	setString(&out.Phone, in.Phone)
	if in.PositionID != nil {
		out.PositionID = *in.PositionID
	}
	if in.ScheduleID != nil {
		out.ScheduleID = *in.ScheduleID
	}
	if in.Salary != nil {
		out.Salary = *in.Salary
	} else if current == nil {
		fe.Add("salary", msgRequired)
	}
	if !fe.Has("salary") {
		out.Salary = checkMoney(fe, "salary", out.Salary)
	}
	setDate(fe, "hireDate", &out.HireDate, in.HireDate)
	if in.IsActive != nil {
		out.IsActive = *in.IsActive
	}
	checkStruct(fe, out)
	return out, orNil(fe)
}

// ValidatePayroll does not compare period_start with period_end; reversed
// periods are accepted as entered.
func ValidatePayroll(in PayrollInput, current *Payroll) (Payroll, FieldErrors) {
	out := Payroll{Bonus: decimal.Zero}
	if current != nil {
		out = *current
		out.Employee = nil
	}
	fe := FieldErrors{}
	if in.EmployeeID != nil {
		out.EmployeeID = *in.EmployeeID
	}
	setDate(fe, "periodStart", &out.PeriodStart, in.PeriodStart)
	setDate(fe, "periodEnd", &out.PeriodEnd, in.PeriodEnd)
	if in.GrossPay != nil {
		out.GrossPay = *in.GrossPay
	} else if current == nil {
		fe.Add("grossPay", msgRequired)
	}
	if !fe.Has("grossPay") {
		out.GrossPay = checkMoney(fe, "grossPay", out.GrossPay)
	}
	if in.Bonus != nil {
		out.Bonus = *in.Bonus
	}
	out.Bonus = checkAmount(fe, "bonus", out.Bonus)
	setString(&out.Notes, in.Notes)
	checkStruct(fe, out)
	return out, orNil(fe)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setDate(fe FieldErrors, field string, dst *time.Time, src *string) {
	if src == nil {
		return
	}
	parsed, err := ParseDate(*src)
	if err != nil {
		fe.Add(field, msgInvalidDate)
		return
	}
	*dst = parsed
}

func setClock(fe FieldErrors, field string, dst *string, src *string) {
	if src == nil {
		return
	}
	if strings.TrimSpace(*src) == "" {
		*dst = ""
		return
	}
	clock, err := ParseClock(*src)
	if err != nil {
		fe.Add(field, msgInvalidTime)
		return
	}
	*dst = clock
}

func checkMoney(fe FieldErrors, field string, value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		fe.Add(field, msgNonNegative)
		return value
	}
	return checkAmount(fe, field, value)
}

func checkAmount(fe FieldErrors, field string, value decimal.Decimal) decimal.Decimal {
	if !value.Equal(value.Round(2)) {
		fe.Add(field, msgDecimals)
		return value
	}
	if value.Abs().GreaterThanOrEqual(maxMoney) {
		fe.Add(field, msgMaxDigits)
		return value
	}
	return value.Round(2)
}

// checkStruct runs the tag rules, skipping fields that already failed to parse.
func checkStruct(fe FieldErrors, value any) {
	err := validate.Struct(value)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("_", err.Error())
		return
	}
	for _, verr := range verrs {
		field := verr.Field()
		if fe.Has(field) {
			continue
		}
		fe.Add(field, tagMessage(verr))
	}
}

func tagMessage(verr validator.FieldError) string {
	switch verr.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", verr.Param())
	case "gte":
		return msgNonNegative
	default:
		return "invalid value"
	}
}

func orNil(fe FieldErrors) FieldErrors {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and keeps only the calendar date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, err
		}
	}
	return DateOf(parsed), nil
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseClock accepts HH:MM or HH:MM:SS and returns HH:MM, keeping seconds
// only when they are not zero.
func ParseClock(value string) (string, error) {
	value = strings.TrimSpace(value)
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		parsed, err = time.Parse(time.TimeOnly, value)
		if err != nil {
			return "", err
		}
	}
	if parsed.Second() != 0 {
		return parsed.Format(time.TimeOnly), nil
	}
	return parsed.Format("15:04"), nil
}
