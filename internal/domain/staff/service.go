package staff

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Service struct {
	store  StoreAPI
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces the clock used to stamp paid_on.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store StoreAPI, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: store, logger: logger.Named("staff"), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListPositions(ctx context.Context, page Page) ([]Position, error) {
	return s.store.ListPositions(ctx, page)
}

func (s *Service) GetPosition(ctx context.Context, id int64) (Position, error) {
	return s.store.GetPosition(ctx, id)
}

func (s *Service) CreatePosition(ctx context.Context, in PositionInput) (int64, error) {
	pos, fe := ValidatePosition(in, nil)
	if err := fe.Err(EntityPosition); err != nil {
		return 0, err
	}
	id, err := s.store.CreatePosition(ctx, pos)
	if err != nil {
		return 0, err
	}
	s.logger.Info("position created", zap.Int64("id", id), zap.String("name", pos.Name))
	return id, nil
}

func (s *Service) UpdatePosition(ctx context.Context, id int64, in PositionInput) (Position, error) {
	return s.store.UpdatePosition(ctx, id, func(current Position) (Position, error) {
		next, fe := ValidatePosition(in, &current)
		return next, fe.Err(EntityPosition)
	})
}

func (s *Service) DeletePosition(ctx context.Context, id int64) error {
	if err := s.store.DeletePosition(ctx, id); err != nil {
		return err
	}
	s.logger.Info("position deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) ListSchedules(ctx context.Context, page Page) ([]WorkSchedule, error) {
	return s.store.ListSchedules(ctx, page)
}

func (s *Service) GetSchedule(ctx context.Context, id int64) (WorkSchedule, error) {
	return s.store.GetSchedule(ctx, id)
}

func (s *Service) CreateSchedule(ctx context.Context, in ScheduleInput) (int64, error) {
	sched, fe := ValidateSchedule(in, nil)
	if err := fe.Err(EntitySchedule); err != nil {
		return 0, err
	}
	id, err := s.store.CreateSchedule(ctx, sched)
	if err != nil {
		return 0, err
	}
	s.logger.Info("schedule created", zap.Int64("id", id), zap.String("name", sched.Name))
	return id, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, id int64, in ScheduleInput) (WorkSchedule, error) {
	return s.store.UpdateSchedule(ctx, id, func(current WorkSchedule) (WorkSchedule, error) {
		next, fe := ValidateSchedule(in, &current)
		return next, fe.Err(EntitySchedule)
	})
}

func (s *Service) DeleteSchedule(ctx context.Context, id int64) error {
	if err := s.store.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	s.logger.Info("schedule deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) ListEmployees(ctx context.Context, page Page) ([]Employee, error) {
	return s.store.ListEmployees(ctx, page)
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (int64, error) {
	emp, fe := ValidateEmployee(in, nil)
	if fe == nil {
		fe = FieldErrors{}
	}
	if err := s.checkEmployeeRefs(ctx, fe, emp); err != nil {
		return 0, err
	}
	if err := fe.Err(EntityEmployee); err != nil {
		return 0, err
	}
	id, err := s.store.CreateEmployee(ctx, emp)
	if err != nil {
		return 0, err
	}
	s.logger.Info("employee created", zap.Int64("id", id))
	return id, nil
}

// UpdateEmployee validates inside the store's transaction. apply must not
// call back into the store: the row lock already holds a connection, so
// references are left to the foreign keys.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (Employee, error) {
	return s.store.UpdateEmployee(ctx, id, func(current Employee) (Employee, error) {
		next, fe := ValidateEmployee(in, &current)
		return next, fe.Err(EntityEmployee)
	})
}

// DeleteEmployee also removes every payroll of the employee.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.logger.Info("employee deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) ListPayrolls(ctx context.Context, page Page) ([]Payroll, error) {
	return s.store.ListPayrolls(ctx, page)
}

func (s *Service) GetPayroll(ctx context.Context, id int64) (Payroll, error) {
	return s.store.GetPayroll(ctx, id)
}

func (s *Service) PayrollDetail(ctx context.Context, id int64) (PayrollDetail, error) {
	return s.store.GetPayrollDetail(ctx, id)
}

// CreatePayroll stamps paid_on with today's date.
func (s *Service) CreatePayroll(ctx context.Context, in PayrollInput) (int64, error) {
	pay, fe := ValidatePayroll(in, nil)
	if fe == nil {
		fe = FieldErrors{}
	}
	if err := s.checkPayrollRefs(ctx, fe, pay); err != nil {
		return 0, err
	}
	if err := fe.Err(EntityPayroll); err != nil {
		return 0, err
	}
	pay.PaidOn = DateOf(s.now())
	id, err := s.store.CreatePayroll(ctx, pay)
	if err != nil {
		return 0, err
	}
	s.logger.Info("payroll created",
		zap.Int64("id", id),
		zap.Int64("employee_id", pay.EmployeeID),
		zap.String("total_pay", pay.TotalPay().StringFixed(2)),
	)
	return id, nil
}

// UpdatePayroll never touches paid_on. Like UpdateEmployee, the employee
// reference is checked by the foreign key.
func (s *Service) UpdatePayroll(ctx context.Context, id int64, in PayrollInput) (Payroll, error) {
	return s.store.UpdatePayroll(ctx, id, func(current Payroll) (Payroll, error) {
		next, fe := ValidatePayroll(in, &current)
		next.PaidOn = current.PaidOn
		return next, fe.Err(EntityPayroll)
	})
}

func (s *Service) DeletePayroll(ctx context.Context, id int64) error {
	if err := s.store.DeletePayroll(ctx, id); err != nil {
		return err
	}
	s.logger.Info("payroll deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	return s.store.Dashboard(ctx, RecentPayrollsLimit)
}

// checkEmployeeRefs reports missing position/schedule as field errors. The
// store's foreign keys still decide if a referenced row disappears meanwhile.
func (s *Service) checkEmployeeRefs(ctx context.Context, fe FieldErrors, emp Employee) error {
	if emp.PositionID != 0 && !fe.Has("positionId") {
		if _, err := s.store.GetPosition(ctx, emp.PositionID); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			fe.Add("positionId", msgInvalidRef)
		}
	}
	if emp.ScheduleID != 0 && !fe.Has("scheduleId") {
		if _, err := s.store.GetSchedule(ctx, emp.ScheduleID); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			fe.Add("scheduleId", msgInvalidRef)
		}
	}
	return nil
}

func (s *Service) checkPayrollRefs(ctx context.Context, fe FieldErrors, pay Payroll) error {
	if pay.EmployeeID == 0 || fe.Has("employeeId") {
		return nil
	}
	if _, err := s.store.GetEmployee(ctx, pay.EmployeeID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		fe.Add("employeeId", msgInvalidRef)
	}
	return nil
}
