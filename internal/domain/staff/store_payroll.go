package staff

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const payrollColumns = `p.id, p.employee_id, p.period_start, p.period_end, p.gross_pay, p.bonus, p.paid_on, p.notes`

func payrollDest(p *Payroll) []any {
	return []any{&p.ID, &p.EmployeeID, &p.PeriodStart, &p.PeriodEnd, &p.GrossPay, &p.Bonus, &p.PaidOn, &p.Notes}
}

func scanPayroll(row scanner) (Payroll, error) {
	var p Payroll
	err := row.Scan(payrollDest(&p)...)
	return p, err
}

// ListPayrolls returns the newest payments first with their employee attached.
func (s *Store) ListPayrolls(ctx context.Context, page Page) ([]Payroll, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payrollColumns+`, `+employeeColumns+`
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    ORDER BY p.paid_on DESC, p.id DESC
    LIMIT $1 OFFSET $2
  `, limitArg(page), page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list payrolls: %w", err)
	}
	defer rows.Close()

	out := make([]Payroll, 0)
	for rows.Next() {
		var p Payroll
		var emp Employee
		if err := rows.Scan(append(payrollDest(&p), employeeDest(&emp)...)...); err != nil {
			return nil, fmt.Errorf("scan payroll: %w", err)
		}
		p.Employee = &emp
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPayroll(ctx context.Context, id int64) (Payroll, error) {
	p, err := scanPayroll(s.DB.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payrolls p WHERE p.id = $1`, id))
	if err != nil {
		return Payroll{}, rowErr(EntityPayroll, id, err)
	}
	return p, nil
}

func (s *Store) GetPayrollDetail(ctx context.Context, id int64) (PayrollDetail, error) {
	var d PayrollDetail
	dest := append(payrollDest(&d.Payroll), employeeDest(&d.Employee)...)
	dest = append(dest,
		&d.Position.ID, &d.Position.Name, &d.Position.Description, &d.Position.BaseSalary,
		&d.Schedule.ID, &d.Schedule.Name, &d.Schedule.StartTime, &d.Schedule.EndTime, &d.Schedule.Days,
	)
	err := s.DB.QueryRow(ctx, `
    SELECT `+payrollColumns+`, `+employeeColumns+`,
           pos.id, pos.name, pos.description, pos.base_salary,
           ws.id, ws.name, to_char(ws.start_time, 'HH24:MI:SS'), to_char(ws.end_time, 'HH24:MI:SS'), ws.days
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    JOIN positions pos ON pos.id = e.position_id
    JOIN work_schedules ws ON ws.id = e.schedule_id
    WHERE p.id = $1
  `, id).Scan(dest...)
	if err != nil {
		return PayrollDetail{}, rowErr(EntityPayroll, id, err)
	}
	if clock, err := ParseClock(d.Schedule.StartTime); err == nil {
		d.Schedule.StartTime = clock
	}
	if clock, err := ParseClock(d.Schedule.EndTime); err == nil {
		d.Schedule.EndTime = clock
	}
	return d, nil
}

func (s *Store) CreatePayroll(ctx context.Context, p Payroll) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payrolls (employee_id, period_start, period_end, gross_pay, bonus, paid_on, notes)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `, p.EmployeeID, p.PeriodStart, p.PeriodEnd, p.GrossPay, p.Bonus, p.PaidOn, p.Notes).Scan(&id)
	if err != nil {
		return 0, writeErr(EntityPayroll, err)
	}
	return id, nil
}

// UpdatePayroll never writes paid_on.
func (s *Store) UpdatePayroll(ctx context.Context, id int64, apply func(Payroll) (Payroll, error)) (Payroll, error) {
	var out Payroll
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := scanPayroll(tx.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payrolls p WHERE p.id = $1 FOR UPDATE`, id))
		if err != nil {
			return rowErr(EntityPayroll, id, err)
		}
		next, err := apply(current)
		if err != nil {
			return err
		}
		next.ID = id
		next.PaidOn = current.PaidOn
		if _, err := tx.Exec(ctx, `
      UPDATE payrolls
      SET employee_id = $1, period_start = $2, period_end = $3, gross_pay = $4, bonus = $5, notes = $6
      WHERE id = $7
    `, next.EmployeeID, next.PeriodStart, next.PeriodEnd, next.GrossPay, next.Bonus, next.Notes, id); err != nil {
			return writeErr(EntityPayroll, err)
		}
		out = next
		return nil
	})
	return out, err
}

func (s *Store) DeletePayroll(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, EntityPayroll, `DELETE FROM payrolls WHERE id = $1`, id)
}

func (s *Store) Dashboard(ctx context.Context, recent int) (Dashboard, error) {
	var d Dashboard
	err := s.DB.QueryRow(ctx, `
    SELECT (SELECT COUNT(1) FROM employees),
           (SELECT COUNT(1) FROM positions),
           (SELECT COUNT(1) FROM payrolls)
  `).Scan(&d.Employees, &d.Positions, &d.Payrolls)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard counts: %w", err)
	}
	d.RecentPayrolls, err = s.ListPayrolls(ctx, Page{Limit: recent})
	if err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
