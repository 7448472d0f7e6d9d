package staff

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const employeeColumns = `e.id, e.first_name, e.last_name, e.email, e.phone, e.position_id, e.schedule_id, e.salary, e.hire_date, e.is_active`

func employeeDest(e *Employee) []any {
	return []any{&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Phone, &e.PositionID, &e.ScheduleID, &e.Salary, &e.HireDate, &e.IsActive}
}

func scanEmployee(row scanner) (Employee, error) {
	var e Employee
	err := row.Scan(employeeDest(&e)...)
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context, page Page) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees e
    ORDER BY e.last_name, e.first_name, e.id
    LIMIT $1 OFFSET $2
  `, limitArg(page), page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	out := make([]Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees e WHERE e.id = $1`, id))
	if err != nil {
		return Employee{}, rowErr(EntityEmployee, id, err)
	}
	return emp, nil
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, email, phone, position_id, schedule_id, salary, hire_date, is_active)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING id
  `,
		emp.FirstName, emp.LastName, emp.Email, emp.Phone, emp.PositionID, emp.ScheduleID,
		emp.Salary, emp.HireDate, emp.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, writeErr(EntityEmployee, err)
	}
	return id, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id int64, apply func(Employee) (Employee, error)) (Employee, error) {
	var out Employee
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := scanEmployee(tx.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees e WHERE e.id = $1 FOR UPDATE`, id))
		if err != nil {
			return rowErr(EntityEmployee, id, err)
		}
		next, err := apply(current)
		if err != nil {
			return err
		}
		next.ID = id
		if _, err := tx.Exec(ctx, `
      UPDATE employees
      SET first_name = $1,
          last_name = $2,
          email = $3,
          phone = $4,
          position_id = $5,
          schedule_id = $6,
          salary = $7,
          hire_date = $8,
          is_active = $9
      WHERE id = $10
    `,
			next.FirstName, next.LastName, next.Email, next.Phone, next.PositionID, next.ScheduleID,
			next.Salary, next.HireDate, next.IsActive, id,
		); err != nil {
			return writeErr(EntityEmployee, err)
		}
		out = next
		return nil
	})
	return out, err
}

// DeleteEmployee removes payrolls first, then the employee, in one transaction.
// The payrolls foreign key also cascades, so a concurrent insert cannot strand
// rows between the two statements.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM employees WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			return rowErr(EntityEmployee, id, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM payrolls WHERE employee_id = $1`, id); err != nil {
			return deleteErr(EntityPayroll, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id); err != nil {
			return deleteErr(EntityEmployee, err)
		}
		return nil
	})
}
