package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type uniqueRule struct {
	entity string
	field  string
}

// foreignKey links a child column to the entity it points at.
type foreignKey struct {
	child  string
	field  string
	parent string
}

// Constraint names are declared explicitly in migrations/0002_staff.sql.
var (
	uniqueRules = map[string]uniqueRule{
		"positions_name_key":  {entity: EntityPosition, field: "name"},
		"employees_email_key": {entity: EntityEmployee, field: "email"},
	}
	foreignKeys = map[string]foreignKey{
		"employees_position_fk": {child: EntityEmployee, field: "positionId", parent: EntityPosition},
		"employees_schedule_fk": {child: EntityEmployee, field: "scheduleId", parent: EntitySchedule},
		"payrolls_employee_fk":  {child: EntityPayroll, field: "employeeId", parent: EntityEmployee},
	}
	checkRules = map[string]uniqueRule{
		"positions_base_salary_check": {entity: EntityPosition, field: "baseSalary"},
		"employees_salary_check":      {entity: EntityEmployee, field: "salary"},
		"payrolls_gross_pay_check":    {entity: EntityPayroll, field: "grossPay"},
	}
)

type Store struct {
	DB *pgxpool.Pool
}

var _ StoreAPI = (*Store)(nil)

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, fn)
}

const positionColumns = `id, name, description, base_salary`

func scanPosition(row scanner) (Position, error) {
	var p Position
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.BaseSalary)
	return p, err
}

func (s *Store) ListPositions(ctx context.Context, page Page) ([]Position, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+positionColumns+`
    FROM positions
    ORDER BY name, id
    LIMIT $1 OFFSET $2
  `, limitArg(page), page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	out := make([]Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPosition(ctx context.Context, id int64) (Position, error) {
	p, err := scanPosition(s.DB.QueryRow(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = $1`, id))
	if err != nil {
		return Position{}, rowErr(EntityPosition, id, err)
	}
	return p, nil
}

func (s *Store) CreatePosition(ctx context.Context, p Position) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO positions (name, description, base_salary)
    VALUES ($1, $2, $3)
    RETURNING id
  `, p.Name, p.Description, p.BaseSalary).Scan(&id)
	if err != nil {
		return 0, writeErr(EntityPosition, err)
	}
	return id, nil
}

func (s *Store) UpdatePosition(ctx context.Context, id int64, apply func(Position) (Position, error)) (Position, error) {
	var out Position
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := scanPosition(tx.QueryRow(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return rowErr(EntityPosition, id, err)
		}
		next, err := apply(current)
		if err != nil {
			return err
		}
		next.ID = id
		if _, err := tx.Exec(ctx, `
      UPDATE positions
      SET name = $1, description = $2, base_salary = $3
      WHERE id = $4
    `, next.Name, next.Description, next.BaseSalary, id); err != nil {
			return writeErr(EntityPosition, err)
		}
		out = next
		return nil
	})
	return out, err
}

func (s *Store) DeletePosition(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, EntityPosition, `DELETE FROM positions WHERE id = $1`, id)
}

const scheduleColumns = `id, name, to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'), days`

func scanSchedule(row scanner) (WorkSchedule, error) {
	var ws WorkSchedule
	if err := row.Scan(&ws.ID, &ws.Name, &ws.StartTime, &ws.EndTime, &ws.Days); err != nil {
		return WorkSchedule{}, err
	}
	if clock, err := ParseClock(ws.StartTime); err == nil {
		ws.StartTime = clock
	}
	if clock, err := ParseClock(ws.EndTime); err == nil {
		ws.EndTime = clock
	}
	return ws, nil
}

func (s *Store) ListSchedules(ctx context.Context, page Page) ([]WorkSchedule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+scheduleColumns+`
    FROM work_schedules
    ORDER BY name, id
    LIMIT $1 OFFSET $2
  `, limitArg(page), page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	out := make([]WorkSchedule, 0)
	for rows.Next() {
		ws, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (s *Store) GetSchedule(ctx context.Context, id int64) (WorkSchedule, error) {
	ws, err := scanSchedule(s.DB.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM work_schedules WHERE id = $1`, id))
	if err != nil {
		return WorkSchedule{}, rowErr(EntitySchedule, id, err)
	}
	return ws, nil
}

func (s *Store) CreateSchedule(ctx context.Context, ws WorkSchedule) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO work_schedules (name, start_time, end_time, days)
    VALUES ($1, $2::time, $3::time, $4)
    RETURNING id
  `, ws.Name, ws.StartTime, ws.EndTime, ws.Days).Scan(&id)
	if err != nil {
		return 0, writeErr(EntitySchedule, err)
	}
	return id, nil
}

func (s *Store) UpdateSchedule(ctx context.Context, id int64, apply func(WorkSchedule) (WorkSchedule, error)) (WorkSchedule, error) {
	var out WorkSchedule
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := scanSchedule(tx.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM work_schedules WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return rowErr(EntitySchedule, id, err)
		}
		next, err := apply(current)
		if err != nil {
			return err
		}
		next.ID = id
		if _, err := tx.Exec(ctx, `
      UPDATE work_schedules
      SET name = $1, start_time = $2::time, end_time = $3::time, days = $4
      WHERE id = $5
    `, next.Name, next.StartTime, next.EndTime, next.Days, id); err != nil {
			return writeErr(EntitySchedule, err)
		}
		out = next
		return nil
	})
	return out, err
}

func (s *Store) DeleteSchedule(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, EntitySchedule, `DELETE FROM work_schedules WHERE id = $1`, id)
}

// deleteByID runs a single-row delete; protect rules surface as *IntegrityError.
func (s *Store) deleteByID(ctx context.Context, entity, query string, id int64) error {
	cmd, err := s.DB.Exec(ctx, query, id)
	if err != nil {
		return deleteErr(entity, err)
	}
	if cmd.RowsAffected() == 0 {
		return NotFound(entity, id)
	}
	return nil
}

func limitArg(page Page) any {
	if page.Limit <= 0 {
		return nil
	}
	return page.Limit
}

func rowErr(entity string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound(entity, id)
	}
	return fmt.Errorf("load %s %d: %w", entity, id, err)
}

func writeErr(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if rule, ok := uniqueRules[pgErr.ConstraintName]; ok {
				return DuplicateError(rule.entity, rule.field)
			}
		case pgForeignKeyViolation:
			if fk, ok := foreignKeys[pgErr.ConstraintName]; ok {
				return InvalidReferenceError(fk.child, fk.field)
			}
		case pgCheckViolation:
			if rule, ok := checkRules[pgErr.ConstraintName]; ok {
				return FieldError(rule.entity, rule.field, msgNonNegative)
			}
		}
	}
	return fmt.Errorf("write %s: %w", entity, err)
}

func deleteErr(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		if fk, ok := foreignKeys[pgErr.ConstraintName]; ok {
			return &IntegrityError{Entity: fk.parent, ReferencedBy: fk.child}
		}
		return &IntegrityError{Entity: entity, ReferencedBy: "record"}
	}
	return fmt.Errorf("delete %s: %w", entity, err)
}
