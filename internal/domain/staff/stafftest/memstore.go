// Package stafftest provides an in-memory staff.StoreAPI for tests. It
// enforces the same unique, protect and cascade rules as the Postgres schema
// and applies every write under one lock, so a failed write changes nothing.
// Update callbacks run under that lock too, the way the Postgres store runs
// them inside a row-locking transaction: a callback that reads back through
// the store blocks forever.
package stafftest

import (
	"context"
	"sort"
	"sync"

	"staff/internal/domain/staff"
)

type MemStore struct {
	mu        sync.Mutex
	nextID    int64
	positions map[int64]staff.Position
	schedules map[int64]staff.WorkSchedule
	employees map[int64]staff.Employee
	payrolls  map[int64]staff.Payroll

	// FailWith, when set, is returned by every call.
	FailWith error
}

var _ staff.StoreAPI = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		positions: make(map[int64]staff.Position),
		schedules: make(map[int64]staff.WorkSchedule),
		employees: make(map[int64]staff.Employee),
		payrolls:  make(map[int64]staff.Payroll),
	}
}

func (m *MemStore) lock() (func(), error) {
	m.mu.Lock()
	if m.FailWith != nil {
		m.mu.Unlock()
		return nil, m.FailWith
	}
	return m.mu.Unlock, nil
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func paginate[T any](items []T, page staff.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func (m *MemStore) ListPositions(ctx context.Context, page staff.Page) ([]staff.Position, error) {
	unlock, err := m.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]staff.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, page), nil
}

func (m *MemStore) GetPosition(ctx context.Context, id int64) (staff.Position, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.Position{}, err
	}
	defer unlock()
	p, ok := m.positions[id]
	if !ok {
		return staff.Position{}, staff.NotFound(staff.EntityPosition, id)
	}
	return p, nil
}

func (m *MemStore) CreatePosition(ctx context.Context, p staff.Position) (int64, error) {
	unlock, err := m.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	if err := m.checkPosition(0, p); err != nil {
		return 0, err
	}
	p.ID = m.id()
	m.positions[p.ID] = p
	return p.ID, nil
}

func (m *MemStore) UpdatePosition(ctx context.Context, id int64, apply func(staff.Position) (staff.Position, error)) (staff.Position, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.Position{}, err
	}
	defer unlock()
	current, ok := m.positions[id]
	if !ok {
		return staff.Position{}, staff.NotFound(staff.EntityPosition, id)
	}
	next, err := apply(current)
	if err != nil {
		return staff.Position{}, err
	}
	next.ID = id
	if err := m.checkPosition(id, next); err != nil {
		return staff.Position{}, err
	}
	m.positions[id] = next
	return next, nil
}

func (m *MemStore) DeletePosition(ctx context.Context, id int64) error {
	unlock, err := m.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := m.positions[id]; !ok {
		return staff.NotFound(staff.EntityPosition, id)
	}
	for _, e := range m.employees {
		if e.PositionID == id {
			return &staff.IntegrityError{Entity: staff.EntityPosition, ReferencedBy: staff.EntityEmployee}
		}
	}
	delete(m.positions, id)
	return nil
}

func (m *MemStore) checkPosition(self int64, p staff.Position) error {
	for id, other := range m.positions {
		if id != self && other.Name == p.Name {
			return staff.DuplicateError(staff.EntityPosition, "name")
		}
	}
	return nil
}

func (m *MemStore) ListSchedules(ctx context.Context, page staff.Page) ([]staff.WorkSchedule, error) {
	unlock, err := m.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]staff.WorkSchedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, page), nil
}

func (m *MemStore) GetSchedule(ctx context.Context, id int64) (staff.WorkSchedule, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.WorkSchedule{}, err
	}
	defer unlock()
	s, ok := m.schedules[id]
	if !ok {
		return staff.WorkSchedule{}, staff.NotFound(staff.EntitySchedule, id)
	}
	return s, nil
}

func (m *MemStore) CreateSchedule(ctx context.Context, s staff.WorkSchedule) (int64, error) {
	unlock, err := m.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	s.ID = m.id()
	m.schedules[s.ID] = s
	return s.ID, nil
}

func (m *MemStore) UpdateSchedule(ctx context.Context, id int64, apply func(staff.WorkSchedule) (staff.WorkSchedule, error)) (staff.WorkSchedule, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.WorkSchedule{}, err
	}
	defer unlock()
	current, ok := m.schedules[id]
	if !ok {
		return staff.WorkSchedule{}, staff.NotFound(staff.EntitySchedule, id)
	}
	next, err := apply(current)
	if err != nil {
		return staff.WorkSchedule{}, err
	}
	next.ID = id
	m.schedules[id] = next
	return next, nil
}

func (m *MemStore) DeleteSchedule(ctx context.Context, id int64) error {
	unlock, err := m.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := m.schedules[id]; !ok {
		return staff.NotFound(staff.EntitySchedule, id)
	}
	for _, e := range m.employees {
		if e.ScheduleID == id {
			return &staff.IntegrityError{Entity: staff.EntitySchedule, ReferencedBy: staff.EntityEmployee}
		}
	}
	delete(m.schedules, id)
	return nil
}

func (m *MemStore) ListEmployees(ctx context.Context, page staff.Page) ([]staff.Employee, error) {
	unlock, err := m.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return paginate(m.sortedEmployees(), page), nil
}

func (m *MemStore) sortedEmployees() []staff.Employee {
	out := make([]staff.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemStore) GetEmployee(ctx context.Context, id int64) (staff.Employee, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.Employee{}, err
	}
	defer unlock()
	e, ok := m.employees[id]
	if !ok {
		return staff.Employee{}, staff.NotFound(staff.EntityEmployee, id)
	}
	return e, nil
}

func (m *MemStore) CreateEmployee(ctx context.Context, e staff.Employee) (int64, error) {
	unlock, err := m.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	if err := m.checkEmployee(0, e); err != nil {
		return 0, err
	}
	e.ID = m.id()
	m.employees[e.ID] = e
	return e.ID, nil
}

func (m *MemStore) UpdateEmployee(ctx context.Context, id int64, apply func(staff.Employee) (staff.Employee, error)) (staff.Employee, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.Employee{}, err
	}
	defer unlock()
	current, ok := m.employees[id]
	if !ok {
		return staff.Employee{}, staff.NotFound(staff.EntityEmployee, id)
	}
	next, err := apply(current)
	if err != nil {
		return staff.Employee{}, err
	}
	next.ID = id
	if err := m.checkEmployee(id, next); err != nil {
		return staff.Employee{}, err
	}
	m.employees[id] = next
	return next, nil
}

func (m *MemStore) checkEmployee(self int64, e staff.Employee) error {
	for id, other := range m.employees {
		if id != self && other.Email == e.Email {
			return staff.DuplicateError(staff.EntityEmployee, "email")
		}
	}
	if _, ok := m.positions[e.PositionID]; !ok {
		return staff.InvalidReferenceError(staff.EntityEmployee, "positionId")
	}
	if _, ok := m.schedules[e.ScheduleID]; !ok {
		return staff.InvalidReferenceError(staff.EntityEmployee, "scheduleId")
	}
	return nil
}

func (m *MemStore) DeleteEmployee(ctx context.Context, id int64) error {
	unlock, err := m.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := m.employees[id]; !ok {
		return staff.NotFound(staff.EntityEmployee, id)
	}
	for pid, p := range m.payrolls {
		if p.EmployeeID == id {
			delete(m.payrolls, pid)
		}
	}
	delete(m.employees, id)
	return nil
}

func (m *MemStore) ListPayrolls(ctx context.Context, page staff.Page) ([]staff.Payroll, error) {
	unlock, err := m.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return m.listPayrolls(page), nil
}

func (m *MemStore) listPayrolls(page staff.Page) []staff.Payroll {
	out := make([]staff.Payroll, 0, len(m.payrolls))
	for _, p := range m.payrolls {
		emp := m.employees[p.EmployeeID]
		p.Employee = &emp
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidOn.Equal(out[j].PaidOn) {
			return out[i].PaidOn.After(out[j].PaidOn)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page)
}

func (m *MemStore) GetPayroll(ctx context.Context, id int64) (staff.Payroll, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.Payroll{}, err
	}
	defer unlock()
	p, ok := m.payrolls[id]
	if !ok {
		return staff.Payroll{}, staff.NotFound(staff.EntityPayroll, id)
	}
	return p, nil
}

func (m *MemStore) GetPayrollDetail(ctx context.Context, id int64) (staff.PayrollDetail, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.PayrollDetail{}, err
	}
	defer unlock()
	p, ok := m.payrolls[id]
	if !ok {
		return staff.PayrollDetail{}, staff.NotFound(staff.EntityPayroll, id)
	}
	emp := m.employees[p.EmployeeID]
	return staff.PayrollDetail{
		Payroll:  p,
		Employee: emp,
		Position: m.positions[emp.PositionID],
		Schedule: m.schedules[emp.ScheduleID],
	}, nil
}

func (m *MemStore) CreatePayroll(ctx context.Context, p staff.Payroll) (int64, error) {
	unlock, err := m.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	if _, ok := m.employees[p.EmployeeID]; !ok {
		return 0, staff.InvalidReferenceError(staff.EntityPayroll, "employeeId")
	}
	p.ID = m.id()
	p.Employee = nil
	m.payrolls[p.ID] = p
	return p.ID, nil
}

func (m *MemStore) UpdatePayroll(ctx context.Context, id int64, apply func(staff.Payroll) (staff.Payroll, error)) (staff.Payroll, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.Payroll{}, err
	}
	defer unlock()
	current, ok := m.payrolls[id]
	if !ok {
		return staff.Payroll{}, staff.NotFound(staff.EntityPayroll, id)
	}
	next, err := apply(current)
	if err != nil {
		return staff.Payroll{}, err
	}
	if _, ok := m.employees[next.EmployeeID]; !ok {
		return staff.Payroll{}, staff.InvalidReferenceError(staff.EntityPayroll, "employeeId")
	}
	next.ID = id
	next.PaidOn = current.PaidOn
	next.Employee = nil
	m.payrolls[id] = next
	return next, nil
}

func (m *MemStore) DeletePayroll(ctx context.Context, id int64) error {
	unlock, err := m.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := m.payrolls[id]; !ok {
		return staff.NotFound(staff.EntityPayroll, id)
	}
	delete(m.payrolls, id)
	return nil
}

func (m *MemStore) Dashboard(ctx context.Context, recent int) (staff.Dashboard, error) {
	unlock, err := m.lock()
	if err != nil {
		return staff.Dashboard{}, err
	}
	defer unlock()
	return staff.Dashboard{
		Employees:      len(m.employees),
		Positions:      len(m.positions),
		Payrolls:       len(m.payrolls),
		RecentPayrolls: m.listPayrolls(staff.Page{Limit: recent}),
	}, nil
}

// PayrollIDsFor lists the payroll ids of one employee, for cascade assertions.
func (m *MemStore) PayrollIDsFor(employeeID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for id, p := range m.payrolls {
		if p.EmployeeID == employeeID {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
