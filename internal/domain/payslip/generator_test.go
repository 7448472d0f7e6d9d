package payslip

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff/internal/domain/staff"
)

func sampleDetail() staff.PayrollDetail {
	return staff.PayrollDetail{
		Payroll: staff.Payroll{
			ID:          1,
			EmployeeID:  1,
			PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			GrossPay:    decimal.RequireFromString("1200"),
			Bonus:       decimal.RequireFromString("100"),
			PaidOn:      time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		},
		Employee: staff.Employee{
			ID:        1,
			FirstName: "Ivan",
			LastName:  "Petrov",
			Email:     "ivan@example.com",
			Salary:    decimal.RequireFromString("1200"),
		},
		Position: staff.Position{ID: 1, Name: "Engineer", BaseSalary: decimal.RequireFromString("1000")},
		Schedule: staff.WorkSchedule{ID: 1, Name: "Day", StartTime: "09:00", EndTime: "18:00", Days: "Mon-Fri"},
	}
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(Options{Compress: false})
	require.NoError(t, err)
	return g
}

func TestLinesOrder(t *testing.T) {
	lines := Lines(sampleDetail())
	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	assert.Equal(t, []string{
		"Расчётный лист",
		"Сотрудник: Petrov Ivan",
		"Должность: Engineer",
		"График: Day",
		"Период: 2024-01-01 - 2024-01-31",
		"Оклад: 1200.00",
		"Начисления: 1200.00",
		"Бонус: 100.00",
		"Итого к выплате: 1300.00",
		"Выплачено: 2024-02-05",
	}, texts)
	assert.True(t, lines[0].Bold)
	assert.Equal(t, titleStep, lines[1].Gap)
	assert.Equal(t, lineStep, lines[2].Gap)
}

func TestLinesNotes(t *testing.T) {
	d := sampleDetail()
	d.Payroll.Notes = "   "
	assert.Len(t, Lines(d), 10)

	d.Payroll.Notes = "overtime"
	lines := Lines(d)
	require.Len(t, lines, 11)
	last := lines[len(lines)-1]
	assert.Equal(t, "Комментарий: overtime", last.Text)
	assert.Equal(t, notesStep, last.Gap)
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := newTestGenerator(t)
	first, err := g.Generate(sampleDetail())
	require.NoError(t, err)
	second, err := g.Generate(sampleDetail())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "two renders of the same payroll differ")
	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
	assert.Contains(t, string(first), "%%EOF")
}

func TestGenerateContainsValues(t *testing.T) {
	g := newTestGenerator(t)
	out, err := g.Generate(sampleDetail())
	require.NoError(t, err)
	body := string(out)
	for _, want := range []string{"Ivan", "Petrov", "1200", "100", "1300", "Raschetnyi list", "Sotrudnik"} {
		assert.Contains(t, body, want)
	}
}

func TestGenerateDoesNotMutate(t *testing.T) {
	g := newTestGenerator(t)
	d := sampleDetail()
	d.Payroll.Notes = "note"
	before := d
	_, err := g.Generate(d)
	require.NoError(t, err)
	assert.Equal(t, before, d)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "payslip_Petrov_2024-01-31.pdf", Filename(sampleDetail()))
}

func TestTransliterate(t *testing.T) {
	assert.Equal(t, "Itogo k vyplate: 10", Transliterate("Итого к выплате: 10"))
	assert.Equal(t, "Shchukin Iurii", Transliterate("Щукин Юрий"))
}

func TestNewGeneratorRejectsMissingFont(t *testing.T) {
	_, err := NewGenerator(Options{FontPath: "/nonexistent/font.ttf"})
	assert.Error(t, err)
	_, err = NewGenerator(Options{BoldFontPath: "/nonexistent/bold.ttf"})
	assert.Error(t, err)
}

type detailSource map[int64]staff.PayrollDetail

func (s detailSource) PayrollDetail(ctx context.Context, id int64) (staff.PayrollDetail, error) {
	d, ok := s[id]
	if !ok {
		return staff.PayrollDetail{}, staff.NotFound(staff.EntityPayroll, id)
	}
	return d, nil
}

func TestPayslip(t *testing.T) {
	g := newTestGenerator(t)
	src := detailSource{1: sampleDetail()}

	doc, err := g.Payslip(context.Background(), src, 1)
	require.NoError(t, err)
	assert.Equal(t, "payslip_Petrov_2024-01-31.pdf", doc.Filename)
	assert.NotEmpty(t, doc.Content)

	_, err = g.Payslip(context.Background(), src, 2)
	assert.True(t, errors.Is(err, staff.ErrNotFound))
}
