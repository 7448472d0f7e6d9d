// Package payslip renders one payroll entry as a single-page A4 PDF.
//
// The layout is fixed: every line is drawn at the same left margin with a
// constant step, so the output depends only on the payroll data. The document
// dates are pinned to the payment date and the PDF catalogs are sorted, which
// makes two renders of the same data byte-identical.
package payslip

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"staff/internal/domain/staff"
)

const (
	marginLeft  = 50.0
	firstLine   = 50.0
	titleStep   = 30.0
	lineStep    = 20.0
	notesStep   = 30.0
	titleSize   = 16.0
	bodySize    = 12.0
	ttfFamily   = "payslip"
	coreFamily  = "Helvetica"
	dateLayout  = "2006-01-02"
	title       = "Расчётный лист"
	producerTag = "staff payslip"
)

// Line is one printed row of the payslip.
type Line struct {
	Text string
	Bold bool
	// Gap is the vertical distance from the previous line's baseline.
	Gap float64
}

type Options struct {
	// FontPath is a UTF-8 TrueType font. When empty the core Helvetica font
	// is used and Cyrillic text is transliterated.
	FontPath string
	// BoldFontPath is used for the title; FontPath when empty.
	BoldFontPath string
	Compress     bool
}

type Generator struct {
	opts Options
}

func NewGenerator(opts Options) (*Generator, error) {
	if opts.BoldFontPath != "" && opts.FontPath == "" {
		return nil, fmt.Errorf("payslip: bold font requires a regular font")
	}
	for _, path := range []string{opts.FontPath, opts.BoldFontPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("payslip font: %w", err)
		}
	}
	return &Generator{opts: opts}, nil
}

// Filename is the download name: payslip_<last name>_<period end>.pdf.
func Filename(d staff.PayrollDetail) string {
	return fmt.Sprintf("payslip_%s_%s.pdf", d.Employee.LastName, d.Payroll.PeriodEnd.Format(dateLayout))
}

// Lines lists the payslip rows in print order.
func Lines(d staff.PayrollDetail) []Line {
	p := d.Payroll
	lines := []Line{
		{Text: title, Bold: true, Gap: 0},
		{Text: "Сотрудник: " + d.Employee.FullName(), Gap: titleStep},
		{Text: "Должность: " + d.Position.Name, Gap: lineStep},
		{Text: "График: " + d.Schedule.Name, Gap: lineStep},
		{Text: "Период: " + p.PeriodStart.Format(dateLayout) + " - " + p.PeriodEnd.Format(dateLayout), Gap: lineStep},
		{Text: "Оклад: " + d.Employee.Salary.StringFixed(2), Gap: lineStep},
		{Text: "Начисления: " + p.GrossPay.StringFixed(2), Gap: lineStep},
		{Text: "Бонус: " + p.Bonus.StringFixed(2), Gap: lineStep},
		{Text: "Итого к выплате: " + p.TotalPay().StringFixed(2), Gap: lineStep},
		{Text: "Выплачено: " + p.PaidOn.Format(dateLayout), Gap: lineStep},
	}
	if strings.TrimSpace(p.Notes) != "" {
		lines = append(lines, Line{Text: "Комментарий: " + p.Notes, Gap: notesStep})
	}
	return lines
}

func (g *Generator) Generate(d staff.PayrollDetail) ([]byte, error) {
	pdf, encode, err := g.newDocument()
	if err != nil {
		return nil, err
	}
	pdf.SetCreationDate(d.Payroll.PaidOn)
	pdf.SetModificationDate(d.Payroll.PaidOn)
	pdf.SetTitle(encode(title+" "+d.Employee.FullName()), g.opts.FontPath != "")
	pdf.AddPage()

	family := coreFamily
	if g.opts.FontPath != "" {
		family = ttfFamily
	}
	y := firstLine
	for _, line := range Lines(d) {
		y += line.Gap
		if line.Bold {
			pdf.SetFont(family, "B", titleSize)
		} else {
			pdf.SetFont(family, "", bodySize)
		}
		pdf.Text(marginLeft, y, encode(line.Text))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) newDocument() (*gofpdf.Fpdf, func(string) string, error) {
	fontDir := ""
	if g.opts.FontPath != "" {
		fontDir = filepath.Dir(g.opts.FontPath)
	}
	pdf := gofpdf.New("P", "pt", "A4", fontDir)
	pdf.SetCompression(g.opts.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetProducer(producerTag, false)

	if g.opts.FontPath == "" {
		translate := pdf.UnicodeTranslatorFromDescriptor("")
		return pdf, func(s string) string { return translate(Transliterate(s)) }, nil
	}

	regular := filepath.Base(g.opts.FontPath)
	bold := regular
	if g.opts.BoldFontPath != "" {
		rel, err := filepath.Rel(fontDir, g.opts.BoldFontPath)
		if err != nil {
			return nil, nil, fmt.Errorf("payslip bold font: %w", err)
		}
		bold = rel
	}
	pdf.AddUTF8Font(ttfFamily, "", regular)
	pdf.AddUTF8Font(ttfFamily, "B", bold)
	if err := pdf.Error(); err != nil {
		return nil, nil, fmt.Errorf("load payslip font: %w", err)
	}
	return pdf, func(s string) string { return s }, nil
}

// Document is a rendered payslip ready to be sent as a download.
type Document struct {
	Filename string
	Content  []byte
}

// DetailSource loads a payroll with its employee, position and schedule.
type DetailSource interface {
	PayrollDetail(ctx context.Context, id int64) (staff.PayrollDetail, error)
}

// Payslip looks the payroll up and renders it. A missing payroll surfaces
// staff.ErrNotFound from the source unchanged.
func (g *Generator) Payslip(ctx context.Context, src DetailSource, payrollID int64) (Document, error) {
	detail, err := src.PayrollDetail(ctx, payrollID)
	if err != nil {
		return Document{}, err
	}
	content, err := g.Generate(detail)
	if err != nil {
		return Document{}, err
	}
	return Document{Filename: Filename(detail), Content: content}, nil
}
