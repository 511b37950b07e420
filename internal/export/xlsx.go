// Package export renders invoices and reports as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/services"

	"github.com/xuri/excelize/v2"
)

const (
	InvoiceSheet  = "Invoice"
	CategorySheet = "Categories"
	MonthlySheet  = "Monthly"
	JobsSheet     = "Jobs"
	ReportSheet   = "Report"

	moneyFormat = 2 // built-in "0.00"
)

// workbook wraps an excelize file with the row writer and styles shared by
// every export.
type workbook struct {
	f     *excelize.File
	bold  int
	money int
}

func newWorkbook(first string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bold style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("money style: %w", err)
	}
	return &workbook{f: f, bold: bold, money: money}, nil
}

func (w *workbook) sheet(name string) error {
	if idx, _ := w.f.GetSheetIndex(name); idx != -1 {
		return nil
	}
	_, err := w.f.NewSheet(name)
	return err
}

// row writes values starting at column A. Decimal values become numbers
// with the money style.
func (w *workbook) row(sheet string, r int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, r)
		if err != nil {
			return err
		}
		if m, ok := v.(money); ok {
			if err := w.f.SetCellValue(sheet, cell, m.InexactFloat64()); err != nil {
				return err
			}
			if err := w.f.SetCellStyle(sheet, cell, cell, w.money); err != nil {
				return err
			}
			continue
		}
		if err := w.f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) header(sheet string, r int, titles ...string) error {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	if err := w.row(sheet, r, values...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(titles), r)
	if err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, r)
	return w.f.SetCellStyle(sheet, first, last, w.bold)
}

func (w *workbook) bytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// render builds a workbook whose first sheet is named first, lets fill
// populate it and serializes the result. The file is closed on every path.
func render(first string, fill func(w *workbook) error) ([]byte, error) {
	w, err := newWorkbook(first)
	if err != nil {
		return nil, err
	}
	defer w.f.Close()
	if err := fill(w); err != nil {
		return nil, err
	}
	return w.bytes()
}

// InvoiceXLSX renders an issued invoice: company block, client and dates,
// numbered line items and the totals the invoice was issued with.
func InvoiceXLSX(doc core.InvoiceDocument) ([]byte, error) {
	start := time.Now()
	out, err := render(InvoiceSheet, func(w *workbook) error {
		return fillInvoice(w, doc)
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Rendered invoice workbook",
		"invoice_id", doc.Invoice.ID,
		"lines", len(doc.Lines),
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

func fillInvoice(w *workbook, doc core.InvoiceDocument) error {
	inv, s := doc.Invoice, doc.Settings

	r := 1
	for _, line := range []string{s.CompanyName, s.CompanyAddress, s.CompanyPhone, s.CompanyEmail} {
		if line == "" {
			continue
		}
		if err := w.row(InvoiceSheet, r, line); err != nil {
			return err
		}
		r++
	}
	r++

	meta := [][2]string{
		{"Invoice", inv.InvoiceNumber},
		{"Project", doc.Project.Title},
		{"Client", inv.ClientName},
		{"Date", inv.InvoiceDate.String()},
		{"Due", inv.DueDate.String()},
		{"Status", inv.Status},
	}
	for _, m := range meta {
		if err := w.row(InvoiceSheet, r, m[0], m[1]); err != nil {
			return err
		}
		r++
	}
	r++

	if err := w.header(InvoiceSheet, r, "No", "Description", "Quantity", "Price", "Amount"); err != nil {
		return err
	}
	r++
	for _, l := range doc.Lines {
		if err := w.row(InvoiceSheet, r, l.No, l.Description, l.Quantity.InexactFloat64(), money{l.Price}, money{l.Amount}); err != nil {
			return err
		}
		r++
	}
	r++

	t := doc.Totals
	totals := []struct {
		label string
		value money
	}{
		{"Subtotal", money{t.Subtotal}},
		{fmt.Sprintf("Tax (%s%%)", t.TaxRate.String()), money{t.TaxAmount}},
		{"Discount", money{t.DiscountAmount}},
		{"Total", money{t.GrandTotal}},
	}
	for _, tl := range totals {
		if err := w.row(InvoiceSheet, r, "", "", "", tl.label, tl.value); err != nil {
			return err
		}
		r++
	}
	r++

	for _, line := range []string{s.PaymentTerms, s.ThankYouMessage} {
		if line == "" {
			continue
		}
		if err := w.row(InvoiceSheet, r, line); err != nil {
			return err
		}
		r++
	}

	_ = w.f.SetColWidth(InvoiceSheet, "A", "A", 12)
	_ = w.f.SetColWidth(InvoiceSheet, "B", "B", 40)
	_ = w.f.SetColWidth(InvoiceSheet, "C", "E", 14)
	return nil
}

// AnalyticsXLSX renders the expense analytics view, one sheet per grouping.
func AnalyticsXLSX(a services.Analytics) ([]byte, error) {
	return render(CategorySheet, func(w *workbook) error {
		return fillAnalytics(w, a)
	})
}

func fillAnalytics(w *workbook, a services.Analytics) error {
	if err := w.header(CategorySheet, 1, "Category", "Amount", "Percent"); err != nil {
		return err
	}
	for i, c := range a.Categories {
		if err := w.row(CategorySheet, i+2, c.Label.Name, money{c.Amount}, c.Percent.InexactFloat64()); err != nil {
			return err
		}
	}
	r := len(a.Categories) + 3
	if err := w.row(CategorySheet, r, "Total", money{a.Expenses.Total}); err != nil {
		return err
	}
	if err := w.row(CategorySheet, r+1, "Line items", a.Expenses.Count); err != nil {
		return err
	}
	if err := w.row(CategorySheet, r+2, "Average", money{a.Expenses.Average}); err != nil {
		return err
	}
	_ = w.f.SetColWidth(CategorySheet, "A", "A", 28)

	if err := w.sheet(MonthlySheet); err != nil {
		return err
	}
	if err := w.header(MonthlySheet, 1, "Month", "Total"); err != nil {
		return err
	}
	for i, m := range a.Monthly {
		if err := w.row(MonthlySheet, i+2, m.Label, money{m.Total}); err != nil {
			return err
		}
	}
	return nil
}

// JobsXLSX lists jobs with their effective status.
func JobsXLSX(views []core.JobView) ([]byte, error) {
	return render(JobsSheet, func(w *workbook) error {
		return fillJobs(w, views)
	})
}

func fillJobs(w *workbook, views []core.JobView) error {
	if err := w.header(JobsSheet, 1, "Date", "Time", "Person", "Title", "Type", "Status", "Location"); err != nil {
		return err
	}
	for i, v := range views {
		j := v.Job
		if err := w.row(JobsSheet, i+2, j.ScheduledDate, j.ScheduledTime, j.PersonName, j.Title, string(j.Type), string(v.Status), j.Location); err != nil {
			return err
		}
	}
	_ = w.f.SetColWidth(JobsSheet, "C", "D", 28)
	return nil
}

// ReportXLSX lists a report's line items, newest first, closed by a total row.
func ReportXLSX(rep services.Report) ([]byte, error) {
	return render(ReportSheet, func(w *workbook) error {
		return fillReport(w, rep)
	})
}

func fillReport(w *workbook, rep services.Report) error {
	if err := w.header(ReportSheet, 1, "Date", "Project", "Description", "Category", "Quantity", "Price", "Amount"); err != nil {
		return err
	}
	for i, l := range rep.Lines {
		e := l.Expense
		if err := w.row(ReportSheet, i+2, e.CreatedAt.Format("2006-01-02"), l.Project, e.Description, l.Category.Name,
			e.Quantity.InexactFloat64(), money{e.Price}, money{l.Amount}); err != nil {
			return err
		}
	}
	if err := w.row(ReportSheet, len(rep.Lines)+2, "Total", "", "", "", "", "", money{rep.Expenses.Total}); err != nil {
		return err
	}
	_ = w.f.SetColWidth(ReportSheet, "B", "C", 28)
	return nil
}
