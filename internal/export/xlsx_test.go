package export

import (
	"bytes"
	"testing"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// findRow returns the 1-based row whose first non-empty cell equals label.
func findRow(t *testing.T, f *excelize.File, sheet, label string) []string {
	t.Helper()
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	for _, r := range rows {
		for _, c := range r {
			if c == "" {
				continue
			}
			if c == label {
				return r
			}
			break
		}
	}
	t.Fatalf("row %q not found in %s", label, sheet)
	return nil
}

func TestInvoiceXLSX(t *testing.T) {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	doc := core.InvoiceDocument{
		Invoice: core.Invoice{
			ID:             uuid.New(),
			InvoiceNumber:  "INV-00007",
			ClientName:     "Acme",
			InvoiceDate:    core.NewDate(2025, 6, 10),
			DueDate:        core.NewDate(2025, 7, 10),
			Subtotal:       d("100"),
			TaxAmount:      d("10"),
			DiscountAmount: d("5"),
			Total:          d("105"),
			Status:         core.InvoiceDraft,
		},
		Project:  core.Project{Title: "Kitchen"},
		Settings: core.InvoiceSettings{CompanyName: "Bright Builds", PaymentTerms: core.DefaultPaymentTerms},
		Lines: []core.InvoiceLine{
			{No: 1, Description: "Tiles", Quantity: d("4"), Price: d("15"), Amount: d("60")},
			{No: 2, Description: "Fitter", Quantity: d("1"), Price: d("40"), Amount: d("40")},
		},
		Totals: core.InvoiceTotals{Subtotal: d("100"), TaxRate: d("10"), TaxAmount: d("10"), DiscountAmount: d("5"), GrandTotal: d("105")},
	}

	data, err := InvoiceXLSX(doc)
	if err != nil {
		t.Fatalf("InvoiceXLSX() error = %v", err)
	}
	f := open(t, data)

	if v, _ := f.GetCellValue(InvoiceSheet, "A1"); v != "Bright Builds" {
		t.Errorf("A1 = %q, want company name", v)
	}
	if r := findRow(t, f, InvoiceSheet, "Invoice"); r[1] != "INV-00007" {
		t.Errorf("invoice number row = %v", r)
	}
	if r := findRow(t, f, InvoiceSheet, "Due"); r[1] != "2025-07-10" {
		t.Errorf("due row = %v", r)
	}
	if v, _ := f.GetCellValue(InvoiceSheet, "B12"); v != "Fitter" {
		t.Errorf("B12 = %q, want the second line item", v)
	}
	if v, _ := f.GetCellValue(InvoiceSheet, "E12", excelize.Options{RawCellValue: true}); v != "40" {
		t.Errorf("E12 = %q, want 40", v)
	}

	tests := []struct {
		label string
		want  string
	}{
		{"Subtotal", "100"},
		{"Tax (10%)", "10"},
		{"Discount", "5"},
		{"Total", "105"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			r := findRow(t, f, InvoiceSheet, tt.label)
			if got := r[len(r)-1]; got != tt.want {
				t.Errorf("%s = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestAnalyticsXLSX(t *testing.T) {
	a := services.Analytics{
		GeneratedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		Expenses:    core.ExpenseOverview{Count: 3, Total: decimal.NewFromInt(90), Average: decimal.NewFromInt(30)},
		Categories: []services.CategoryBreakdown{
			{Label: services.CategoryLabel{Key: "Labor", Name: "Labor"}, Amount: decimal.NewFromInt(60), Percent: decimal.RequireFromString("66.67")},
			{Label: services.CategoryLabel{Key: "Other", Name: "Other"}, Amount: decimal.NewFromInt(30), Percent: decimal.RequireFromString("33.33")},
		},
		Monthly: []core.MonthBucket{
			{Label: "May 2025", Year: 2025, Month: time.May, Total: decimal.Zero},
			{Label: "Jun 2025", Year: 2025, Month: time.June, Total: decimal.NewFromInt(90)},
		},
	}

	data, err := AnalyticsXLSX(a)
	if err != nil {
		t.Fatalf("AnalyticsXLSX() error = %v", err)
	}
	f := open(t, data)

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != CategorySheet || sheets[1] != MonthlySheet {
		t.Fatalf("sheets = %v", sheets)
	}
	if r := findRow(t, f, CategorySheet, "Labor"); r[1] != "60" || r[2] != "66.67" {
		t.Errorf("labor row = %v", r)
	}
	if r := findRow(t, f, CategorySheet, "Total"); r[1] != "90" {
		t.Errorf("total row = %v", r)
	}
	if r := findRow(t, f, MonthlySheet, "Jun 2025"); r[1] != "90" {
		t.Errorf("june row = %v", r)
	}
}

func TestJobsXLSX(t *testing.T) {
	views := []core.JobView{
		{Job: core.Job{ScheduledDate: "2025-06-09", ScheduledTime: "09:00", PersonName: "Ana", Title: "Visit", Type: core.JobTypeMeeting}, Status: core.JobOverdue},
	}
	data, err := JobsXLSX(views)
	if err != nil {
		t.Fatalf("JobsXLSX() error = %v", err)
	}
	f := open(t, data)
	if v, _ := f.GetCellValue(JobsSheet, "F2"); v != "overdue" {
		t.Errorf("status cell = %q, want the derived status", v)
	}
}

func TestReportXLSX(t *testing.T) {
	at := time.Date(2025, 6, 5, 23, 59, 0, 0, time.UTC)
	rep := services.Report{
		From:     core.NewDate(2025, 6, 3),
		To:       core.NewDate(2025, 6, 5),
		Expenses: core.ExpenseOverview{Count: 2, Total: decimal.RequireFromString("60.50")},
		Lines: []services.ReportLine{
			{
				Expense:  core.Expense{Description: "Tiles", Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("15.25"), CreatedAt: at},
				Project:  "Kitchen",
				Category: services.CategoryLabel{Key: "Materials", Name: "Materials"},
				Amount:   decimal.RequireFromString("30.50"),
			},
			{
				Expense:  core.Expense{Description: "Fitter", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(30), CreatedAt: at.AddDate(0, 0, -2)},
				Project:  "Kitchen",
				Category: services.CategoryLabel{Key: "Labor", Name: "Labor"},
				Amount:   decimal.NewFromInt(30),
			},
		},
	}

	data, err := ReportXLSX(rep)
	if err != nil {
		t.Fatalf("ReportXLSX() error = %v", err)
	}
	f := open(t, data)

	if v, _ := f.GetCellValue(ReportSheet, "G1"); v != "Amount" {
		t.Errorf("header G1 = %q", v)
	}
	r := findRow(t, f, ReportSheet, "2025-06-05")
	if r[1] != "Kitchen" || r[2] != "Tiles" || r[3] != "Materials" || r[4] != "2" || r[6] != "30.5" {
		t.Errorf("first line = %v", r)
	}
	if r := findRow(t, f, ReportSheet, "2025-06-03"); r[2] != "Fitter" {
		t.Errorf("second line = %v", r)
	}
	if r := findRow(t, f, ReportSheet, "Total"); r[6] != "60.5" {
		t.Errorf("total row = %v", r)
	}
}

func TestRenderStopsOnFillError(t *testing.T) {
	data, err := render(ReportSheet, func(w *workbook) error {
		return w.row("Missing", 1, "x")
	})
	if err == nil || data != nil {
		t.Fatalf("render() = %d bytes, %v; want the fill error", len(data), err)
	}

	data, err = render(ReportSheet, func(w *workbook) error {
		return w.row(ReportSheet, 1, "ok")
	})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if v, _ := open(t, data).GetCellValue(ReportSheet, "A1"); v != "ok" {
		t.Errorf("A1 = %q, want ok", v)
	}
}
