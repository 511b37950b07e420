package google

import (
	"testing"

	"bizdash/internal/core"

	"github.com/shopspring/decimal"
)

func TestInvoiceRow(t *testing.T) {
	doc := core.InvoiceDocument{
		Invoice: core.Invoice{
			InvoiceNumber: "INV-00003",
			ClientName:    "Acme",
			InvoiceDate:   core.NewDate(2025, 6, 10),
			DueDate:       core.NewDate(2025, 7, 10),
			Status:        core.InvoiceDraft,
		},
		Project: core.Project{Title: "Kitchen"},
		Totals: core.InvoiceTotals{
			Subtotal:       decimal.NewFromInt(100),
			TaxAmount:      decimal.RequireFromString("7.5"),
			DiscountAmount: decimal.Zero,
			GrandTotal:     decimal.RequireFromString("107.5"),
		},
	}
	row := invoiceRow(doc, "out/INV-00003.xlsx")
	if len(row) != len(ledgerHeaders) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(ledgerHeaders))
	}
	want := map[int]string{0: "INV-00003", 1: "2025-06-10", 3: "Kitchen", 6: "7.50", 8: "107.50", 10: "out/INV-00003.xlsx"}
	for i, w := range want {
		if row[i] != w {
			t.Errorf("cell %d (%s) = %v, want %s", i, ledgerHeaders[i], row[i], w)
		}
	}
}

func TestLastColumn(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "A"},
		{1, "A"},
		{11, "K"},
		{26, "Z"},
		{40, "Z"},
	}
	for _, tt := range tests {
		if got := lastColumn(tt.n); got != tt.want {
			t.Errorf("lastColumn(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestColumnValues(t *testing.T) {
	values := [][]any{
		{"Decor"},
		{},
		{"  "},
		{"# comment"},
		{"Venue", "ignored"},
		{"Decor"},
	}
	got := columnValues(values)
	if len(got) != 2 || got[0] != "Decor" || got[1] != "Venue" {
		t.Fatalf("columnValues() = %v", got)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"adds year", "Invoices", 2025, "2025 Invoices"},
		{"keeps explicit year", "2024 Invoices", 2025, "2024 Invoices"},
		{"trims", "  Ledger ", 2026, "2026 Ledger"},
		{"empty", "", 2025, ""},
		{"not a year", "ABCD Ledger", 2025, "2025 ABCD Ledger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}
