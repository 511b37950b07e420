package google

import (
	"fmt"
	"strings"

	"bizdash/internal/core"
)

// ledgerHeaders is the column layout of the invoice ledger.
var ledgerHeaders = []string{
	"Number", "Date", "Due", "Project", "Client", "Subtotal", "Tax", "Discount", "Total", "Status", "File",
}

func headerRow() []any {
	out := make([]any, len(ledgerHeaders))
	for i, h := range ledgerHeaders {
		out[i] = h
	}
	return out
}

// invoiceRow converts a document to one ledger row. Amounts are written as
// plain decimals so USER_ENTERED stores them as numbers.
func invoiceRow(doc core.InvoiceDocument, file string) []any {
	inv, t := doc.Invoice, doc.Totals
	return []any{
		inv.InvoiceNumber,
		inv.InvoiceDate.String(),
		inv.DueDate.String(),
		doc.Project.Title,
		inv.ClientName,
		core.FormatMoney(t.Subtotal),
		core.FormatMoney(t.TaxAmount),
		core.FormatMoney(t.DiscountAmount),
		core.FormatMoney(t.GrandTotal),
		inv.Status,
		file,
	}
}

// lastColumn returns the A1 column letter for n columns (n <= 26).
func lastColumn(n int) string {
	if n < 1 {
		n = 1
	}
	if n > 26 {
		n = 26
	}
	return string(rune('A' + n - 1))
}

// columnValues takes the first cell of each row, skipping blanks, comments
// and repeats while preserving order.
func columnValues(values [][]any) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
