package sheets

import (
	"context"

	"bizdash/internal/core"
)

// Ports for outbound adapters.
type (
	// InvoiceLedger keeps a spreadsheet row per rendered invoice.
	InvoiceLedger interface {
		// AppendInvoice writes one summary row and returns its reference.
		// file is where the rendered workbook was stored.
		AppendInvoice(ctx context.Context, doc core.InvoiceDocument, file string) (rowRef string, err error)
	}

	// CategorySource lists category names maintained outside the app, used to
	// seed a user's categories.
	CategorySource interface {
		ListCategoryNames(ctx context.Context) ([]string, error)
	}
)
