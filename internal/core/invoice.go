package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultInvoicePrefix = "INV"
	DefaultPaymentTerms  = "Payment due within 30 days"
	DefaultThankYou      = "Thank you for your business!"
)

const (
	InvoiceDraft = "draft"
	InvoiceSent  = "sent"
	InvoicePaid  = "paid"
)

var (
	ErrInvalidTaxRate        = errors.New("tax rate must be between 0 and 100")
	ErrNegativeInvoiceNumber = errors.New("next invoice number must not be negative")
)

type (
	// InvoiceSettings holds per-user invoice defaults.
	InvoiceSettings struct {
		UserID            string
		CompanyName       string
		CompanyAddress    string
		CompanyPhone      string
		CompanyEmail      string
		TaxRate           decimal.Decimal // percent
		TaxEnabled        bool
		InvoicePrefix     string
		NextInvoiceNumber int
		PaymentTerms      string
		ThankYouMessage   string
		UpdatedAt         time.Time
	}

	Invoice struct {
		ID             uuid.UUID
		UserID         string
		ProjectID      uuid.UUID
		InvoiceNumber  string
		ClientName     string
		InvoiceDate    Date
		DueDate        Date
		Subtotal       decimal.Decimal
		TaxAmount      decimal.Decimal
		DiscountAmount decimal.Decimal
		Total          decimal.Decimal
		Status         string
		CreatedAt      time.Time
	}

	// InvoiceTotals is the money part of an invoice.
	InvoiceTotals struct {
		Subtotal       decimal.Decimal
		TaxRate        decimal.Decimal
		TaxAmount      decimal.Decimal
		DiscountAmount decimal.Decimal
		GrandTotal     decimal.Decimal
	}

	// InvoiceLine is one numbered row of an invoice.
	InvoiceLine struct {
		No          int
		Description string
		Quantity    decimal.Decimal
		Price       decimal.Decimal
		Amount      decimal.Decimal
	}
)

// DefaultInvoiceSettings returns the settings used before a user saves any.
func DefaultInvoiceSettings(userID string) InvoiceSettings {
	return InvoiceSettings{
		UserID:            userID,
		TaxRate:           decimal.Zero,
		InvoicePrefix:     DefaultInvoicePrefix,
		NextInvoiceNumber: 1,
		PaymentTerms:      DefaultPaymentTerms,
		ThankYouMessage:   DefaultThankYou,
	}
}

func (s InvoiceSettings) Validate() error {
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThan(fullPercent) {
		return ErrInvalidTaxRate
	}
	if s.NextInvoiceNumber < 0 {
		return ErrNegativeInvoiceNumber
	}
	return nil
}

// ComputeInvoiceTotals applies tax and discount to a subtotal:
//
//	taxAmount  = subtotal * taxRate / 100   (0 when tax is disabled)
//	grandTotal = subtotal + taxAmount - discount
//
// The tax amount is rounded to cents before it is added.
func ComputeInvoiceTotals(subtotal, taxRate decimal.Decimal, taxEnabled bool, discount decimal.Decimal) InvoiceTotals {
	tax := decimal.Zero
	if taxEnabled {
		tax = RoundCents(subtotal.Mul(taxRate).Div(fullPercent))
	}
	return InvoiceTotals{
		Subtotal:       subtotal,
		TaxRate:        taxRate,
		TaxAmount:      tax,
		DiscountAmount: discount,
		GrandTotal:     subtotal.Add(tax).Sub(discount),
	}
}

// FormatInvoiceNumber renders PREFIX-00001. An empty prefix falls back to
// INV and a non-positive number to 1.
func FormatInvoiceNumber(prefix string, n int) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	if n <= 0 {
		n = 1
	}
	return fmt.Sprintf("%s-%05d", prefix, n)
}

// InvoiceLines numbers the expenses of an invoice starting at 1.
func InvoiceLines(items []Expense) []InvoiceLine {
	lines := make([]InvoiceLine, 0, len(items))
	for i, e := range items {
		lines = append(lines, InvoiceLine{
			No:          i + 1,
			Description: e.Description,
			Quantity:    e.Quantity,
			Price:       e.Price,
			Amount:      LineItemAmount(e),
		})
	}
	return lines
}

// InvoiceDocument is everything needed to render an issued invoice.
type InvoiceDocument struct {
	Invoice  Invoice
	Project  Project
	Settings InvoiceSettings
	Lines    []InvoiceLine
	Totals   InvoiceTotals
}

// NewInvoiceDocument assembles a document from an issued invoice. The stored
// amounts of the invoice win over a recomputation so a rendered copy always
// matches what was issued.
func NewInvoiceDocument(inv Invoice, p Project, s InvoiceSettings, items []Expense) InvoiceDocument {
	rate := decimal.Zero
	if s.TaxEnabled {
		rate = s.TaxRate
	}
	return InvoiceDocument{
		Invoice:  inv,
		Project:  p,
		Settings: s,
		Lines:    InvoiceLines(items),
		Totals: InvoiceTotals{
			Subtotal:       inv.Subtotal,
			TaxRate:        rate,
			TaxAmount:      inv.TaxAmount,
			DiscountAmount: inv.DiscountAmount,
			GrandTotal:     inv.Total,
		},
	}
}
