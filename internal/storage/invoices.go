package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bizdash/internal/core"

	"github.com/google/uuid"
)

func (r *SQLiteRepository) GetInvoiceSettings(ctx context.Context, userID string) (core.InvoiceSettings, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, company_name, company_address, company_phone, company_email, tax_rate, tax_enabled,
		        invoice_prefix, next_invoice_number, payment_terms, thank_you_message, updated_at
		 FROM invoice_settings WHERE user_id = ?`, userID)

	var (
		s                core.InvoiceSettings
		taxRate, updated string
		taxEnabled       int
	)
	err := row.Scan(&s.UserID, &s.CompanyName, &s.CompanyAddress, &s.CompanyPhone, &s.CompanyEmail, &taxRate,
		&taxEnabled, &s.InvoicePrefix, &s.NextInvoiceNumber, &s.PaymentTerms, &s.ThankYouMessage, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultInvoiceSettings(userID), nil
	}
	if err != nil {
		return core.InvoiceSettings{}, fmt.Errorf("get invoice settings: %w", err)
	}
	var d rowDecoder
	s.TaxRate = d.amount("tax_rate", taxRate)
	s.TaxEnabled = taxEnabled != 0
	s.UpdatedAt = d.timestamp("updated_at", updated)
	if d.err != nil {
		return core.InvoiceSettings{}, fmt.Errorf("get invoice settings: %w", d.err)
	}
	return s, nil
}

func (r *SQLiteRepository) SaveInvoiceSettings(ctx context.Context, s core.InvoiceSettings) error {
	if s.NextInvoiceNumber <= 0 {
		s.NextInvoiceNumber = 1
	}
	if s.InvoicePrefix == "" {
		s.InvoicePrefix = core.DefaultInvoicePrefix
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoice_settings (user_id, company_name, company_address, company_phone, company_email,
		        tax_rate, tax_enabled, invoice_prefix, next_invoice_number, payment_terms, thank_you_message, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		        company_name = excluded.company_name,
		        company_address = excluded.company_address,
		        company_phone = excluded.company_phone,
		        company_email = excluded.company_email,
		        tax_rate = excluded.tax_rate,
		        tax_enabled = excluded.tax_enabled,
		        invoice_prefix = excluded.invoice_prefix,
		        next_invoice_number = excluded.next_invoice_number,
		        payment_terms = excluded.payment_terms,
		        thank_you_message = excluded.thank_you_message,
		        updated_at = excluded.updated_at`,
		s.UserID, s.CompanyName, s.CompanyAddress, s.CompanyPhone, s.CompanyEmail,
		s.TaxRate.String(), boolInt(s.TaxEnabled), s.InvoicePrefix, s.NextInvoiceNumber,
		s.PaymentTerms, s.ThankYouMessage, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save invoice settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReserveInvoiceNumber(ctx context.Context, userID string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	def := core.DefaultInvoiceSettings(userID)
	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO invoice_settings (user_id, tax_rate, invoice_prefix, next_invoice_number,
		        payment_terms, thank_you_message, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, def.TaxRate.String(), def.InvoicePrefix, def.NextInvoiceNumber,
		def.PaymentTerms, def.ThankYouMessage, formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("ensure invoice settings: %w", err)
	}

	var (
		prefix string
		n      int
	)
	err = tx.QueryRowContext(ctx,
		`UPDATE invoice_settings SET next_invoice_number = next_invoice_number + 1
		 WHERE user_id = ?
		 RETURNING invoice_prefix, next_invoice_number - 1`, userID).Scan(&prefix, &n)
	if err != nil {
		return "", fmt.Errorf("advance invoice number: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return core.FormatInvoiceNumber(prefix, n), nil
}

const invoiceColumns = `id, user_id, project_id, invoice_number, client_name, invoice_date, due_date,
	subtotal, tax_amount, discount_amount, total, status, created_at`

func scanInvoice(s scanner) (core.Invoice, error) {
	var (
		inv                                core.Invoice
		id, projectID, invDate, due        string
		subtotal, tax, discount, total, cr string
	)
	err := s.Scan(&id, &inv.UserID, &projectID, &inv.InvoiceNumber, &inv.ClientName, &invDate, &due,
		&subtotal, &tax, &discount, &total, &inv.Status, &cr)
	if err != nil {
		return inv, err
	}
	var d rowDecoder
	inv.ID = d.id("id", id)
	inv.ProjectID = d.id("project_id", projectID)
	inv.InvoiceDate = d.date("invoice_date", invDate)
	inv.DueDate = d.date("due_date", due)
	inv.Subtotal = d.amount("subtotal", subtotal)
	inv.TaxAmount = d.amount("tax_amount", tax)
	inv.DiscountAmount = d.amount("discount_amount", discount)
	inv.Total = d.amount("total", total)
	inv.CreatedAt = d.timestamp("created_at", cr)
	return inv, d.err
}

func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	inv.ID = newID(inv.ID)
	inv.CreatedAt = stamp(inv.CreatedAt)
	if inv.Status == "" {
		inv.Status = core.InvoiceDraft
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID.String(), inv.UserID, inv.ProjectID.String(), inv.InvoiceNumber, inv.ClientName,
		inv.InvoiceDate.String(), inv.DueDate.String(), inv.Subtotal.String(), inv.TaxAmount.String(),
		inv.DiscountAmount.String(), inv.Total.String(), inv.Status, formatTime(inv.CreatedAt))
	if err != nil {
		return core.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, userID string, id uuid.UUID) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = ? AND id = ?`, userID, id.String())
	inv, err := scanInvoice(row)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice %s: %w", id, notFound(err))
	}
	return inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context, userID string, projectID uuid.UUID) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = ? AND project_id = ? ORDER BY created_at DESC`,
		userID, projectID.String())
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
