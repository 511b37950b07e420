package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bizdash/internal/amqp"
	"bizdash/internal/core"
	"bizdash/internal/export"
	"bizdash/internal/metrics"
	"bizdash/internal/sheets"

	"github.com/google/uuid"
)

// DocumentSource loads an issued invoice ready for rendering.
type DocumentSource interface {
	Document(ctx context.Context, userID string, id uuid.UUID) (core.InvoiceDocument, error)
}

// RenderWorker turns invoice render messages into XLSX files and records
// each rendered invoice in the spreadsheet ledger.
type RenderWorker struct {
	documents DocumentSource
	ledger    sheets.InvoiceLedger
	exportDir string
	metrics   metrics.Sink
}

// NewRenderWorker creates a worker writing into exportDir. ledger may be nil.
func NewRenderWorker(documents DocumentSource, ledger sheets.InvoiceLedger, exportDir string, sink metrics.Sink) *RenderWorker {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	return &RenderWorker{
		documents: documents,
		ledger:    ledger,
		exportDir: exportDir,
		metrics:   sink,
	}
}

// HandleRenderMessage processes a single invoice render message from AMQP
func (w *RenderWorker) HandleRenderMessage(ctx context.Context, msg *amqp.InvoiceRenderMessage) (err error) {
	start := time.Now()
	defer func() { w.metrics.InvoiceRendered(time.Since(start), err) }()

	slog.InfoContext(ctx, "Processing render message",
		"invoice_id", msg.InvoiceID,
		"user_id", msg.UserID)

	doc, err := w.documents.Document(ctx, msg.UserID, msg.InvoiceID)
	if err != nil {
		return fmt.Errorf("load invoice document: %w", err)
	}

	path, err := w.Render(ctx, doc)
	if err != nil {
		return err
	}

	if w.ledger == nil {
		slog.WarnContext(ctx, "No invoice ledger configured, skipping spreadsheet row",
			"invoice_id", msg.InvoiceID)
		return nil
	}
	ref, err := w.ledger.AppendInvoice(ctx, doc, path)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Successfully rendered invoice",
		"invoice_id", msg.InvoiceID,
		"number", doc.Invoice.InvoiceNumber,
		"file", path,
		"sheets_ref", ref)
	return nil
}

// Render writes the invoice workbook to the export directory and returns
// its path. Re-rendering the same invoice overwrites the file.
func (w *RenderWorker) Render(ctx context.Context, doc core.InvoiceDocument) (string, error) {
	data, err := export.InvoiceXLSX(doc)
	if err != nil {
		return "", fmt.Errorf("render invoice: %w", err)
	}
	dir := filepath.Join(w.exportDir, safeName(doc.Invoice.UserID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, safeName(doc.Invoice.InvoiceNumber)+".xlsx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	slog.DebugContext(ctx, "Wrote invoice workbook", "path", path, "bytes", len(data))
	return path, nil
}

// HandleReminderMessage delivers a job reminder. Delivery is a structured
// log entry that downstream log shipping turns into a notification.
func (w *RenderWorker) HandleReminderMessage(ctx context.Context, msg *amqp.JobReminderMessage) error {
	slog.InfoContext(ctx, "Job reminder",
		"job_id", msg.JobID,
		"user_id", msg.UserID,
		"person", msg.PersonName,
		"title", msg.Title,
		"scheduled_at", msg.ScheduledAt.Format(time.RFC3339),
		"starts_in", time.Until(msg.ScheduledAt).Round(time.Minute))
	return nil
}

// safeName keeps letters, digits, dash and underscore.
func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "_"
	}
	return s
}
