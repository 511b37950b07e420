package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/metrics"
	"bizdash/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultDueDays = 30

// IssueRequest describes an invoice to issue for a project.
type IssueRequest struct {
	UserID      string
	ProjectID   uuid.UUID
	ClientName  string
	InvoiceDate core.Date // defaults to today
	DueDate     core.Date // defaults to 30 days after the invoice date
	Discount    decimal.Decimal
}

// InvoicePreview is the computed content of an invoice before it is issued.
type InvoicePreview struct {
	Lines  []core.InvoiceLine
	Totals core.InvoiceTotals
}

// InvoiceService computes, numbers and stores invoices and queues them for
// rendering. The publisher is optional.
type InvoiceService struct {
	store     storage.RecordStore
	publisher InvoicePublisher
	metrics   metrics.Sink
	now       Clock
}

func NewInvoiceService(store storage.RecordStore, publisher InvoicePublisher, sink metrics.Sink, clock Clock) *InvoiceService {
	return &InvoiceService{store: store, publisher: publisher, metrics: orNoop(sink), now: orNow(clock)}
}

func (s *InvoiceService) Settings(ctx context.Context, userID string) (core.InvoiceSettings, error) {
	return s.store.GetInvoiceSettings(ctx, userID)
}

func (s *InvoiceService) SaveSettings(ctx context.Context, st core.InvoiceSettings) (core.InvoiceSettings, error) {
	if err := st.Validate(); err != nil {
		return core.InvoiceSettings{}, err
	}
	st.InvoicePrefix = strings.TrimSpace(st.InvoicePrefix)
	if err := s.store.SaveInvoiceSettings(ctx, st); err != nil {
		return core.InvoiceSettings{}, err
	}
	return s.store.GetInvoiceSettings(ctx, st.UserID)
}

// Preview computes lines and totals for a project with the user's tax
// settings.
func (s *InvoiceService) Preview(ctx context.Context, userID string, projectID uuid.UUID, discount decimal.Decimal) (InvoicePreview, error) {
	items, settings, err := s.load(ctx, userID, projectID)
	if err != nil {
		return InvoicePreview{}, err
	}
	return InvoicePreview{
		Lines:  core.InvoiceLines(items),
		Totals: core.ComputeInvoiceTotals(core.TotalCost(items), settings.TaxRate, settings.TaxEnabled, discount),
	}, nil
}

// Issue reserves the next invoice number, stores the invoice and publishes a
// render request. A publish failure is logged; the invoice stays issued.
func (s *InvoiceService) Issue(ctx context.Context, req IssueRequest) (core.Invoice, error) {
	if req.Discount.IsNegative() {
		return core.Invoice{}, core.ErrInvalidAmount
	}
	items, settings, err := s.load(ctx, req.UserID, req.ProjectID)
	if err != nil {
		return core.Invoice{}, err
	}
	totals := core.ComputeInvoiceTotals(core.TotalCost(items), settings.TaxRate, settings.TaxEnabled, req.Discount)

	number, err := s.store.ReserveInvoiceNumber(ctx, req.UserID)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("reserve invoice number: %w", err)
	}

	now := s.now()
	invDate := req.InvoiceDate
	if invDate.IsEmpty() {
		invDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	due := req.DueDate
	if due.IsEmpty() {
		due = core.Date{Time: invDate.AddDate(0, 0, defaultDueDays)}
	}

	inv, err := s.store.CreateInvoice(ctx, core.Invoice{
		UserID:         req.UserID,
		ProjectID:      req.ProjectID,
		InvoiceNumber:  number,
		ClientName:     strings.TrimSpace(req.ClientName),
		InvoiceDate:    invDate,
		DueDate:        due,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		DiscountAmount: totals.DiscountAmount,
		Total:          totals.GrandTotal,
		Status:         core.InvoiceDraft,
	})
	if err != nil {
		return core.Invoice{}, fmt.Errorf("store invoice: %w", err)
	}
	s.metrics.InvoiceIssued()

	slog.InfoContext(ctx, "Issued invoice",
		"invoice_id", inv.ID,
		"number", inv.InvoiceNumber,
		"total", core.FormatMoney(inv.Total))

	if err := s.publishRender(ctx, inv); err != nil {
		slog.ErrorContext(ctx, "Failed to publish invoice render message",
			"invoice_id", inv.ID, "error", err)
	}
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, userID string, id uuid.UUID) (core.Invoice, error) {
	return s.store.GetInvoice(ctx, userID, id)
}

func (s *InvoiceService) List(ctx context.Context, userID string, projectID uuid.UUID) ([]core.Invoice, error) {
	return s.store.ListInvoices(ctx, userID, projectID)
}

// Document gathers an issued invoice with its project, line items and the
// user's settings for rendering.
func (s *InvoiceService) Document(ctx context.Context, userID string, id uuid.UUID) (core.InvoiceDocument, error) {
	inv, err := s.store.GetInvoice(ctx, userID, id)
	if err != nil {
		return core.InvoiceDocument{}, err
	}
	p, err := s.store.GetProject(ctx, userID, inv.ProjectID)
	if err != nil {
		return core.InvoiceDocument{}, fmt.Errorf("load project: %w", err)
	}
	items, settings, err := s.load(ctx, userID, inv.ProjectID)
	if err != nil {
		return core.InvoiceDocument{}, err
	}
	return core.NewInvoiceDocument(inv, p, settings, items), nil
}

func (s *InvoiceService) load(ctx context.Context, userID string, projectID uuid.UUID) ([]core.Expense, core.InvoiceSettings, error) {
	if _, err := s.store.GetProject(ctx, userID, projectID); err != nil {
		return nil, core.InvoiceSettings{}, err
	}
	items, err := s.store.ListExpenses(ctx, userID, storage.ExpenseFilter{ProjectID: projectID})
	if err != nil {
		return nil, core.InvoiceSettings{}, fmt.Errorf("list expenses: %w", err)
	}
	settings, err := s.store.GetInvoiceSettings(ctx, userID)
	if err != nil {
		return nil, core.InvoiceSettings{}, fmt.Errorf("load invoice settings: %w", err)
	}
	return items, settings, nil
}

func (s *InvoiceService) publishRender(ctx context.Context, inv core.Invoice) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping render message")
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := s.publisher.PublishInvoiceRender(ctx, inv.ID, inv.UserID)
	s.metrics.MessagePublished("invoice_render", err)
	return err
}
