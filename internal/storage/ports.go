package storage

import (
	"context"
	"errors"
	"time"

	"bizdash/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a record does not exist for the requesting user.
var ErrNotFound = errors.New("record not found")

// ExpenseFilter narrows expense listings. Zero values mean no filter.
// Since is inclusive and Until exclusive, both compared to CreatedAt.
type ExpenseFilter struct {
	ProjectID uuid.UUID
	Category  core.CategoryKey
	Since     time.Time
	Until     time.Time
}

// ProjectStore persists projects. Every call is scoped by user.
type ProjectStore interface {
	CreateProject(ctx context.Context, p core.Project) (core.Project, error)
	GetProject(ctx context.Context, userID string, id uuid.UUID) (core.Project, error)
	ListProjects(ctx context.Context, userID string) ([]core.Project, error)
	UpdateProjectBudget(ctx context.Context, userID string, id uuid.UUID, budget decimal.Decimal) error
	UpdateProjectPayment(ctx context.Context, userID string, id uuid.UUID, patch core.ProjectPaymentPatch) error
	DeleteProject(ctx context.Context, userID string, id uuid.UUID) error
}

// ExpenseStore persists expense line items.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListExpenses(ctx context.Context, userID string, f ExpenseFilter) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, userID string, id uuid.UUID) error
}

// CategoryStore persists user-defined expense categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	DeleteCategory(ctx context.Context, userID string, id uuid.UUID) error
}

// JobStore persists scheduled jobs and their activity log.
type JobStore interface {
	CreateJob(ctx context.Context, j core.Job) (core.Job, error)
	GetJob(ctx context.Context, userID string, id uuid.UUID) (core.Job, error)
	// ListJobs returns the user's jobs ordered by schedule.
	ListJobs(ctx context.Context, userID string) ([]core.Job, error)
	UpdateJob(ctx context.Context, j core.Job) error
	UpdateJobStatus(ctx context.Context, userID string, id uuid.UUID, patch core.JobPatch) error
	DeleteJob(ctx context.Context, userID string, id uuid.UUID) error
	AddJobActivity(ctx context.Context, a core.JobActivity) error
	ListJobActivity(ctx context.Context, userID string, jobID uuid.UUID) ([]core.JobActivity, error)
	// ListReminderCandidates returns, across all users, jobs with reminders
	// enabled and not yet sent whose scheduled date lies in [fromDate, toDate].
	ListReminderCandidates(ctx context.Context, fromDate, toDate string) ([]core.Job, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CampaignStore persists advertisers, deliveries and payments.
type CampaignStore interface {
	CreateAdvertiser(ctx context.Context, a core.Advertiser) (core.Advertiser, error)
	GetAdvertiser(ctx context.Context, userID string, id uuid.UUID) (core.Advertiser, error)
	ListAdvertisers(ctx context.Context, userID string) ([]core.Advertiser, error)
	UpdateAdvertiserProgress(ctx context.Context, userID string, id uuid.UUID, completed int) error
	DeleteAdvertiser(ctx context.Context, userID string, id uuid.UUID) error

	CreateDelivery(ctx context.Context, d core.Delivery) (core.Delivery, error)
	GetDelivery(ctx context.Context, userID string, id uuid.UUID) (core.Delivery, error)
	ListDeliveries(ctx context.Context, userID string) ([]core.Delivery, error)
	UpdateDelivery(ctx context.Context, d core.Delivery) error

	CreateProductDelivery(ctx context.Context, p core.ProductDelivery) (core.ProductDelivery, error)
	ListProductDeliveries(ctx context.Context, userID string) ([]core.ProductDelivery, error)

	CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
	GetPayment(ctx context.Context, userID string, id uuid.UUID) (core.Payment, error)
	ListPayments(ctx context.Context, userID string) ([]core.Payment, error)
	UpdatePayment(ctx context.Context, p core.Payment) error

	// GetCampaignSettings returns the user's settings, or the defaults when
	// none have been saved.
	GetCampaignSettings(ctx context.Context, userID string) (core.CampaignSettings, error)
	SaveCampaignSettings(ctx context.Context, s core.CampaignSettings) error
}

// InvoiceStore persists invoice settings and issued invoices.
type InvoiceStore interface {
	// GetInvoiceSettings returns the user's settings, or the defaults when
	// none have been saved.
	GetInvoiceSettings(ctx context.Context, userID string) (core.InvoiceSettings, error)
	SaveInvoiceSettings(ctx context.Context, s core.InvoiceSettings) error
	// ReserveInvoiceNumber formats the next invoice number and advances the
	// counter in one step.
	ReserveInvoiceNumber(ctx context.Context, userID string) (string, error)
	CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	GetInvoice(ctx context.Context, userID string, id uuid.UUID) (core.Invoice, error)
	ListInvoices(ctx context.Context, userID string, projectID uuid.UUID) ([]core.Invoice, error)
}

// RecordStore is the full record store used by the services.
type RecordStore interface {
	ProjectStore
	ExpenseStore
	CategoryStore
	JobStore
	CampaignStore
	InvoiceStore
	Ping(ctx context.Context) error
	Close() error
}
