package services

import (
	"context"
	"fmt"
	"log/slog"

	"bizdash/internal/core"
	"bizdash/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectService handles project and expense writes, budgets and client
// payments. Every write returns the re-derived project summary.
type ProjectService struct {
	store storage.RecordStore
}

func NewProjectService(store storage.RecordStore) *ProjectService {
	return &ProjectService{store: store}
}

func (s *ProjectService) Create(ctx context.Context, p core.Project) (core.ProjectSummary, error) {
	if err := p.Validate(); err != nil {
		return core.ProjectSummary{}, err
	}
	p.AmountPaid = decimal.Zero
	p.Status = core.PaymentUnpaid
	created, err := s.store.CreateProject(ctx, p)
	if err != nil {
		return core.ProjectSummary{}, fmt.Errorf("create project: %w", err)
	}
	return core.SummarizeProject(created, nil), nil
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]core.ProjectSummary, error) {
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, userID, storage.ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return core.SummarizeProjects(projects, expenses), nil
}

func (s *ProjectService) Summary(ctx context.Context, userID string, id uuid.UUID) (core.ProjectSummary, error) {
	p, err := s.store.GetProject(ctx, userID, id)
	if err != nil {
		return core.ProjectSummary{}, err
	}
	expenses, err := s.store.ListExpenses(ctx, userID, storage.ExpenseFilter{ProjectID: id})
	if err != nil {
		return core.ProjectSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.SummarizeProject(p, expenses), nil
}

func (s *ProjectService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.store.DeleteProject(ctx, userID, id)
}

// SetBudget stores a new budget. Zero clears it.
func (s *ProjectService) SetBudget(ctx context.Context, userID string, id uuid.UUID, budget decimal.Decimal) (core.ProjectSummary, error) {
	if budget.IsNegative() {
		return core.ProjectSummary{}, core.ErrInvalidAmount
	}
	if err := s.store.UpdateProjectBudget(ctx, userID, id, budget); err != nil {
		return core.ProjectSummary{}, err
	}
	return s.Summary(ctx, userID, id)
}

// RecordPayment adds a client payment to the project and stores the payment
// status derived from the new amount paid.
func (s *ProjectService) RecordPayment(ctx context.Context, userID string, id uuid.UUID, amount decimal.Decimal) (core.ProjectSummary, error) {
	summary, err := s.Summary(ctx, userID, id)
	if err != nil {
		return core.ProjectSummary{}, err
	}
	patch, err := core.RecordProjectPayment(summary.Project.AmountPaid, summary.TotalCost, amount)
	if err != nil {
		return core.ProjectSummary{}, err
	}
	if err := s.store.UpdateProjectPayment(ctx, userID, id, patch); err != nil {
		return core.ProjectSummary{}, fmt.Errorf("record payment: %w", err)
	}

	slog.InfoContext(ctx, "Recorded project payment",
		"project_id", id,
		"amount", core.FormatMoney(amount),
		"status", patch.Status)

	return s.Summary(ctx, userID, id)
}

// AddExpense stores a line item on one of the user's projects. The payment
// status is refreshed because the total cost changed.
func (s *ProjectService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.refreshPaymentStatus(ctx, e.UserID, e.ProjectID)
	return created, nil
}

func (s *ProjectService) DeleteExpense(ctx context.Context, userID string, projectID, id uuid.UUID) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}
	s.refreshPaymentStatus(ctx, userID, projectID)
	return nil
}

func (s *ProjectService) Expenses(ctx context.Context, userID string, projectID uuid.UUID) ([]core.Expense, error) {
	if _, err := s.store.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, userID, storage.ExpenseFilter{ProjectID: projectID})
}

func (s *ProjectService) refreshPaymentStatus(ctx context.Context, userID string, id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	summary, err := s.Summary(ctx, userID, id)
	if err != nil {
		slog.WarnContext(ctx, "Failed to refresh payment status", "project_id", id, "error", err)
		return
	}
	if summary.PaymentStatus == summary.Project.Status {
		return
	}
	patch := core.ProjectPaymentPatch{AmountPaid: summary.Project.AmountPaid, Status: summary.PaymentStatus}
	if err := s.store.UpdateProjectPayment(ctx, userID, id, patch); err != nil {
		slog.WarnContext(ctx, "Failed to refresh payment status", "project_id", id, "error", err)
	}
}
