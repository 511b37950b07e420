package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizdash/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const projectColumns = `id, user_id, title, budget, amount_paid, status, created_at, updated_at`

func scanProject(s scanner) (core.Project, error) {
	var (
		p                                 core.Project
		id, budget, paid, status, cr, upd string
	)
	if err := s.Scan(&id, &p.UserID, &p.Title, &budget, &paid, &status, &cr, &upd); err != nil {
		return p, err
	}
	var d rowDecoder
	p.ID = d.id("id", id)
	p.Budget = d.amount("budget", budget)
	p.AmountPaid = d.amount("amount_paid", paid)
	p.Status = core.PaymentStatus(status)
	p.CreatedAt = d.timestamp("created_at", cr)
	p.UpdatedAt = d.timestamp("updated_at", upd)
	return p, d.err
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	p.ID = newID(p.ID)
	p.CreatedAt = stamp(p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = core.PaymentUnpaid
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.UserID, p.Title, p.Budget.String(), p.AmountPaid.String(), string(p.Status),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetProject(ctx context.Context, userID string, id uuid.UUID) (core.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? AND id = ?`, userID, id.String())
	p, err := scanProject(row)
	if err != nil {
		return core.Project{}, fmt.Errorf("get project %s: %w", id, notFound(err))
	}
	return p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context, userID string) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateProjectBudget(ctx context.Context, userID string, id uuid.UUID, budget decimal.Decimal) error {
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE projects SET budget = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		budget.String(), formatTime(time.Now()), userID, id.String()))
	if err != nil {
		return fmt.Errorf("update project budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateProjectPayment(ctx context.Context, userID string, id uuid.UUID, patch core.ProjectPaymentPatch) error {
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE projects SET amount_paid = ?, status = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		patch.AmountPaid.String(), string(patch.Status), formatTime(time.Now()), userID, id.String()))
	if err != nil {
		return fmt.Errorf("update project payment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, userID string, id uuid.UUID) error {
	err := expectOne(r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE user_id = ? AND id = ?`, userID, id.String()))
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

const expenseColumns = `id, user_id, project_id, description, quantity, price, category, created_at, updated_at`

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e                                 core.Expense
		id, projectID, qty, price, cr, up string
		category                          string
	)
	if err := s.Scan(&id, &e.UserID, &projectID, &e.Description, &qty, &price, &category, &cr, &up); err != nil {
		return e, err
	}
	var d rowDecoder
	e.ID = d.id("id", id)
	e.ProjectID = d.id("project_id", projectID)
	e.Quantity = d.amount("quantity", qty)
	e.Price = d.amount("price", price)
	e.Category = core.CategoryKey(category)
	e.CreatedAt = d.timestamp("created_at", cr)
	e.UpdatedAt = d.timestamp("updated_at", up)
	return e, d.err
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = newID(e.ID)
	e.CreatedAt = stamp(e.CreatedAt)
	e.UpdatedAt = e.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID, e.ProjectID.String(), e.Description, e.Quantity.String(), e.Price.String(),
		string(e.Category), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, f ExpenseFilter) ([]core.Expense, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.ProjectID != uuid.Nil {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID.String())
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(f.Since))
	}
	if !f.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, formatTime(f.Until))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID string, id uuid.UUID) error {
	err := expectOne(r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE user_id = ? AND id = ?`, userID, id.String()))
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = newID(c.ID)
	c.CreatedAt = stamp(c.CreatedAt)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID.String(), c.UserID, c.Name, c.Color, formatTime(c.CreatedAt))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color, created_at FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c      core.Category
			id, cr string
		)
		if err := rows.Scan(&id, &c.UserID, &c.Name, &c.Color, &cr); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		var d rowDecoder
		c.ID = d.id("id", id)
		c.CreatedAt = d.timestamp("created_at", cr)
		if d.err != nil {
			return nil, fmt.Errorf("scan category: %w", d.err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID string, id uuid.UUID) error {
	err := expectOne(r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ?`, userID, id.String()))
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
