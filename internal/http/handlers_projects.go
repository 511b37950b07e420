package http

import (
	"net/http"
	"strings"

	"bizdash/internal/core"
	"bizdash/internal/services"

	"github.com/shopspring/decimal"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.svc.Projects.List(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(summaries, toSummary)).Write(w)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	budget, err := p.Amount("budget")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	summary, err := s.svc.Projects.Create(r.Context(), core.Project{
		UserID: user(r),
		Title:  p.Get("title"),
		Budget: budget,
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toSummary(summary)).Write(w)
}

func (s *Server) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	detail, err := s.svc.Dashboard.ProjectDetail(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toProjectDetail(detail)).Write(w)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Projects.Delete(r.Context(), user(r), id); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	budget, err := p.Amount("budget")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	summary, err := s.svc.Projects.SetBudget(r.Context(), user(r), id, budget)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toSummary(summary)).Write(w)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	amount, err := core.ParsePositiveAmount(p.Get("amount"))
	if err != nil {
		BadRequestError("amount: " + err.Error()).Write(w)
		return
	}
	summary, err := s.svc.Projects.RecordPayment(r.Context(), user(r), id, amount)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toSummary(summary)).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	items, err := s.svc.Projects.Expenses(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(items, toExpense)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	var fe fieldErrors
	quantity := decimal.NewFromInt(1)
	if p.Has("quantity") {
		q, err := core.ParseQuantity(p.Get("quantity"))
		fe.check(err)
		quantity = q
	}
	price, err := p.Amount("price")
	fe.check(err)
	if fe.err != nil {
		BadRequestError(fe.err.Error()).Write(w)
		return
	}

	category := core.CategoryKey(p.Get("category"))
	if category == "" {
		category = core.CategoryOther
	}

	created, err := s.svc.Projects.AddExpense(r.Context(), core.Expense{
		UserID:      user(r),
		ProjectID:   projectID,
		Description: p.Get("description"),
		Quantity:    quantity,
		Price:       price,
		Category:    category,
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toExpense(created)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	expenseID, err := pathID(r, "expenseID")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Projects.DeleteExpense(r.Context(), user(r), projectID, expenseID); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	invoices, err := s.svc.Invoices.List(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(invoices, toInvoice)).Write(w)
}

func (s *Server) handlePreviewInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	discount := decimal.Zero
	if v := strings.TrimSpace(r.URL.Query().Get("discount")); v != "" {
		if discount, err = core.ParseAmount(v); err != nil {
			BadRequestError("discount: " + err.Error()).Write(w)
			return
		}
	}
	preview, err := s.svc.Invoices.Preview(r.Context(), user(r), id, discount)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toPreview(preview)).Write(w)
}

func (s *Server) handleIssueInvoice(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	var fe fieldErrors
	invoiceDate, err := p.Date("invoice_date")
	fe.check(err)
	dueDate, err := p.Date("due_date")
	fe.check(err)
	discount, err := p.Amount("discount")
	fe.check(err)
	if fe.err != nil {
		BadRequestError(fe.err.Error()).Write(w)
		return
	}

	inv, err := s.svc.Invoices.Issue(r.Context(), services.IssueRequest{
		UserID:      user(r),
		ProjectID:   projectID,
		ClientName:  p.Get("client_name"),
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Discount:    discount,
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	events(r).LogInvoiceIssued(r.Context(), user(r), inv.ID.String(), inv.ProjectID.String(),
		inv.InvoiceNumber, core.FormatMoney(inv.Total))

	NewResponse().Status(http.StatusCreated).
		Header("Location", "/api/invoices/"+inv.ID.String()).
		JSON(toInvoice(inv)).
		Write(w)
}
