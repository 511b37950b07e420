package http

import (
	"fmt"
	"net/http"
	"strings"

	"bizdash/internal/core"
	"bizdash/internal/export"
	"bizdash/internal/services"

	"github.com/google/uuid"
)

const maxWindowMonths = 36

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard.Dashboard(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toDashboard(d)).Write(w)
}

// analyticsWindow reads ?months=N, capped so a single request cannot ask
// for an unbounded bucket list.
func analyticsWindow(r *http.Request) int {
	return min(queryInt(r, "months", services.DefaultWindowMonths), maxWindowMonths)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Dashboard.Analytics(r.Context(), user(r), analyticsWindow(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toAnalytics(a)).Write(w)
}

func (s *Server) handleAnalyticsExport(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Dashboard.Analytics(r.Context(), user(r), analyticsWindow(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	data, err := export.AnalyticsXLSX(a)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	name := "analytics-" + a.GeneratedAt.Format("2006-01-02") + ".xlsx"
	NewResponse().Attachment(name, xlsxContentType, data).Write(w)
}

// reportQuery reads ?from=&to=&project=&category=. Missing values and "all"
// leave that part of the query open.
func reportQuery(r *http.Request) (services.ReportQuery, error) {
	q := r.URL.Query()
	var (
		rq  services.ReportQuery
		err error
	)
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		if rq.From, err = core.ParseDate(v); err != nil {
			return rq, fmt.Errorf("from: %w", err)
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		if rq.To, err = core.ParseDate(v); err != nil {
			return rq, fmt.Errorf("to: %w", err)
		}
	}
	if v := strings.TrimSpace(q.Get("project")); v != "" && v != "all" {
		if rq.ProjectID, err = uuid.Parse(v); err != nil {
			return rq, errBadID
		}
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" && v != "all" {
		rq.Category = core.CategoryKey(v)
	}
	return rq, nil
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) (services.Report, bool) {
	q, err := reportQuery(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return services.Report{}, false
	}
	rep, err := s.svc.Dashboard.Report(r.Context(), user(r), q)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return services.Report{}, false
	}
	return rep, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		NewResponse().JSON(toReport(rep)).Write(w)
	}
}

func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	data, err := export.ReportXLSX(rep)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	name := "report-" + rep.From.String() + "-" + rep.To.String() + ".xlsx"
	NewResponse().Attachment(name, xlsxContentType, data).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories.List(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(cats, toCategory)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	c, err := s.svc.Categories.Create(r.Context(), core.Category{
		UserID: user(r),
		Name:   p.Get("name"),
		Color:  p.Get("color"),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toCategory(c)).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Categories.Delete(r.Context(), user(r), id); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
