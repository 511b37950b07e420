package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/metrics"
	"bizdash/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	upcomingLimit       = 5
	recentExpenseLimit  = 5
	DefaultWindowMonths = 6
	DefaultReportDays   = 30
)

type (
	// Dashboard is the home screen snapshot.
	Dashboard struct {
		GeneratedAt    time.Time
		Overview       core.Overview
		Projects       []core.ProjectSummary
		Jobs           core.JobStats
		Upcoming       []core.JobView
		RecentExpenses []core.Expense
	}

	// CategoryBreakdown is one resolved category with its share of spend.
	CategoryBreakdown struct {
		Label   CategoryLabel
		Amount  decimal.Decimal
		Percent decimal.Decimal
	}

	// Analytics is the expense analytics view.
	Analytics struct {
		GeneratedAt time.Time
		Expenses    core.ExpenseOverview
		Categories  []CategoryBreakdown
		Monthly     []core.MonthBucket
	}

	// ReportQuery selects the line items a report covers. From and To are
	// calendar days, both inclusive. A zero To means today and a zero From
	// means DefaultReportDays before To. Zero ProjectID and Category match
	// everything.
	ReportQuery struct {
		From      core.Date
		To        core.Date
		ProjectID uuid.UUID
		Category  core.CategoryKey
	}

	// ReportLine is one line item resolved for display.
	ReportLine struct {
		Expense  core.Expense
		Project  string
		Category CategoryLabel
		Amount   decimal.Decimal
	}

	// Report is the expense report over a date range, newest line first.
	Report struct {
		GeneratedAt time.Time
		From        core.Date
		To          core.Date
		Expenses    core.ExpenseOverview
		Categories  []CategoryBreakdown
		Lines       []ReportLine
	}

	// ProjectDetail is one project with its line items and invoices.
	ProjectDetail struct {
		Summary    core.ProjectSummary
		Expenses   []core.Expense
		Categories []CategoryBreakdown
		Invoices   []core.Invoice
	}
)

// DashboardService builds read-only views. Every method takes one snapshot
// of the clock and passes it through the whole derivation.
type DashboardService struct {
	store      storage.RecordStore
	categories *CategoryService
	metrics    metrics.Sink
	now        Clock
}

func NewDashboardService(store storage.RecordStore, categories *CategoryService, sink metrics.Sink, clock Clock) *DashboardService {
	return &DashboardService{
		store:      store,
		categories: categories,
		metrics:    orNoop(sink),
		now:        orNow(clock),
	}
}

func (s *DashboardService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	var (
		projects []core.Project
		expenses []core.Expense
		jobs     []core.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = s.store.ListProjects(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, userID, storage.ExpenseFilter{})
		return err
	})
	g.Go(func() (err error) {
		jobs, err = s.store.ListJobs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}

	now := s.now()
	summaries := core.SummarizeProjects(projects, expenses)
	stats := core.JobStatistics(jobs, now)
	s.recordJobStats(ctx, stats)

	views, _ := core.DeriveJobs(jobs, now)
	return Dashboard{
		GeneratedAt:    now,
		Overview:       core.DashboardStats(summaries),
		Projects:       summaries,
		Jobs:           stats,
		Upcoming:       UpcomingJobs(views, now, upcomingLimit),
		RecentExpenses: recentExpenses(expenses, recentExpenseLimit),
	}, nil
}

func (s *DashboardService) Analytics(ctx context.Context, userID string, months int) (Analytics, error) {
	if months <= 0 {
		months = DefaultWindowMonths
	}
	expenses, err := s.store.ListExpenses(ctx, userID, storage.ExpenseFilter{})
	if err != nil {
		return Analytics{}, fmt.Errorf("load expenses: %w", err)
	}

	now := s.now()
	overview := core.ExpenseStats(expenses)
	breakdown, err := s.breakdown(ctx, userID, core.NewCategoryTotals(expenses), overview.Total)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{
		GeneratedAt: now,
		Expenses:    overview,
		Categories:  breakdown,
		Monthly:     core.MonthlyTotals(expenses, now, months),
	}, nil
}

// Report lists the line items created within the query's days, in the
// clock's location, with the same totals and category split as Analytics.
func (s *DashboardService) Report(ctx context.Context, userID string, q ReportQuery) (Report, error) {
	now := s.now()
	from, to := q.days(now)
	if from.After(to.Time) {
		return Report{}, core.ErrInvalidDateRange
	}
	filter := storage.ExpenseFilter{
		ProjectID: q.ProjectID,
		Category:  q.Category,
		Since:     startOfDay(from, now.Location()),
		Until:     startOfDay(to, now.Location()).AddDate(0, 0, 1),
	}

	var (
		projects []core.Project
		expenses []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = s.store.ListProjects(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, userID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("load report: %w", err)
	}

	overview := core.ExpenseStats(expenses)
	breakdown, err := s.breakdown(ctx, userID, core.NewCategoryTotals(expenses), overview.Total)
	if err != nil {
		return Report{}, err
	}

	newest := recentExpenses(expenses, len(expenses))
	keys := make([]core.CategoryKey, len(newest))
	for i, e := range newest {
		keys[i] = e.Category
	}
	labels, err := s.categories.Labels(ctx, userID, keys)
	if err != nil {
		return Report{}, err
	}
	titles := make(map[uuid.UUID]string, len(projects))
	for _, p := range projects {
		titles[p.ID] = p.Title
	}
	lines := make([]ReportLine, len(newest))
	for i, e := range newest {
		lines[i] = ReportLine{
			Expense:  e,
			Project:  titles[e.ProjectID],
			Category: labels[i],
			Amount:   core.LineItemAmount(e),
		}
	}

	slog.DebugContext(ctx, "Built expense report",
		"from", from.String(),
		"to", to.String(),
		"lines", len(lines))
	return Report{
		GeneratedAt: now,
		From:        from,
		To:          to,
		Expenses:    overview,
		Categories:  breakdown,
		Lines:       lines,
	}, nil
}

func (q ReportQuery) days(now time.Time) (from, to core.Date) {
	to = q.To
	if to.IsEmpty() {
		to = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	from = q.From
	if from.IsEmpty() {
		from = core.Date{Time: to.AddDate(0, 0, -DefaultReportDays)}
	}
	return from, to
}

func startOfDay(d core.Date, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (s *DashboardService) ProjectDetail(ctx context.Context, userID string, id uuid.UUID) (ProjectDetail, error) {
	var (
		project  core.Project
		expenses []core.Expense
		invoices []core.Invoice
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		project, err = s.store.GetProject(gctx, userID, id)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, userID, storage.ExpenseFilter{ProjectID: id})
		return err
	})
	g.Go(func() (err error) {
		invoices, err = s.store.ListInvoices(gctx, userID, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return ProjectDetail{}, fmt.Errorf("load project %s: %w", id, err)
	}

	summary := core.SummarizeProject(project, expenses)
	breakdown, err := s.breakdown(ctx, userID, summary.Categories, summary.TotalCost)
	if err != nil {
		return ProjectDetail{}, err
	}
	return ProjectDetail{
		Summary:    summary,
		Expenses:   expenses,
		Categories: breakdown,
		Invoices:   invoices,
	}, nil
}

func (s *DashboardService) breakdown(ctx context.Context, userID string, totals core.CategoryTotals, total decimal.Decimal) ([]CategoryBreakdown, error) {
	shares := totals.Shares(total)
	keys := make([]core.CategoryKey, len(shares))
	for i, sh := range shares {
		keys[i] = sh.Key
	}
	labels, err := s.categories.Labels(ctx, userID, keys)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryBreakdown, len(shares))
	for i, sh := range shares {
		out[i] = CategoryBreakdown{Label: labels[i], Amount: sh.Amount, Percent: sh.Percent}
	}
	return out, nil
}

func (s *DashboardService) recordJobStats(ctx context.Context, stats core.JobStats) {
	s.metrics.JobStatusesDerived(metrics.JobCounts{
		Pending:   stats.Pending,
		Completed: stats.Completed,
		Overdue:   stats.Overdue,
		Cancelled: stats.Cancelled,
	})
	if stats.Invalid > 0 {
		slog.WarnContext(ctx, "Skipped jobs with an invalid schedule", "count", stats.Invalid)
		for i := 0; i < stats.Invalid; i++ {
			s.metrics.InvalidRecordSkipped("job")
		}
	}
}

// UpcomingJobs returns the next open jobs, overdue ones included, in schedule
// order.
func UpcomingJobs(views []core.JobView, now time.Time, limit int) []core.JobView {
	type scheduled struct {
		view core.JobView
		at   time.Time
	}
	open := make([]scheduled, 0, len(views))
	for _, v := range views {
		if v.Status == core.JobCompleted || v.Status == core.JobCancelled {
			continue
		}
		at, err := v.Job.ScheduledAt(now.Location())
		if err != nil {
			continue
		}
		open = append(open, scheduled{view: v, at: at})
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].at.Before(open[j].at) })
	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	out := make([]core.JobView, len(open))
	for i, o := range open {
		out[i] = o.view
	}
	return out
}

func recentExpenses(items []core.Expense, limit int) []core.Expense {
	sorted := make([]core.Expense, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
