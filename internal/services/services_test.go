package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bizdash/internal/amqp"
	"bizdash/internal/core"
	"bizdash/internal/storage"
	"bizdash/internal/storage/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	invoices  []uuid.UUID
	reminders []*amqp.JobReminderMessage
}

func (f *fakePublisher) PublishInvoiceRender(_ context.Context, id uuid.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.invoices = append(f.invoices, id)
	return nil
}

func (f *fakePublisher) PublishJobReminder(_ context.Context, msg *amqp.JobReminderMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.reminders = append(f.reminders, msg)
	return nil
}

func newJob(date, clock string) core.Job {
	return core.Job{
		UserID:        "u1",
		PersonName:    "Ana Ruiz",
		Title:         "Boiler check",
		Type:          core.JobTypeMaintenance,
		ScheduledDate: date,
		ScheduledTime: clock,
	}
}

func TestJobService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewJobService(store, nil, fixedClock)

	past, err := svc.Create(ctx, newJob("2025-06-10", "09:00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if past.Status != core.JobOverdue {
		t.Fatalf("job scheduled earlier today should derive overdue, got %s", past.Status)
	}
	if _, err := svc.Create(ctx, newJob("2025-06-12", "09:00")); err != nil {
		t.Fatalf("create: %v", err)
	}

	overdue, err := svc.List(ctx, "u1", JobQuery{When: "overdue"})
	if err != nil || len(overdue) != 1 {
		t.Fatalf("overdue list = %d (err=%v), want 1", len(overdue), err)
	}

	done, err := svc.Toggle(ctx, "u1", past.Job.ID, true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if done.Status != core.JobCompleted || done.Job.CompletedAt == nil || !done.Job.CompletedAt.Equal(testNow) {
		t.Fatalf("unexpected toggled job: %+v", done)
	}
	stored, _ := store.GetJob(ctx, "u1", past.Job.ID)
	if stored.Status != core.JobCompleted || !stored.IsCompleted {
		t.Fatalf("stored job = %+v, want completed", stored)
	}

	reopened, err := svc.Toggle(ctx, "u1", past.Job.ID, false)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != core.JobOverdue {
		t.Fatalf("reopened past job should derive overdue, got %s", reopened.Status)
	}
	stored, _ = store.GetJob(ctx, "u1", past.Job.ID)
	if stored.Status != core.JobPending || stored.CompletedAt != nil {
		t.Fatalf("reopened job must be stored as pending, got %+v", stored)
	}

	log, err := svc.Activity(ctx, "u1", past.Job.ID)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	actions := map[string]bool{}
	for _, a := range log {
		actions[a.Action] = true
	}
	for _, want := range []string{core.ActivityCreated, core.ActivityCompleted, core.ActivityReopened} {
		if !actions[want] {
			t.Errorf("activity log missing %q: %+v", want, log)
		}
	}

	cancelled, err := svc.Cancel(ctx, "u1", past.Job.ID)
	if err != nil || cancelled.Status != core.JobCancelled {
		t.Fatalf("cancel = %+v (err=%v)", cancelled, err)
	}

	stats, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Cancelled != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Total != stats.Pending+stats.Completed+stats.Overdue+stats.Cancelled {
		t.Fatalf("stats do not add up: %+v", stats)
	}
}

func TestJobService_SkipsInvalidSchedules(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewJobService(store, nil, fixedClock)

	// bypass validation the way an imported row would
	bad := newJob("10/06/2025", "9am")
	if _, err := store.CreateJob(ctx, bad); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Create(ctx, newJob("2025-06-11", "10:00")); err != nil {
		t.Fatalf("create: %v", err)
	}

	views, err := svc.List(ctx, "u1", JobQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected the invalid job to be skipped, got %d views", len(views))
	}
	stats, _ := svc.Stats(ctx, "u1")
	if stats.Invalid != 1 || stats.Total != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestJobService_ToggleInvalidSchedule(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewJobService(store, nil, fixedClock)

	bad := newJob("not-a-date", "10:00")
	bad.IsCompleted = true
	bad.Status = core.JobCompleted
	seeded, err := store.CreateJob(ctx, bad)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	view, err := svc.Toggle(ctx, "u1", seeded.ID, false)
	if err != nil {
		t.Fatalf("reopen should succeed once persisted, got %v", err)
	}
	if view.Status != core.JobPending || view.Job.IsCompleted {
		t.Errorf("view = %s completed=%v, want stored pending", view.Status, view.Job.IsCompleted)
	}

	stored, _ := svc.Stored(ctx, "u1", seeded.ID)
	if stored.IsCompleted || stored.Status != core.JobPending {
		t.Errorf("stored = %s completed=%v", stored.Status, stored.IsCompleted)
	}
	activity, err := svc.Activity(ctx, "u1", seeded.ID)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(activity) != 1 {
		t.Fatalf("expected one activity row, got %d", len(activity))
	}
	a := activity[0]
	if a.Action != core.ActivityReopened || a.OldValue != string(core.JobCompleted) || a.NewValue != string(core.JobPending) {
		t.Errorf("activity = %s %q -> %q", a.Action, a.OldValue, a.NewValue)
	}

	if _, err := svc.Cancel(ctx, "u1", seeded.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	activity, _ = svc.Activity(ctx, "u1", seeded.ID)
	if len(activity) != 2 {
		t.Fatalf("expected two activity rows, got %d", len(activity))
	}
	var cancelled core.JobActivity
	for _, a := range activity {
		if a.Action == core.ActivityCancelled {
			cancelled = a
		}
	}
	if cancelled.OldValue != string(core.JobPending) {
		t.Errorf("cancel old value = %q, want pending", cancelled.OldValue)
	}
}

func TestJobService_CreateValidates(t *testing.T) {
	svc := NewJobService(memory.New(), nil, fixedClock)
	j := newJob("2025-06-11", "10:00")
	j.PersonName = " "
	if _, err := svc.Create(context.Background(), j); !errors.Is(err, core.ErrEmptyPersonName) {
		t.Fatalf("expected ErrEmptyPersonName, got %v", err)
	}
}

func seedProject(t *testing.T, store storage.RecordStore, budget string, costs ...string) core.Project {
	t.Helper()
	ctx := context.Background()
	p, err := store.CreateProject(ctx, core.Project{UserID: "u1", Title: "Kitchen", Budget: dec(budget)})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	for _, c := range costs {
		_, err := store.CreateExpense(ctx, core.Expense{
			UserID: "u1", ProjectID: p.ID, Description: "item",
			Quantity: decimal.NewFromInt(1), Price: dec(c), Category: core.CategoryMaterials,
		})
		if err != nil {
			t.Fatalf("seed expense: %v", err)
		}
	}
	return p
}

func TestProjectService_RecordPayment(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewProjectService(store)
	p := seedProject(t, store, "0", "60", "40")

	tests := []struct {
		name       string
		amount     string
		wantStatus core.PaymentStatus
		wantDue    string
	}{
		{"first instalment", "30", core.PaymentPartiallyPaid, "70"},
		{"settles the balance", "70", core.PaymentPaid, "0"},
		{"overpayment stays paid", "5", core.PaymentPaid, "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.RecordPayment(ctx, "u1", p.ID, dec(tt.amount))
			if err != nil {
				t.Fatalf("RecordPayment() error = %v", err)
			}
			if s.PaymentStatus != tt.wantStatus || !s.BalanceDue.Equal(dec(tt.wantDue)) {
				t.Errorf("status = %s due = %s, want %s due %s", s.PaymentStatus, s.BalanceDue, tt.wantStatus, tt.wantDue)
			}
		})
	}

	if _, err := svc.RecordPayment(ctx, "u1", p.ID, dec("0")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero payment should be rejected, got %v", err)
	}
	if _, err := svc.RecordPayment(ctx, "u2", p.ID, dec("10")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("another user's project should not be found, got %v", err)
	}
}

func TestProjectService_NewExpenseRefreshesPaymentStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewProjectService(store)
	p := seedProject(t, store, "500", "100")

	if _, err := svc.RecordPayment(ctx, "u1", p.ID, dec("100")); err != nil {
		t.Fatalf("pay: %v", err)
	}
	_, err := svc.AddExpense(ctx, core.Expense{
		UserID: "u1", ProjectID: p.ID, Description: "extra", Quantity: dec("2"), Price: dec("25"), Category: core.CategoryLabor,
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	stored, _ := store.GetProject(ctx, "u1", p.ID)
	if stored.Status != core.PaymentPartiallyPaid {
		t.Fatalf("stored status = %s, want partially_paid", stored.Status)
	}

	s, err := svc.SetBudget(ctx, "u1", p.ID, dec("160"))
	if err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if !s.HasBudget || s.Budget.IsOverBudget || !s.Budget.IsNearLimit {
		t.Fatalf("150 of 160 should be near the limit: %+v", s.Budget)
	}
	if _, err := svc.SetBudget(ctx, "u1", p.ID, dec("-1")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative budget should be rejected, got %v", err)
	}
}

func TestInvoiceService_Issue(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewInvoiceService(store, pub, nil, fixedClock)
	p := seedProject(t, store, "0", "60", "40")

	settings, _ := svc.Settings(ctx, "u1")
	settings.TaxRate = dec("10")
	settings.TaxEnabled = true
	if _, err := svc.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	preview, err := svc.Preview(ctx, "u1", p.ID, dec("5"))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Lines) != 2 || preview.Lines[1].No != 2 {
		t.Fatalf("unexpected lines: %+v", preview.Lines)
	}
	if !preview.Totals.GrandTotal.Equal(dec("105")) {
		t.Fatalf("grand total = %s, want 105", preview.Totals.GrandTotal)
	}

	first, err := svc.Issue(ctx, IssueRequest{UserID: "u1", ProjectID: p.ID, ClientName: " Acme ", Discount: dec("5")})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first.InvoiceNumber != "INV-00001" || first.ClientName != "Acme" {
		t.Fatalf("unexpected invoice: %+v", first)
	}
	if !first.TaxAmount.Equal(dec("10")) || !first.Total.Equal(dec("105")) {
		t.Fatalf("tax = %s total = %s", first.TaxAmount, first.Total)
	}
	if first.InvoiceDate.String() != "2025-06-10" || first.DueDate.String() != "2025-07-10" {
		t.Fatalf("dates = %s / %s", first.InvoiceDate, first.DueDate)
	}
	if len(pub.invoices) != 1 || pub.invoices[0] != first.ID {
		t.Fatalf("render message not published: %+v", pub.invoices)
	}

	pub.err = errors.New("circuit breaker is open")
	second, err := svc.Issue(ctx, IssueRequest{UserID: "u1", ProjectID: p.ID})
	if err != nil {
		t.Fatalf("a publish failure must not fail the issue: %v", err)
	}
	if second.InvoiceNumber != "INV-00002" {
		t.Fatalf("second number = %s", second.InvoiceNumber)
	}

	doc, err := svc.Document(ctx, "u1", first.ID)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Project.ID != p.ID || len(doc.Lines) != 2 || !doc.Totals.TaxRate.Equal(dec("10")) {
		t.Fatalf("unexpected document: %+v", doc)
	}

	list, _ := svc.List(ctx, "u1", p.ID)
	if len(list) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(list))
	}
}

func TestInvoiceService_WithoutPublisher(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewInvoiceService(store, nil, nil, fixedClock)
	p := seedProject(t, store, "0", "10")

	if _, err := svc.Issue(ctx, IssueRequest{UserID: "u1", ProjectID: p.ID}); err != nil {
		t.Fatalf("issue without publisher: %v", err)
	}
	if _, err := svc.Issue(ctx, IssueRequest{UserID: "u1", ProjectID: p.ID, Discount: dec("-1")}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative discount should fail, got %v", err)
	}
	if _, err := svc.Issue(ctx, IssueRequest{UserID: "u1", ProjectID: uuid.New()}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("unknown project should fail, got %v", err)
	}
}

func TestDashboardService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cats := NewCategoryService(store, 10, time.Minute)
	svc := NewDashboardService(store, cats, nil, fixedClock)

	decor, err := cats.Create(ctx, core.Category{UserID: "u1", Name: "Decor", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	p, _ := store.CreateProject(ctx, core.Project{UserID: "u1", Title: "Wedding", Budget: dec("100")})
	for _, e := range []core.Expense{
		{Description: "Flowers", Quantity: dec("3"), Price: dec("20"), Category: decor.Key(), CreatedAt: testNow.AddDate(0, -1, 0)},
		{Description: "Venue", Quantity: dec("1"), Price: dec("50"), Category: core.CategoryOther, CreatedAt: testNow},
		{Description: "Old", Quantity: dec("1"), Price: dec("1"), Category: core.CategoryOther, CreatedAt: testNow.AddDate(-2, 0, 0)},
	} {
		e.UserID, e.ProjectID = "u1", p.ID
		if _, err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("seed expense: %v", err)
		}
	}
	store.CreateJob(ctx, newJob("2025-06-09", "09:00"))
	store.CreateJob(ctx, newJob("2025-06-11", "09:00"))

	d, err := svc.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Overview.ProjectCount != 1 || !d.Overview.TotalSpent.Equal(dec("111")) || d.Overview.OverBudgetCount != 1 {
		t.Fatalf("unexpected overview: %+v", d.Overview)
	}
	if d.Jobs.Overdue != 1 || d.Jobs.Pending != 1 {
		t.Fatalf("unexpected job stats: %+v", d.Jobs)
	}
	if len(d.Upcoming) != 2 || d.Upcoming[0].Status != core.JobOverdue {
		t.Fatalf("upcoming should list the overdue job first: %+v", d.Upcoming)
	}
	if len(d.RecentExpenses) != 3 || d.RecentExpenses[0].Description != "Venue" {
		t.Fatalf("recent expenses not newest first: %+v", d.RecentExpenses)
	}

	a, err := svc.Analytics(ctx, "u1", 6)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(a.Monthly) != 6 || a.Monthly[5].Label != "Jun 2025" || !a.Monthly[5].Total.Equal(dec("50")) || !a.Monthly[4].Total.Equal(dec("60")) {
		t.Fatalf("unexpected monthly buckets: %+v", a.Monthly)
	}
	if len(a.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %+v", a.Categories)
	}
	first := a.Categories[0]
	if first.Label.Name != "Decor" || first.Label.Color != "#ff0000" || !first.Amount.Equal(dec("60")) {
		t.Fatalf("largest category should be the resolved Decor bucket: %+v", first)
	}
	if a.Categories[1].Label.Name != "Other" || a.Categories[1].Label.Color != DefaultCategoryColor {
		t.Fatalf("legacy key should resolve to itself: %+v", a.Categories[1])
	}

	detail, err := svc.ProjectDetail(ctx, "u1", p.ID)
	if err != nil {
		t.Fatalf("project detail: %v", err)
	}
	if detail.Summary.ExpenseCount != 3 || !detail.Summary.Budget.Percentage.Equal(dec("100")) {
		t.Fatalf("unexpected summary: %+v", detail.Summary)
	}
	if _, err := svc.ProjectDetail(ctx, "u2", p.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
}

func TestDashboardService_Report(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewDashboardService(store, NewCategoryService(store, 10, time.Minute), nil, fixedClock)

	kitchen, _ := store.CreateProject(ctx, core.Project{UserID: "u1", Title: "Kitchen"})
	garden, _ := store.CreateProject(ctx, core.Project{UserID: "u1", Title: "Garden"})
	day := func(d int, h, m, sec int) time.Time { return time.Date(2025, 6, d, h, m, sec, 0, time.UTC) }
	for _, e := range []core.Expense{
		{ProjectID: kitchen.ID, Description: "before", Price: dec("1"), Category: core.CategoryMaterials, CreatedAt: day(2, 23, 59, 59)},
		{ProjectID: kitchen.ID, Description: "first", Price: dec("10"), Category: core.CategoryMaterials, CreatedAt: day(3, 0, 0, 0)},
		{ProjectID: garden.ID, Description: "labor", Price: dec("30"), Category: core.CategoryLabor, CreatedAt: day(4, 9, 0, 0)},
		{ProjectID: kitchen.ID, Description: "last", Price: dec("20"), Category: core.CategoryMaterials, CreatedAt: day(5, 23, 59, 59)},
		{ProjectID: kitchen.ID, Description: "after", Price: dec("1"), Category: core.CategoryMaterials, CreatedAt: day(6, 0, 0, 0)},
	} {
		e.UserID, e.Quantity = "u1", dec("1")
		if _, err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("seed expense: %v", err)
		}
	}

	descriptions := func(r Report) string {
		out := ""
		for _, l := range r.Lines {
			out += l.Expense.Description + " "
		}
		return out
	}
	tests := []struct {
		name  string
		q     ReportQuery
		lines string
		total string
	}{
		{"both days inclusive", ReportQuery{From: core.NewDate(2025, 6, 3), To: core.NewDate(2025, 6, 5)}, "last labor first ", "60"},
		{"single day", ReportQuery{From: core.NewDate(2025, 6, 5), To: core.NewDate(2025, 6, 5)}, "last ", "20"},
		{"project", ReportQuery{From: core.NewDate(2025, 6, 3), To: core.NewDate(2025, 6, 5), ProjectID: garden.ID}, "labor ", "30"},
		{"category", ReportQuery{From: core.NewDate(2025, 6, 3), To: core.NewDate(2025, 6, 5), Category: core.CategoryMaterials}, "last first ", "30"},
		{"default window", ReportQuery{}, "after last labor first before ", "62"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := svc.Report(ctx, "u1", tt.q)
			if err != nil {
				t.Fatalf("report: %v", err)
			}
			if got := descriptions(r); got != tt.lines {
				t.Errorf("lines = %q, want %q", got, tt.lines)
			}
			if !r.Expenses.Total.Equal(dec(tt.total)) || r.Expenses.Count != len(r.Lines) {
				t.Errorf("unexpected overview: %+v", r.Expenses)
			}
		})
	}

	r, _ := svc.Report(ctx, "u1", ReportQuery{From: core.NewDate(2025, 6, 3), To: core.NewDate(2025, 6, 5)})
	if r.Lines[1].Project != "Garden" || r.Lines[1].Category.Name != "Labor" || !r.Lines[1].Amount.Equal(dec("30")) {
		t.Fatalf("line not resolved: %+v", r.Lines[1])
	}
	if len(r.Categories) != 2 || r.Categories[0].Label.Name != "Materials" || !r.Categories[0].Percent.Equal(dec("50")) {
		t.Fatalf("unexpected breakdown: %+v", r.Categories)
	}
	if r.From.String() != "2025-06-03" || r.To.String() != "2025-06-05" {
		t.Fatalf("unexpected range %s..%s", r.From, r.To)
	}

	if d, _ := svc.Report(ctx, "u1", ReportQuery{}); d.From.String() != "2025-05-11" || d.To.String() != "2025-06-10" {
		t.Fatalf("default range = %s..%s, want 2025-05-11..2025-06-10", d.From, d.To)
	}

	_, err := svc.Report(ctx, "u1", ReportQuery{From: core.NewDate(2025, 6, 6), To: core.NewDate(2025, 6, 5)})
	if !errors.Is(err, core.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestUpcomingJobsLimit(t *testing.T) {
	var views []core.JobView
	for _, d := range []string{"2025-06-15", "2025-06-11", "2025-06-13", "2025-06-12", "2025-06-14", "2025-06-16"} {
		views = append(views, core.JobView{Job: newJob(d, "10:00"), Status: core.JobPending})
	}
	views = append(views, core.JobView{Job: newJob("2025-06-10", "10:00"), Status: core.JobCompleted})

	got := UpcomingJobs(views, testNow, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 jobs, got %d", len(got))
	}
	if got[0].Job.ScheduledDate != "2025-06-11" || got[4].Job.ScheduledDate != "2025-06-15" {
		t.Fatalf("jobs not in schedule order: %s .. %s", got[0].Job.ScheduledDate, got[4].Job.ScheduledDate)
	}
}

func TestCampaignService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewCampaignService(store, fixedClock)

	a, err := svc.Register(ctx, core.Advertiser{UserID: "u1", Name: "Lia", Salary: dec("500"), TargetVideos: 10, CompletedVideos: 14, AdTypes: []string{"Makeup"}})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if a.Advertiser.CompletedVideos != 10 || a.State != core.ProgressCompleted || !a.Advertiser.TargetsLocked {
		t.Fatalf("registration should clamp and lock: %+v", a)
	}

	v, err := svc.SetProgress(ctx, "u1", a.Advertiser.ID, 25)
	if err != nil || v.Advertiser.CompletedVideos != 10 || v.Progress != 1 {
		t.Fatalf("progress = %+v (err=%v)", v, err)
	}
	v, _ = svc.CheckVideo(ctx, "u1", a.Advertiser.ID, 3, false)
	if v.Advertiser.CompletedVideos != 3 || v.State != core.ProgressInProgress {
		t.Fatalf("unticking box 4 should leave 3 videos: %+v", v)
	}
	v, _ = svc.ResetProgress(ctx, "u1", a.Advertiser.ID)
	if v.State != core.ProgressNotStarted {
		t.Fatalf("reset = %+v", v)
	}
	svc.SetProgress(ctx, "u1", a.Advertiser.ID, 5)

	pay, err := svc.CreatePayment(ctx, core.Payment{UserID: "u1", AdvertiserID: a.Advertiser.ID, Amount: dec("250"), Status: core.CampaignPaid})
	if err != nil || pay.Status != core.CampaignUnpaid {
		t.Fatalf("new payments start unpaid: %+v (err=%v)", pay, err)
	}
	pay, err = svc.ApprovePayment(ctx, "u1", pay.ID, core.CampaignPaid, "admin")
	if err != nil || pay.PaymentDate.String() != "2025-06-10" {
		t.Fatalf("approve = %+v (err=%v)", pay, err)
	}

	d, err := svc.SubmitDelivery(ctx, core.Delivery{UserID: "u1", AdvertiserID: a.Advertiser.ID, VideoLink: "https://video/1"})
	if err != nil {
		t.Fatalf("submit delivery: %v", err)
	}
	if _, err := svc.VerifyDelivery(ctx, "u1", d.ID, core.DeliveryApproved, "admin"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := svc.ShipProduct(ctx, core.ProductDelivery{UserID: "u1", AdvertiserID: a.Advertiser.ID, ProductName: "Serum", Quantity: 2, Price: dec("15")}); err != nil {
		t.Fatalf("ship product: %v", err)
	}

	r, err := svc.Report(ctx, "u1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	o := r.Overview
	if o.TeamSize != 1 || o.CompletedVideos != 5 || o.CompletionRate != 50 || !o.CostPerVideo.Equal(dec("50")) {
		t.Fatalf("unexpected overview: %+v", o)
	}
	if o.ApprovedDeliveries != 1 || !o.ProductDeliveryValue.Equal(dec("30")) {
		t.Fatalf("unexpected delivery totals: %+v", o)
	}
	if len(r.ByAdType) != 1 || len(r.ByMonth) != 1 || len(r.Efficiency) != 1 {
		t.Fatalf("unexpected report groupings: %+v", r)
	}

	if _, err := svc.SubmitDelivery(ctx, core.Delivery{UserID: "u2", AdvertiserID: a.Advertiser.ID, VideoLink: "x"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delivery for another user's advertiser should fail, got %v", err)
	}
}

func TestCampaignService_Settings(t *testing.T) {
	ctx := context.Background()
	svc := NewCampaignService(memory.New(), fixedClock)

	st, err := svc.Settings(ctx, "u1")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if st.DefaultPlatform != "TikTok" || st.DefaultContractType != "Freelance" || st.Currency != core.DefaultCurrency {
		t.Fatalf("unexpected defaults: %+v", st)
	}

	st.DefaultPlatform, st.DefaultContractType, st.Currency, st.TaxRate = "YouTube", "Contract", " eur ", dec("21")
	saved, err := svc.SaveSettings(ctx, st)
	if err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if saved.Currency != "EUR" || !saved.TaxRate.Equal(dec("21")) {
		t.Fatalf("unexpected saved settings: %+v", saved)
	}

	a, err := svc.Register(ctx, core.Advertiser{UserID: "u1", Name: "Lia", TargetVideos: 4})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if a.Advertiser.Platform != "YouTube" || a.Advertiser.ContractType != "Contract" {
		t.Fatalf("defaults not applied: %+v", a.Advertiser)
	}
	b, _ := svc.Register(ctx, core.Advertiser{UserID: "u1", Name: "Mo", TargetVideos: 4, Platform: "Instagram"})
	if b.Advertiser.Platform != "Instagram" || b.Advertiser.ContractType != "Contract" {
		t.Fatalf("explicit platform must win: %+v", b.Advertiser)
	}
	if other, _ := svc.Register(ctx, core.Advertiser{UserID: "u2", Name: "Zed", TargetVideos: 4}); other.Advertiser.Platform != "TikTok" {
		t.Fatalf("settings leaked across users: %+v", other.Advertiser)
	}

	bad := []core.CampaignSettings{
		{UserID: "u1", DefaultPlatform: "MySpace", DefaultContractType: "Contract", Currency: "EUR"},
		{UserID: "u1", DefaultPlatform: "TikTok", DefaultContractType: "Gig", Currency: "EUR"},
		{UserID: "u1", DefaultPlatform: "TikTok", DefaultContractType: "Contract", Currency: "  "},
		{UserID: "u1", DefaultPlatform: "TikTok", DefaultContractType: "Contract", Currency: "EUR", TaxRate: dec("101")},
	}
	for _, b := range bad {
		if _, err := svc.SaveSettings(ctx, b); !core.IsValidation(err) {
			t.Errorf("SaveSettings(%+v) error = %v, want a validation error", b, err)
		}
	}
}

func TestReminderProcessor(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	proc := NewReminderProcessor(store, pub, nil, DefaultReminderProcessorConfig(), fixedClock)

	due := newJob("2025-06-10", "12:10")
	due.ReminderEnabled, due.ReminderMinutesBefore = true, 15
	due, _ = store.CreateJob(ctx, due)

	notYet := newJob("2025-06-10", "13:00")
	notYet.ReminderEnabled, notYet.ReminderMinutesBefore = true, 15
	store.CreateJob(ctx, notYet)

	off := newJob("2025-06-10", "12:05")
	store.CreateJob(ctx, off)

	pub.err = errors.New("connection refused")
	if n, err := proc.ProcessDueReminders(ctx, testNow); err != nil || n != 0 {
		t.Fatalf("failed publish should send nothing: n=%d err=%v", n, err)
	}

	pub.err = nil
	n, err := proc.ProcessDueReminders(ctx, testNow)
	if err != nil || n != 1 {
		t.Fatalf("sent = %d (err=%v), want 1", n, err)
	}
	msg := pub.reminders[0]
	if msg.JobID != due.ID || !msg.ScheduledAt.Equal(time.Date(2025, 6, 10, 12, 10, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reminder: %+v", msg)
	}

	if n, _ := proc.ProcessDueReminders(ctx, testNow.Add(time.Minute)); n != 0 {
		t.Fatalf("a reminder must be sent only once, sent %d more", n)
	}
}

func TestReminderProcessor_NotInitialized(t *testing.T) {
	proc := NewReminderProcessor(memory.New(), nil, nil, DefaultReminderProcessorConfig(), fixedClock)
	if _, err := proc.ProcessDueReminders(context.Background(), testNow); err == nil {
		t.Fatal("expected an error without a publisher")
	}
}

func TestReminderProcessor_StartStop(t *testing.T) {
	cfg := DefaultReminderProcessorConfig()
	cfg.PollInterval = 10 * time.Millisecond
	proc := NewReminderProcessor(memory.New(), &fakePublisher{}, nil, cfg, fixedClock)

	ctx := context.Background()
	if err := proc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := proc.Start(ctx); err == nil {
		t.Fatal("second start should fail")
	}
	if !proc.IsRunning() {
		t.Fatal("processor should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := proc.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if proc.IsRunning() {
		t.Fatal("processor should be stopped")
	}
}

func TestCategoryService_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewCategoryService(store, 10, time.Hour)

	id := uuid.New()
	key := core.CategoryKey(id.String())
	labels, _ := svc.Labels(ctx, "u1", []core.CategoryKey{key})
	if labels[0].Name != id.String() {
		t.Fatalf("unknown id should fall back to the key, got %+v", labels[0])
	}

	if _, err := svc.Create(ctx, core.Category{ID: id, UserID: "u1", Name: "Travel"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	labels, _ = svc.Labels(ctx, "u1", []core.CategoryKey{key})
	if labels[0].Name != "Travel" || labels[0].Color != DefaultCategoryColor {
		t.Fatalf("cache not invalidated after create: %+v", labels[0])
	}

	if err := svc.Delete(ctx, "u1", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	labels, _ = svc.Labels(ctx, "u1", []core.CategoryKey{key})
	if labels[0].Name != id.String() {
		t.Fatalf("cache not invalidated after delete: %+v", labels[0])
	}
}
