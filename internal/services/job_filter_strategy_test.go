package services

import (
	"testing"
	"time"

	"bizdash/internal/core"
)

func view(date, clock string, status core.JobStatus) core.JobView {
	return core.JobView{
		Job:    core.Job{PersonName: "Ana Ruiz", Title: "Site visit", Type: core.JobTypeInspection, ScheduledDate: date, ScheduledTime: clock},
		Status: status,
	}
}

func TestJobFilters_Match(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter JobFilter
		view   core.JobView
		want   bool
	}{
		{"today - same day", TodayFilter{}, view("2025-06-10", "08:00", core.JobOverdue), true},
		{"today - tomorrow", TodayFilter{}, view("2025-06-11", "08:00", core.JobPending), false},
		{"upcoming - tomorrow pending", UpcomingFilter{}, view("2025-06-11", "08:00", core.JobPending), true},
		{"upcoming - tomorrow completed", UpcomingFilter{}, view("2025-06-11", "08:00", core.JobCompleted), false},
		{"upcoming - tomorrow cancelled", UpcomingFilter{}, view("2025-06-11", "08:00", core.JobCancelled), false},
		{"upcoming - later today", UpcomingFilter{}, view("2025-06-10", "18:00", core.JobPending), false},
		{"overdue - derived overdue", OverdueFilter{}, view("2025-06-09", "08:00", core.JobOverdue), true},
		{"overdue - pending", OverdueFilter{}, view("2025-06-11", "08:00", core.JobPending), false},
		{"completed", CompletedFilter{}, view("2025-06-01", "08:00", core.JobCompleted), true},
		{"completed - cancelled", CompletedFilter{}, view("2025-06-01", "08:00", core.JobCancelled), false},
		{"all", AllFilter{}, view("2024-01-01", "08:00", core.JobCancelled), true},
		{"today - bad date", TodayFilter{}, view("junk", "08:00", core.JobPending), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.view, now); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTodayFilterUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	// 22:30 UTC on the 9th is already the 10th in UTC+3
	now := time.Date(2025, 6, 9, 22, 30, 0, 0, time.UTC).In(loc)
	if !(TodayFilter{}).Match(view("2025-06-10", "09:00", core.JobPending), now) {
		t.Error("job on the local calendar day should match today")
	}
}

func TestGetJobFilter(t *testing.T) {
	tests := []struct {
		name    string
		want    JobFilter
		wantErr bool
	}{
		{"", AllFilter{}, false},
		{"today", TodayFilter{}, false},
		{"upcoming", UpcomingFilter{}, false},
		{"overdue", OverdueFilter{}, false},
		{"completed", CompletedFilter{}, false},
		{"all", AllFilter{}, false},
		{"tomorrow", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetJobFilter(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetJobFilter(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("GetJobFilter(%q) = %T, want %T", tt.name, got, tt.want)
			}
		})
	}
}

type weekendFilter struct{}

func (weekendFilter) Match(v core.JobView, now time.Time) bool {
	d, err := v.Job.ScheduledDay(now.Location())
	return err == nil && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday)
}

func TestRegisterJobFilter(t *testing.T) {
	RegisterJobFilter("weekend", weekendFilter{})
	t.Cleanup(func() { delete(jobFilters, "weekend") })

	f, err := GetJobFilter("weekend")
	if err != nil {
		t.Fatalf("GetJobFilter(weekend) error = %v", err)
	}
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	if !f.Match(view("2025-06-14", "10:00", core.JobPending), now) {
		t.Error("Saturday job should match the weekend filter")
	}
}

func TestFilterJobs(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	a := view("2025-06-10", "09:00", core.JobOverdue)
	b := view("2025-06-12", "09:00", core.JobPending)
	b.Job.PersonName = "Bo Chen"
	b.Job.Type = core.JobTypeDelivery
	b.Job.Location = "Harbour warehouse"
	c := view("2025-06-01", "09:00", core.JobCompleted)
	views := []core.JobView{a, b, c}

	tests := []struct {
		name string
		q    JobQuery
		want int
	}{
		{"no filters", JobQuery{}, 3},
		{"person substring", JobQuery{PersonName: "chen"}, 1},
		{"job type", JobQuery{JobType: "delivery"}, 1},
		{"job type all", JobQuery{JobType: "all"}, 3},
		{"search location", JobQuery{Search: "WAREHOUSE"}, 1},
		{"search title", JobQuery{Search: "site"}, 3},
		{"overdue and person", JobQuery{When: "overdue", PersonName: "ana"}, 1},
		{"upcoming and type mismatch", JobQuery{When: "upcoming", JobType: "meeting"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterJobs(views, tt.q, now)
			if err != nil {
				t.Fatalf("FilterJobs() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("FilterJobs() returned %d jobs, want %d", len(got), tt.want)
			}
		})
	}

	if _, err := FilterJobs(views, JobQuery{When: "someday"}, now); err == nil {
		t.Error("unknown filter should fail")
	}
}
