// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for the job list date filters.
// Each filter (today, upcoming, overdue, completed, all) has its own strategy
// that decides whether a derived job belongs in the list.

package services

import (
	"fmt"
	"strings"
	"time"

	"bizdash/internal/core"
)

// JobFilter is the strategy interface for the job list date filters.
type JobFilter interface {
	// Match reports whether the derived job belongs in the filtered list for
	// the reference instant now.
	Match(v core.JobView, now time.Time) bool
}

// TodayFilter matches jobs scheduled on now's calendar day.
type TodayFilter struct{}

func (TodayFilter) Match(v core.JobView, now time.Time) bool {
	return compareDay(v.Job, now) == 0
}

// UpcomingFilter matches open jobs scheduled after today.
type UpcomingFilter struct{}

func (UpcomingFilter) Match(v core.JobView, now time.Time) bool {
	if v.Status == core.JobCompleted || v.Status == core.JobCancelled {
		return false
	}
	return compareDay(v.Job, now) > 0
}

// OverdueFilter matches jobs whose effective status is overdue.
type OverdueFilter struct{}

func (OverdueFilter) Match(v core.JobView, _ time.Time) bool {
	return v.Status == core.JobOverdue
}

// CompletedFilter matches completed jobs.
type CompletedFilter struct{}

func (CompletedFilter) Match(v core.JobView, _ time.Time) bool {
	return v.Status == core.JobCompleted
}

// AllFilter matches everything.
type AllFilter struct{}

func (AllFilter) Match(core.JobView, time.Time) bool { return true }

// compareDay returns -1, 0 or 1 as the job's day is before, on or after now's
// day. Unparseable schedules compare as before.
func compareDay(j core.Job, now time.Time) int {
	day, err := j.ScheduledDay(now.Location())
	if err != nil {
		return -1
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch {
	case day.Before(today):
		return -1
	case day.After(today):
		return 1
	default:
		return 0
	}
}

// jobFilters maps filter names to their strategies.
var jobFilters = map[string]JobFilter{
	"today":     TodayFilter{},
	"upcoming":  UpcomingFilter{},
	"overdue":   OverdueFilter{},
	"completed": CompletedFilter{},
	"all":       AllFilter{},
}

// GetJobFilter returns the strategy registered under name. An empty name
// means all.
func GetJobFilter(name string) (JobFilter, error) {
	if name == "" {
		return AllFilter{}, nil
	}
	f, ok := jobFilters[name]
	if !ok {
		return nil, fmt.Errorf("unknown job filter: %s", name)
	}
	return f, nil
}

// RegisterJobFilter adds or replaces a named filter.
func RegisterJobFilter(name string, f JobFilter) {
	jobFilters[name] = f
}

// JobQuery is a job list request. Text fields match case-insensitively.
type JobQuery struct {
	When       string // filter name, see GetJobFilter
	PersonName string
	JobType    string // "all" or empty disables the filter
	Search     string // person, title, location or description
}

// FilterJobs applies q to views, keeping their order.
func FilterJobs(views []core.JobView, q JobQuery, now time.Time) ([]core.JobView, error) {
	when, err := GetJobFilter(q.When)
	if err != nil {
		return nil, err
	}
	person := strings.ToLower(strings.TrimSpace(q.PersonName))
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]core.JobView, 0, len(views))
	for _, v := range views {
		if !when.Match(v, now) {
			continue
		}
		if person != "" && !strings.Contains(strings.ToLower(v.Job.PersonName), person) {
			continue
		}
		if q.JobType != "" && q.JobType != "all" && string(v.Job.Type) != q.JobType {
			continue
		}
		if search != "" && !matchesSearch(v.Job, search) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func matchesSearch(j core.Job, q string) bool {
	for _, field := range []string{j.PersonName, j.Title, j.Location, j.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
