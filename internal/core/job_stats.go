package core

import "time"

// JobStats counts jobs by effective status. Total always equals
// Pending + Completed + Overdue + Cancelled; jobs with an unparseable
// schedule are left out of every bucket and counted in Invalid.
type JobStats struct {
	Total     int
	Pending   int
	Completed int
	Overdue   int
	Cancelled int
	Today     int
	Invalid   int
}

// JobView pairs a job with its effective status for one derivation pass.
type JobView struct {
	Job    Job
	Status JobStatus
}

// DeriveJobs computes the effective status of every job against a single
// reference instant. Jobs that fail to derive are returned separately so a
// batch is never aborted by one bad record.
func DeriveJobs(jobs []Job, now time.Time) ([]JobView, []error) {
	views := make([]JobView, 0, len(jobs))
	var errs []error
	for _, j := range jobs {
		status, err := EffectiveJobStatus(j, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		views = append(views, JobView{Job: j, Status: status})
	}
	return views, errs
}

// JobStatistics aggregates jobs by effective status using one now for the
// whole pass.
func JobStatistics(jobs []Job, now time.Time) JobStats {
	var stats JobStats
	y, m, d := now.Date()
	for _, j := range jobs {
		status, err := EffectiveJobStatus(j, now)
		if err != nil {
			stats.Invalid++
			continue
		}
		stats.Total++
		switch status {
		case JobPending:
			stats.Pending++
		case JobCompleted:
			stats.Completed++
		case JobOverdue:
			stats.Overdue++
		case JobCancelled:
			stats.Cancelled++
		}
		if day, err := j.ScheduledDay(now.Location()); err == nil {
			jy, jm, jd := day.Date()
			if jy == y && jm == m && jd == d {
				stats.Today++
			}
		}
	}
	return stats
}
