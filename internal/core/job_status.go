package core

import "time"

// JobPatch is the set of fields written when a job's completion is toggled.
type JobPatch struct {
	IsCompleted bool
	Status      JobStatus
	CompletedAt *time.Time
}

// EffectiveJobStatus returns the status used for display, grouping and
// statistics, in priority order:
//
//  1. cancelled stays cancelled
//  2. a completed job stays completed, even when scheduled in the past
//  3. a job scheduled strictly before now is overdue
//  4. anything else is pending
//
// The schedule is interpreted as a calendar date and time in now's location.
// The job is never modified.
func EffectiveJobStatus(job Job, now time.Time) (JobStatus, error) {
	if job.Status == JobCancelled {
		return JobCancelled, nil
	}
	if job.IsCompleted || job.Status == JobCompleted {
		return JobCompleted, nil
	}
	at, err := job.ScheduledAt(now.Location())
	if err != nil {
		return "", err
	}
	if at.Before(now) {
		return JobOverdue, nil
	}
	return JobPending, nil
}

// ToggleJobCompletion builds the patch that marks a job completed or reopens
// it. Overdue is never written; a reopened job goes back to pending and is
// re-derived on read.
func ToggleJobCompletion(job Job, completed bool, now time.Time) JobPatch {
	if !completed {
		return JobPatch{IsCompleted: false, Status: JobPending}
	}
	at := now
	return JobPatch{IsCompleted: true, Status: JobCompleted, CompletedAt: &at}
}

// CancelJob builds the patch that cancels a job. Completion is cleared.
func CancelJob(job Job) JobPatch {
	return JobPatch{IsCompleted: false, Status: JobCancelled}
}

// Apply returns a copy of job with the patch applied.
func (p JobPatch) Apply(job Job) Job {
	job.IsCompleted = p.IsCompleted
	job.Status = p.Status
	job.CompletedAt = p.CompletedAt
	return job
}

// ReminderDue reports whether a reminder should fire for job at now: the job
// must still be pending with reminders enabled, and now must fall inside
// [scheduledAt - minutesBefore, scheduledAt).
func ReminderDue(job Job, now time.Time) (bool, error) {
	if !job.ReminderEnabled || job.ReminderMinutesBefore <= 0 {
		return false, nil
	}
	status, err := EffectiveJobStatus(job, now)
	if err != nil {
		return false, err
	}
	if status != JobPending {
		return false, nil
	}
	at, err := job.ScheduledAt(now.Location())
	if err != nil {
		return false, err
	}
	start := at.Add(-time.Duration(job.ReminderMinutesBefore) * time.Minute)
	return !now.Before(start) && now.Before(at), nil
}
