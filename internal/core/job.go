package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
	JobOverdue   JobStatus = "overdue"
	JobCancelled JobStatus = "cancelled"
)

const (
	JobTypeMeeting      JobType = "meeting"
	JobTypeDelivery     JobType = "delivery"
	JobTypeInspection   JobType = "inspection"
	JobTypeSupport      JobType = "support"
	JobTypeMaintenance  JobType = "maintenance"
	JobTypeConsultation JobType = "consultation"
	JobTypeOther        JobType = "other"
)

type (
	JobStatus string
	JobType   string

	// Job is a scheduled piece of work. ScheduledDate and ScheduledTime are
	// kept as the raw calendar strings the store returns; they are parsed
	// during status derivation.
	Job struct {
		ID                    uuid.UUID
		UserID                string
		PersonName            string
		Title                 string
		Type                  JobType
		Location              string
		MapLink               string
		Description           string
		ScheduledDate         string // YYYY-MM-DD
		ScheduledTime         string // HH:MM (24h), HH:MM:SS tolerated
		IsCompleted           bool
		Status                JobStatus // stored status
		CompletedAt           *time.Time
		ReminderEnabled       bool
		ReminderMinutesBefore int
		CreatedAt             time.Time
		UpdatedAt             time.Time
	}

	// JobActivity is an audit entry written whenever a job changes state.
	JobActivity struct {
		ID        uuid.UUID
		JobID     uuid.UUID
		UserID    string
		Action    string
		OldValue  string
		NewValue  string
		CreatedAt time.Time
	}

	// InvalidScheduleError reports a job whose date or time cannot be parsed.
	// It is fatal to a single derivation only.
	InvalidScheduleError struct {
		JobID uuid.UUID
		Date  string
		Time  string
		Err   error
	}
)

// Activity actions
const (
	ActivityCreated   = "created"
	ActivityCompleted = "completed"
	ActivityReopened  = "reopened"
	ActivityCancelled = "cancelled"
	ActivityUpdated   = "updated"
)

var (
	ErrEmptyPersonName  = errors.New("empty person name")
	ErrInvalidJobType   = errors.New("invalid job type")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrNegativeReminder = errors.New("reminder minutes must not be negative")
)

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule %q %q for job %s: %v", e.Date, e.Time, e.JobID, e.Err)
}

func (e *InvalidScheduleError) Unwrap() error {
	return e.Err
}

// IsValid returns true if the status is one of the known values.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobPending, JobCompleted, JobOverdue, JobCancelled:
		return true
	default:
		return false
	}
}

// IsValid returns true if the job type is one of the known values.
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeMeeting, JobTypeDelivery, JobTypeInspection, JobTypeSupport,
		JobTypeMaintenance, JobTypeConsultation, JobTypeOther:
		return true
	default:
		return false
	}
}

// JobTypes returns every job type in display order.
func JobTypes() []JobType {
	return []JobType{
		JobTypeMeeting, JobTypeDelivery, JobTypeInspection, JobTypeSupport,
		JobTypeMaintenance, JobTypeConsultation, JobTypeOther,
	}
}

// ScheduledAt combines the job's calendar date and time-of-day into an
// instant in loc.
func (j Job) ScheduledAt(loc *time.Location) (time.Time, error) {
	at, err := CombineSchedule(j.ScheduledDate, j.ScheduledTime, loc)
	if err != nil {
		return time.Time{}, &InvalidScheduleError{JobID: j.ID, Date: j.ScheduledDate, Time: j.ScheduledTime, Err: err}
	}
	return at, nil
}

// ScheduledDay returns the job's calendar date at midnight in loc.
func (j Job) ScheduledDay(loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(j.ScheduledDate), loc)
	if err != nil {
		return time.Time{}, &InvalidScheduleError{JobID: j.ID, Date: j.ScheduledDate, Time: j.ScheduledTime, Err: err}
	}
	return d, nil
}

// CombineSchedule parses a YYYY-MM-DD date and an HH:MM time as a local
// calendar instant in loc.
func CombineSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	clock = strings.TrimSpace(clock)
	layout := "15:04"
	if strings.Count(clock, ":") == 2 {
		layout = "15:04:05"
	}
	c, err := time.Parse(layout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
}

func (j Job) Validate() error {
	if strings.TrimSpace(j.PersonName) == "" {
		return ErrEmptyPersonName
	}
	if strings.TrimSpace(j.Title) == "" {
		return ErrEmptyTitle
	}
	if !j.Type.IsValid() {
		return ErrInvalidJobType
	}
	if j.Status != "" && !j.Status.IsValid() {
		return ErrInvalidStatus
	}
	if _, err := j.ScheduledAt(time.UTC); err != nil {
		return err
	}
	if j.ReminderEnabled && j.ReminderMinutesBefore < 0 {
		return ErrNegativeReminder
	}
	return nil
}
