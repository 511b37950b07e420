package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bizdash/internal/core"

	"github.com/google/uuid"
)

// ErrOverdueNotStorable rejects writes that would persist the derived
// overdue status.
var ErrOverdueNotStorable = errors.New("overdue is derived and cannot be stored")

const jobColumns = `id, user_id, person_name, job_title, job_type, job_location, map_link, description,
	scheduled_date, scheduled_time, is_completed, status, completed_at,
	reminder_enabled, reminder_minutes_before, created_at, updated_at`

func scanJob(s scanner) (core.Job, error) {
	var (
		j                    core.Job
		id, jobType, status  string
		completed, reminder  int
		completedAt          sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(&id, &j.UserID, &j.PersonName, &j.Title, &jobType, &j.Location, &j.MapLink, &j.Description,
		&j.ScheduledDate, &j.ScheduledTime, &completed, &status, &completedAt,
		&reminder, &j.ReminderMinutesBefore, &createdAt, &updatedAt)
	if err != nil {
		return j, err
	}
	var d rowDecoder
	j.ID = d.id("id", id)
	j.Type = core.JobType(jobType)
	j.Status = core.JobStatus(status)
	j.IsCompleted = completed != 0
	j.CompletedAt = d.optTime("completed_at", completedAt)
	j.ReminderEnabled = reminder != 0
	j.CreatedAt = d.timestamp("created_at", createdAt)
	j.UpdatedAt = d.timestamp("updated_at", updatedAt)
	return j, d.err
}

func storableStatus(s core.JobStatus) (string, error) {
	switch s {
	case "":
		return string(core.JobPending), nil
	case core.JobOverdue:
		return "", ErrOverdueNotStorable
	default:
		return string(s), nil
	}
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j core.Job) (core.Job, error) {
	status, err := storableStatus(j.Status)
	if err != nil {
		return core.Job{}, err
	}
	j.Status = core.JobStatus(status)
	j.ID = newID(j.ID)
	j.CreatedAt = stamp(j.CreatedAt)
	j.UpdatedAt = j.CreatedAt

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID.String(), j.UserID, j.PersonName, j.Title, string(j.Type), j.Location, j.MapLink, j.Description,
		j.ScheduledDate, j.ScheduledTime, boolInt(j.IsCompleted), status, formatOptTime(j.CompletedAt),
		boolInt(j.ReminderEnabled), j.ReminderMinutesBefore, formatTime(j.CreatedAt), formatTime(j.UpdatedAt))
	if err != nil {
		return core.Job{}, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

func (r *SQLiteRepository) GetJob(ctx context.Context, userID string, id uuid.UUID) (core.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = ? AND id = ?`, userID, id.String())
	j, err := scanJob(row)
	if err != nil {
		return core.Job{}, fmt.Errorf("get job %s: %w", id, notFound(err))
	}
	return j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, userID string) ([]core.Job, error) {
	return r.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = ? ORDER BY scheduled_date ASC, scheduled_time ASC`, userID)
}

func (r *SQLiteRepository) ListReminderCandidates(ctx context.Context, fromDate, toDate string) ([]core.Job, error) {
	return r.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE reminder_enabled = 1 AND reminder_sent_at IS NULL
		   AND is_completed = 0 AND status NOT IN ('completed', 'cancelled')
		   AND scheduled_date BETWEEN ? AND ?
		 ORDER BY scheduled_date ASC, scheduled_time ASC`, fromDate, toDate)
}

func (r *SQLiteRepository) queryJobs(ctx context.Context, query string, args ...any) ([]core.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []core.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateJob(ctx context.Context, j core.Job) error {
	status, err := storableStatus(j.Status)
	if err != nil {
		return err
	}
	err = expectOne(r.db.ExecContext(ctx,
		`UPDATE jobs SET person_name = ?, job_title = ?, job_type = ?, job_location = ?, map_link = ?,
		   description = ?, scheduled_date = ?, scheduled_time = ?, is_completed = ?, status = ?,
		   completed_at = ?, reminder_enabled = ?, reminder_minutes_before = ?, reminder_sent_at = NULL,
		   updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		j.PersonName, j.Title, string(j.Type), j.Location, j.MapLink,
		j.Description, j.ScheduledDate, j.ScheduledTime, boolInt(j.IsCompleted), status,
		formatOptTime(j.CompletedAt), boolInt(j.ReminderEnabled), j.ReminderMinutesBefore,
		formatTime(time.Now()), j.UserID, j.ID.String()))
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, userID string, id uuid.UUID, patch core.JobPatch) error {
	status, err := storableStatus(patch.Status)
	if err != nil {
		return err
	}
	err = expectOne(r.db.ExecContext(ctx,
		`UPDATE jobs SET is_completed = ?, status = ?, completed_at = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		boolInt(patch.IsCompleted), status, formatOptTime(patch.CompletedAt), formatTime(time.Now()),
		userID, id.String()))
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteJob(ctx context.Context, userID string, id uuid.UUID) error {
	err := expectOne(r.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE user_id = ? AND id = ?`, userID, id.String()))
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE jobs SET reminder_sent_at = ? WHERE id = ?`, formatTime(at), id.String()))
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AddJobActivity(ctx context.Context, a core.JobActivity) error {
	a.ID = newID(a.ID)
	a.CreatedAt = stamp(a.CreatedAt)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO job_activity_log (id, job_id, user_id, action, old_value, new_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.JobID.String(), a.UserID, a.Action, a.OldValue, a.NewValue, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert job activity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListJobActivity(ctx context.Context, userID string, jobID uuid.UUID) ([]core.JobActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, job_id, user_id, action, old_value, new_value, created_at
		 FROM job_activity_log WHERE user_id = ? AND job_id = ? ORDER BY created_at DESC`,
		userID, jobID.String())
	if err != nil {
		return nil, fmt.Errorf("list job activity: %w", err)
	}
	defer rows.Close()

	var out []core.JobActivity
	for rows.Next() {
		var (
			a           core.JobActivity
			id, job, cr string
		)
		if err := rows.Scan(&id, &job, &a.UserID, &a.Action, &a.OldValue, &a.NewValue, &cr); err != nil {
			return nil, fmt.Errorf("scan job activity: %w", err)
		}
		var d rowDecoder
		a.ID = d.id("id", id)
		a.JobID = d.id("job_id", job)
		a.CreatedAt = d.timestamp("created_at", cr)
		if d.err != nil {
			return nil, fmt.Errorf("scan job activity: %w", d.err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
