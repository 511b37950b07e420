package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/metrics"
	"bizdash/internal/storage"

	"github.com/google/uuid"
)

// JobService runs the job schedule: listing with derived statuses, state
// changes with an activity trail, and statistics.
type JobService struct {
	store   storage.JobStore
	metrics metrics.Sink
	now     Clock
}

func NewJobService(store storage.JobStore, sink metrics.Sink, clock Clock) *JobService {
	return &JobService{store: store, metrics: orNoop(sink), now: orNow(clock)}
}

// List derives every job's effective status against one instant and applies
// q. Jobs with a malformed schedule are logged and left out.
func (s *JobService) List(ctx context.Context, userID string, q JobQuery) ([]core.JobView, error) {
	jobs, err := s.store.ListJobs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	now := s.now()
	views, errs := core.DeriveJobs(jobs, now)
	s.reportInvalid(ctx, errs)
	return FilterJobs(views, q, now)
}

func (s *JobService) Get(ctx context.Context, userID string, id uuid.UUID) (core.JobView, error) {
	j, err := s.store.GetJob(ctx, userID, id)
	if err != nil {
		return core.JobView{}, err
	}
	return s.view(j)
}

// Stored returns the job as persisted, without deriving its status.
func (s *JobService) Stored(ctx context.Context, userID string, id uuid.UUID) (core.Job, error) {
	return s.store.GetJob(ctx, userID, id)
}

func (s *JobService) Stats(ctx context.Context, userID string) (core.JobStats, error) {
	jobs, err := s.store.ListJobs(ctx, userID)
	if err != nil {
		return core.JobStats{}, fmt.Errorf("list jobs: %w", err)
	}
	stats := core.JobStatistics(jobs, s.now())
	s.metrics.JobStatusesDerived(metrics.JobCounts{
		Pending:   stats.Pending,
		Completed: stats.Completed,
		Overdue:   stats.Overdue,
		Cancelled: stats.Cancelled,
	})
	return stats, nil
}

func (s *JobService) Create(ctx context.Context, j core.Job) (core.JobView, error) {
	if err := j.Validate(); err != nil {
		return core.JobView{}, err
	}
	j.Status = core.JobPending
	j.IsCompleted = false
	j.CompletedAt = nil
	created, err := s.store.CreateJob(ctx, j)
	if err != nil {
		return core.JobView{}, fmt.Errorf("create job: %w", err)
	}
	s.logActivity(ctx, created, core.ActivityCreated, "", string(core.JobPending))
	return s.view(created)
}

// Update replaces the editable fields of a job. Its completion state is
// changed only through Toggle and Cancel.
func (s *JobService) Update(ctx context.Context, j core.Job) (core.JobView, error) {
	current, err := s.store.GetJob(ctx, j.UserID, j.ID)
	if err != nil {
		return core.JobView{}, err
	}
	j.Status = current.Status
	j.IsCompleted = current.IsCompleted
	j.CompletedAt = current.CompletedAt
	if err := j.Validate(); err != nil {
		return core.JobView{}, err
	}
	if err := s.store.UpdateJob(ctx, j); err != nil {
		return core.JobView{}, fmt.Errorf("update job: %w", err)
	}
	s.logActivity(ctx, j, core.ActivityUpdated, "", "")
	return s.view(j)
}

// Toggle marks a job completed or reopens it. The stored status becomes
// completed or pending; overdue is never written. Once the change is
// persisted the call succeeds, even when the reopened job's schedule cannot
// be parsed; the view then carries the stored status.
func (s *JobService) Toggle(ctx context.Context, userID string, id uuid.UUID, completed bool) (core.JobView, error) {
	j, err := s.store.GetJob(ctx, userID, id)
	if err != nil {
		return core.JobView{}, err
	}
	now := s.now()
	before := s.statusOrStored(ctx, j, now)

	patch := core.ToggleJobCompletion(j, completed, now)
	if err := s.store.UpdateJobStatus(ctx, userID, id, patch); err != nil {
		return core.JobView{}, fmt.Errorf("toggle job: %w", err)
	}
	j = patch.Apply(j)

	action := core.ActivityReopened
	if completed {
		action = core.ActivityCompleted
	}
	after := s.statusOrStored(ctx, j, now)
	s.logActivity(ctx, j, action, string(before), string(after))
	return core.JobView{Job: j, Status: after}, nil
}

func (s *JobService) Cancel(ctx context.Context, userID string, id uuid.UUID) (core.JobView, error) {
	j, err := s.store.GetJob(ctx, userID, id)
	if err != nil {
		return core.JobView{}, err
	}
	before := s.statusOrStored(ctx, j, s.now())
	patch := core.CancelJob(j)
	if err := s.store.UpdateJobStatus(ctx, userID, id, patch); err != nil {
		return core.JobView{}, fmt.Errorf("cancel job: %w", err)
	}
	j = patch.Apply(j)
	s.logActivity(ctx, j, core.ActivityCancelled, string(before), string(core.JobCancelled))
	return core.JobView{Job: j, Status: core.JobCancelled}, nil
}

func (s *JobService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.store.DeleteJob(ctx, userID, id)
}

func (s *JobService) Activity(ctx context.Context, userID string, id uuid.UUID) ([]core.JobActivity, error) {
	if _, err := s.store.GetJob(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.ListJobActivity(ctx, userID, id)
}

// statusOrStored derives j's effective status, falling back to the stored
// status when the schedule does not parse.
func (s *JobService) statusOrStored(ctx context.Context, j core.Job, now time.Time) core.JobStatus {
	status, err := core.EffectiveJobStatus(j, now)
	if err != nil {
		slog.WarnContext(ctx, "Job schedule does not parse, using stored status",
			"job_id", j.ID,
			"error", err)
		return j.Status
	}
	return status
}

func (s *JobService) view(j core.Job) (core.JobView, error) {
	status, err := core.EffectiveJobStatus(j, s.now())
	if err != nil {
		return core.JobView{}, err
	}
	return core.JobView{Job: j, Status: status}, nil
}

// logActivity writes an audit entry. A failure here does not undo the state
// change it describes.
func (s *JobService) logActivity(ctx context.Context, j core.Job, action, oldValue, newValue string) {
	err := s.store.AddJobActivity(ctx, core.JobActivity{
		JobID:    j.ID,
		UserID:   j.UserID,
		Action:   action,
		OldValue: oldValue,
		NewValue: newValue,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to write job activity",
			"job_id", j.ID,
			"action", action,
			"error", err)
	}
}

func (s *JobService) reportInvalid(ctx context.Context, errs []error) {
	for _, err := range errs {
		s.metrics.InvalidRecordSkipped("job")
		slog.WarnContext(ctx, "Skipping job with invalid schedule", "error", err)
	}
}
