package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bizdash/internal/amqp"
	"bizdash/internal/core"
	"bizdash/internal/metrics"
	"bizdash/internal/storage"
)

// ReminderProcessorConfig holds configuration for the reminder processor
type ReminderProcessorConfig struct {
	// PollInterval is how often to look for due reminders (default: 1m)
	PollInterval time.Duration

	// Lookahead bounds the scheduled dates fetched per pass. It must cover
	// the longest reminder lead time in use (default: 48h)
	Lookahead time.Duration
}

func DefaultReminderProcessorConfig() ReminderProcessorConfig {
	return ReminderProcessorConfig{
		PollInterval: time.Minute,
		Lookahead:    48 * time.Hour,
	}
}

// ReminderProcessor publishes a reminder for every pending job whose reminder
// window has opened, once per job.
type ReminderProcessor struct {
	store     storage.JobStore
	publisher ReminderPublisher
	metrics   metrics.Sink
	config    ReminderProcessorConfig
	now       Clock

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderProcessor(store storage.JobStore, publisher ReminderPublisher, sink metrics.Sink, config ReminderProcessorConfig, clock Clock) *ReminderProcessor {
	return &ReminderProcessor{
		store:     store,
		publisher: publisher,
		metrics:   orNoop(sink),
		config:    config,
		now:       orNow(clock),
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *ReminderProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reminder processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder processor started",
		"poll_interval", p.config.PollInterval,
		"lookahead", p.config.Lookahead)
	return nil
}

// Stop signals the loop and waits for it to finish or ctx to expire.
func (p *ReminderProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Reminder processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *ReminderProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReminderProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *ReminderProcessor) tick(ctx context.Context) {
	if _, err := p.ProcessDueReminders(ctx, p.now()); err != nil {
		slog.ErrorContext(ctx, "Reminder pass failed", "error", err)
	}
}

// ProcessDueReminders publishes every reminder due at now and returns how
// many were sent. A job whose publish fails stays unsent and is retried on
// the next pass.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	to := now.Add(p.config.Lookahead).Format("2006-01-02")
	jobs, err := p.store.ListReminderCandidates(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list reminder candidates: %w", err)
	}

	sent := 0
	for _, j := range jobs {
		due, err := core.ReminderDue(j, now)
		if err != nil {
			p.metrics.InvalidRecordSkipped("job")
			slog.WarnContext(ctx, "Skipping reminder for job with invalid schedule",
				"job_id", j.ID, "error", err)
			continue
		}
		if !due {
			continue
		}

		at, _ := j.ScheduledAt(now.Location())
		err = p.publisher.PublishJobReminder(ctx, &amqp.JobReminderMessage{
			JobID:       j.ID,
			UserID:      j.UserID,
			PersonName:  j.PersonName,
			Title:       j.Title,
			ScheduledAt: at,
			Timestamp:   now,
		})
		p.metrics.MessagePublished("job_reminder", err)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to publish job reminder",
				"job_id", j.ID, "error", err)
			continue
		}

		if err := p.store.MarkReminderSent(ctx, j.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to mark reminder sent",
				"job_id", j.ID, "error", err)
		}
		p.metrics.ReminderSent()
		sent++
		slog.InfoContext(ctx, "Sent job reminder",
			"job_id", j.ID,
			"scheduled_at", at,
			"minutes_before", j.ReminderMinutesBefore)
	}

	if sent > 0 || len(jobs) > 0 {
		slog.InfoContext(ctx, "Reminder pass complete",
			"sent", sent,
			"total_checked", len(jobs))
	}
	return sent, nil
}
