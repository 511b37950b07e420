package services

import (
	"context"
	"time"

	"bizdash/internal/amqp"
	"bizdash/internal/metrics"

	"github.com/google/uuid"
)

// InvoicePublisher queues rendering of an issued invoice.
type InvoicePublisher interface {
	PublishInvoiceRender(ctx context.Context, invoiceID uuid.UUID, userID string) error
}

// ReminderPublisher delivers job reminders.
type ReminderPublisher interface {
	PublishJobReminder(ctx context.Context, msg *amqp.JobReminderMessage) error
}

// Clock returns the reference instant for one derivation pass.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func orNoop(s metrics.Sink) metrics.Sink {
	if s == nil {
		return metrics.NewNoopSink()
	}
	return s
}
