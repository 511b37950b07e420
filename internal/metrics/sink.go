package metrics

import "time"

// Sink records business and transport metrics.
// All methods are fire-and-forget: implementations must not block or return errors.
type Sink interface {
	// HTTP
	RequestObserved(route string, status int, duration time.Duration)

	// Derivation
	JobStatusesDerived(stats JobCounts)
	InvalidRecordSkipped(kind string)

	// Invoices and messaging
	InvoiceIssued()
	MessagePublished(queue string, err error)
	InvoiceRendered(duration time.Duration, err error)
	ReminderSent()
}

// JobCounts is the per-status tally of one derivation pass.
type JobCounts struct {
	Pending   int
	Completed int
	Overdue   int
	Cancelled int
}

// StatusClass maps an HTTP status code to its class label.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
