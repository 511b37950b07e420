package metrics

import "time"

// NoopSink is used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (NoopSink) RequestObserved(route string, status int, duration time.Duration) {}
func (NoopSink) JobStatusesDerived(stats JobCounts)                               {}
func (NoopSink) InvalidRecordSkipped(kind string)                                 {}
func (NoopSink) InvoiceIssued()                                                   {}
func (NoopSink) MessagePublished(queue string, err error)                         {}
func (NoopSink) InvoiceRendered(duration time.Duration, err error)                {}
func (NoopSink) ReminderSent()                                                    {}
