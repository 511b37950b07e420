package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestSink(t *testing.T) (*PrometheusSink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewPrometheusSink(reg), reg
}

func TestPrometheusSink_Requests(t *testing.T) {
	sink, _ := newTestSink(t)

	sink.RequestObserved("/api/jobs", 200, 10*time.Millisecond)
	sink.RequestObserved("/api/jobs", 200, 20*time.Millisecond)
	sink.RequestObserved("/api/jobs", 404, time.Millisecond)

	if got := testutil.ToFloat64(sink.requestsTotal.WithLabelValues("/api/jobs", "200", "2xx")); got != 2 {
		t.Errorf("2xx requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(sink.requestsTotal.WithLabelValues("/api/jobs", "404", "4xx")); got != 1 {
		t.Errorf("4xx requests = %v, want 1", got)
	}
}

func TestPrometheusSink_JobStatuses(t *testing.T) {
	sink, _ := newTestSink(t)

	sink.JobStatusesDerived(JobCounts{Pending: 3, Overdue: 2})
	sink.JobStatusesDerived(JobCounts{Pending: 1, Completed: 4})

	tests := []struct {
		status string
		want   float64
	}{
		{"pending", 1},
		{"completed", 4},
		{"overdue", 0},
		{"cancelled", 0},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := testutil.ToFloat64(sink.jobsByStatus.WithLabelValues(tt.status)); got != tt.want {
				t.Errorf("gauge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrometheusSink_Messages(t *testing.T) {
	sink, _ := newTestSink(t)

	sink.MessagePublished("invoice_render", nil)
	sink.MessagePublished("invoice_render", errors.New("circuit breaker is open"))
	sink.InvoiceIssued()
	sink.ReminderSent()
	sink.ReminderSent()

	if got := testutil.ToFloat64(sink.messagesPublished.WithLabelValues("invoice_render", "error")); got != 1 {
		t.Errorf("failed publishes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.invoicesIssued); got != 1 {
		t.Errorf("invoices = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.remindersSent); got != 2 {
		t.Errorf("reminders = %v, want 2", got)
	}
}

func TestPrometheusSink_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusSink(reg)
	// second sink on the same registry must not panic
	sink := NewPrometheusSink(reg)
	sink.InvoiceIssued()
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{401, "4xx"},
		{500, "5xx"},
		{0, "other"},
	}
	for _, tt := range tests {
		if got := StatusClass(tt.status); got != tt.want {
			t.Errorf("StatusClass(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestNoopSinkImplementsSink(t *testing.T) {
	var s Sink = NewNoopSink()
	s.RequestObserved("/", 200, time.Second)
	s.InvoiceRendered(time.Second, nil)
}
