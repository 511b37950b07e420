package metrics

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink with the Prometheus client library.
// Registration errors are logged and never propagated.
type PrometheusSink struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	jobsByStatus   *prometheus.GaugeVec
	invalidRecords *prometheus.CounterVec

	invoicesIssued    prometheus.Counter
	messagesPublished *prometheus.CounterVec
	renderDuration    *prometheus.HistogramVec
	remindersSent     prometheus.Counter
}

func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdash_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "code", "class"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizdash_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
		jobsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bizdash_jobs_last_pass",
			Help: "Jobs per effective status in the most recent derivation pass.",
		}, []string{"status"}),
		invalidRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdash_invalid_records_total",
			Help: "Records skipped during derivation because they could not be parsed.",
		}, []string{"kind"}),
		invoicesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdash_invoices_issued_total",
			Help: "Invoices created.",
		}),
		messagesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdash_messages_published_total",
			Help: "AMQP publish attempts by queue and outcome.",
		}, []string{"queue", "outcome"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizdash_invoice_render_duration_seconds",
			Help:    "Time spent rendering an invoice workbook.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"outcome"}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdash_job_reminders_sent_total",
			Help: "Job reminders published.",
		}),
	}

	for _, c := range []prometheus.Collector{
		s.requestsTotal, s.requestDuration, s.jobsByStatus, s.invalidRecords,
		s.invoicesIssued, s.messagesPublished, s.renderDuration, s.remindersSent,
	} {
		if err := reg.Register(c); err != nil {
			slog.Warn("metrics: failed to register collector", "error", err)
		}
	}
	return s
}

func (s *PrometheusSink) RequestObserved(route string, status int, duration time.Duration) {
	s.requestsTotal.WithLabelValues(route, strconv.Itoa(status), StatusClass(status)).Inc()
	s.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (s *PrometheusSink) JobStatusesDerived(c JobCounts) {
	s.jobsByStatus.WithLabelValues("pending").Set(float64(c.Pending))
	s.jobsByStatus.WithLabelValues("completed").Set(float64(c.Completed))
	s.jobsByStatus.WithLabelValues("overdue").Set(float64(c.Overdue))
	s.jobsByStatus.WithLabelValues("cancelled").Set(float64(c.Cancelled))
}

func (s *PrometheusSink) InvalidRecordSkipped(kind string) {
	s.invalidRecords.WithLabelValues(kind).Inc()
}

func (s *PrometheusSink) InvoiceIssued() {
	s.invoicesIssued.Inc()
}

func (s *PrometheusSink) MessagePublished(queue string, err error) {
	s.messagesPublished.WithLabelValues(queue, outcome(err)).Inc()
}

func (s *PrometheusSink) InvoiceRendered(duration time.Duration, err error) {
	s.renderDuration.WithLabelValues(outcome(err)).Observe(duration.Seconds())
}

func (s *PrometheusSink) ReminderSent() {
	s.remindersSent.Inc()
}
