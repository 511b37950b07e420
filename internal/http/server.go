package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "bizdash/internal/log"
	"bizdash/internal/metrics"
	"bizdash/internal/middleware/ratelimit"
	"bizdash/internal/middleware/security"
	"bizdash/internal/middleware/trace"
	"bizdash/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Services are the application services the API exposes.
type Services struct {
	Projects   *services.ProjectService
	Dashboard  *services.DashboardService
	Invoices   *services.InvoiceService
	Jobs       *services.JobService
	Campaign   *services.CampaignService
	Categories *services.CategoryService
}

// Options configures the server's cross-cutting concerns. Zero values get
// working defaults: dev-mode auth, the default rate limit and no metrics.
type Options struct {
	Auth     *Authenticator
	Limiter  *ratelimit.Limiter
	Detector *security.Detector
	Headers  *security.HeadersConfig
	Metrics  metrics.Sink
	Gatherer prometheus.Gatherer // nil disables /metrics
	Logger   *applog.Logger
	Ready    func(context.Context) error
}

type Server struct {
	http.Server
	svc     Services
	auth    *Authenticator
	limiter *ratelimit.Limiter
	logger  *applog.Logger
	ready   func(context.Context) error

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Auth == nil {
		opts.Auth = NewAuthenticator("", "")
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	if opts.Detector == nil {
		opts.Detector = security.NewDetector()
	}
	if opts.Headers == nil {
		h := security.DefaultHeadersConfig()
		opts.Headers = &h
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopSink()
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		svc:     svc,
		auth:    opts.Auth,
		limiter: opts.Limiter,
		logger:  opts.Logger,
		ready:   opts.Ready,
	}

	mux := http.NewServeMux()
	s.routes(mux, opts)

	tracer := trace.NewMiddleware(opts.Detector.ExtractClientIP, opts.Logger, opts.Metrics)
	var h http.Handler = tracer.Middleware(mux)
	h = applog.Middleware(opts.Logger)(h)
	h = opts.Detector.Middleware(h)
	h = security.NewHeadersMiddleware(*opts.Headers).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux, opts Options) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// API routes need a caller; the limiter keys on the authenticated user
	limit := opts.Limiter.Middleware(func(r *http.Request) string {
		if id := UserID(r.Context()); id != "" {
			return "user:" + id
		}
		return "ip:" + opts.Detector.ExtractClientIP(r)
	})
	withRequestID := applog.RequestIDMiddleware(trace.RequestID)
	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, withRequestID(s.auth.Middleware(limit(h))))
	}

	api("GET /api/dashboard", s.handleDashboard)
	api("GET /api/analytics", s.handleAnalytics)
	api("GET /api/analytics/export", s.handleAnalyticsExport)
	api("GET /api/reports", s.handleReport)
	api("GET /api/reports/export", s.handleReportExport)

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("GET /api/projects", s.handleListProjects)
	api("POST /api/projects", s.handleCreateProject)
	api("GET /api/projects/{id}", s.handleProjectDetail)
	api("DELETE /api/projects/{id}", s.handleDeleteProject)
	api("PUT /api/projects/{id}/budget", s.handleSetBudget)
	api("POST /api/projects/{id}/payments", s.handleRecordPayment)
	api("GET /api/projects/{id}/expenses", s.handleListExpenses)
	api("POST /api/projects/{id}/expenses", s.handleCreateExpense)
	api("DELETE /api/projects/{id}/expenses/{expenseID}", s.handleDeleteExpense)
	api("GET /api/projects/{id}/invoices", s.handleListInvoices)
	api("POST /api/projects/{id}/invoices", s.handleIssueInvoice)
	api("GET /api/projects/{id}/invoice-preview", s.handlePreviewInvoice)

	api("GET /api/invoices/{id}", s.handleGetInvoice)
	api("GET /api/invoices/{id}/document", s.handleInvoiceDocument)
	api("GET /api/settings/invoice", s.handleGetInvoiceSettings)
	api("PUT /api/settings/invoice", s.handleSaveInvoiceSettings)

	api("GET /api/jobs", s.handleListJobs)
	api("POST /api/jobs", s.handleCreateJob)
	api("GET /api/jobs/stats", s.handleJobStats)
	api("GET /api/jobs/export", s.handleJobsExport)
	api("GET /api/jobs/{id}", s.handleGetJob)
	api("PUT /api/jobs/{id}", s.handleUpdateJob)
	api("DELETE /api/jobs/{id}", s.handleDeleteJob)
	api("POST /api/jobs/{id}/toggle", s.handleToggleJob)
	api("POST /api/jobs/{id}/cancel", s.handleCancelJob)
	api("GET /api/jobs/{id}/activity", s.handleJobActivity)

	api("GET /api/campaign/settings", s.handleGetCampaignSettings)
	api("PUT /api/campaign/settings", s.handleSaveCampaignSettings)
	api("GET /api/campaign/advertisers", s.handleListAdvertisers)
	api("POST /api/campaign/advertisers", s.handleRegisterAdvertiser)
	api("DELETE /api/campaign/advertisers/{id}", s.handleDeleteAdvertiser)
	api("PUT /api/campaign/advertisers/{id}/progress", s.handleSetProgress)
	api("POST /api/campaign/advertisers/{id}/videos/{index}", s.handleCheckVideo)
	api("POST /api/campaign/advertisers/{id}/reset", s.handleResetProgress)
	api("GET /api/campaign/deliveries", s.handleListDeliveries)
	api("POST /api/campaign/deliveries", s.handleSubmitDelivery)
	api("POST /api/campaign/deliveries/{id}/verify", s.handleVerifyDelivery)
	api("GET /api/campaign/products", s.handleListProducts)
	api("POST /api/campaign/products", s.handleShipProduct)
	api("GET /api/campaign/payments", s.handleListPayments)
	api("POST /api/campaign/payments", s.handleCreatePayment)
	api("POST /api/campaign/payments/{id}/approve", s.handleApprovePayment)
	api("GET /api/campaign/report", s.handleCampaignReport)
}

// Shutdown stops the limiter's cleanup loop and drains the HTTP server.
// It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// user returns the authenticated caller. The auth middleware guarantees it
// is set on every API route.
func user(r *http.Request) string {
	return UserID(r.Context())
}

// events returns the request-scoped structured logger.
func events(r *http.Request) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(r.Context()))
}
