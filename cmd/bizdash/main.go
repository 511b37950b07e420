package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bizdash/internal/cache"
	"bizdash/internal/cli"
	apphttp "bizdash/internal/http"
	applog "bizdash/internal/log"
	"bizdash/internal/metrics"
	"bizdash/internal/middleware/ratelimit"
	"bizdash/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	b, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer b.Close()

	var (
		sink     metrics.Sink = metrics.NewNoopSink()
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		sink = metrics.NewPrometheusSink(reg)
		gatherer = reg
	}

	// a nil *amqp.Client must not reach the services as a non-nil interface
	var publisher services.InvoicePublisher
	if b.AMQP != nil {
		publisher = b.AMQP
	}

	categories := services.NewCategoryService(b.Store, cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager()
	caches.Register(categories.Cache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	svc := apphttp.Services{
		Projects:   services.NewProjectService(b.Store),
		Dashboard:  services.NewDashboardService(b.Store, categories, sink, nil),
		Invoices:   services.NewInvoiceService(b.Store, publisher, sink, nil),
		Jobs:       services.NewJobService(b.Store, sink, nil),
		Campaign:   services.NewCampaignService(b.Store, nil),
		Categories: categories,
	}

	auth := apphttp.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	if !auth.Enabled() {
		logger.Warn("JWT_SECRET not set, trusting the " + apphttp.HeaderUserID + " header")
	}

	limits := ratelimit.DefaultConfig()
	limits.RequestsPerMinute = cfg.RateLimitPerMinute

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Auth:     auth,
		Limiter:  ratelimit.NewLimiter(limits),
		Metrics:  sink,
		Gatherer: gatherer,
		Logger:   logger.WithComponent(applog.ComponentHTTP),
		Ready:    b.Store.Ping,
	})
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting bizdash server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", b.AMQP != nil,
		"metrics", cfg.MetricsEnabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
