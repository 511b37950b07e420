package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bizdash/internal/config"
	applog "bizdash/internal/log"
	"bizdash/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics returns the sink a background worker records into. With
// metrics enabled and WorkerMetricsAddr set, /metrics is served on that
// address until ctx is cancelled.
func WorkerMetrics(ctx context.Context, cfg *config.Config, logger *applog.Logger) metrics.Sink {
	if !cfg.MetricsEnabled {
		return metrics.NewNoopSink()
	}
	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(reg)
	if cfg.WorkerMetricsAddr == "" {
		return sink
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener failed", "error", err, "addr", cfg.WorkerMetricsAddr)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("Serving worker metrics", "addr", cfg.WorkerMetricsAddr)
	return sink
}
