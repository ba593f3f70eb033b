// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, and health checks.
//
// # Logging
//
// Logger wraps slog with a JSON handler and chainable field helpers:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("subject_id", id).Info("access granted")
//
// # Metrics
//
// NewMetrics registers all collectors on a caller-owned registry so tests can
// use isolated registries:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	healthMux.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
// InitTracing configures an OTLP/gRPC exporter when enabled and returns the
// tracer provider for shutdown. Outbound HTTP clients are instrumented with
// otelhttp at their construction sites.
//
// # Health
//
// HealthChecker serves /healthz (liveness) and /readyz (readiness with
// dependency probes) on the dedicated health port.
package observability
