// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health checks and graceful shutdown.
//
// # Structured Logging
//
// Loggers are logrus loggers configured from the environment:
//
//	log, err := observability.NewLogger("info", observability.FormatJSON, os.Stdout)
//	log.WithField("index", "autocomplete").Info("index created")
//
// Request-scoped loggers carry the request id and, when a span is recording,
// the trace and span ids:
//
//	observability.FromContext(ctx).Warn("engine unreachable")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.ObserveEngineOperation("search", "autocomplete", "ok", elapsed)
//
// HTTP metrics are labelled with the mux route template, not the raw path.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(engine, redisClient, version)
//	observability.RegisterHealthRoutes(mux, checker)
//
// The search engine is required; Redis only degrades readiness.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "yangsearch",
//	}, log)
//	defer observability.ShutdownOTel(ctx, providers, log)
package observability
