package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/yangsearch/pkg/api"
	"github.com/platinummonkey/yangsearch/pkg/app"
	"github.com/platinummonkey/yangsearch/pkg/config"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/manager"
	"github.com/platinummonkey/yangsearch/pkg/observability"
)

var (
	createIndices = flag.Bool("create-indices", false, "Create missing indices before serving")
	disableAdmin  = flag.Bool("disable-admin", false, "Do not expose the index administration routes")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("yangsearch exited with error")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx := context.Background()
	logger.WithField("engine", cfg.Engine.Type).Info("Starting yangsearch")

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
		Attributes:     map[string]string{"yangsearch.engine": cfg.Engine.Type},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	var otelMetrics *observability.OTelMetrics
	if cfg.Observability.OTelEnabled {
		otelMetrics, err = observability.NewOTelMetrics()
		if err != nil {
			return fmt.Errorf("failed to create OpenTelemetry metrics: %w", err)
		}
	}

	schemas, err := app.NewRegistry(cfg.Engine.SchemaDir)
	if err != nil {
		return fmt.Errorf("failed to load index schemas: %w", err)
	}

	eng, closeEngine, err := app.NewEngine(cfg.Engine, schemas, logger)
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}

	suggestions, redisClient, err := app.NewCache(ctx, cfg.Cache, metrics)
	if err != nil {
		return fmt.Errorf("failed to create suggestion cache: %w", err)
	}

	mgr := app.NewManager(cfg, eng, schemas, metrics, otelMetrics, logger)

	if *createIndices {
		ensureIndices(ctx, mgr, logger)
	}

	var admin *api.AdminHandlers
	if !*disableAdmin {
		admin = api.NewAdminHandlers(mgr, suggestions, cfg.Search.BulkConcurrency, logger)
	}
	handler := api.NewRouter(api.NewHandlers(mgr, suggestions, logger), admin, metrics, logger)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(eng, redisClient, cfg.Observability.OTelServiceVersion))
	if registry != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:     healthMux,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	var collector *manager.Collector
	if cfg.Stats.Enabled && metrics != nil {
		kinds, err := app.StatsKinds(cfg.Stats.Kinds)
		if err != nil {
			return err
		}
		collector = manager.NewCollector(mgr, kinds, metrics, logger)
		if err := collector.Start(cfg.Stats.Schedule); err != nil {
			return fmt.Errorf("failed to start index statistics: %w", err)
		}
		logger.WithField("schedule", cfg.Stats.Schedule).Info("Index statistics scheduled")
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, server, healthServer)
	if collector != nil {
		shutdown.RegisterShutdownFunc(collector.Stop)
	}
	if suggestions != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error { return suggestions.Close() })
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error { return closeEngine() })
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	serveErr := make(chan error, 2)
	for _, srv := range []*http.Server{server, healthServer} {
		go func(srv *http.Server) {
			logger.WithField("addr", srv.Addr).Info("Listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := <-serveErr; err != nil {
			logger.WithError(err).Error("HTTP server failed")
			cancel()
		}
	}()

	return shutdown.WaitForShutdown(waitCtx)
}

// ensureIndices creates every index that does not exist yet. Failures are
// logged and the server keeps starting so a degraded engine does not block it.
func ensureIndices(ctx context.Context, mgr *manager.Manager, logger logrus.FieldLogger) {
	for _, kind := range indices.Kinds() {
		log := logger.WithField("index", kind.IndexName())
		res, err := mgr.CreateIndex(ctx, kind)
		if err != nil {
			log.WithError(err).Warn("Failed to create index")
			continue
		}
		if res.Error != nil {
			log.WithField("reason", res.Error.Type).Debug("Index already exists")
			continue
		}
		log.Info("Index created")
	}
}
