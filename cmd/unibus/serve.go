package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"unibus/internal/config"
	"unibus/internal/directory"
	"unibus/internal/domain"
	"unibus/internal/feed"
	"unibus/internal/fleet"
	"unibus/internal/handler"
	"unibus/internal/hub"
	"unibus/internal/ingest"
	"unibus/internal/logging"
	"unibus/internal/middleware"
	"unibus/internal/planner"
	"unibus/internal/samplelog"
	"unibus/internal/store"
	"unibus/internal/telemetry"
	"unibus/internal/tracker"
	"unibus/pkg/seed"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level)

	logger.Info().
		Str("http_addr", cfg.HTTP.Addr).
		Bool("redis", cfg.Redis.Enabled).
		Bool("mqtt", cfg.MQTT.Enabled).
		Msg("starting unibus server")

	dir := directory.New()
	if cfg.Seed.Path != "" {
		seedFile, err := seed.Load(cfg.Seed.Path, dir)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info().
			Int("routes", len(seedFile.Routes)).
			Int("stops", len(seedFile.Stops)).
			Int("assignments", len(seedFile.Assignments)).
			Str("path", cfg.Seed.Path).
			Msg("seed data loaded")
	}

	var sampleLog samplelog.Log
	if cfg.Redis.Enabled {
		sampleLog, err = samplelog.NewRedisLog(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.HistoryCap, logger)
		if err != nil {
			return fmt.Errorf("redis sample log: %w", err)
		}
	} else {
		sampleLog = samplelog.NewMemoryLog(cfg.Redis.HistoryCap)
	}

	var sinks []telemetry.Sink
	promReg := prometheus.NewRegistry()
	if cfg.Metrics.PrometheusEnabled {
		promSink, err := telemetry.NewPromSink(promReg)
		if err != nil {
			return fmt.Errorf("prometheus sink: %w", err)
		}
		sinks = append(sinks, promSink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, telemetry.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket, logger))
	}
	metrics := telemetry.NewMultiSink(sinks...)

	positions := store.New(dir, sampleLog, cfg.Tracking.HistoryWindow, logger)
	if cfg.Redis.Enabled && cfg.Redis.WarmOnStart {
		if err := positions.Warm(cmd.Context()); err != nil {
			logger.Warn().Err(err).Msg("history warm-up failed, starting cold")
		}
	}

	registry := hub.NewRegistry(logger)
	broadcaster := hub.NewBroadcaster(registry, metrics, logger)
	estimator := tracker.NewEstimator(dir, positions, cfg.Tracking.ETALookback)
	trk := tracker.New(positions, broadcaster, estimator, metrics, logger)
	aggregator := fleet.NewAggregator(positions, dir)
	routePlanner := planner.New(dir)
	feedBuilder := feed.NewBuilder(positions, dir)

	campus := domain.LatLng{Latitude: cfg.Campus.Latitude, Longitude: cfg.Campus.Longitude}

	httpHandler := handler.NewHTTPHandler(trk, positions, aggregator, dir, routePlanner,
		cfg.Campus.DefaultRadiusKm, cfg.Campus.MaxRadiusKm, logger)
	wsHandler := handler.NewWSHandler(registry, metrics, cfg.Tracking.ObserverBuffer, logger)
	healthHandler := handler.NewHealthHandler(dir, positions, registry)
	bootstrapHandler := handler.NewBootstrapHandler(positions, dir, campus)
	feedHandler := handler.NewFeedHandler(feedBuilder, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/vehicles/{id}/position", httpHandler.ReportPosition)
	mux.HandleFunc("GET /v1/vehicles/{id}/position", httpHandler.LatestPosition)
	mux.HandleFunc("GET /v1/vehicles/{id}/track", httpHandler.Track)
	mux.HandleFunc("GET /v1/fleet/status", httpHandler.FleetStatus)
	mux.HandleFunc("GET /v1/fleet/nearby", httpHandler.Nearby)
	mux.HandleFunc("POST /v1/plan", httpHandler.Plan)
	mux.HandleFunc("GET /v1/bootstrap", bootstrapHandler.Bootstrap)
	mux.HandleFunc("GET /v1/gtfs-rt/vehicle-positions", feedHandler.VehiclePositions)
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	if cfg.Metrics.PrometheusEnabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerWindow, cfg.RateLimit.Window, cfg.RateLimit.Whitelist, logger)
	chain := handler.CORSMiddleware(handler.GzipMiddleware(limiter.Middleware(mux)))

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      chain,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	var bridge *ingest.Bridge
	if cfg.MQTT.Enabled {
		bridge, err = ingest.NewBridge(ingest.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      byte(cfg.MQTT.QoS),
		}, trk, logger)
		if err != nil {
			return fmt.Errorf("mqtt bridge: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if bridge != nil {
		bridge.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	registry.Drain()
	if err := sampleLog.Close(); err != nil {
		logger.Error().Err(err).Msg("sample log close error")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
