package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geotelemetry-etl/internal/adapter/aisdecoder"
	"github.com/couchcryptid/geotelemetry-etl/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/geotelemetry-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/geotelemetry-etl/internal/adapter/kafka"
	"github.com/couchcryptid/geotelemetry-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/geotelemetry-etl/internal/cache"
	"github.com/couchcryptid/geotelemetry-etl/internal/config"
	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
	"github.com/couchcryptid/geotelemetry-etl/internal/observability"
	"github.com/couchcryptid/geotelemetry-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	var decoder domain.PayloadDecoder = aisdecoder.New()
	if cfg.DecodeCacheSize > 0 {
		decoder = aisdecoder.NewCachedDecoder(decoder, cfg.DecodeCacheSize)
	}

	store := cache.NewManager(cfg.CachePath, logger)
	if err := store.DiscardTemp(); err != nil {
		logger.Warn("stale temp file cleanup failed", "path", store.TempPath(), "error", err)
	}

	var options []pipeline.Option

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		guarded := mapbox.NewBreakerGeocoder(client, cfg.MapboxBreakerFailures, cfg.MapboxBreakerCooldown, logger)
		options = append(options, pipeline.WithGeocoder(mapbox.NewCachedGeocoder(guarded, cfg.MapboxCacheSize, metrics)))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		options = append(options, pipeline.WithPublisher(writer))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(
		feed.NewVesselReader(decoder, clock, logger),
		feed.NewAircraftReader(clock, logger),
		store,
		clock,
		logger,
		metrics,
		pipeline.Options{
			VesselFiles:   cfg.VesselFiles,
			AircraftFiles: cfg.AircraftFiles,
			MaxDataAge:    cfg.MaxDataAge,
		},
		options...,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Produce or load the initial document; /readyz reports 503 until then.
	go func() {
		if _, err := p.ProcessAll(ctx, false); err != nil {
			logger.Error("initial processing failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
