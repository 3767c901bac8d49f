package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verdantiq/analytics/internal/analytics"
	"github.com/verdantiq/analytics/internal/cache"
	"github.com/verdantiq/analytics/internal/catalog"
	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/httpx"
	"github.com/verdantiq/analytics/internal/ingest"
	"github.com/verdantiq/analytics/internal/source"
	"github.com/verdantiq/analytics/internal/window"
	"github.com/verdantiq/analytics/internal/ws"
	"github.com/verdantiq/analytics/pkg/config"
	"github.com/verdantiq/analytics/pkg/logger"
)

func main() {
	cfg := config.LoadAnalyticsConfig()
	log := logger.New("analytics", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		log.Error("failed to load metric catalog", "error", err)
		os.Exit(1)
	}
	defs := provider.Definitions()

	normalizer := ingest.NewNormalizer(defs)
	metrics := analytics.NewMetrics()

	var registry ingest.SchemaFetcher
	if strings.TrimSpace(cfg.SchemaRegistryURL) != "" {
		registry = ingest.NewRegistryClient(cfg.SchemaRegistryURL, cfg.SchemaRegistryUser, cfg.SchemaRegistryPassword)
	}
	decoder := ingest.NewDecoder(registry, log)

	var sources []source.Source
	queue := source.NewQueueConsumer(source.QueueConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	}, decoder, normalizer, log, metrics.EventIngested, metrics.EventDropped)
	if queue != nil {
		go queue.Run(ctx)
		defer queue.Close()
		sources = append(sources, queue)
	}
	if poller := source.NewStreamPoller(cfg.StreamURL, cfg.StreamPollInterval, normalizer, log); poller != nil {
		sources = append(sources, poller)
	}
	if reader := source.NewFileReader(cfg.ReplayFilePath, normalizer, log); reader != nil {
		sources = append(sources, reader)
	}
	chain := source.NewChain(sources...)

	snapshotCache := cache.NewMemory()
	if addr := strings.TrimSpace(cfg.CacheRedisAddr); addr != "" {
		redisCache, err := cache.NewRedis(addr, cfg.CacheRedisPassword, cfg.CacheRedisDB, log)
		if err != nil {
			log.Warn("redis snapshot cache unavailable", "error", err)
		} else {
			snapshotCache = redisCache
		}
	}

	store := window.NewStore(cfg.MaxEventsPerMetric)
	builder := analytics.NewBuilder(defs, cfg.WindowSeconds)
	hub := ws.NewHub()

	publish := func(snapshot domain.LiveAnalyticsSnapshot) {
		payload, err := json.Marshal(snapshot)
		if err != nil {
			log.Warn("snapshot encode failed", "error", err)
			return
		}
		hub.Broadcast(payload)
	}
	svc := analytics.NewService(chain, store, builder, snapshotCache, cfg.SnapshotTTL, log, metrics, publish)
	defer svc.Close()

	router := httpx.NewRouter(log, svc, hub)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("analytics server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("analytics server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func loadCatalog(ctx context.Context, cfg config.AnalyticsConfig, log *slog.Logger) (catalog.Provider, error) {
	if url := strings.TrimSpace(cfg.CatalogDatabaseURL); url != "" {
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, err
		}
		provider, err := catalog.LoadPostgres(ctx, pool)
		pool.Close()
		if err != nil {
			return nil, err
		}
		log.Info("metric catalog loaded from database", "metrics", len(provider.Definitions()))
		return provider, nil
	}
	if path := strings.TrimSpace(cfg.CatalogFilePath); path != "" {
		provider, err := catalog.LoadFile(path)
		if err != nil {
			return nil, err
		}
		log.Info("metric catalog loaded from file", "path", path, "metrics", len(provider.Definitions()))
		return provider, nil
	}
	return catalog.Default(), nil
}
