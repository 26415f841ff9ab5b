package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sameer-159/Air-Quality/internal/api"
	"github.com/Sameer-159/Air-Quality/internal/aqi"
	"github.com/Sameer-159/Air-Quality/internal/audit"
	"github.com/Sameer-159/Air-Quality/internal/breaker"
	"github.com/Sameer-159/Air-Quality/internal/cache"
	"github.com/Sameer-159/Air-Quality/internal/config"
	"github.com/Sameer-159/Air-Quality/internal/dataset"
	"github.com/Sameer-159/Air-Quality/internal/enhanced"
	"github.com/Sameer-159/Air-Quality/internal/logging"
	"github.com/Sameer-159/Air-Quality/internal/metrics"
	"github.com/Sameer-159/Air-Quality/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	lg, err := logging.New(cfg.LogFilePath)
	if err != nil {
		panic(err)
	}
	defer lg.Close()
	log := lg.Logger
	log.Info("config loaded", "bind", cfg.ListenAddress, "dataDir", cfg.DataDir,
		"cacheTTL", cfg.CacheTTL, "enhancedBackend", cfg.EnhancedBackendURL,
		"auditEnabled", len(cfg.KafkaBrokers) > 0)

	store, err := settings.NewStore(cfg.DataDir, log)
	if err != nil {
		log.Error("settings store init failed", "err", err)
		os.Exit(1)
	}

	data := dataset.Generate(cfg.DatasetSize, cfg.DatasetSeed)
	log.Info("synthetic dataset ready", "samples", data.Len())

	var scorer enhanced.Scorer = enhanced.Local{}
	if cfg.EnhancedBackendURL != "" {
		scorer = enhanced.NewClient(cfg.EnhancedBackendURL, breaker.Config{
			MaxFailures:  cfg.BreakerMaxFailures,
			ResetTimeout: cfg.BreakerResetTimeout,
		}, log)
		log.Info("enhanced scoring delegated", "backend", cfg.EnhancedBackendURL)
	}

	publisher := audit.New(cfg.KafkaBrokers, cfg.AuditTopic, log)
	defer publisher.Close()

	h := &api.Handlers{
		Log:               log,
		Settings:          store,
		Enhanced:          scorer,
		Audit:             publisher,
		Data:              data,
		TableCache:        cache.New[map[aqi.Parameter]aqi.Table](cfg.CacheTTL, metrics.NewCacheObserver("membership")),
		StatsCache:        cache.New[dataset.Stats](cfg.CacheTTL, metrics.NewCacheObserver("stats")),
		CompareCache:      cache.New[aqi.ComparisonResult](cfg.CacheTTL, metrics.NewCacheObserver("compare")),
		CompareMaxSamples: cfg.CompareMaxSamples,
	}

	srv := api.NewServer(cfg.ListenAddress, log, api.NewRouter(h), cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("server error", "err", err)
		}
	}()
	log.Info("assessment service started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("shutdown error", "err", err)
	}
	log.Info("assessment service stopped")
}
