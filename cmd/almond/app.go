package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spetersoncode/almond/analyzer"
	"github.com/spetersoncode/almond/client"
	"github.com/spetersoncode/almond/internal/cache"
	"github.com/spetersoncode/almond/internal/config"
	"github.com/spetersoncode/almond/internal/logging"
	"github.com/spetersoncode/almond/internal/metrics"
	"github.com/spetersoncode/almond/internal/telemetry"
	"github.com/spetersoncode/almond/workflow"
)

// clientEventBuffer absorbs bursts of client events between metric updates.
const clientEventBuffer = 256

// app is the wired process: configuration, backends and the analyzer.
type app struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	metrics  *metrics.Metrics
	logger   *slog.Logger

	closers []func(context.Context) error
}

// setup loads configuration and wires every component. Metrics consume
// client events until ctx is done.
func setup(ctx context.Context, configPath string) (_ *app, err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.Init(level, cfg.LogFormat)

	a := &app{cfg: cfg, metrics: metrics.New(), logger: logging.New("almond")}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	shutdownTracing, err := telemetry.Init(telemetry.Config{
		ServiceName:    "almond",
		ServiceVersion: config.Version,
		Exporter:       cfg.TraceExporter,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdownTracing)

	events := make(chan client.Event, clientEventBuffer)
	go a.metrics.Consume(ctx, events)

	ccfg := cfg.ClientConfig()
	ccfg.Events = events
	ccfg.Logger = logging.New("client")

	if cfg.Redis.Enabled {
		rdb, err := cache.Connect(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		c := cache.New(rdb, cache.WithTTL(cfg.Redis.TTL), cache.WithLogger(logging.New("cache")))
		if err := c.Ping(ctx); err != nil {
			a.logger.Warn("redis unreachable, responses will not be cached until it recovers", "error", err)
		}
		ccfg.Cache = c
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	} else if cfg.MemoryCache {
		ccfg.Cache = cache.NewMemory(cfg.Redis.TTL)
	}

	registry := client.NewRegistry(ccfg)
	a.analyzer = analyzer.New(workflow.RegistryResolver(registry), analyzer.Config{
		Provider:         cfg.ProviderID(),
		Model:            cfg.Model,
		Options:          cfg.GenerationOptions(),
		Threshold:        cfg.ConfidenceThreshold,
		EvolutionTrigger: cfg.EvolutionTriggerThreshold,
		MaxConcurrent:    cfg.MaxConcurrentRequests,
		Version:          config.Version,
		Logger:           logging.New("analyzer"),
		EngineOptions:    a.metrics.EngineOptions(),
	})

	a.logger.Debug("configured",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"threshold", cfg.ConfidenceThreshold,
		"redis", cfg.Redis.Enabled,
		"memory_cache", cfg.MemoryCache,
		"trace_exporter", cfg.TraceExporter,
	)
	return a, nil
}

// Close releases everything setup acquired, in reverse order.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %w", errors.Join(errs...))
	}
	return nil
}

// withApp runs fn against a wired app and closes it afterwards.
func withApp(ctx context.Context, configPath string, fn func(context.Context, *app) error) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}
