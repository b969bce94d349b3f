package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/sales-analytics/api/routes"
	"github.com/angelmondragon/sales-analytics/internal/analytics"
	"github.com/angelmondragon/sales-analytics/internal/analytics/mock"
	"github.com/angelmondragon/sales-analytics/internal/analytics/query"
	"github.com/angelmondragon/sales-analytics/internal/upstream"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
	"github.com/angelmondragon/sales-analytics/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogOutputFormat(),
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	deps := routes.Dependencies{
		Normalizer: query.NewNormalizer(query.Options{
			DefaultLookback: cfg.Query.DefaultLookback,
			DefaultLimit:    cfg.Query.DefaultLimit,
			MaxLimit:        cfg.Query.MaxLimit,
		}),
		DemoSource: mock.NewGenerator(cfg.Source.MockSeed, cfg.Source.MockRows),
	}
	if reg != nil {
		deps.HTTPMetrics = metrics.NewHTTPMetrics(reg)
		deps.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	var source analytics.Source
	if cfg.Source.UsesMock() {
		source = deps.DemoSource
		logg.Info(context.Background(), "serving orders from mock generator")
	} else {
		client := upstream.NewClient(
			upstream.WithTimeout(cfg.Upstream.Timeout),
			upstream.WithBodyLimits(cfg.Upstream.MaxBodyBytes, cfg.Upstream.ErrorExcerptBytes),
			upstream.WithLogger(logg),
			upstream.WithMetrics(upstreamMetrics(reg)),
		)
		source, err = analytics.NewUpstreamSource(cfg.Upstream.BaseURL, client)
		if err != nil {
			logg.Error(context.Background(), "failed to create upstream source", err)
			os.Exit(1)
		}
	}

	if cfg.Cache.Enabled {
		redisClient, err := redis.New(runCtx, cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		source, err = analytics.NewCachedSource(source, redisClient, analytics.CacheOptions{
			TTL:       cfg.Cache.TTL,
			KeyPrefix: cfg.Cache.KeyPrefix,
			Logger:    logg,
			Metrics:   cacheMetrics(reg),
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create cached source", err)
			os.Exit(1)
		}
		deps.Cache = redisClient
	}

	deps.Analytics, err = analytics.NewService(source, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"source":   cfg.Source.Kind,
		"cache":    cfg.Cache.Enabled,
		"upstream": cfg.Upstream.BaseURL,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Upstream.Timeout + 5*time.Second,
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func upstreamMetrics(reg *prometheus.Registry) *metrics.UpstreamMetrics {
	if reg == nil {
		return nil
	}
	return metrics.NewUpstreamMetrics(reg)
}

func cacheMetrics(reg *prometheus.Registry) *metrics.CacheMetrics {
	if reg == nil {
		return nil
	}
	return metrics.NewCacheMetrics(reg)
}
