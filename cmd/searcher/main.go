// Command searcher indexes a directory of documents and serves search,
// document inspection, cache and analytics endpoints over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/history"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/middleware"
	pkgserver "github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/server"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dir := flag.String("dir", "", "directory of documents (overrides corpus.dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.Corpus.Dir = *dir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "corpus", cfg.Corpus.Dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdownMetrics(context.Background())
	}

	src, err := indexer.OSSource(cfg.Corpus.Dir)
	if err != nil {
		slog.Error("invalid corpus directory", "error", err)
		os.Exit(1)
	}
	engine, err := indexer.NewEngine(ctx, src, cfg.Corpus.Workers, indexer.WithMetrics(m))
	if err != nil {
		slog.Error("failed to index corpus", "dir", cfg.Corpus.Dir, "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	checker.Register("corpus", func(ctx context.Context) health.ComponentHealth {
		if engine.DocCount() == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no documents"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", engine.DocCount())}
	})

	aggregator := analytics.NewAggregator()
	recorders := []analytics.Recorder{aggregator}
	opts := []handler.Option{
		handler.WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxResults),
		handler.WithMetrics(m),
	}

	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			opts = append(opts, handler.WithCache(cache.New(redisClient, cfg.Redis.CacheTTL, m)))
			checker.Register("redis", health.PingCheck(redisClient.Ping, true))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()
		recorders = append(recorders, collector)
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.SearchEvents)
	}
	opts = append(opts, handler.WithRecorder(analytics.Multi(recorders...)))

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 5})
		if err != nil {
			slog.Warn("postgres unavailable, search history disabled", "error", err)
		} else {
			defer db.Close()
			store := history.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Warn("search history disabled", "error", err)
			} else {
				opts = append(opts, handler.WithHistory(store))
				ping := health.PingCheck(db.Ping, true)
				checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
					if store.BreakerState() == resilience.StateOpen {
						return health.ComponentHealth{Status: health.StatusDegraded, Message: "history writes suspended"}
					}
					return ping(ctx)
				})
			}
		}
	}

	h := handler.New(engine, opts...)
	analyticsH := analytics.NewHandler(aggregator)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /api/v1/analytics/stats", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.CORS(cfg.Server.CORSOrigins),
		middleware.Metrics(m, mux),
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		limiter := ratelimit.New(rl.Requests, rl.Window)
		limiter.StartCleanup(ctx, 5*time.Minute)
		middlewares = append(middlewares, middleware.RateLimit(limiter, rl.Window))
		slog.Info("rate limiting enabled", "requests", rl.Requests, "window", rl.Window)
	}
	middlewares = append(middlewares, middleware.Timeout(cfg.Server.WriteTimeout))
	chain := middleware.Chain(mux, middlewares...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	slog.Info("search service listening", "addr", server.Addr, "documents", engine.DocCount())
	if err := pkgserver.Run(ctx, server, cfg.Server.ShutdownTimeout); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
