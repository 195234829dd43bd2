// Command search indexes a directory of text documents, ranks every query in
// a query file against it and prints the rankings to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/history"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/processor"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/resilience"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "search: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	dir := fs.String("dir", "", "directory of documents (overrides corpus.dir)")
	queries := fs.String("queries", "", "query file, one query per line (overrides corpus.queryFile)")
	limit := fs.Int("limit", 0, "documents printed per query, -1 for all (overrides corpus.limit)")
	dumpTerm := fs.String("dump-term", "", "print each document's index tree with the search path of this term, then exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *dir != "" {
		cfg.Corpus.Dir = *dir
	}
	if *queries != "" {
		cfg.Corpus.QueryFile = *queries
	}
	if *limit != 0 {
		cfg.Corpus.Limit = *limit
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		shutdown := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdown(context.Background())
	}

	src, err := indexer.OSSource(cfg.Corpus.Dir)
	if err != nil {
		return err
	}
	start := time.Now()
	engine, err := indexer.NewEngine(ctx, src, cfg.Corpus.Workers, indexer.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("indexing %s: %w", cfg.Corpus.Dir, err)
	}
	loadTime := time.Since(start)

	if *dumpTerm != "" {
		return dump(stdout, engine, *dumpTerm)
	}

	qsrc, err := indexer.OSSource(filepath.Dir(cfg.Corpus.QueryFile))
	if err != nil {
		return err
	}
	queryList, err := parser.ReadQueries(qsrc.FS, qsrc.Path(filepath.Base(cfg.Corpus.QueryFile)))
	if err != nil {
		return err
	}

	opts := []processor.Option{processor.WithMetrics(m)}
	var recorders []analytics.Recorder
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 1000)
		collector.Start(ctx)
		defer collector.Close()
		collector.TrackCorpus(analytics.CorpusEvent{
			Type:      analytics.EventCorpus,
			Source:    cfg.Corpus.Dir,
			Documents: engine.DocCount(),
			Tokens:    engine.TotalTokens(),
			Terms:     engine.TotalTerms(),
			LatencyMs: loadTime.Milliseconds(),
			Timestamp: time.Now().UTC(),
		})
		recorders = append(recorders, collector)
		slog.Info("analytics enabled", "topic", cfg.Kafka.Topics.SearchEvents)
	}
	if len(recorders) > 0 {
		opts = append(opts, processor.WithRecorder(analytics.Multi(recorders...)))
	}
	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 3})
		if err != nil {
			slog.Warn("postgres unavailable, run history disabled", "error", err)
		} else {
			defer db.Close()
			store := history.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Warn("run history disabled", "error", err)
			} else {
				opts = append(opts, processor.WithHistory(store))
			}
		}
	}

	results, err := processor.New(engine, opts...).Run(ctx, queryList, cfg.Corpus.Limit)
	if err != nil {
		return err
	}
	return processor.Print(stdout, results)
}

func dump(w io.Writer, engine *indexer.Engine, term string) error {
	for _, doc := range engine.Documents() {
		path, found := doc.SearchPath(term)
		fmt.Fprintf(w, "document: %s\n", doc.Name())
		fmt.Fprintf(w, "search path for %q: %v (found: %t)\n", term, path, found)
		if err := doc.Dump(w, false); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}
