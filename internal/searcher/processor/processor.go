// Package processor runs a batch of queries against the indexed corpus and
// renders the rankings as plain text.
package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/history"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/metrics"
)

// Corpus supplies the documents to rank.
type Corpus interface {
	Documents() []*index.DocumentIndex
}

// Result is the ranking of one query.
type Result struct {
	Query   string             `json:"query"`
	Results []ranker.ScoredDoc `json:"results"`
	Latency time.Duration      `json:"latency"`
}

type Option func(*Processor)

// WithRecorder reports every processed query to r.
func WithRecorder(r analytics.Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithHistory saves the runs of each batch to h once the batch completes.
// Save failures are logged and do not fail the batch.
func WithHistory(h history.BatchRecorder) Option {
	return func(p *Processor) { p.history = h }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

type Processor struct {
	corpus   Corpus
	recorder analytics.Recorder
	history  history.BatchRecorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(corpus Corpus, opts ...Option) *Processor {
	p := &Processor{
		corpus: corpus,
		logger: logger.WithComponent("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ranks every query in order. One queue is built for the first query
// and re-heaped for each later one. Up to limit documents are kept per
// query; a negative limit keeps all of them. Run stops early only when ctx
// is cancelled.
func (p *Processor) Run(ctx context.Context, queries []string, limit int) ([]Result, error) {
	results := make([]Result, 0, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	batchID := uuid.New()
	p.logger.Info("processing queries", "batch_id", batchID, "queries", len(queries), "limit", limit)

	var (
		q    *ranker.Queue
		runs []history.Run
	)
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("processing query %d: %w", i, err)
		}
		start := time.Now()
		if q == nil {
			q = ranker.NewQueue(query, p.corpus.Documents())
		} else {
			q.Reheap(query)
		}
		ranked := q.Drain(limit)
		res := Result{Query: query, Results: ranked, Latency: time.Since(start)}
		results = append(results, res)
		p.report(res)
		runs = append(runs, history.Run{
			BatchID:   batchID,
			Query:     res.Query,
			Limit:     limit,
			Source:    analytics.SourceBatch,
			Results:   res.Results,
			LatencyMs: res.Latency.Milliseconds(),
		})
	}

	if p.history != nil {
		if err := p.history.SaveBatch(ctx, runs); err != nil {
			p.logger.Warn("failed to save batch", "batch_id", batchID, "error", err)
		}
	}
	p.logger.Info("queries processed", "batch_id", batchID, "queries", len(results))
	return results, nil
}

func (p *Processor) report(res Result) {
	event := analytics.NewSearchEvent(analytics.SourceBatch, res.Query, res.Results, res.Latency)
	if p.metrics != nil {
		resultType := metrics.ResultHit
		if event.ZeroResult() {
			resultType = metrics.ResultZeroResult
		}
		p.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
		p.metrics.ObserveSearch(analytics.SourceBatch, res.Latency.Seconds(), len(res.Results))
	}
	if p.recorder != nil {
		p.recorder.Track(event)
	}
}

// Print writes results in the batch report format:
//
//	query is: <query>
//	<document>  priority: <n>
//	...
//	<blank line>
func Print(w io.Writer, results []Result) error {
	bw := bufio.NewWriter(w)
	for _, res := range results {
		fmt.Fprintf(bw, "query is: %s\n", res.Query)
		for _, doc := range res.Results {
			fmt.Fprintf(bw, "%s  priority: %d\n", doc.Name, doc.Priority)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}
