package processor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/history"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/metrics"
)

type staticCorpus []*index.DocumentIndex

func (c staticCorpus) Documents() []*index.DocumentIndex { return c }

func corpus() staticCorpus {
	return staticCorpus{
		index.New("test data/a.txt", strings.Fields("The the THE the the")),
		index.New("test data/b.txt", strings.Fields("the only one")),
		index.New("test data/c.txt", strings.Fields("cats and dogs")),
	}
}

type memHistory struct {
	mu      sync.Mutex
	runs    []history.Run
	batches int
	err     error
}

func (h *memHistory) SaveBatch(_ context.Context, runs []history.Run) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.batches++
	h.runs = append(h.runs, runs...)
	return nil
}

func TestRun_RanksEachQuery(t *testing.T) {
	p := New(corpus())
	results, err := p.Run(context.Background(), []string{"the", "cats", ""}, -1)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []ranker.ScoredDoc{
		{Name: "test data/a.txt", Priority: 5},
		{Name: "test data/b.txt", Priority: 1},
		{Name: "test data/c.txt", Priority: 0},
	}, results[0].Results)
	assert.Equal(t, "cats", results[1].Query)
	assert.Equal(t, ranker.ScoredDoc{Name: "test data/c.txt", Priority: 1}, results[1].Results[0])
	assert.Len(t, results[2].Results, 3)
	for _, d := range results[2].Results {
		assert.Zero(t, d.Priority)
	}
}

func TestRun_MatchesIndependentQueues(t *testing.T) {
	docs := corpus()
	queries := []string{"the only", "dogs the", "one one"}
	results, err := New(docs).Run(context.Background(), queries, 2)
	require.NoError(t, err)
	for i, q := range queries {
		assert.Equal(t, ranker.NewQueue(q, docs).Drain(2), results[i].Results, q)
	}
}

func TestRun_Limit(t *testing.T) {
	results, err := New(corpus()).Run(context.Background(), []string{"the"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []ranker.ScoredDoc{{Name: "test data/a.txt", Priority: 5}}, results[0].Results)
}

func TestRun_NoQueries(t *testing.T) {
	results, err := New(corpus()).Run(context.Background(), nil, -1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(corpus()).Run(ctx, []string{"the"}, -1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ReportsToSinks(t *testing.T) {
	agg := analytics.NewAggregator()
	hist := &memHistory{}
	m := metrics.New(prometheus.NewRegistry())
	p := New(corpus(), WithRecorder(agg), WithHistory(hist), WithMetrics(m))

	_, err := p.Run(context.Background(), []string{"the", "unicorn"}, 2)
	require.NoError(t, err)

	stats := agg.Stats()
	assert.Equal(t, int64(2), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.ZeroResultCount)

	require.Len(t, hist.runs, 2)
	assert.Equal(t, 1, hist.batches)
	assert.Equal(t, hist.runs[0].BatchID, hist.runs[1].BatchID)
	assert.Equal(t, 2, hist.runs[0].Limit)
	assert.Equal(t, analytics.SourceBatch, hist.runs[0].Source)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(metrics.ResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(metrics.ResultZeroResult)))
}

func TestRun_HistoryFailureDoesNotStopBatch(t *testing.T) {
	p := New(corpus(), WithHistory(&memHistory{err: errors.New("db down")}))
	results, err := p.Run(context.Background(), []string{"the", "one"}, -1)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestPrint(t *testing.T) {
	results := []Result{
		{Query: "the", Results: []ranker.ScoredDoc{
			{Name: "test data/a.txt", Priority: 5},
			{Name: "test data/b.txt", Priority: 1},
		}},
		{Query: "", Results: nil},
	}
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, results))
	want := "query is: the\n" +
		"test data/a.txt  priority: 5\n" +
		"test data/b.txt  priority: 1\n" +
		"\n" +
		"query is: \n" +
		"\n"
	assert.Equal(t, want, buf.String())
}
