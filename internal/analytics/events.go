// Package analytics records what the search engine was asked and what it
// answered. Events are published to Kafka by the Collector and folded into
// running totals by the Aggregator.
package analytics

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
)

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventCorpus     EventType = "corpus_loaded"
)

// Sources of search events.
const (
	SourceBatch = "batch"
	SourceHTTP  = "http"
)

// SearchEvent describes one ranked query. A query is a zero result when no
// document scored above zero, even though every document is still ranked.
type SearchEvent struct {
	Type        EventType `json:"type"`
	Query       string    `json:"query"`
	Terms       []string  `json:"terms"`
	Returned    int       `json:"returned"`
	TopDocument string    `json:"top_document,omitempty"`
	TopPriority int       `json:"top_priority"`
	LatencyMs   int64     `json:"latency_ms"`
	CacheHit    bool      `json:"cache_hit"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
}

// NewSearchEvent builds an event from a query and its ranked results.
func NewSearchEvent(source, query string, results []ranker.ScoredDoc, latency time.Duration) SearchEvent {
	ev := SearchEvent{
		Type:      EventSearch,
		Query:     query,
		Terms:     tokenizer.Fields(query),
		Returned:  len(results),
		LatencyMs: latency.Milliseconds(),
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
	if len(results) > 0 {
		ev.TopDocument = results[0].Name
		ev.TopPriority = results[0].Priority
	}
	if ev.TopPriority == 0 {
		ev.Type = EventZeroResult
	}
	return ev
}

// ZeroResult reports whether no document matched any query term.
func (e SearchEvent) ZeroResult() bool {
	return e.Type == EventZeroResult
}

// CorpusEvent is emitted once after the corpus is indexed.
type CorpusEvent struct {
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Documents int       `json:"documents"`
	Tokens    int64     `json:"tokens"`
	Terms     int64     `json:"terms"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder accepts search events. Implementations must not block.
type Recorder interface {
	Track(event SearchEvent)
}

// Multi fans one event out to several recorders. Nil recorders are skipped.
func Multi(recorders ...Recorder) Recorder {
	out := make(multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type multi []Recorder

func (m multi) Track(event SearchEvent) {
	for _, r := range m {
		r.Track(event)
	}
}
