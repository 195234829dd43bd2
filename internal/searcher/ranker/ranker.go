// Package ranker orders the documents of a corpus against a query. A
// document's priority is the sum, over all whitespace-separated query terms,
// of the number of times the term occurs in the document. Every document is
// ranked, including those that match nothing.
package ranker

import (
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/maxheap"
)

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// Queue is a priority queue of documents for one query at a time. The
// corpus slice is borrowed, not copied, and must not change while the Queue
// is in use. A Queue is not safe for concurrent use; concurrent ranking
// passes should each build their own Queue over the shared corpus.
type Queue struct {
	query  string
	corpus []*index.DocumentIndex
	heap   *maxheap.Heap[*index.DocumentIndex]
}

// NewQueue ranks corpus against query.
func NewQueue(query string, corpus []*index.DocumentIndex) *Queue {
	q := &Queue{corpus: corpus}
	q.Reheap(query)
	return q
}

// Reheap replaces the query and rebuilds the heap from scratch against the
// same corpus. Nothing from the previous query survives.
func (q *Queue) Reheap(query string) {
	q.query = query
	terms := tokenizer.Fields(query)
	h := maxheap.New[*index.DocumentIndex](len(q.corpus))
	for _, doc := range q.corpus {
		h.Insert(maxheap.Item[*index.DocumentIndex]{
			Pri:   Priority(terms, doc),
			Value: doc,
		})
	}
	q.heap = h
}

// Priority sums the occurrence counts of terms in doc. Repeated terms count
// once per repetition.
func Priority(terms []string, doc *index.DocumentIndex) int {
	priority := 0
	for _, term := range terms {
		priority += doc.OccurrenceCount(term)
	}
	return priority
}

// Query returns the query the queue is currently ranked for.
func (q *Queue) Query() string {
	return q.query
}

// Len returns the number of documents still queued.
func (q *Queue) Len() int {
	return q.heap.Len()
}

// Peek returns the highest-priority remaining document without removing it.
func (q *Queue) Peek() (maxheap.Item[*index.DocumentIndex], bool) {
	return q.heap.PeekMax()
}

// Poll removes and returns the highest-priority remaining document.
func (q *Queue) Poll() (maxheap.Item[*index.DocumentIndex], bool) {
	return q.heap.ExtractMax()
}

// Drain polls up to limit documents in priority order. A negative limit
// drains the whole queue.
func (q *Queue) Drain(limit int) []ScoredDoc {
	n := q.heap.Len()
	if limit >= 0 && limit < n {
		n = limit
	}
	result := make([]ScoredDoc, 0, n)
	for len(result) < n {
		item, ok := q.Poll()
		if !ok {
			break
		}
		result = append(result, ScoredDoc{
			Name:     item.Value.Name(),
			Priority: item.Pri,
		})
	}
	return result
}
