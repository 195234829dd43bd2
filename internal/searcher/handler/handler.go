// Package handler serves the search engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/history"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/metrics"
)

// Searcher is the indexed corpus as seen by the HTTP layer.
type Searcher interface {
	Rank(query string, limit int) []ranker.ScoredDoc
	Document(name string) (*index.DocumentIndex, bool)
	Stats() []index.DocStats
	DocCount() int
}

// HistoryStore saves and lists past searches.
type HistoryStore interface {
	history.Recorder
	Recent(ctx context.Context, limit int) ([]history.Run, error)
}

// SearchResponse is the body of GET /api/v1/search.
type SearchResponse struct {
	Query     string             `json:"query"`
	Terms     []string           `json:"terms"`
	Documents int                `json:"documents"`
	Results   []ranker.ScoredDoc `json:"results"`
	CacheHit  bool               `json:"cache_hit"`
	LatencyMs int64              `json:"latency_ms"`
}

// TermResponse describes one term in one document.
type TermResponse struct {
	Document   string   `json:"document"`
	Term       string   `json:"term"`
	Found      bool     `json:"found"`
	Count      int      `json:"count"`
	Positions  []int    `json:"positions"`
	SearchPath []string `json:"search_path"`
}

type Option func(*Handler)

func WithCache(c *cache.QueryCache) Option {
	return func(h *Handler) { h.cache = c }
}

func WithRecorder(r analytics.Recorder) Option {
	return func(h *Handler) { h.recorder = r }
}

func WithHistory(s HistoryStore) Option {
	return func(h *Handler) { h.history = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLimits sets the result count used when the request has no limit and
// the ceiling applied to requested limits.
func WithLimits(defaultLimit, maxResults int) Option {
	return func(h *Handler) {
		h.defaultLimit = defaultLimit
		h.maxResults = maxResults
	}
}

type Handler struct {
	searcher     Searcher
	cache        *cache.QueryCache
	recorder     analytics.Recorder
	history      HistoryStore
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(searcher Searcher, opts ...Option) *Handler {
	h := &Handler{
		searcher:     searcher,
		defaultLimit: 10,
		maxResults:   100,
		logger:       logger.WithComponent("search-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents", h.Documents)
	mux.HandleFunc("GET /api/v1/documents/{name...}", h.Document)
	mux.HandleFunc("GET /api/v1/history", h.History)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search ranks the corpus against ?q= and returns the top ?limit= documents.
// A blank query is valid and ranks every document at zero.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if !r.URL.Query().Has("q") {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	query := r.URL.Query().Get("q")

	limit, err := h.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	plan := parser.Parse(query)
	compute := func() ([]ranker.ScoredDoc, error) {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.New(apperrors.ErrTimeout, http.StatusGatewayTimeout, "search cancelled")
		}
		return h.searcher.Rank(query, limit), nil
	}

	var (
		results  []ranker.ScoredDoc
		cacheHit bool
	)
	if h.cache != nil {
		var entry *cache.Entry
		entry, cacheHit, err = h.cache.GetOrCompute(ctx, query, limit, compute)
		if entry != nil {
			results = entry.Results
		}
	} else {
		results, err = compute()
	}
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.countQuery(metrics.ResultError)
		h.writeError(w, err)
		return
	}

	latency := time.Since(start)
	event := analytics.NewSearchEvent(analytics.SourceHTTP, query, results, latency)
	event.CacheHit = cacheHit
	event.RequestID = logger.RequestID(ctx)
	h.record(ctx, event, limit, results, latency)

	log.Info("search completed",
		"query", query,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:     query,
		Terms:     plan.Terms,
		Documents: h.searcher.DocCount(),
		Results:   results,
		CacheHit:  cacheHit,
		LatencyMs: latency.Milliseconds(),
	})
}

func (h *Handler) record(ctx context.Context, event analytics.SearchEvent, limit int, results []ranker.ScoredDoc, latency time.Duration) {
	if h.metrics != nil {
		resultType := metrics.ResultMiss
		switch {
		case event.ZeroResult():
			resultType = metrics.ResultZeroResult
		case event.CacheHit:
			resultType = metrics.ResultHit
		}
		h.countQuery(resultType)
		h.metrics.ObserveSearch(analytics.SourceHTTP, latency.Seconds(), len(results))
	}
	if h.recorder != nil {
		h.recorder.Track(event)
	}
	if h.history != nil {
		err := h.history.SaveRun(ctx, history.Run{
			Query:     event.Query,
			Limit:     limit,
			Source:    analytics.SourceHTTP,
			Results:   results,
			LatencyMs: latency.Milliseconds(),
		})
		if err != nil {
			logger.FromContext(ctx).Warn("failed to save search", "error", err)
		}
	}
}

func (h *Handler) countQuery(resultType string) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}

// parseLimit accepts a positive integer or -1 for every document. Both are
// capped at maxResults.
func (h *Handler) parseLimit(raw string) (int, error) {
	if raw == "" {
		return min(h.defaultLimit, h.maxResults), nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed == 0 || parsed < -1 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer or -1")
	}
	if parsed == -1 || parsed > h.maxResults {
		parsed = h.maxResults
	}
	return parsed, nil
}

// Documents lists per-document statistics in corpus order.
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents": h.searcher.Stats(),
	})
}

// Document returns a document's statistics, or with ?term= the positions
// of that term and the keys visited looking it up.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	doc, ok := h.searcher.Document(name)
	if !ok {
		h.writeError(w, apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "no document %q", name))
		return
	}
	if !r.URL.Query().Has("term") {
		h.writeJSON(w, http.StatusOK, doc.Stats())
		return
	}

	term := r.URL.Query().Get("term")
	positions, found := doc.Positions(term)
	path, _ := doc.SearchPath(term)
	if positions == nil {
		positions = []int{}
	}
	h.writeJSON(w, http.StatusOK, TermResponse{
		Document:   doc.Name(),
		Term:       term,
		Found:      found,
		Count:      doc.OccurrenceCount(term),
		Positions:  positions,
		SearchPath: path,
	})
}

// History lists recent searches, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history is disabled"})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(parsed, h.maxResults)
	}
	runs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("listing history failed", "error", err)
		h.writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInternal, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	resp := map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	}
	if size, err := h.cache.Size(r.Context()); err == nil {
		resp["keys"] = size
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInternal, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its HTTP status. Internal details are not echoed
// for 5xx responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout && status != http.StatusServiceUnavailable {
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
