// Package cache memoises ranked search results in Redis. Concurrent misses
// for the same key are collapsed with singleflight so the corpus is ranked
// once per key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/redis"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
	Keys(ctx context.Context, pattern string) (int64, error)
}

// Entry is the cached form of one ranked query.
type Entry struct {
	Query    string             `json:"query"`
	Limit    int                `json:"limit"`
	Results  []ranker.ScoredDoc `json:"results"`
	CachedAt time.Time          `json:"cached_at"`
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query string, limit int) (*Entry, bool) {
	key := BuildKey(query, limit)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &entry, true
}

func (c *QueryCache) Set(ctx context.Context, entry *Entry) {
	key := BuildKey(entry.Query, entry.Limit)
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached entry for query and limit, or ranks it with
// computeFn and stores the result. The boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() ([]ranker.ScoredDoc, error),
) (*Entry, bool, error) {
	if entry, ok := c.Get(ctx, query, limit); ok {
		return entry, true, nil
	}
	key := BuildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		entry := &Entry{
			Query:    query,
			Limit:    limit,
			Results:  results,
			CachedAt: time.Now().UTC(),
		}
		c.Set(ctx, entry)
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Entry), false, nil
}

// Invalidate removes every cached query and returns how many keys went.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size counts the cached queries currently held in Redis.
func (c *QueryCache) Size(ctx context.Context) (int64, error) {
	return c.store.Keys(ctx, keyPrefix+"*")
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey derives the Redis key for a query. Priorities are sums over
// terms, so term order does not matter but case and repetition do.
func BuildKey(query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", normalizeQuery(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func normalizeQuery(query string) string {
	terms := tokenizer.Fields(query)
	sort.Strings(terms)
	return strings.Join(terms, " ")
}
