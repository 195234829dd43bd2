// Package indexer loads a directory of text documents into per-document
// position indexes and ranks the resulting corpus against queries.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/metrics"
)

// Source names a directory inside a file system. Label is the prefix used
// for document names, so a file "a.txt" under a Source labelled "pages" is
// indexed as "pages/a.txt".
type Source struct {
	FS    hackpadfs.FS
	Dir   string
	Label string
}

// OSSource returns a Source for a directory on the host file system. The
// label is dir exactly as given.
func OSSource(dir string) (Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Source{}, fmt.Errorf("resolving corpus directory %s: %w", dir, err)
	}
	fsys := osfs.NewFS()
	fsPath, err := fsys.FromOSPath(abs)
	if err != nil {
		return Source{}, fmt.Errorf("mapping corpus directory %s: %w", dir, err)
	}
	return Source{FS: fsys, Dir: fsPath, Label: dir}, nil
}

// Path returns the file system path of name inside the source directory.
func (s Source) Path(name string) string {
	return joinPath(s.Dir, name)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records corpus size and load time on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine holds the indexed corpus. It is immutable once NewEngine returns
// and is safe for concurrent use.
type Engine struct {
	docs        []*index.DocumentIndex
	byName      map[string]*index.DocumentIndex
	totalTokens int64
	totalTerms  int64
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewEngine reads every regular file directly inside src.Dir and indexes it.
// Files are read concurrently by up to workers goroutines; the resulting
// corpus is ordered by file name. A directory without regular files yields
// ErrCorpusEmpty.
func NewEngine(ctx context.Context, src Source, workers int, opts ...Option) (*Engine, error) {
	e := &Engine{
		byName: make(map[string]*index.DocumentIndex),
		logger: slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if workers <= 0 {
		workers = 1
	}

	start := time.Now()
	entries, err := hackpadfs.ReadDir(src.FS, src.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory %s: %w", src.Label, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, apperrors.Newf(apperrors.ErrCorpusEmpty, http.StatusServiceUnavailable, "no documents in %s", src.Label)
	}

	docs := make([]*index.DocumentIndex, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := hackpadfs.ReadFile(src.FS, src.Path(name))
			if err != nil {
				return fmt.Errorf("reading document %s: %w", name, err)
			}
			docs[i] = index.New(src.Label+"/"+name, tokenizer.Fields(string(data)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.docs = docs
	for _, doc := range docs {
		e.byName[doc.Name()] = doc
		e.totalTokens += int64(doc.TokenCount())
		e.totalTerms += int64(doc.Terms())
	}

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Add(float64(len(docs)))
		e.metrics.CorpusTerms.Set(float64(e.totalTerms))
		e.metrics.CorpusLoadDuration.Observe(elapsed.Seconds())
	}
	e.logger.Info("corpus indexed",
		"source", src.Label,
		"documents", len(docs),
		"tokens", e.totalTokens,
		"terms", e.totalTerms,
		"duration", elapsed,
	)
	return e, nil
}

// Documents returns the corpus in file-name order. The slice is shared and
// must not be modified.
func (e *Engine) Documents() []*index.DocumentIndex {
	return e.docs
}

// Document looks up a document by its full name.
func (e *Engine) Document(name string) (*index.DocumentIndex, bool) {
	doc, ok := e.byName[name]
	return doc, ok
}

func (e *Engine) DocCount() int {
	return len(e.docs)
}

func (e *Engine) TotalTokens() int64 {
	return e.totalTokens
}

func (e *Engine) TotalTerms() int64 {
	return e.totalTerms
}

// Rank orders the whole corpus against query and returns up to limit
// results; a negative limit returns every document.
func (e *Engine) Rank(query string, limit int) []ranker.ScoredDoc {
	return ranker.NewQueue(query, e.docs).Drain(limit)
}

// Stats summarises every document in corpus order.
func (e *Engine) Stats() []index.DocStats {
	stats := make([]index.DocStats, len(e.docs))
	for i, doc := range e.docs {
		stats[i] = doc.Stats()
	}
	return stats
}

func joinPath(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return dir + "/" + name
}
