package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/metrics"
)

func memSource(t *testing.T, files map[string]string) Source {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	require.NoError(t, hackpadfs.MkdirAll(fsys, "corpus", 0o755))
	for name, body := range files {
		require.NoError(t, hackpadfs.WriteFullFile(fsys, "corpus/"+name, []byte(body), 0o644))
	}
	return Source{FS: fsys, Dir: "corpus", Label: "test data"}
}

func TestNewEngine_IndexesEveryFileInNameOrder(t *testing.T) {
	src := memSource(t, map[string]string{
		"c.txt": "Cats, cats and more CATS!",
		"a.txt": "the quick brown fox\njumps over the lazy dog",
		"b.txt": "",
	})
	require.NoError(t, hackpadfs.MkdirAll(src.FS, "corpus/nested", 0o755))

	e, err := NewEngine(context.Background(), src, 2)
	require.NoError(t, err)

	require.Equal(t, 3, e.DocCount())
	names := make([]string, 0, 3)
	for _, d := range e.Documents() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"test data/a.txt", "test data/b.txt", "test data/c.txt"}, names)
	assert.Equal(t, int64(9+0+5), e.TotalTokens())

	doc, ok := e.Document("test data/c.txt")
	require.True(t, ok)
	assert.Equal(t, 3, doc.OccurrenceCount("cats"))
	assert.Equal(t, 1, doc.OccurrenceCount("and"))

	_, ok = e.Document("c.txt")
	assert.False(t, ok)
}

func TestNewEngine_EmptyDirectory(t *testing.T) {
	src := memSource(t, nil)
	_, err := NewEngine(context.Background(), src, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCorpusEmpty)
}

func TestNewEngine_MissingDirectory(t *testing.T) {
	src := memSource(t, nil)
	src.Dir = "nope"
	_, err := NewEngine(context.Background(), src, 1)
	assert.Error(t, err)
}

func TestNewEngine_CancelledContext(t *testing.T) {
	src := memSource(t, map[string]string{"a.txt": "one", "b.txt": "two"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(ctx, src, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Rank(t *testing.T) {
	src := memSource(t, map[string]string{
		"a.txt": "The the THE the the",
		"b.txt": "the only one",
		"c.txt": "nothing here",
	})
	e, err := NewEngine(context.Background(), src, 4)
	require.NoError(t, err)

	assert.Equal(t, []ranker.ScoredDoc{
		{Name: "test data/a.txt", Priority: 5},
		{Name: "test data/b.txt", Priority: 1},
		{Name: "test data/c.txt", Priority: 0},
	}, e.Rank("the", -1))
	assert.Len(t, e.Rank("the", 1), 1)
	assert.Empty(t, e.Rank("the", 0))
}

func TestEngine_Stats(t *testing.T) {
	src := memSource(t, map[string]string{"s.txt": "a b a c b"})
	e, err := NewEngine(context.Background(), src, 1)
	require.NoError(t, err)

	stats := e.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "test data/s.txt", stats[0].Name)
	assert.Equal(t, 5, stats[0].TokenCount)
	assert.Equal(t, 3, stats[0].Terms)
	assert.Equal(t, int64(3), e.TotalTerms())
}

func TestNewEngine_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	src := memSource(t, map[string]string{"a.txt": "x y", "b.txt": "x"})

	_, err := NewEngine(context.Background(), src, 2, WithMetrics(m))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocsIndexedTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CorpusTerms))
}

func TestOSSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.txt"), []byte("hello hello world"), 0o644))

	src, err := OSSource(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, src.Label)

	e, err := NewEngine(context.Background(), src, 1)
	require.NoError(t, err)
	doc, ok := e.Document(dir + "/page.txt")
	require.True(t, ok)
	assert.Equal(t, 2, doc.OccurrenceCount("hello"))
}
