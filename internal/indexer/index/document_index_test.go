package index

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/tokenizer"
)

func TestDocumentIndex_Scenario(t *testing.T) {
	doc := New("doc.txt", []string{"The", "cat", "sat", "on", "the", "mat", "."})

	assert.Equal(t, "doc.txt", doc.Name())
	assert.Equal(t, 2, doc.OccurrenceCount("the"))
	assert.Equal(t, 1, doc.OccurrenceCount("cat"))
	assert.Equal(t, 0, doc.OccurrenceCount("dog"))
	assert.Equal(t, 0, doc.OccurrenceCount("The"), "lookups are not normalised")

	// The trailing "." becomes a real, empty key.
	assert.Equal(t, 1, doc.OccurrenceCount(""))
	positions, ok := doc.Positions("")
	require.True(t, ok)
	assert.Equal(t, []int{6}, positions)

	positions, ok = doc.Positions("the")
	require.True(t, ok)
	assert.Equal(t, []int{0, 4}, positions)

	assert.Equal(t, 7, doc.TokenCount())
	assert.Equal(t, 6, doc.Terms())
}

func TestDocumentIndex_PositionsAreCopies(t *testing.T) {
	doc := New("a", []string{"x", "y", "x"})
	p, ok := doc.Positions("x")
	require.True(t, ok)
	p[0] = 100
	again, _ := doc.Positions("x")
	assert.Equal(t, []int{0, 2}, again)
}

func TestDocumentIndex_Empty(t *testing.T) {
	doc := New("empty", nil)
	assert.Equal(t, 0, doc.OccurrenceCount("anything"))
	assert.Equal(t, 0, doc.Terms())
	assert.Empty(t, doc.Postings())
	_, ok := doc.Positions("anything")
	assert.False(t, ok)
}

func TestDocumentIndex_CountsMatchNormalizedSequence(t *testing.T) {
	vocab := []string{"Alpha", "beta,", "GAMMA", "delta!", "...", "alpha", "Beta"}
	rng := rand.New(rand.NewSource(7))
	raw := make([]string, 2000)
	for i := range raw {
		raw[i] = vocab[rng.Intn(len(vocab))]
	}
	doc := New("random", raw)

	want := make(map[string]int)
	for _, w := range tokenizer.NormalizeAll(raw) {
		want[w]++
	}
	assert.Equal(t, len(want), doc.Terms())
	for term, n := range want {
		assert.Equal(t, n, doc.OccurrenceCount(term), "term %q", term)
	}

	total := 0
	prev := ""
	for i, p := range doc.Postings() {
		if i > 0 {
			assert.Less(t, prev, p.Term)
		}
		prev = p.Term
		assert.Equal(t, len(p.Positions), p.Frequency)
		assert.IsIncreasing(t, p.Positions)
		total += p.Frequency
	}
	assert.Equal(t, len(raw), total)
}

func TestDocumentIndex_SearchPath(t *testing.T) {
	doc := New("p", strings.Fields("b a c"))
	path, found := doc.SearchPath("c")
	assert.True(t, found)
	assert.Equal(t, []string{"b", "c"}, path)

	path, found = doc.SearchPath("zzz")
	assert.False(t, found)
	assert.Equal(t, []string{"b", "c"}, path)
}

func TestDocumentIndex_Stats(t *testing.T) {
	doc := New("s", strings.Fields("one two three two one"))
	stats := doc.Stats()
	assert.Equal(t, DocStats{Name: "s", TokenCount: 5, Terms: 3, Height: 2}, stats)
}

func BenchmarkNew(b *testing.B) {
	words := make([]string, 0, 2000)
	for i := 0; i < 2000; i++ {
		words = append(words, fmt.Sprintf("word%c", 'a'+rune(i%26)))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = New("bench", words)
	}
}
