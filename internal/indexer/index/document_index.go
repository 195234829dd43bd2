// Package index builds the per-document word-position index. Every document
// owns one AVL tree mapping each normalised token to the ascending list of
// positions at which it occurs. An index is built once and never mutated
// afterwards, so it may be shared read-only between goroutines.
package index

import (
	"io"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/avl"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/tokenizer"
)

// DocumentIndex is the position index of a single document.
type DocumentIndex struct {
	name       string
	tree       *avl.Tree[string, []int]
	tokenCount int
}

// New builds the index for the document called name from its raw,
// whitespace-delimited tokens. Positions refer to the normalised token
// sequence; tokens that normalise to "" are indexed under the empty key.
func New(name string, tokens []string) *DocumentIndex {
	words := tokenizer.NormalizeAll(tokens)
	tree := avl.New[string, []int]()
	seen := make(map[string]struct{})
	for _, word := range words {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		tree.Put(word, positionsOf(words, word))
	}
	return &DocumentIndex{
		name:       name,
		tree:       tree,
		tokenCount: len(words),
	}
}

// positionsOf scans the whole sequence for word.
func positionsOf(words []string, word string) []int {
	positions := make([]int, 0, 1)
	for i, w := range words {
		if w == word {
			positions = append(positions, i)
		}
	}
	return positions
}

// Name returns the document identifier.
func (d *DocumentIndex) Name() string {
	return d.name
}

// OccurrenceCount returns how many times term occurs in the document, or 0
// if it never does.
func (d *DocumentIndex) OccurrenceCount(term string) int {
	positions, ok := d.tree.Get(term)
	if !ok {
		return 0
	}
	return len(positions)
}

// Positions returns a copy of the positions recorded for term.
func (d *DocumentIndex) Positions(term string) ([]int, bool) {
	positions, ok := d.tree.Get(term)
	if !ok {
		return nil, false
	}
	out := make([]int, len(positions))
	copy(out, positions)
	return out, true
}

// SearchPath exposes the tree keys visited while looking up term.
func (d *DocumentIndex) SearchPath(term string) ([]string, bool) {
	return d.tree.SearchPath(term)
}

// Terms returns the number of distinct normalised tokens.
func (d *DocumentIndex) Terms() int {
	return d.tree.Len()
}

// TokenCount returns the length of the normalised token sequence.
func (d *DocumentIndex) TokenCount() int {
	return d.tokenCount
}

// Postings returns every term of the document in ascending order.
func (d *DocumentIndex) Postings() PostingList {
	result := make(PostingList, 0, d.tree.Len())
	d.tree.Ascend(func(term string, positions []int) bool {
		p := make([]int, len(positions))
		copy(p, positions)
		result = append(result, Posting{
			Term:      term,
			Frequency: len(p),
			Positions: p,
		})
		return true
	})
	return result
}

// Stats summarises the index.
func (d *DocumentIndex) Stats() DocStats {
	return DocStats{
		Name:       d.name,
		TokenCount: d.tokenCount,
		Terms:      d.tree.Len(),
		Height:     d.tree.Height(),
	}
}

// Dump writes the underlying tree for debugging.
func (d *DocumentIndex) Dump(w io.Writer, withValues bool) error {
	return d.tree.Dump(w, withValues)
}
