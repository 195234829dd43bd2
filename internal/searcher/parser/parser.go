// Package parser reads batch query files and splits individual queries into
// the terms the ranker scores.
package parser

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/hack-pad/hackpadfs"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/errors"
)

// QueryPlan is a query split into ranking terms. Terms are matched against
// the index verbatim, so "The" and "the" are different terms.
type QueryPlan struct {
	Terms    []string
	RawQuery string
}

// Empty reports whether the query contains no terms. An empty query still
// ranks every document, each at priority zero.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		RawQuery: query,
	}
	plan.Terms = append(plan.Terms, tokenizer.Fields(query)...)
	return plan
}

// ReadQueries reads one query per line from path in fsys. Line terminators
// are stripped; blank lines are kept as empty queries.
func ReadQueries(fsys hackpadfs.FS, path string) ([]string, error) {
	data, err := hackpadfs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrQueryFile, path, err)
	}
	return SplitQueries(data), nil
}

// SplitQueries splits raw query file content into lines, dropping "\n" and
// "\r\n" terminators. A trailing newline does not produce an extra query.
func SplitQueries(data []byte) []string {
	queries := make([]string, 0)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		queries = append(queries, sc.Text())
	}
	return queries
}
