// Package tokenizer provides text tokenisation for the search engine.
// Documents are split on whitespace into raw tokens; each raw token is then
// normalised by dropping every non-letter rune and lower-casing the rest.
// There is no stemming and no stop-word removal, and a token made only of
// punctuation normalises to the empty string.
package tokenizer

import (
	"strings"
	"unicode"
)

// Fields splits text on runs of white space. Line boundaries are treated
// like any other white space.
func Fields(text string) []string {
	return strings.FieldsFunc(text, isSeparator)
}

// isSeparator reports Unicode white space plus the ASCII file, group,
// record and unit separators (U+001C to U+001F), which documents exported
// from other tools use as field breaks.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

// Normalize strips all runes that are not letters from word and lower-cases
// the result.
func Normalize(word string) string {
	var sb strings.Builder
	sb.Grow(len(word))
	for _, r := range word {
		if unicode.IsLetter(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// NormalizeAll normalises every token, preserving order and length.
func NormalizeAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = Normalize(tok)
	}
	return out
}

// Tokenize splits text into normalised tokens. Empty tokens are kept so that
// positions line up with the raw token stream.
func Tokenize(text string) []string {
	return NormalizeAll(Fields(text))
}
