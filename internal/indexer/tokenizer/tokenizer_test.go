package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The", "the"},
		{"cat,", "cat"},
		{"don't", "dont"},
		{"C3PO", "cpo"},
		{".", ""},
		{"--", ""},
		{"", ""},
		{"Ümlaut!", "ümlaut"},
		{"MiXeD-CaSe", "mixedcase"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	text := "The cat\nsat on\tthe mat ."
	assert.Equal(t, []string{"The", "cat", "sat", "on", "the", "mat", "."}, Fields(text))
	assert.Equal(t, []string{"the", "cat", "sat", "on", "the", "mat", ""}, Tokenize(text))
}

func TestFields_Separators(t *testing.T) {
	text := "alpha\x1cbeta\x1dgamma\x1edelta\x1fepsilon\u00a0zeta\u2028eta\u3000theta\vfinal"
	assert.Equal(t,
		[]string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "final"},
		Fields(text))
	assert.Empty(t, Fields("\x1c\x1d\x1e\x1f"))
	assert.Equal(t, []string{"a\x1bb"}, Fields("a\x1bb"))
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize(" \n\t "))
}

func BenchmarkTokenize(b *testing.B) {
	text := `Information retrieval systems form the backbone of modern search
        infrastructure. The inverted index maps each term to the documents
        containing it, along with positional information for phrase queries.`
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Tokenize(text)
	}
}
