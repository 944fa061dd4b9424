package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "Fever", []string{"fever"}},
		{"multi word", "Fever of unknown origin", []string{"fever", "of", "unknown", "origin"}},
		{"punctuation split", "joint-pain, stiffness", []string{"joint", "pain", "stiffness"}},
		{"digits kept", "ICD-11 MG20", []string{"icd", "11", "mg20"}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestIndexAnalyzer_EdgeNgrams(t *testing.T) {
	a := NewIndexAnalyzer()

	tokens, prefixes := a.Analyze("Fever")
	assert.Equal(t, []string{"fever"}, tokens)
	// Prefixes of length >= MinGram, excluding the full token.
	assert.Equal(t, []string{"fe", "fev", "feve"}, prefixes)
}

func TestIndexAnalyzer_ShortTokenHasNoPrefixes(t *testing.T) {
	a := NewIndexAnalyzer()

	tokens, prefixes := a.Analyze("of")
	assert.Equal(t, []string{"of"}, tokens)
	assert.Empty(t, prefixes)
}

func TestIndexAnalyzer_DeduplicatesPrefixes(t *testing.T) {
	a := NewIndexAnalyzer()

	_, prefixes := a.Analyze("fever feverish")
	count := 0
	for _, p := range prefixes {
		if p == "fe" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSearchAnalyzer_SynonymExpansion(t *testing.T) {
	a := NewSearchAnalyzer(map[string][]string{
		"fever": {"pyrexia", "jvara"},
	})

	assert.Equal(t, []string{"fever", "pyrexia", "jvara"}, a.Analyze("Fever"))
	// Unknown tokens pass through untouched.
	assert.Equal(t, []string{"migraine"}, a.Analyze("migraine"))
}

func TestSearchAnalyzer_Classes(t *testing.T) {
	a := NewSearchAnalyzer(map[string][]string{
		"fever": {"pyrexia"},
	})

	classes := a.Classes("high fever")
	assert.Equal(t, [][]string{{"high"}, {"fever", "pyrexia"}}, classes)
}

func TestSearchAnalyzer_NilTable(t *testing.T) {
	a := NewSearchAnalyzer(nil)
	assert.Equal(t, []string{"fever"}, a.Analyze("fever"))
}

// The two pipelines must stay asymmetric: the index side never expands
// synonyms and the search side never emits n-grams.
func TestAnalyzersAreAsymmetric(t *testing.T) {
	ia := NewIndexAnalyzer()
	sa := NewSearchAnalyzer(map[string][]string{"fever": {"pyrexia"}})

	tokens, _ := ia.Analyze("fever")
	assert.NotContains(t, tokens, "pyrexia")

	out := sa.Analyze("fever")
	assert.NotContains(t, out, "fe")
	assert.NotContains(t, out, "fev")
}
