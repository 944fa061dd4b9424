package index

import (
	"strings"
	"unicode"
)

// The two analysis pipelines are deliberately asymmetric. Index-time
// analysis expands tokens into edge n-grams so partial words are matchable;
// search-time analysis expands query tokens through the synonym table so
// lexically different but equivalent terms match. They are separate types on
// purpose: do not merge them into one pipeline with a mode flag.

// Tokenize lowercases and splits on any non-letter/non-digit rune.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// IndexAnalyzer produces the tokens stored in the index.
type IndexAnalyzer struct {
	MinGram int // shortest edge n-gram emitted; query prefixes below this never match
}

func NewIndexAnalyzer() *IndexAnalyzer {
	return &IndexAnalyzer{MinGram: 2}
}

// Analyze returns the full tokens of s and the edge n-grams derived from
// them. Prefixes exclude the full token itself so the caller can score exact
// hits above prefix hits.
func (a *IndexAnalyzer) Analyze(s string) (tokens, prefixes []string) {
	tokens = Tokenize(s)
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		runes := []rune(tok)
		for n := a.MinGram; n < len(runes); n++ {
			gram := string(runes[:n])
			if _, ok := seen[gram]; ok {
				continue
			}
			seen[gram] = struct{}{}
			prefixes = append(prefixes, gram)
		}
	}
	return tokens, prefixes
}

// SearchAnalyzer produces the tokens looked up at query time. The synonym
// table maps a token to its equivalence class; every member is considered a
// match candidate.
type SearchAnalyzer struct {
	Synonyms map[string][]string // lowercased token -> alternates
}

func NewSearchAnalyzer(synonyms map[string][]string) *SearchAnalyzer {
	if synonyms == nil {
		synonyms = map[string][]string{}
	}
	return &SearchAnalyzer{Synonyms: synonyms}
}

// Classes tokenizes the query and returns one equivalence class per query
// token: the token itself first, then its synonyms, deduplicated across
// classes. Scoring treats each class as a single query concept.
func (a *SearchAnalyzer) Classes(query string) [][]string {
	tokens := Tokenize(query)
	var out [][]string
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		class := []string{tok}
		for _, syn := range a.Synonyms[tok] {
			if _, ok := seen[syn]; ok {
				continue
			}
			seen[syn] = struct{}{}
			class = append(class, syn)
		}
		out = append(out, class)
	}
	return out
}

// Analyze tokenizes the query and appends synonym expansions, deduplicated,
// original tokens first.
func (a *SearchAnalyzer) Analyze(query string) []string {
	tokens := Tokenize(query)
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, tok := range tokens {
		add(tok)
	}
	for _, tok := range tokens {
		for _, syn := range a.Synonyms[tok] {
			add(syn)
		}
	}
	return out
}
