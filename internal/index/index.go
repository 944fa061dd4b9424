package index

import (
	"context"
	"sync"

	"termbridge/internal/domain"
	"termbridge/internal/repository"
)

// FieldMask records which term fields a token occurred in.
type FieldMask uint8

const (
	FieldName FieldMask = 1 << iota
	FieldSynonyms
	FieldDescription
)

func (m FieldMask) Has(f FieldMask) bool { return m&f != 0 }

// postings maps a token to the terms containing it and the fields it came from.
type postings map[string]map[domain.TermKey]FieldMask

func (p postings) add(token string, key domain.TermKey, field FieldMask) {
	entry, ok := p[token]
	if !ok {
		entry = make(map[domain.TermKey]FieldMask)
		p[token] = entry
	}
	entry[key] |= field
}

func (p postings) remove(token string, key domain.TermKey) {
	if entry, ok := p[token]; ok {
		delete(entry, key)
		if len(entry) == 0 {
			delete(p, token)
		}
	}
}

// Index is the derived, rebuildable search index over active terms. It is
// never authoritative: dropping it and calling Rebuild against the Term
// Store loses nothing.
type Index struct {
	mu       sync.RWMutex
	analyzer *IndexAnalyzer
	exact    postings // whole tokens
	prefix   postings // edge n-grams, excluding the whole token
	docs     map[domain.TermKey]*domain.Term
}

func New() *Index {
	return &Index{
		analyzer: NewIndexAnalyzer(),
		exact:    make(postings),
		prefix:   make(postings),
		docs:     make(map[domain.TermKey]*domain.Term),
	}
}

// Upsert incrementally re-indexes one term. Inactive terms are removed:
// they must never surface in search, whatever the match strength.
func (ix *Index) Upsert(term *domain.Term) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := term.Key()
	ix.removeLocked(key)
	if !term.IsActive {
		return
	}
	ix.indexLocked(term)
}

// Remove drops a term from the index.
func (ix *Index) Remove(key domain.TermKey) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(key)
}

// Rebuild scans the whole Term Store and atomically swaps in a fresh index.
// Disaster-recovery path: index corruption or an analyzer change.
func (ix *Index) Rebuild(ctx context.Context, repo repository.TermsRepo) error {
	terms, err := repo.ListActive(ctx, "")
	if err != nil {
		return &domain.UpstreamError{System: "term store", Err: err}
	}

	fresh := New()
	for _, term := range terms {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fresh.indexLocked(term)
	}

	ix.mu.Lock()
	ix.exact = fresh.exact
	ix.prefix = fresh.prefix
	ix.docs = fresh.docs
	ix.mu.Unlock()
	return nil
}

// Len returns the number of indexed terms.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Doc returns the indexed term for key, or nil.
func (ix *Index) Doc(key domain.TermKey) *domain.Term {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docs[key]
}

// ExactMatches returns terms containing token as a whole token.
func (ix *Index) ExactMatches(token string) map[domain.TermKey]FieldMask {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return copyEntry(ix.exact[token])
}

// PrefixMatches returns terms containing a token that begins with token.
// Prefixes shorter than the analyzer's MinGram never match.
func (ix *Index) PrefixMatches(token string) map[domain.TermKey]FieldMask {
	if len([]rune(token)) < ix.analyzer.MinGram {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return copyEntry(ix.prefix[token])
}

// FuzzyMatches returns terms containing a whole token within maxDist edits
// of token. maxDist 0 degenerates to an exact lookup.
func (ix *Index) FuzzyMatches(token string, maxDist int) map[domain.TermKey]FieldMask {
	if maxDist <= 0 {
		return ix.ExactMatches(token)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[domain.TermKey]FieldMask)
	for candidate, entry := range ix.exact {
		if !WithinDistance(token, candidate, maxDist) {
			continue
		}
		for key, mask := range entry {
			out[key] |= mask
		}
	}
	return out
}

func (ix *Index) indexLocked(term *domain.Term) {
	key := term.Key()
	ix.docs[key] = term

	fields := []struct {
		text string
		mask FieldMask
	}{
		{term.Name, FieldName},
		{domain.JoinSynonyms(term.Synonyms), FieldSynonyms},
		{term.Description, FieldDescription},
	}
	for _, f := range fields {
		tokens, prefixes := ix.analyzer.Analyze(f.text)
		for _, tok := range tokens {
			ix.exact.add(tok, key, f.mask)
		}
		for _, gram := range prefixes {
			ix.prefix.add(gram, key, f.mask)
		}
	}
}

func (ix *Index) removeLocked(key domain.TermKey) {
	old, ok := ix.docs[key]
	if !ok {
		return
	}
	delete(ix.docs, key)

	for _, text := range []string{old.Name, domain.JoinSynonyms(old.Synonyms), old.Description} {
		tokens, prefixes := ix.analyzer.Analyze(text)
		for _, tok := range tokens {
			ix.exact.remove(tok, key)
		}
		for _, gram := range prefixes {
			ix.prefix.remove(gram, key)
		}
	}
}

func copyEntry(entry map[domain.TermKey]FieldMask) map[domain.TermKey]FieldMask {
	if entry == nil {
		return nil
	}
	out := make(map[domain.TermKey]FieldMask, len(entry))
	for k, v := range entry {
		out[k] = v
	}
	return out
}
