package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"termbridge/internal/domain"
)

// MemoryTermsRepo in-memory TermsRepo for DB-less dev and tests. Same
// semantics as the Postgres implementation, serialized by a mutex instead of
// a uniqueness constraint.
type MemoryTermsRepo struct {
	mu    sync.RWMutex
	terms map[domain.TermKey]*domain.Term
}

func NewMemoryTermsRepo() *MemoryTermsRepo {
	return &MemoryTermsRepo{terms: make(map[domain.TermKey]*domain.Term)}
}

var _ TermsRepo = (*MemoryTermsRepo)(nil)

func (r *MemoryTermsRepo) Upsert(ctx context.Context, term *domain.Term) (*domain.Term, error) {
	if err := term.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := cloneTerm(term)
	stored.UpdatedAt = now
	if existing, ok := r.terms[term.Key()]; ok {
		if sameTermFields(existing, term) {
			// Identical payload: leave the stored row untouched so repeated
			// ingestion runs are true no-ops.
			return cloneTerm(existing), nil
		}
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	r.terms[term.Key()] = stored
	return cloneTerm(stored), nil
}

func sameTermFields(a, b *domain.Term) bool {
	return a.Name == b.Name &&
		a.Description == b.Description &&
		domain.JoinSynonyms(a.Synonyms) == domain.JoinSynonyms(b.Synonyms) &&
		a.IsActive == b.IsActive &&
		a.Version == b.Version
}

func (r *MemoryTermsRepo) Get(ctx context.Context, code string, source domain.SourceSystem) (*domain.Term, error) {
	if code == "" || source == "" {
		return nil, &domain.ValidationError{Field: "code/source", Reason: "must not be empty"}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	term, ok := r.terms[domain.TermKey{Code: code, Source: source}]
	if !ok {
		return nil, &domain.NotFoundError{What: "term", Key: fmt.Sprintf("%s/%s", code, source)}
	}
	return cloneTerm(term), nil
}

func (r *MemoryTermsRepo) ListActive(ctx context.Context, source domain.SourceSystem) ([]*domain.Term, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var terms []*domain.Term
	for _, t := range r.terms {
		if !t.IsActive {
			continue
		}
		if source != "" && t.Source != source {
			continue
		}
		terms = append(terms, cloneTerm(t))
	}
	sortTerms(terms)
	return terms, nil
}

func (r *MemoryTermsRepo) ListAll(ctx context.Context) ([]*domain.Term, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := make([]*domain.Term, 0, len(r.terms))
	for _, t := range r.terms {
		terms = append(terms, cloneTerm(t))
	}
	sortTerms(terms)
	return terms, nil
}

func sortTerms(terms []*domain.Term) {
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Source != terms[j].Source {
			return terms[i].Source < terms[j].Source
		}
		return terms[i].Code < terms[j].Code
	})
}

func cloneTerm(t *domain.Term) *domain.Term {
	c := *t
	c.Synonyms = append([]string(nil), t.Synonyms...)
	return &c
}
