package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"termbridge/internal/domain"
)

// MemoryConceptMapRepo in-memory ConceptMapRepo. Keeps insertion order so
// the resolver's first-inserted-wins policy holds.
type MemoryConceptMapRepo struct {
	mu       sync.RWMutex
	mappings []*domain.ConceptMap
}

func NewMemoryConceptMapRepo() *MemoryConceptMapRepo {
	return &MemoryConceptMapRepo{}
}

var _ ConceptMapRepo = (*MemoryConceptMapRepo)(nil)

func (r *MemoryConceptMapRepo) Add(ctx context.Context, mapping *domain.ConceptMap) (*domain.ConceptMap, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.mappings {
		if m.SourceCode == mapping.SourceCode && m.SourceSystem == mapping.SourceSystem &&
			m.TargetCode == mapping.TargetCode && m.TargetSystem == mapping.TargetSystem {
			m.Relationship = mapping.Relationship
			clone := *m
			return &clone, nil
		}
	}

	stored := *mapping
	stored.CreatedAt = time.Now()
	r.mappings = append(r.mappings, &stored)
	clone := stored
	return &clone, nil
}

func (r *MemoryConceptMapRepo) Resolve(ctx context.Context, code string, system domain.SourceSystem) ([]*domain.ConceptMap, error) {
	if code == "" || system == "" {
		return nil, &domain.ValidationError{Field: "code/system", Reason: "must not be empty"}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.ConceptMap
	for _, m := range r.mappings {
		if m.SourceCode == code && strings.EqualFold(string(m.SourceSystem), string(system)) {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}
