package repository

import (
	"context"

	"termbridge/internal/domain"
)

// ConceptMapRepo is the Concept Map Store contract. Edges are read-only from
// the query path; only ingestion and curation write here. The full directed
// tuple (source_code, source_system, target_code, target_system) is unique:
// a second Add for the same pair updates the relationship kind instead of
// creating a duplicate row.
type ConceptMapRepo interface {
	// Add upserts a directed edge.
	Add(ctx context.Context, mapping *domain.ConceptMap) (*domain.ConceptMap, error)

	// Resolve returns all outgoing edges from (code, system), ordered by
	// insertion. The system comparison is case-insensitive. An empty slice
	// is not an error here; the resolver decides whether that is NotFound.
	Resolve(ctx context.Context, code string, system domain.SourceSystem) ([]*domain.ConceptMap, error)
}
