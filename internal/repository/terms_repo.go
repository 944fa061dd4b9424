package repository

import (
	"context"

	"termbridge/internal/domain"
)

// TermsRepo is the Term Store contract. Upsert by (code, source) is the only
// write path; terms are never physically deleted (is_active=false instead,
// so existing concept maps keep a valid referent).
type TermsRepo interface {
	// Upsert inserts the term or overwrites all fields except code/source.
	// Concurrent upserts of the same key serialize at the storage layer
	// (last committed wins); conflicts are retried internally.
	Upsert(ctx context.Context, term *domain.Term) (*domain.Term, error)

	// Get returns the term for (code, source), or a NotFoundError.
	Get(ctx context.Context, code string, source domain.SourceSystem) (*domain.Term, error)

	// ListActive returns active terms, optionally filtered by source
	// (source == "" means all systems). Used by the indexer rebuild.
	ListActive(ctx context.Context, source domain.SourceSystem) ([]*domain.Term, error)

	// ListAll returns every term including inactive ones (audit path).
	ListAll(ctx context.Context) ([]*domain.Term, error)
}
