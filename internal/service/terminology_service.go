package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"termbridge/internal/domain"
	"termbridge/internal/index"
	"termbridge/internal/repository"
	"termbridge/internal/search"
)

// TerminologyService orchestrates the term store, the search index and the
// concept map. All mutation funnels through UpsertTerm; the query paths
// never write.
type TerminologyService struct {
	terms    repository.TermsRepo
	concepts repository.ConceptMapRepo
	idx      *index.Index
	engine   *search.Engine
	logger   *zap.Logger
}

func NewTerminologyService(
	terms repository.TermsRepo,
	concepts repository.ConceptMapRepo,
	idx *index.Index,
	engine *search.Engine,
	logger *zap.Logger,
) *TerminologyService {
	return &TerminologyService{
		terms:    terms,
		concepts: concepts,
		idx:      idx,
		engine:   engine,
		logger:   logger,
	}
}

// UpsertTerm writes the term through the store and then re-indexes it. The
// index update is applied after the store commit, so a search racing an
// upsert may briefly see the previous state; the store stays authoritative.
func (s *TerminologyService) UpsertTerm(ctx context.Context, term *domain.Term) (*domain.Term, error) {
	stored, err := s.terms.Upsert(ctx, term)
	if err != nil {
		return nil, err
	}
	s.idx.Upsert(stored)
	return stored, nil
}

// Search runs a ranked query against the index.
func (s *TerminologyService) Search(ctx context.Context, query string) ([]search.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &domain.ValidationError{Field: "q", Reason: "must not be empty"}
	}
	return s.engine.Search(ctx, query)
}

// Translate resolves the cross-system mapping for (code, sourceSystem).
// Case-insensitive on the system name. When several outgoing edges exist the
// first inserted wins; Resolve keeps insertion order for exactly this.
func (s *TerminologyService) Translate(ctx context.Context, code, sourceSystem string) (*domain.ConceptMap, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &domain.ValidationError{Field: "code", Reason: "must not be empty"}
	}
	system := domain.ParseSourceSystem(sourceSystem)
	if system == "" {
		return nil, &domain.ValidationError{Field: "target", Reason: "unknown source system: " + sourceSystem}
	}

	mappings, err := s.concepts.Resolve(ctx, code, system)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, &domain.NotFoundError{What: "concept mapping", Key: fmt.Sprintf("%s/%s", code, system)}
	}
	if len(mappings) > 1 {
		s.logger.Debug("multiple outgoing edges, first inserted wins",
			zap.String("code", code),
			zap.String("system", string(system)),
			zap.Int("edges", len(mappings)))
	}
	return mappings[0], nil
}

// AddMapping stores a directed concept-map edge.
func (s *TerminologyService) AddMapping(ctx context.Context, mapping *domain.ConceptMap) (*domain.ConceptMap, error) {
	return s.concepts.Add(ctx, mapping)
}

// RebuildIndex drops the derived index and rebuilds it from the term store.
func (s *TerminologyService) RebuildIndex(ctx context.Context) error {
	if err := s.idx.Rebuild(ctx, s.terms); err != nil {
		return err
	}
	s.logger.Info("search index rebuilt", zap.Int("terms", s.idx.Len()))
	return nil
}
