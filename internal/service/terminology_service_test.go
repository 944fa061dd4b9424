package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"termbridge/internal/domain"
	"termbridge/internal/index"
	"termbridge/internal/repository"
	"termbridge/internal/search"
)

func newTestService() (*TerminologyService, *repository.MemoryTermsRepo) {
	terms := repository.NewMemoryTermsRepo()
	concepts := repository.NewMemoryConceptMapRepo()
	idx := index.New()
	engine := search.NewEngine(idx, nil)
	return NewTerminologyService(terms, concepts, idx, engine, zap.NewNop()), terms
}

func TestUpsertTerm_VisibleInSearch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpsertTerm(ctx, &domain.Term{
		Code:     "MG20",
		Source:   domain.SourceICD11,
		Name:     "Fever",
		IsActive: true,
	})
	require.NoError(t, err)

	hits, err := svc.Search(ctx, "fever")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "MG20", hits[0].Term.Code)
}

func TestUpsertTerm_DeactivationRemovesFromSearch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	term := &domain.Term{Code: "MG20", Source: domain.SourceICD11, Name: "Fever", IsActive: true}
	_, err := svc.UpsertTerm(ctx, term)
	require.NoError(t, err)

	term.IsActive = false
	_, err = svc.UpsertTerm(ctx, term)
	require.NoError(t, err)

	hits, err := svc.Search(ctx, "fever")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_RejectsBlankQuery(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Search(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestTranslate_RoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddMapping(ctx, &domain.ConceptMap{
		SourceCode:   "A01.1",
		SourceSystem: domain.SourceNAMASTE,
		TargetCode:   "MG20",
		TargetSystem: domain.SourceICD11,
		Relationship: domain.RelEquivalent,
	})
	require.NoError(t, err)

	mapping, err := svc.Translate(ctx, "A01.1", "NAMASTE")
	require.NoError(t, err)
	assert.Equal(t, "MG20", mapping.TargetCode)
	assert.Equal(t, domain.SourceICD11, mapping.TargetSystem)
	assert.Equal(t, domain.RelEquivalent, mapping.Relationship)
}

func TestTranslate_SystemNameIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddMapping(ctx, &domain.ConceptMap{
		SourceCode:   "A01.1",
		SourceSystem: domain.SourceNAMASTE,
		TargetCode:   "MG20",
		TargetSystem: domain.SourceICD11,
		Relationship: domain.RelEquivalent,
	})
	require.NoError(t, err)

	mapping, err := svc.Translate(ctx, "A01.1", "namaste")
	require.NoError(t, err)
	assert.Equal(t, "MG20", mapping.TargetCode)
}

func TestTranslate_WrongSystemNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddMapping(ctx, &domain.ConceptMap{
		SourceCode:   "A01.1",
		SourceSystem: domain.SourceNAMASTE,
		TargetCode:   "MG20",
		TargetSystem: domain.SourceICD11,
		Relationship: domain.RelEquivalent,
	})
	require.NoError(t, err)

	// The code exists but not under this system.
	_, err = svc.Translate(ctx, "A01.1", "ICD-11")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestTranslate_UnknownSystemRejected(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Translate(context.Background(), "A01.1", "SNOMED")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestTranslate_FirstInsertedWins(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, target := range []string{"MG21", "MG20"} {
		_, err := svc.AddMapping(ctx, &domain.ConceptMap{
			SourceCode:   "A01.1",
			SourceSystem: domain.SourceNAMASTE,
			TargetCode:   target,
			TargetSystem: domain.SourceICD11,
			Relationship: domain.RelRelated,
		})
		require.NoError(t, err)
	}

	mapping, err := svc.Translate(ctx, "A01.1", "NAMASTE")
	require.NoError(t, err)
	assert.Equal(t, "MG21", mapping.TargetCode)
}

func TestRebuildIndex(t *testing.T) {
	svc, terms := newTestService()
	ctx := context.Background()

	_, err := terms.Upsert(ctx, &domain.Term{
		Code: "MG20", Source: domain.SourceICD11, Name: "Fever", IsActive: true,
	})
	require.NoError(t, err)
	_, err = terms.Upsert(ctx, &domain.Term{
		Code: "OLD1", Source: domain.SourceICD11, Name: "Retired", IsActive: false,
	})
	require.NoError(t, err)

	// Terms written directly to the store are invisible until a rebuild.
	hits, err := svc.Search(ctx, "fever")
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, svc.RebuildIndex(ctx))

	hits, err = svc.Search(ctx, "fever")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = svc.Search(ctx, "retired")
	require.NoError(t, err)
	assert.Empty(t, hits)
}
