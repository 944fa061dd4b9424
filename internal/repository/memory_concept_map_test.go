package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termbridge/internal/domain"
)

func mapping(sourceCode string, targetCode string, rel domain.Relationship) *domain.ConceptMap {
	return &domain.ConceptMap{
		SourceCode:   sourceCode,
		SourceSystem: domain.SourceNAMASTE,
		TargetCode:   targetCode,
		TargetSystem: domain.SourceICD11,
		Relationship: rel,
	}
}

func TestMemoryConceptMapRepo_AddAndResolve(t *testing.T) {
	repo := NewMemoryConceptMapRepo()
	ctx := context.Background()

	_, err := repo.Add(ctx, mapping("A01.1", "MG20", domain.RelEquivalent))
	require.NoError(t, err)

	mappings, err := repo.Resolve(ctx, "A01.1", domain.SourceNAMASTE)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "MG20", mappings[0].TargetCode)
	assert.Equal(t, domain.RelEquivalent, mappings[0].Relationship)
}

func TestMemoryConceptMapRepo_ReAddUpdatesRelationshipKind(t *testing.T) {
	repo := NewMemoryConceptMapRepo()
	ctx := context.Background()

	_, err := repo.Add(ctx, mapping("A01.1", "MG20", domain.RelEquivalent))
	require.NoError(t, err)
	_, err = repo.Add(ctx, mapping("A01.1", "MG20", domain.RelRelated))
	require.NoError(t, err)

	mappings, err := repo.Resolve(ctx, "A01.1", domain.SourceNAMASTE)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, domain.RelRelated, mappings[0].Relationship)
}

func TestMemoryConceptMapRepo_ResolveKeepsInsertionOrder(t *testing.T) {
	repo := NewMemoryConceptMapRepo()
	ctx := context.Background()

	_, err := repo.Add(ctx, mapping("A01.1", "MG21", domain.RelRelated))
	require.NoError(t, err)
	_, err = repo.Add(ctx, mapping("A01.1", "MG20", domain.RelEquivalent))
	require.NoError(t, err)

	mappings, err := repo.Resolve(ctx, "A01.1", domain.SourceNAMASTE)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "MG21", mappings[0].TargetCode)
	assert.Equal(t, "MG20", mappings[1].TargetCode)
}

func TestMemoryConceptMapRepo_ResolveSystemIsCaseInsensitive(t *testing.T) {
	repo := NewMemoryConceptMapRepo()
	ctx := context.Background()

	_, err := repo.Add(ctx, mapping("A01.1", "MG20", domain.RelEquivalent))
	require.NoError(t, err)

	mappings, err := repo.Resolve(ctx, "A01.1", domain.SourceSystem("namaste"))
	require.NoError(t, err)
	assert.Len(t, mappings, 1)
}

func TestMemoryConceptMapRepo_ResolveUnknownCode(t *testing.T) {
	repo := NewMemoryConceptMapRepo()

	mappings, err := repo.Resolve(context.Background(), "ZZ99", domain.SourceICD11)
	require.NoError(t, err)
	assert.Empty(t, mappings)
}
