package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termbridge/internal/domain"
)

var conceptMapColumns = []string{
	"source_code", "source_system", "target_code", "target_system", "relationship", "created_at",
}

func newConceptMapMock(t *testing.T) (*PostgresConceptMapRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresConceptMapRepo(db), mock
}

func TestPostgresConceptMapRepo_Add(t *testing.T) {
	repo, mock := newConceptMapMock(t)
	now := time.Now()

	rows := sqlmock.NewRows(conceptMapColumns).
		AddRow("A01.1", "NAMASTE", "MG20", "ICD-11", "equivalent", now)
	mock.ExpectQuery("INSERT INTO concept_map").
		WithArgs("A01.1", domain.SourceNAMASTE, "MG20", domain.SourceICD11, domain.RelEquivalent).
		WillReturnRows(rows)

	stored, err := repo.Add(context.Background(), &domain.ConceptMap{
		SourceCode:   "A01.1",
		SourceSystem: domain.SourceNAMASTE,
		TargetCode:   "MG20",
		TargetSystem: domain.SourceICD11,
		Relationship: domain.RelEquivalent,
	})
	require.NoError(t, err)
	assert.Equal(t, "MG20", stored.TargetCode)
	assert.Equal(t, domain.RelEquivalent, stored.Relationship)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConceptMapRepo_AddRejectsInvalidMapping(t *testing.T) {
	repo, _ := newConceptMapMock(t)

	_, err := repo.Add(context.Background(), &domain.ConceptMap{
		SourceCode:   "A01.1",
		SourceSystem: domain.SourceNAMASTE,
		TargetCode:   "",
		TargetSystem: domain.SourceICD11,
		Relationship: domain.RelEquivalent,
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestPostgresConceptMapRepo_ResolvePreservesInsertionOrder(t *testing.T) {
	repo, mock := newConceptMapMock(t)
	first := time.Now().Add(-time.Hour)
	second := time.Now()

	rows := sqlmock.NewRows(conceptMapColumns).
		AddRow("A01.1", "NAMASTE", "MG20", "ICD-11", "equivalent", first).
		AddRow("A01.1", "NAMASTE", "MG21", "ICD-11", "related", second)
	mock.ExpectQuery("SELECT (.+) FROM concept_map").
		WithArgs("A01.1", domain.SourceNAMASTE).
		WillReturnRows(rows)

	mappings, err := repo.Resolve(context.Background(), "A01.1", domain.SourceNAMASTE)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "MG20", mappings[0].TargetCode)
	assert.Equal(t, "MG21", mappings[1].TargetCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConceptMapRepo_ResolveNoMappings(t *testing.T) {
	repo, mock := newConceptMapMock(t)

	mock.ExpectQuery("SELECT (.+) FROM concept_map").
		WithArgs("ZZ99", domain.SourceICD11).
		WillReturnRows(sqlmock.NewRows(conceptMapColumns))

	mappings, err := repo.Resolve(context.Background(), "ZZ99", domain.SourceICD11)
	require.NoError(t, err)
	assert.Empty(t, mappings)
}

func TestPostgresConceptMapRepo_ResolveRejectsEmptyArgs(t *testing.T) {
	repo, _ := newConceptMapMock(t)

	_, err := repo.Resolve(context.Background(), "", domain.SourceNAMASTE)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
