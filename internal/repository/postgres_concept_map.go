package repository

import (
	"context"
	"database/sql"
	"fmt"

	"termbridge/internal/domain"
)

// PostgresConceptMapRepo ConceptMapRepo backed by the concept_map table.
type PostgresConceptMapRepo struct {
	db *sql.DB
}

func NewPostgresConceptMapRepo(db *sql.DB) *PostgresConceptMapRepo {
	return &PostgresConceptMapRepo{db: db}
}

var _ ConceptMapRepo = (*PostgresConceptMapRepo)(nil)

func (r *PostgresConceptMapRepo) Add(ctx context.Context, mapping *domain.ConceptMap) (*domain.ConceptMap, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	// One relationship row per directed pair: a re-add updates the kind.
	query := `
		INSERT INTO concept_map (source_code, source_system, target_code, target_system, relationship)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_code, source_system, target_code, target_system) DO UPDATE SET
			relationship = EXCLUDED.relationship
		RETURNING source_code, source_system, target_code, target_system, relationship, created_at
	`

	var stored domain.ConceptMap
	err := r.db.QueryRowContext(ctx, query,
		mapping.SourceCode, mapping.SourceSystem,
		mapping.TargetCode, mapping.TargetSystem,
		mapping.Relationship,
	).Scan(
		&stored.SourceCode, &stored.SourceSystem,
		&stored.TargetCode, &stored.TargetSystem,
		&stored.Relationship, &stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add concept mapping %s/%s: %w",
			mapping.SourceCode, mapping.SourceSystem, err)
	}
	return &stored, nil
}

func (r *PostgresConceptMapRepo) Resolve(ctx context.Context, code string, system domain.SourceSystem) ([]*domain.ConceptMap, error) {
	if code == "" || system == "" {
		return nil, &domain.ValidationError{Field: "code/system", Reason: "must not be empty"}
	}

	// First inserted wins downstream, so insertion order matters here.
	query := `
		SELECT source_code, source_system, target_code, target_system, relationship, created_at
		FROM concept_map
		WHERE source_code = $1 AND UPPER(source_system) = UPPER($2)
		ORDER BY created_at, target_system, target_code
	`

	rows, err := r.db.QueryContext(ctx, query, code, system)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve concept mappings for %s/%s: %w", code, system, err)
	}
	defer rows.Close()

	var mappings []*domain.ConceptMap
	for rows.Next() {
		var m domain.ConceptMap
		if err := rows.Scan(
			&m.SourceCode, &m.SourceSystem,
			&m.TargetCode, &m.TargetSystem,
			&m.Relationship, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan concept mapping: %w", err)
		}
		mappings = append(mappings, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate concept mappings: %w", err)
	}
	return mappings, nil
}
