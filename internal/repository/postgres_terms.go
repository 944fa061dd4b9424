package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"termbridge/internal/domain"
)

// upsertRetries bounds the internal retry on unique-violation races. The
// ON CONFLICT upsert makes a collision nearly impossible, but two first-time
// inserts of the same key can still race under serializable isolation.
const upsertRetries = 3

// PostgresTermsRepo TermsRepo backed by the terms table.
type PostgresTermsRepo struct {
	db *sql.DB
}

func NewPostgresTermsRepo(db *sql.DB) *PostgresTermsRepo {
	return &PostgresTermsRepo{db: db}
}

var _ TermsRepo = (*PostgresTermsRepo)(nil)

func (r *PostgresTermsRepo) Upsert(ctx context.Context, term *domain.Term) (*domain.Term, error) {
	if err := term.Validate(); err != nil {
		return nil, err
	}

	// The DO UPDATE is guarded so an identical payload touches nothing:
	// re-running ingestion over unchanged data leaves the table unchanged,
	// updated_at included. No RETURNING row then means "already current".
	query := `
		INSERT INTO terms (code, source, name, description, synonyms, is_active, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (code, source) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			synonyms = EXCLUDED.synonyms,
			is_active = EXCLUDED.is_active,
			version = EXCLUDED.version,
			updated_at = NOW()
		WHERE (terms.name, terms.description, terms.synonyms, terms.is_active, terms.version)
		      IS DISTINCT FROM
		      (EXCLUDED.name, EXCLUDED.description, EXCLUDED.synonyms, EXCLUDED.is_active, EXCLUDED.version)
		RETURNING code, source, name, description, synonyms, is_active, version, created_at, updated_at
	`

	var lastErr error
	for attempt := 0; attempt < upsertRetries; attempt++ {
		row := r.db.QueryRowContext(ctx, query,
			term.Code, term.Source, term.Name, term.Description,
			domain.JoinSynonyms(term.Synonyms), term.IsActive, term.Version)
		stored, err := scanTerm(row)
		if err == nil {
			return stored, nil
		}
		if err == sql.ErrNoRows {
			// No-op upsert: the stored row already matches the payload.
			return r.Get(ctx, term.Code, term.Source)
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to upsert term %s/%s: %w", term.Code, term.Source, err)
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, &domain.ConflictError{
		Key: fmt.Sprintf("%s/%s", term.Code, term.Source),
		Err: lastErr,
	}
}

func (r *PostgresTermsRepo) Get(ctx context.Context, code string, source domain.SourceSystem) (*domain.Term, error) {
	if code == "" || source == "" {
		return nil, &domain.ValidationError{Field: "code/source", Reason: "must not be empty"}
	}

	query := `
		SELECT code, source, name, description, synonyms, is_active, version, created_at, updated_at
		FROM terms
		WHERE code = $1 AND source = $2
	`
	term, err := scanTerm(r.db.QueryRowContext(ctx, query, code, source))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &domain.NotFoundError{What: "term", Key: fmt.Sprintf("%s/%s", code, source)}
		}
		return nil, fmt.Errorf("failed to get term %s/%s: %w", code, source, err)
	}
	return term, nil
}

func (r *PostgresTermsRepo) ListActive(ctx context.Context, source domain.SourceSystem) ([]*domain.Term, error) {
	query := `
		SELECT code, source, name, description, synonyms, is_active, version, created_at, updated_at
		FROM terms
		WHERE is_active = TRUE
	`
	args := []any{}
	if source != "" {
		query += " AND source = $1"
		args = append(args, source)
	}
	query += " ORDER BY source, code"

	return r.queryTerms(ctx, query, args...)
}

func (r *PostgresTermsRepo) ListAll(ctx context.Context) ([]*domain.Term, error) {
	query := `
		SELECT code, source, name, description, synonyms, is_active, version, created_at, updated_at
		FROM terms
		ORDER BY source, code
	`
	return r.queryTerms(ctx, query)
}

func (r *PostgresTermsRepo) queryTerms(ctx context.Context, query string, args ...any) ([]*domain.Term, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list terms: %w", err)
	}
	defer rows.Close()

	var terms []*domain.Term
	for rows.Next() {
		term, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan term: %w", err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate terms: %w", err)
	}
	return terms, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTerm(row rowScanner) (*domain.Term, error) {
	var term domain.Term
	var description, synonyms, version sql.NullString

	err := row.Scan(
		&term.Code,
		&term.Source,
		&term.Name,
		&description,
		&synonyms,
		&term.IsActive,
		&version,
		&term.CreatedAt,
		&term.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		term.Description = description.String
	}
	if synonyms.Valid {
		term.Synonyms = domain.SplitSynonyms(synonyms.String)
	}
	if version.Valid {
		term.Version = version.String
	}
	return &term, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
