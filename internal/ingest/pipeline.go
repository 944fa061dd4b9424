package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"termbridge/internal/domain"
	"termbridge/internal/index"
	"termbridge/internal/repository"
)

// placeholderValues are marker cells the source spreadsheets leak for broken
// formulas or intentionally blank entries. Rows carrying one are skipped.
var placeholderValues = map[string]struct{}{
	"#name?": {},
	"n/a":    {},
}

// Summary reports one ingestion run. Row errors accumulate; they never abort
// the batch.
type Summary struct {
	BatchID  string
	Source   domain.SourceSystem
	Version  string
	Inserted int
	Updated  int
	Skipped  int
	Errors   []*domain.RowError
}

// Pipeline normalizes tabular rows into Term Store records and upserts them
// idempotently: re-running over unchanged source data is a no-op. Each row
// moves through validate -> transform -> upsert independently; a bad row is
// counted and skipped, only an unreadable source is fatal.
type Pipeline struct {
	terms    repository.TermsRepo
	concepts repository.ConceptMapRepo
	idx      *index.Index // optional; nil when the server rebuilds on start
	logger   *zap.Logger
}

func NewPipeline(terms repository.TermsRepo, concepts repository.ConceptMapRepo, idx *index.Index, logger *zap.Logger) *Pipeline {
	return &Pipeline{terms: terms, concepts: concepts, idx: idx, logger: logger}
}

// Run ingests one term source into the Term Store.
func (p *Pipeline) Run(ctx context.Context, reader Reader, source domain.SourceSystem, version string) (*Summary, error) {
	rows, err := reader.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingestion source unreadable: %w", err)
	}

	summary := &Summary{
		BatchID: uuid.NewString(),
		Source:  source,
		Version: version,
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if row.Err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, &domain.RowError{Row: row.Line, Reason: row.Err.Error()})
			continue
		}
		if reason := validateRow(row); reason != "" {
			summary.Skipped++
			summary.Errors = append(summary.Errors, &domain.RowError{Row: row.Line, Reason: reason})
			continue
		}

		term := &domain.Term{
			Code:        row.Code,
			Source:      source,
			Name:        row.Name,
			Description: row.Description,
			Synonyms:    domain.SplitSynonyms(row.Synonyms),
			IsActive:    true,
			Version:     version,
		}

		// Existence check is for counting only; correctness rests on the
		// store's atomic upsert, not on this read.
		_, getErr := p.terms.Get(ctx, term.Code, term.Source)
		existed := getErr == nil

		stored, err := p.terms.Upsert(ctx, term)
		if err != nil {
			if domain.IsValidation(err) {
				summary.Skipped++
				summary.Errors = append(summary.Errors, &domain.RowError{Row: row.Line, Reason: err.Error()})
				continue
			}
			// Store failures are not row problems; abort the run.
			return nil, fmt.Errorf("failed to upsert row %d: %w", row.Line, err)
		}

		if existed {
			summary.Updated++
		} else {
			summary.Inserted++
		}
		if p.idx != nil {
			p.idx.Upsert(stored)
		}
	}

	p.logger.Info("term ingestion finished",
		zap.String("batch_id", summary.BatchID),
		zap.String("source", string(summary.Source)),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func validateRow(row Row) string {
	if row.Code == "" || isPlaceholder(row.Code) {
		return "missing or placeholder code"
	}
	if row.Name == "" || isPlaceholder(row.Name) {
		return "missing or placeholder name"
	}
	return ""
}

func isPlaceholder(v string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
