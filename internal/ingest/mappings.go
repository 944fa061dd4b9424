package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"termbridge/internal/domain"
)

// MappingRow is one raw concept-map record. Err carries a per-row parse
// failure, skipped and reported like any other bad row.
type MappingRow struct {
	Line         int
	SourceCode   string
	SourceSystem string
	TargetCode   string
	TargetSystem string
	Relationship string
	Err          error
}

// MappingSummary reports one concept-map ingestion run.
type MappingSummary struct {
	BatchID string
	Added   int
	Skipped int
	Errors  []*domain.RowError
}

// ReadMappingCSV parses the curated concept-map CSV (columns: source_code,
// source_system, target_code, target_system, relationship).
func ReadMappingCSV(ctx context.Context, r io.Reader) ([]MappingRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := buildHeaderIndex(header)

	var rows []MappingRow
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, MappingRow{Line: line, Err: err})
				continue
			}
			return nil, fmt.Errorf("failed to read mapping CSV row %d: %w", line, err)
		}
		rows = append(rows, MappingRow{
			Line:         line,
			SourceCode:   idx.pick(record, []string{"source_code"}),
			SourceSystem: idx.pick(record, []string{"source_system"}),
			TargetCode:   idx.pick(record, []string{"target_code"}),
			TargetSystem: idx.pick(record, []string{"target_system"}),
			Relationship: idx.pick(record, []string{"relationship"}),
		})
	}
	return rows, nil
}

// RunMappings ingests curated concept-map rows. Same per-row resilience as
// term ingestion: malformed rows are skipped and reported.
func (p *Pipeline) RunMappings(ctx context.Context, r io.Reader) (*MappingSummary, error) {
	rows, err := ReadMappingCSV(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("mapping source unreadable: %w", err)
	}

	summary := &MappingSummary{BatchID: uuid.NewString()}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if row.Err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, &domain.RowError{Row: row.Line, Reason: row.Err.Error()})
			continue
		}
		mapping := &domain.ConceptMap{
			SourceCode:   row.SourceCode,
			SourceSystem: domain.ParseSourceSystem(row.SourceSystem),
			TargetCode:   row.TargetCode,
			TargetSystem: domain.ParseSourceSystem(row.TargetSystem),
			Relationship: domain.ParseRelationship(row.Relationship),
		}
		if _, err := p.concepts.Add(ctx, mapping); err != nil {
			if domain.IsValidation(err) {
				summary.Skipped++
				summary.Errors = append(summary.Errors, &domain.RowError{Row: row.Line, Reason: err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to add mapping row %d: %w", row.Line, err)
		}
		summary.Added++
	}

	p.logger.Info("concept map ingestion finished",
		zap.String("batch_id", summary.BatchID),
		zap.Int("added", summary.Added),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}
