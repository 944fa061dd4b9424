package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is one raw tabular record, located by its 1-based data row number
// (header excluded). Err carries a per-row parse failure; the pipeline skips
// and reports such rows instead of aborting the batch.
type Row struct {
	Line        int
	Code        string
	Name        string
	Description string
	Synonyms    string
	Err         error
}

// Reader yields all rows of one tabular source. An unreadable source is a
// fatal error; malformed individual rows are the pipeline's concern.
type Reader interface {
	ReadAll(ctx context.Context) ([]Row, error)
}

// Source datasets name the same logical columns differently (NAMASTE exports
// vs WHO ICD-11 exports vs hand-maintained sheets). Headers are matched
// case-insensitively after trimming; the first alias with a non-empty cell
// wins.
var (
	codeAliases        = []string{"code", "nms_code", "namc_code", "namccode", "nams_code", "entity-id"}
	nameAliases        = []string{"name", "term_name", "namc_term", "foundation-title", "name english"}
	descriptionAliases = []string{"description", "definition", "short_definition", "long_definition"}
	synonymAliases     = []string{"synonyms", "alternatenames", "name english under index"}
)

// headerIndex maps normalized header names to their column positions.
type headerIndex map[string]int

func buildHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

// pick returns the first non-empty cell among the aliases.
func (idx headerIndex) pick(record []string, aliases []string) string {
	for _, alias := range aliases {
		col, ok := idx[alias]
		if !ok || col >= len(record) {
			continue
		}
		if v := cleanText(record[col]); v != "" {
			return v
		}
	}
	return ""
}

func rowFromRecord(line int, idx headerIndex, record []string) Row {
	return Row{
		Line:        line,
		Code:        idx.pick(record, codeAliases),
		Name:        idx.pick(record, nameAliases),
		Description: idx.pick(record, descriptionAliases),
		Synonyms:    idx.pick(record, synonymAliases),
	}
}

// cleanText collapses runs of whitespace and trims, matching how the source
// spreadsheets are cleaned before indexing.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CSVReader reads the delimited text format with named columns.
type CSVReader struct {
	r io.Reader
}

func NewCSVReader(r io.Reader) *CSVReader {
	return &CSVReader{r: r}
}

var _ Reader = (*CSVReader)(nil)

func (c *CSVReader) ReadAll(ctx context.Context) ([]Row, error) {
	reader := csv.NewReader(c.r)
	reader.FieldsPerRecord = -1 // ragged exports are common, tolerate them

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	// Strip the UTF-8 BOM Excel prepends when exporting CSV.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := buildHeaderIndex(header)

	var rows []Row
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
			// A malformed row (bad quoting etc.) is a row problem, not a
			// source problem; the csv reader recovers on the next record.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, Row{Line: line, Err: err})
				continue
			}
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}
		rows = append(rows, rowFromRecord(line, idx, record))
	}
	return rows, nil
}
