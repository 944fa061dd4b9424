package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelReader reads the spreadsheet format. The first sheet is used unless a
// sheet name is given; the first non-empty row is the header.
type ExcelReader struct {
	r     io.Reader
	sheet string
}

func NewExcelReader(r io.Reader, sheet string) *ExcelReader {
	return &ExcelReader{r: r, sheet: sheet}
}

var _ Reader = (*ExcelReader)(nil)

func (e *ExcelReader) ReadAll(ctx context.Context) ([]Row, error) {
	f, err := excelize.OpenReader(e.r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := e.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	// Skip leading blank rows before the header.
	start := 0
	for start < len(records) && isEmptyRecord(records[start]) {
		start++
	}
	if start >= len(records) {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}
	idx := buildHeaderIndex(records[start])

	var rows []Row
	line := 0
	for _, record := range records[start+1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isEmptyRecord(record) {
			continue
		}
		line++
		rows = append(rows, rowFromRecord(line, idx, record))
	}
	return rows, nil
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if cleanText(cell) != "" {
			return false
		}
	}
	return true
}
