package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/leapstack-labs/csvflow/internal/pipeline"
)

// normalizedHeader is the column order of the normalized CSV artifact.
var normalizedHeader = []string{"factory", "year", "month", "cumulative_value"}

// ReadWideRows parses a wide CSV into raw rows. Rows may be ragged;
// the reshaper tolerates short rows, so no per-record field count is
// enforced.
func ReadWideRows(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// WriteNormalized stores records in the normalized CSV artifact for a
// dataset. Nil years and values serialize as empty fields.
func (r *Repository) WriteNormalized(name string, records []pipeline.Record) error {
	path := r.NormalizedPath(name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create normalized csv %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(normalizedHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("write normalized header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.Factory, formatInt(rec.Year), strconv.Itoa(rec.Month), formatFloat(rec.CumulativeValue)}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("write normalized row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush normalized csv %s: %w", path, err)
	}
	return f.Close()
}

// ReadNormalized reloads the normalized CSV artifact.
func (r *Repository) ReadNormalized(name string) ([]pipeline.Record, error) {
	path := r.NormalizedPath(name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: KindNormalized, Dataset: name, Path: path}
		}
		return nil, fmt.Errorf("open normalized csv %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse normalized csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]pipeline.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(normalizedHeader) {
			return nil, fmt.Errorf("normalized csv %s: row %d has %d fields, want %d",
				path, i+2, len(row), len(normalizedHeader))
		}
		month, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("normalized csv %s: row %d: bad month %q", path, i+2, row[2])
		}
		records = append(records, pipeline.Record{
			Factory:         row[0],
			Year:            parseOptionalInt(row[1]),
			Month:           month,
			CumulativeValue: parseOptionalFloat(row[3]),
		})
	}
	return records, nil
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOptionalInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
