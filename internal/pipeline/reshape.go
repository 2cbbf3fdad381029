package pipeline

import "strings"

// Record is one normalized fact: a factory's cumulative value for one
// (year, month). Year is nil when the source header carried no
// parseable year; CumulativeValue is nil when the cell was empty or
// unparseable.
type Record struct {
	Factory         string   `json:"factory"`
	Year            *int     `json:"year"`
	Month           int      `json:"month"`
	CumulativeValue *float64 `json:"cumulative_value"`
}

// Reshape applies a TransformSpec to the data rows of a wide CSV,
// producing one Record per (row, data column) pair. The rows must
// already exclude the two header rows.
//
// Empty rows and rows whose first cell is blank after trimming are
// skipped, tolerating spacer rows in the source export. The factory
// cell itself is not trimmed: factory names are store keys and must
// round-trip byte for byte. Columns whose index falls beyond a short
// row are silently skipped.
//
// Output order is row order then spec column order; no sorting or
// deduplication happens here. Duplicate (factory, year, month) keys
// are resolved by the store's upsert, last row wins.
func Reshape(rows [][]string, spec *TransformSpec) ([]Record, []Diagnostic) {
	var (
		records []Record
		diags   []Diagnostic
	)
	for rowNum, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		factory := row[spec.FactoryColumnIndex]

		for _, col := range spec.DataColumns {
			if col.ColumnIndex >= len(row) {
				continue
			}
			raw := row[col.ColumnIndex]
			value := ParseCumulative(raw)
			if value == nil && strings.TrimSpace(raw) != "" {
				diags = append(diags, diagf(DiagValueUnparsed,
					"row %d column %q: cannot parse %q, storing null", rowNum+1, col.ColumnName, raw))
			}
			records = append(records, Record{
				Factory:         factory,
				Year:            col.Year,
				Month:           col.Month,
				CumulativeValue: value,
			})
		}
	}
	return records, diags
}
