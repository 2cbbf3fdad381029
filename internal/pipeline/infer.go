package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedHeaderError reports header rows that cannot describe a wide
// CSV: missing, unequal in length, or too short to contain a factory
// column plus at least one data column.
type MalformedHeaderError struct {
	Reason  string
	Row1Len int
	Row2Len int
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed header: %s (row 1 has %d columns, row 2 has %d)",
		e.Reason, e.Row1Len, e.Row2Len)
}

// InferSpec reads the two header rows of a wide CSV and produces a
// TransformSpec describing every data column's (month, year)
// coordinates. The first column is always the factory identifier.
//
// Column order is preserved and no validation is performed on the
// inferred (month, year) pairs; garbage headers produce a garbage but
// internally consistent spec. Degraded inferences (month falling back
// to the column index, unparseable years) are reported as diagnostics.
func InferSpec(header1, header2 []string, delimiter string) (*TransformSpec, []Diagnostic, error) {
	if len(header1) == 0 || len(header2) == 0 {
		return nil, nil, &MalformedHeaderError{
			Reason:  "header rows are missing",
			Row1Len: len(header1),
			Row2Len: len(header2),
		}
	}
	if len(header1) != len(header2) {
		return nil, nil, &MalformedHeaderError{
			Reason:  "header rows have unequal length",
			Row1Len: len(header1),
			Row2Len: len(header2),
		}
	}
	if len(header1) < 2 {
		return nil, nil, &MalformedHeaderError{
			Reason:  "header must contain a factory column and at least one data column",
			Row1Len: len(header1),
			Row2Len: len(header2),
		}
	}
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	var diags []Diagnostic
	columns := make([]ColumnSpec, 0, len(header1)-1)
	for i := 1; i < len(header1); i++ {
		name := header1[i]

		month, ok := leadingInt(name)
		if !ok {
			// Source compatibility: column index stands in for the month
			// when the header carries no digits.
			month = i
			diags = append(diags, diagf(DiagMonthFallback,
				"column %d %q has no leading digits, using column index %d as month", i, name, i))
		}

		var year *int
		yearStr := strings.TrimSpace(header2[i])
		if y, err := strconv.Atoi(yearStr); err == nil {
			year = &y
		} else {
			diags = append(diags, diagf(DiagYearUnparsed,
				"column %d %q has no parseable year (got %q)", i, name, yearStr))
		}

		columns = append(columns, ColumnSpec{
			ColumnIndex: i,
			ColumnName:  name,
			Month:       month,
			Year:        year,
		})
	}

	spec := &TransformSpec{
		FactoryColumn:      header1[0],
		FactoryColumnIndex: 0,
		DataColumns:        columns,
		Delimiter:          delimiter,
	}
	return spec, diags, nil
}

// leadingInt parses the longest leading run of ASCII digits.
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
