package pipeline

import "fmt"

// Diagnostic codes emitted by the pipeline.
const (
	// DiagMonthFallback is emitted when a column header has no leading
	// digits and the column index is used as the month instead.
	DiagMonthFallback = "month_fallback"
	// DiagYearUnparsed is emitted when the second header row does not
	// contain a parseable year for a column.
	DiagYearUnparsed = "year_unparsed"
	// DiagValueUnparsed is emitted when a non-empty cell cannot be
	// parsed as a cumulative value and degrades to null.
	DiagValueUnparsed = "value_unparsed"
)

// Diagnostic records a silent degradation that occurred during
// inference or reshaping. The pipeline continues past these; callers
// decide whether to surface them.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func diagf(code, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)}
}
