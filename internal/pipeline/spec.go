// Package pipeline implements the wide-to-long CSV transform pipeline:
// header inference, cumulative value parsing, reshaping, and monthly
// delta derivation. It is pure computation; all file and database I/O
// lives in the dataset and store packages.
package pipeline

import (
	"encoding/json"
	"fmt"
)

// DefaultDelimiter is the field delimiter used by the source exports.
const DefaultDelimiter = ";"

// ColumnSpec describes one data-bearing column's temporal coordinate.
type ColumnSpec struct {
	// ColumnIndex is the position in the source row, always >= 1.
	ColumnIndex int `json:"column_index"`
	// ColumnName is the raw header text, e.g. "1 kum".
	ColumnName string `json:"column_name"`
	// Month is the leading integer parsed from ColumnName. When the
	// header has no leading digits it falls back to ColumnIndex.
	Month int `json:"month"`
	// Year is parsed from the second header row, nil if unparseable.
	Year *int `json:"year"`
}

// TransformSpec is an immutable description of a wide CSV's shape.
// It is created once by InferSpec, persisted as JSON, and reloaded
// verbatim for every subsequent transform of the same dataset.
type TransformSpec struct {
	DatasetName        string       `json:"dataset_name,omitempty"`
	CSVFilePath        string       `json:"csv_file_path,omitempty"`
	FactoryColumn      string       `json:"factory_column"`
	FactoryColumnIndex int          `json:"factory_column_index"`
	DataColumns        []ColumnSpec `json:"data_columns"`
	Delimiter          string       `json:"delimiter"`
}

// MarshalIndent renders the spec in its persisted JSON form.
func (s *TransformSpec) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal transform spec: %w", err)
	}
	return data, nil
}

// ParseSpec decodes a persisted TransformSpec.
func ParseSpec(data []byte) (*TransformSpec, error) {
	var s TransformSpec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse transform spec: %w", err)
	}
	if s.Delimiter == "" {
		s.Delimiter = DefaultDelimiter
	}
	return &s, nil
}

// DelimiterRune returns the spec's delimiter as a rune for csv.Reader.
func (s *TransformSpec) DelimiterRune() rune {
	if s.Delimiter == "" {
		return rune(DefaultDelimiter[0])
	}
	return []rune(s.Delimiter)[0]
}
