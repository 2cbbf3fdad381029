package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferSpec(t *testing.T) {
	spec, diags, err := InferSpec(
		[]string{"Factory", "1 kum", "2 kum", "3 kum"},
		[]string{"", "2024", "2024", "2024"},
		";",
	)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, "Factory", spec.FactoryColumn)
	assert.Equal(t, 0, spec.FactoryColumnIndex)
	assert.Equal(t, ";", spec.Delimiter)
	require.Len(t, spec.DataColumns, 3)

	for i, col := range spec.DataColumns {
		assert.Equal(t, i+1, col.ColumnIndex)
		assert.Equal(t, i+1, col.Month)
		require.NotNil(t, col.Year)
		assert.Equal(t, 2024, *col.Year)
	}
}

func TestInferSpec_WidthInvariant(t *testing.T) {
	// data_columns length is always header width minus one.
	for width := 2; width <= 14; width++ {
		h1 := make([]string, width)
		h2 := make([]string, width)
		h1[0] = "Factory"
		for i := 1; i < width; i++ {
			h1[i] = "col"
			h2[i] = "2025"
		}
		spec, _, err := InferSpec(h1, h2, ";")
		require.NoError(t, err)
		assert.Len(t, spec.DataColumns, width-1)
		assert.Equal(t, 0, spec.FactoryColumnIndex)
	}
}

func TestInferSpec_MonthFallback(t *testing.T) {
	spec, diags, err := InferSpec(
		[]string{"Factory", "jan", "2 kum"},
		[]string{"", "2024", "2024"},
		";",
	)
	require.NoError(t, err)

	// "jan" has no leading digits, month degrades to the column index.
	assert.Equal(t, 1, spec.DataColumns[0].Month)
	assert.Equal(t, 2, spec.DataColumns[1].Month)

	require.Len(t, diags, 1)
	assert.Equal(t, DiagMonthFallback, diags[0].Code)
	assert.Contains(t, diags[0].Message, "jan")
}

func TestInferSpec_UnparseableYear(t *testing.T) {
	spec, diags, err := InferSpec(
		[]string{"Factory", "1 kum", "2 kum"},
		[]string{"", "2024", "n/a"},
		";",
	)
	require.NoError(t, err)

	require.NotNil(t, spec.DataColumns[0].Year)
	assert.Nil(t, spec.DataColumns[1].Year)

	require.Len(t, diags, 1)
	assert.Equal(t, DiagYearUnparsed, diags[0].Code)
}

func TestInferSpec_YearWhitespace(t *testing.T) {
	spec, _, err := InferSpec(
		[]string{"Factory", "1 kum"},
		[]string{"", "  2023  "},
		";",
	)
	require.NoError(t, err)
	require.NotNil(t, spec.DataColumns[0].Year)
	assert.Equal(t, 2023, *spec.DataColumns[0].Year)
}

func TestInferSpec_MalformedHeaders(t *testing.T) {
	tests := []struct {
		name string
		h1   []string
		h2   []string
	}{
		{"empty first row", nil, []string{"", "2024"}},
		{"empty second row", []string{"Factory", "1 kum"}, nil},
		{"unequal length", []string{"Factory", "1 kum"}, []string{"", "2024", "2023"}},
		{"too short", []string{"Factory"}, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := InferSpec(tt.h1, tt.h2, ";")
			require.Error(t, err)
			var headerErr *MalformedHeaderError
			assert.ErrorAs(t, err, &headerErr)
		})
	}
}

func TestSpec_JSONRoundTrip(t *testing.T) {
	spec, _, err := InferSpec(
		[]string{"Factory", "1 kum", "np"},
		[]string{"", "2024", "bad"},
		";",
	)
	require.NoError(t, err)
	spec.DatasetName = "plant_output"
	spec.CSVFilePath = "data/plant_output_raw.csv"

	data, err := spec.MarshalIndent()
	require.NoError(t, err)

	reloaded, err := ParseSpec(data)
	require.NoError(t, err)
	assert.Equal(t, spec, reloaded)
}

func TestParseSpec_DefaultDelimiter(t *testing.T) {
	reloaded, err := ParseSpec([]byte(`{"factory_column":"Factory","factory_column_index":0,"data_columns":[]}`))
	require.NoError(t, err)
	assert.Equal(t, ";", reloaded.Delimiter)
	assert.Equal(t, ';', reloaded.DelimiterRune())
}
