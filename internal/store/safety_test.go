package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReadOnly_Accepts(t *testing.T) {
	queries := []string{
		"SELECT * FROM factory_data",
		"select factory, month from monthly_values where year = 2024",
		"  SELECT 1",
		"-- leading comment\nSELECT * FROM factory_data",
		"/* block\ncomment */ SELECT * FROM factory_data",
		"SELECT factory FROM factory_data ORDER BY month",
	}
	for _, q := range queries {
		assert.NoError(t, CheckReadOnly(q), "query: %s", q)
	}
}

func TestCheckReadOnly_Rejects(t *testing.T) {
	queries := []string{
		"",
		"DELETE FROM factory_data",
		"INSERT INTO factory_data VALUES ('x', 2024, 1, 1)",
		"UPDATE factory_data SET cumulative_value = 0",
		"DROP TABLE factory_data",
		"CREATE TABLE evil (x)",
		"ALTER TABLE factory_data ADD COLUMN evil",
		"PRAGMA table_info(factory_data)",
		"SELECT * FROM factory_data; DROP TABLE factory_data",
		"select * from factory_data where factory = 'x'; delete from factory_data",
		"WITH x AS (SELECT 1) SELECT * FROM x", // not a leading SELECT
	}
	for _, q := range queries {
		err := CheckReadOnly(q)
		require.Error(t, err, "query: %s", q)
		var unsafe *UnsafeQueryError
		assert.ErrorAs(t, err, &unsafe)
	}
}

func TestCheckReadOnly_CommentHiddenKeyword(t *testing.T) {
	// Keywords inside stripped comments do not trigger rejection.
	assert.NoError(t, CheckReadOnly("SELECT * FROM factory_data -- not a DELETE"))
	assert.NoError(t, CheckReadOnly("SELECT /* DROP */ factory FROM factory_data"))
}

func TestCheckReadOnly_KnownOverReject(t *testing.T) {
	// Documented limitation: a denied word inside a quoted literal is
	// still rejected, the filter is textual.
	err := CheckReadOnly("SELECT * FROM factory_data WHERE factory = 'update plant'")
	assert.Error(t, err)
}
