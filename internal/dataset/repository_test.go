package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/csvflow/internal/pipeline"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(t.TempDir())
	require.NoError(t, err)
	return repo
}

func testSpec(t *testing.T) *pipeline.TransformSpec {
	t.Helper()
	spec, _, err := pipeline.InferSpec(
		[]string{"Factory", "1 kum", "2 kum"},
		[]string{"", "2024", "2024"},
		";",
	)
	require.NoError(t, err)
	return spec
}

func TestRepository_SpecRoundTrip(t *testing.T) {
	repo := testRepo(t)
	spec := testSpec(t)
	spec.DatasetName = "plant_output"

	require.NoError(t, repo.SaveSpec("plant_output", spec))

	reloaded, err := repo.LoadSpec("plant_output")
	require.NoError(t, err)
	assert.Equal(t, spec, reloaded)
}

func TestRepository_LoadSpec_Missing(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.LoadSpec("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, KindSpec, nf.Kind)
	assert.Equal(t, repo.SpecPath("nope"), nf.Path)
}

func TestRepository_RawCSV(t *testing.T) {
	repo := testRepo(t)
	content := "Factory;1 kum\n;2024\nPlant A;100\n"

	require.NoError(t, repo.SaveRawCSV("d", []byte(content)))

	f, err := repo.OpenRawCSV("d")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := ReadWideRows(f, ';')
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Plant A", "100"}, rows[2])
}

func TestRepository_ImportRawCSV(t *testing.T) {
	repo := testRepo(t)

	src := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(src, []byte("Factory;1 kum\n"), 0o644))

	require.NoError(t, repo.ImportRawCSV("d", src))

	copied, err := os.ReadFile(repo.RawCSVPath("d"))
	require.NoError(t, err)
	assert.Equal(t, "Factory;1 kum\n", string(copied))
}

func TestRepository_ImportRawCSV_Missing(t *testing.T) {
	repo := testRepo(t)
	err := repo.ImportRawCSV("d", filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_NormalizedRoundTrip(t *testing.T) {
	repo := testRepo(t)
	year := 2024
	hundred := 100.0
	records := []pipeline.Record{
		{Factory: " Plant A ", Year: &year, Month: 1, CumulativeValue: &hundred},
		{Factory: "Plant B", Year: nil, Month: 2, CumulativeValue: nil},
	}

	require.NoError(t, repo.WriteNormalized("d", records))

	reloaded, err := repo.ReadNormalized("d")
	require.NoError(t, err)
	assert.Equal(t, records, reloaded)
}

func TestRepository_ReadNormalized_Missing(t *testing.T) {
	repo := testRepo(t)
	_, err := repo.ReadNormalized("nope")
	require.Error(t, err)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, KindNormalized, nf.Kind)
}

func TestRepository_ListAndStatus(t *testing.T) {
	repo := testRepo(t)
	spec := testSpec(t)

	// analyzed: spec + raw only
	require.NoError(t, repo.SaveSpec("alpha", spec))
	require.NoError(t, repo.SaveRawCSV("alpha", []byte("x")))

	// transformed: spec + raw + normalized
	require.NoError(t, repo.SaveSpec("beta", spec))
	require.NoError(t, repo.SaveRawCSV("beta", []byte("x")))
	require.NoError(t, repo.WriteNormalized("beta", nil))

	// ready: everything
	require.NoError(t, repo.SaveSpec("gamma", spec))
	require.NoError(t, repo.SaveRawCSV("gamma", []byte("x")))
	require.NoError(t, repo.WriteNormalized("gamma", nil))
	require.NoError(t, os.WriteFile(repo.DatabasePath("gamma"), []byte("x"), 0o644))

	infos, err := repo.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, StatusAnalyzed, infos[0].Status)
	assert.Equal(t, StatusTransformed, infos[1].Status)
	assert.Equal(t, StatusLoaded, infos[2].Status)
}

func TestRepository_Delete(t *testing.T) {
	repo := testRepo(t)
	require.NoError(t, repo.SaveSpec("d", testSpec(t)))
	require.NoError(t, repo.SaveRawCSV("d", []byte("x")))
	require.True(t, repo.Exists("d"))

	result, err := repo.Delete("d")
	require.NoError(t, err)
	assert.Len(t, result.Deleted, 2)
	assert.Len(t, result.Missing, 2)
	assert.False(t, repo.Exists("d"))

	for _, p := range result.Deleted {
		assert.True(t, strings.HasPrefix(p, repo.Root()))
	}
}

func TestLocks_SerializePerName(t *testing.T) {
	locks := NewLocks()

	release := locks.Acquire("a")
	acquired := make(chan struct{})
	go func() {
		r := locks.Acquire("a")
		close(acquired)
		r()
	}()

	// A different dataset is not blocked.
	releaseB := locks.Acquire("b")
	releaseB()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	default:
	}

	release()
	<-acquired
}
