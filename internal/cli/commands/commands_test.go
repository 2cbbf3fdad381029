package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/csvflow/internal/cli"
)

const sampleCSV = "Factory;1 kum;2 kum;3 kum\n" +
	";2024;2024;2024\n" +
	"Plant A;1.100;2.200;3.000\n" +
	"Plant B;500;700;900\n"

// runCLI executes the root command with the given args and returns
// stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// writeSample writes the sample CSV to a temp file and returns its path.
func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "production.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func TestAnalyzeCommand(t *testing.T) {
	workspace := t.TempDir()
	csvPath := writeSample(t)

	out, _, err := runCLI(t, "analyze", csvPath, "--workspace", workspace)
	require.NoError(t, err)

	assert.Contains(t, out, "Dataset:        production")
	assert.Contains(t, out, "Factory column: Factory")
	assert.Contains(t, out, "Data columns:   3")
	assert.FileExists(t, filepath.Join(workspace, "production_spec.json"))
	assert.FileExists(t, filepath.Join(workspace, "production_raw.csv"))
}

func TestAnalyzeCommandCustomName(t *testing.T) {
	workspace := t.TempDir()
	csvPath := writeSample(t)

	out, _, err := runCLI(t, "analyze", csvPath, "--name", "My Export", "--workspace", workspace)
	require.NoError(t, err)
	assert.Contains(t, out, "my_export")
}

func TestAnalyzeCommandMissingFile(t *testing.T) {
	workspace := t.TempDir()

	_, _, err := runCLI(t, "analyze", "/nope/missing.csv", "--workspace", workspace)
	require.Error(t, err)
}

func TestFullPipelineCommands(t *testing.T) {
	workspace := t.TempDir()
	csvPath := writeSample(t)

	_, _, err := runCLI(t, "analyze", csvPath, "--workspace", workspace)
	require.NoError(t, err)

	out, _, err := runCLI(t, "transform", "production", "--workspace", workspace)
	require.NoError(t, err)
	assert.Contains(t, out, "Records:    6")

	out, _, err = runCLI(t, "load", "production", "--workspace", workspace)
	require.NoError(t, err)
	assert.Contains(t, out, "Records:   6")
	assert.Contains(t, out, "Factories: 2")
	assert.Contains(t, out, "factory_data, monthly_values")

	out, _, err = runCLI(t, "query", "production",
		"SELECT factory, month, monthly_value FROM monthly_values WHERE factory = 'Plant A' ORDER BY month",
		"--workspace", workspace, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "factory,month,monthly_value")
	assert.Contains(t, out, "Plant A,1,1100")
	assert.Contains(t, out, "Plant A,2,1100")
	assert.Contains(t, out, "Plant A,3,800")
}

func TestQueryCommandFromFile(t *testing.T) {
	workspace := t.TempDir()
	csvPath := writeSample(t)

	_, _, err := runCLI(t, "analyze", csvPath, "--workspace", workspace)
	require.NoError(t, err)
	_, _, err = runCLI(t, "transform", "production", "--workspace", workspace)
	require.NoError(t, err)
	_, _, err = runCLI(t, "load", "production", "--workspace", workspace)
	require.NoError(t, err)

	sqlPath := filepath.Join(t.TempDir(), "report.sql")
	require.NoError(t, os.WriteFile(sqlPath, []byte("SELECT COUNT(*) AS n FROM factory_data"), 0o644))

	out, _, err := runCLI(t, "query", "production",
		"--file", sqlPath, "--workspace", workspace, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "n")
	assert.Contains(t, out, "6")
}

func TestQueryCommandRejectsWrites(t *testing.T) {
	workspace := t.TempDir()
	csvPath := writeSample(t)

	_, _, err := runCLI(t, "analyze", csvPath, "--workspace", workspace)
	require.NoError(t, err)
	_, _, err = runCLI(t, "transform", "production", "--workspace", workspace)
	require.NoError(t, err)
	_, _, err = runCLI(t, "load", "production", "--workspace", workspace)
	require.NoError(t, err)

	_, _, err = runCLI(t, "query", "production", "DROP TABLE factory_data", "--workspace", workspace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SELECT")
}

func TestSchemaCommand(t *testing.T) {
	workspace := t.TempDir()
	csvPath := writeSample(t)

	_, _, err := runCLI(t, "analyze", csvPath, "--workspace", workspace)
	require.NoError(t, err)
	_, _, err = runCLI(t, "transform", "production", "--workspace", workspace)
	require.NoError(t, err)
	_, _, err = runCLI(t, "load", "production", "--workspace", workspace)
	require.NoError(t, err)

	out, _, err := runCLI(t, "schema", "production", "--workspace", workspace)
	require.NoError(t, err)
	assert.Contains(t, out, "Table: factory_data")
	assert.Contains(t, out, "Table: monthly_values")
}

func TestDatasetsCommands(t *testing.T) {
	workspace := t.TempDir()
	csvPath := writeSample(t)

	out, _, err := runCLI(t, "datasets", "list", "--workspace", workspace)
	require.NoError(t, err)
	assert.Contains(t, out, "No datasets found")

	_, _, err = runCLI(t, "analyze", csvPath, "--workspace", workspace)
	require.NoError(t, err)

	out, _, err = runCLI(t, "datasets", "list", "--workspace", workspace)
	require.NoError(t, err)
	assert.Contains(t, out, "production")
	assert.Contains(t, out, "analyzed")

	out, _, err = runCLI(t, "datasets", "delete", "production", "--workspace", workspace)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, _, err = runCLI(t, "datasets", "delete", "production", "--workspace", workspace)
	require.Error(t, err)
}

func TestServeCommandFlagValidation(t *testing.T) {
	workspace := t.TempDir()

	_, _, err := runCLI(t, "serve", "--http-only", "--mcp-only", "--workspace", workspace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")

	_, _, err = runCLI(t, "serve", "--mcp-transport", "stdio", "--workspace", workspace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--mcp-only")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "csvflow v")
}
