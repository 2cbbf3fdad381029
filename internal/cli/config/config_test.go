package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkspace, cfg.Workspace)
	assert.Equal(t, ";", cfg.Delimiter)
	assert.Equal(t, "table", cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, 8001, cfg.HTTP.Port)
	assert.Equal(t, 8000, cfg.MCP.Port)
	assert.Equal(t, "http", cfg.MCP.Transport)
	assert.Equal(t, 1000, cfg.Query.MaxRows)
	assert.Equal(t, 30, cfg.Query.TimeoutSeconds)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "csvflow.yaml")
	content := `workspace: /var/lib/csvflow
delimiter: ","
http:
  port: 9001
query:
  max_rows: 50
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/csvflow", cfg.Workspace)
	assert.Equal(t, ",", cfg.Delimiter)
	assert.Equal(t, 9001, cfg.HTTP.Port)
	assert.Equal(t, 50, cfg.Query.MaxRows)
	// Untouched keys keep their defaults.
	assert.Equal(t, 8000, cfg.MCP.Port)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CSVFLOW_WORKSPACE", "/tmp/envspace")
	t.Setenv("CSVFLOW_HTTP_PORT", "7777")
	t.Setenv("CSVFLOW_MCP_TRANSPORT", "stdio")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/envspace", cfg.Workspace)
	assert.Equal(t, 7777, cfg.HTTP.Port)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
}

func TestLoadConfigFlagsWin(t *testing.T) {
	t.Setenv("CSVFLOW_WORKSPACE", "/tmp/envspace")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("workspace", "", "")
	flags.Int("http-port", 0, "")
	flags.Int("max-rows", 0, "")
	require.NoError(t, flags.Parse([]string{
		"--workspace", "/tmp/flagspace",
		"--http-port", "6060",
		"--max-rows", "10",
	}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/flagspace", cfg.Workspace)
	assert.Equal(t, 6060, cfg.HTTP.Port)
	assert.Equal(t, 10, cfg.Query.MaxRows)
}

func TestLoadConfigUnchangedFlagsIgnored(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("workspace", "", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkspace, cfg.Workspace)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty workspace", func(c *Config) { c.Workspace = "" }, "workspace"},
		{"multi-char delimiter", func(c *Config) { c.Delimiter = ";;" }, "delimiter"},
		{"bad output", func(c *Config) { c.Output = "xml" }, "output format"},
		{"bad transport", func(c *Config) { c.MCP.Transport = "grpc" }, "transport"},
		{"zero max rows", func(c *Config) { c.Query.MaxRows = 0 }, "max_rows"},
		{"zero timeout", func(c *Config) { c.Query.TimeoutSeconds = 0 }, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Workspace: "data",
				Delimiter: ";",
				Output:    "table",
				MCP:       MCPConfig{Transport: "http"},
				Query:     QueryConfig{MaxRows: 100, TimeoutSeconds: 10},
			}
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
