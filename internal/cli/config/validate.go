package config

import "fmt"

var validOutputs = map[string]bool{
	"table":    true,
	"json":     true,
	"csv":      true,
	"markdown": true,
}

var validTransports = map[string]bool{
	"stdio": true,
	"http":  true,
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace is required")
	}
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid output format %q (valid: table, json, csv, markdown)", c.Output)
	}
	if !validTransports[c.MCP.Transport] {
		return fmt.Errorf("invalid mcp transport %q (valid: stdio, http)", c.MCP.Transport)
	}
	if c.Query.MaxRows <= 0 {
		return fmt.Errorf("query.max_rows must be positive, got %d", c.Query.MaxRows)
	}
	if c.Query.TimeoutSeconds <= 0 {
		return fmt.Errorf("query.timeout_seconds must be positive, got %d", c.Query.TimeoutSeconds)
	}
	return nil
}
