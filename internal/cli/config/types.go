// Package config loads csvflow configuration from files, environment
// variables, and CLI flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	Workspace string      `koanf:"workspace"`
	Delimiter string      `koanf:"delimiter"`
	Output    string      `koanf:"output"`
	Verbose   bool        `koanf:"verbose"`
	HTTP      HTTPConfig  `koanf:"http"`
	MCP       MCPConfig   `koanf:"mcp"`
	Query     QueryConfig `koanf:"query"`
}

// HTTPConfig configures the JSON API server.
type HTTPConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	Transport string `koanf:"transport"`
}

// QueryConfig bounds query execution.
type QueryConfig struct {
	MaxRows        int `koanf:"max_rows"`
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// Default configuration values.
const (
	DefaultWorkspace    = "data"
	DefaultDelimiter    = ";"
	DefaultOutput       = "table"
	DefaultHTTPHost     = "127.0.0.1"
	DefaultHTTPPort     = 8001
	DefaultMCPHost      = "127.0.0.1"
	DefaultMCPPort      = 8000
	DefaultMCPTransport = "http"
	DefaultQueryMaxRows = 1000
	DefaultQueryTimeout = 30
)
