package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > csvflow.yaml > csvflow.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("csvflow.yaml"); err == nil {
		return "csvflow.yaml"
	}
	if _, err := os.Stat("csvflow.yml"); err == nil {
		return "csvflow.yml"
	}
	return ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"workspace":             DefaultWorkspace,
		"delimiter":             DefaultDelimiter,
		"output":                DefaultOutput,
		"verbose":               false,
		"http.host":             DefaultHTTPHost,
		"http.port":             DefaultHTTPPort,
		"mcp.host":              DefaultMCPHost,
		"mcp.port":              DefaultMCPPort,
		"mcp.transport":         DefaultMCPTransport,
		"query.max_rows":        DefaultQueryMaxRows,
		"query.timeout_seconds": DefaultQueryTimeout,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file if present
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (CSVFLOW_ prefix)
	// Transform: CSVFLOW_HTTP_PORT -> http.port
	if err := k.Load(env.Provider("CSVFLOW_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "CSVFLOW_"))
		for _, prefix := range []string{"http_", "mcp_", "query_"} {
			if strings.HasPrefix(key, prefix) {
				return strings.TrimSuffix(prefix, "_") + "." + strings.TrimPrefix(key, prefix)
			}
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case flag names to dotted config keys:
			// --http-port sets http.port, --max-rows sets query.max_rows
			switch f.Name {
			case "http-host", "http-port":
				return "http." + strings.TrimPrefix(f.Name, "http-"), posflag.FlagVal(flags, f)
			case "mcp-host", "mcp-port", "mcp-transport":
				return "mcp." + strings.TrimPrefix(f.Name, "mcp-"), posflag.FlagVal(flags, f)
			case "max-rows":
				return "query.max_rows", posflag.FlagVal(flags, f)
			case "query-timeout":
				return "query.timeout_seconds", posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// ConfigKey returns the context key used for storing the config.
func ConfigKey() interface{} {
	return configKey{}
}

// GetConfig retrieves the config from the command context, or a
// default config when none was stored.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{
		Workspace: DefaultWorkspace,
		Delimiter: DefaultDelimiter,
		Output:    DefaultOutput,
		HTTP:      HTTPConfig{Host: DefaultHTTPHost, Port: DefaultHTTPPort},
		MCP:       MCPConfig{Host: DefaultMCPHost, Port: DefaultMCPPort, Transport: DefaultMCPTransport},
		Query:     QueryConfig{MaxRows: DefaultQueryMaxRows, TimeoutSeconds: DefaultQueryTimeout},
	}
}
