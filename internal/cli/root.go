// Package cli provides the command-line interface for csvflow.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/csvflow/internal/cli/commands"
	"github.com/leapstack-labs/csvflow/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "csvflow",
		Short: "csvflow - CSV normalization pipeline",
		Long: `csvflow converts wide-format cumulative CSV exports into normalized
long-format records stored in SQLite.

The pipeline has four steps: analyze a CSV export to infer its
transform spec, transform it into normalized records, load them into a
per-dataset SQLite database, and query the result. The same operations
are available over a JSON HTTP API and an MCP tool server via "serve".`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))

			ctx := context.WithValue(cmd.Context(), config.ConfigKey(), cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and SQLite
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./csvflow.yaml)")
	rootCmd.PersistentFlags().StringP("workspace", "w", "", "Workspace directory for dataset artifacts")
	rootCmd.PersistentFlags().StringP("delimiter", "d", "", "CSV field delimiter")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json|csv|markdown)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("http-host", "", "HTTP API listen host")
	rootCmd.PersistentFlags().Int("http-port", 0, "HTTP API listen port")
	rootCmd.PersistentFlags().String("mcp-host", "", "MCP server listen host")
	rootCmd.PersistentFlags().Int("mcp-port", 0, "MCP server listen port")
	rootCmd.PersistentFlags().String("mcp-transport", "", "MCP transport (stdio|http)")
	rootCmd.PersistentFlags().Int("max-rows", 0, "Maximum rows returned by a query")
	rootCmd.PersistentFlags().Int("query-timeout", 0, "Query timeout in seconds")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("mcp-transport", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"stdio", "http"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewTransformCommand())
	rootCmd.AddCommand(commands.NewLoadCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewDatasetsCommand())
	rootCmd.AddCommand(commands.NewServeCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
