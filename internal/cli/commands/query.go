package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/csvflow/internal/store"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var (
		queryFile string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "query <dataset> [sql]",
		Short: "Run a read-only SQL query against a loaded dataset",
		Long: `Query executes a SELECT statement against the dataset's SQLite
database. The statement comes from the second argument, from a file
via --file, or from stdin when the argument is "-".

Only SELECT statements are accepted; the database is opened read-only.`,
		Example: `  csvflow query production "SELECT * FROM monthly_values WHERE month = 6"
  csvflow query production --file report.sql
  echo "SELECT COUNT(*) FROM factory_data" | csvflow query production -`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			query, err := resolveQuery(args, queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			result, err := cc.Engine.Query(cmd.Context(), args[0], query)
			if err != nil {
				return err
			}

			if format == "" {
				format = cc.Cfg.Output
			}
			return renderResult(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringVarP(&queryFile, "file", "f", "", "Read the SQL statement from a file")
	cmd.Flags().StringVar(&format, "format", "", "Output format (table|json|csv|markdown)")
	return cmd
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schema <dataset>",
		Short: "Show the tables and columns of a loaded dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			tables, err := cc.Engine.DescribeSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), tables)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), store.FormatSchema(tables))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output schema as JSON")
	return cmd
}

// resolveQuery determines the SQL text from args, --file, or stdin.
func resolveQuery(args []string, queryFile string, stdin io.Reader) (string, error) {
	if queryFile != "" {
		data, err := os.ReadFile(queryFile)
		if err != nil {
			return "", fmt.Errorf("read query file: %w", err)
		}
		return string(data), nil
	}
	if len(args) < 2 {
		return "", fmt.Errorf("no query given: pass the SQL as an argument, use --file, or pipe via -")
	}
	if args[1] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read query from stdin: %w", err)
		}
		return string(data), nil
	}
	return args[1], nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
