package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/csvflow/internal/engine"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "analyze <csv-file>",
		Short: "Inspect a wide CSV export and infer its transform spec",
		Long: `Analyze copies the CSV file into the workspace, reads its two
header rows, and infers which columns carry cumulative monthly values.
The resulting transform spec is saved next to the CSV copy and drives
the transform step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			csvPath := args[0]
			datasetName := name
			if datasetName == "" {
				datasetName = strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
			}

			result, err := cc.Engine.Analyze(cmd.Context(), engine.AnalyzeRequest{
				DatasetName: datasetName,
				CSVPath:     csvPath,
				Delimiter:   cc.Cfg.Delimiter,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Dataset:        %s\n", result.Dataset)
			_, _ = fmt.Fprintf(out, "Factory column: %s\n", result.FactoryColumn)
			_, _ = fmt.Fprintf(out, "Data columns:   %d\n", result.ColumnsFound)
			_, _ = fmt.Fprintf(out, "Spec saved to:  %s\n", result.SpecPath)
			printDiagnostics(cmd, result.Diagnostics)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Dataset name (default: CSV file name without extension)")
	return cmd
}
