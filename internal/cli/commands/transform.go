package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/csvflow/internal/pipeline"
)

// NewTransformCommand creates the transform command.
func NewTransformCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transform <dataset>",
		Short: "Reshape an analyzed CSV into normalized long-format records",
		Long: `Transform reads the dataset's raw CSV using its saved transform
spec and reshapes every wide row into one record per data column. The
normalized records are written as a CSV artifact in the workspace,
replacing any previous transform output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			result, err := cc.Engine.Transform(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Dataset:    %s\n", result.Dataset)
			_, _ = fmt.Fprintf(out, "Records:    %d\n", result.Records)
			_, _ = fmt.Fprintf(out, "Written to: %s\n", result.NormalizedPath)
			printDiagnostics(cmd, result.Diagnostics)
			return nil
		},
	}
}

// printDiagnostics writes non-fatal pipeline diagnostics to stderr.
func printDiagnostics(cmd *cobra.Command, diags []pipeline.Diagnostic) {
	for _, d := range diags {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", d.Code, d.Message)
	}
}
