package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <dataset>",
		Short: "Load normalized records into the dataset's SQLite database",
		Long: `Load replaces the dataset database's contents with the normalized
CSV artifact and rebuilds the derived monthly production values from
the cumulative figures.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			result, err := cc.Engine.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Dataset:   %s\n", result.Dataset)
			_, _ = fmt.Fprintf(out, "Records:   %d\n", result.RecordsLoaded)
			_, _ = fmt.Fprintf(out, "Factories: %d\n", result.Factories)
			_, _ = fmt.Fprintf(out, "Tables:    %s\n", strings.Join(result.TablesCreated, ", "))
			_, _ = fmt.Fprintf(out, "Database:  %s\n", result.DatabasePath)
			return nil
		},
	}
}
