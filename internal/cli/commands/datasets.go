package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewDatasetsCommand creates the datasets command group.
func NewDatasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage datasets in the workspace",
	}
	cmd.AddCommand(newDatasetsListCommand())
	cmd.AddCommand(newDatasetsDeleteCommand())
	return cmd
}

func newDatasetsListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all datasets and their pipeline status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			infos, err := cc.Engine.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, infos)
			}
			if len(infos) == 0 {
				_, _ = fmt.Fprintln(out, "No datasets found.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Status", "Spec", "Raw", "Normalized", "Database"})
			for _, info := range infos {
				t.AppendRow(table.Row{
					info.Name,
					info.Status,
					check(info.HasSpec),
					check(info.HasRaw),
					check(info.HasNormalized),
					check(info.HasDatabase),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDatasetsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <dataset>",
		Short: "Delete a dataset and all of its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			result, err := cc.Engine.DeleteDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(result.Deleted) == 0 {
				return fmt.Errorf("dataset not found: %s", args[0])
			}

			out := cmd.OutOrStdout()
			for _, path := range result.Deleted {
				_, _ = fmt.Fprintf(out, "deleted %s\n", path)
			}
			return nil
		},
	}
}

func check(present bool) string {
	if present {
		return "yes"
	}
	return "-"
}
