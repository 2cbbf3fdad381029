package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/leapstack-labs/csvflow/internal/dataset"
	"github.com/leapstack-labs/csvflow/internal/store"
)

func (s *Server) toolQueryDataset() mcpsrv.ServerTool {
	tool := mcplib.NewTool("query_dataset",
		mcplib.WithDescription(`Run a read-only SQL query against a loaded dataset.

The dataset database has two tables: factory_data holds the normalized
cumulative figures (factory, year, month, cumulative_value) and
monthly_values holds the derived per-month production deltas. Only
SELECT statements are accepted. Set show_schema to true to inspect the
tables instead of running a query.`),
		mcplib.WithString("dataset_name",
			mcplib.Description("Name of the dataset to query."),
			mcplib.Required(),
		),
		mcplib.WithString("query",
			mcplib.Description("The SELECT statement to run. Ignored when show_schema is true."),
		),
		mcplib.WithBoolean("show_schema",
			mcplib.Description("Return the dataset's table definitions instead of running a query."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleQueryDataset}
}

func (s *Server) handleQueryDataset(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	name, ok := stringArg(req, "dataset_name")
	if !ok || name == "" {
		return resultErr(errors.New("query_dataset: dataset_name is required")), nil
	}

	if boolArg(req, "show_schema", false) {
		tables, err := s.engine.DescribeSchema(ctx, name)
		if err != nil {
			return toolFailure("query_dataset", err), nil
		}
		return resultText(store.FormatSchema(tables)), nil
	}

	query, _ := stringArg(req, "query")
	if query == "" {
		return resultErr(errors.New("query_dataset: query is required unless show_schema is true")), nil
	}

	s.logger.InfoContext(ctx, "mcp: query_dataset", "dataset", name)

	result, err := s.engine.Query(ctx, name, query)
	if err != nil {
		return toolFailure("query_dataset", err), nil
	}
	return resultText(formatQueryResult(result)), nil
}

func (s *Server) toolListDatasets() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_datasets",
		mcplib.WithDescription("List all datasets in the workspace with their pipeline status and artifact paths."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListDatasets}
}

func (s *Server) handleListDatasets(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	infos, err := s.engine.ListDatasets(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("list_datasets: %w", err)), nil
	}
	if len(infos) == 0 {
		return resultText("No datasets found in the workspace."), nil
	}

	result, err := resultJSON(infos)
	if err != nil {
		return resultErr(fmt.Errorf("list_datasets: serialise: %w", err)), nil
	}
	return result, nil
}

func (s *Server) toolDeleteDataset() mcpsrv.ServerTool {
	tool := mcplib.NewTool("delete_dataset",
		mcplib.WithDescription("Delete a dataset and all of its files: the transform spec, the raw CSV copy, the normalized CSV, and the SQLite database."),
		mcplib.WithString("dataset_name",
			mcplib.Description("Name of the dataset to delete."),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleDeleteDataset}
}

func (s *Server) handleDeleteDataset(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	name, ok := stringArg(req, "dataset_name")
	if !ok || name == "" {
		return resultErr(errors.New("delete_dataset: dataset_name is required")), nil
	}

	result, err := s.engine.DeleteDataset(ctx, name)
	if err != nil {
		return toolFailure("delete_dataset", err), nil
	}
	if len(result.Deleted) == 0 {
		return resultText(fmt.Sprintf("Dataset %q not found.", name)), nil
	}

	s.logger.InfoContext(ctx, "mcp: delete_dataset", "dataset", name, "files", len(result.Deleted))
	return resultText(fmt.Sprintf("Dataset %q deleted (%d file(s) removed).", name, len(result.Deleted))), nil
}

// toolFailure turns an engine error into a tool result. Missing
// artifacts become plain text so the agent can react without treating
// it as a hard failure; everything else is an error result.
func toolFailure(tool string, err error) *mcplib.CallToolResult {
	if errors.Is(err, dataset.ErrNotFound) {
		return resultText(err.Error())
	}
	return resultErr(fmt.Errorf("%s: %w", tool, err))
}

// formatQueryResult renders rows as tab-separated text with a trailing
// row count, the format agents handle best.
func formatQueryResult(result *store.QueryResult) string {
	var b strings.Builder
	b.WriteString(strings.Join(result.Columns, "\t"))
	b.WriteByte('\n')
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprintf("%v", v)
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n%d row(s) returned", len(result.Rows))
	if result.Truncated {
		b.WriteString(" (truncated)")
	}
	return b.String()
}
