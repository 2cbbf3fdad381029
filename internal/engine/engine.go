// Package engine orchestrates the analyze, transform, load, and query
// operations over a dataset workspace. It is the single place where
// pipeline, repository, and store meet; the CLI, HTTP, and MCP
// adapters are thin wrappers around it.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/csvflow/internal/dataset"
	"github.com/leapstack-labs/csvflow/internal/pipeline"
	"github.com/leapstack-labs/csvflow/internal/store"
)

// Defaults for query execution.
const (
	DefaultMaxQueryRows = 1000
	DefaultQueryTimeout = 30 * time.Second
)

// Options configures an Engine.
type Options struct {
	// Workspace is the directory holding all dataset artifacts.
	Workspace string
	// Logger defaults to a discarding logger when nil.
	Logger *slog.Logger
	// MaxQueryRows caps query results; 0 uses DefaultMaxQueryRows.
	MaxQueryRows int
	// QueryTimeout bounds query execution; 0 uses DefaultQueryTimeout.
	QueryTimeout time.Duration
}

// Engine runs pipeline operations against one workspace. Mutating
// operations on the same dataset are serialized with per-dataset
// locks; operations on different datasets proceed concurrently.
type Engine struct {
	repo         *dataset.Repository
	locks        *dataset.Locks
	logger       *slog.Logger
	maxQueryRows int
	queryTimeout time.Duration
}

// New creates an Engine rooted at the options' workspace directory,
// creating it if needed.
func New(opts Options) (*Engine, error) {
	repo, err := dataset.NewRepository(opts.Workspace)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxRows := opts.MaxQueryRows
	if maxRows <= 0 {
		maxRows = DefaultMaxQueryRows
	}
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	return &Engine{
		repo:         repo,
		locks:        dataset.NewLocks(),
		logger:       logger,
		maxQueryRows: maxRows,
		queryTimeout: timeout,
	}, nil
}

// Workspace returns the workspace directory the engine operates on.
func (e *Engine) Workspace() string { return e.repo.Root() }

// AnalyzeRequest describes one analyze invocation. Exactly one of
// CSVContent and CSVPath should be set; CSVContent wins when both are.
type AnalyzeRequest struct {
	DatasetName string
	// CSVContent is the raw CSV text, used when the caller sends the
	// file inline (HTTP request body, MCP argument).
	CSVContent string
	// CSVPath is a filesystem path to copy into the workspace.
	CSVPath string
	// Delimiter defaults to the conventional semicolon.
	Delimiter string
}

// AnalyzeResult summarizes a completed analyze step.
type AnalyzeResult struct {
	Dataset       string                `json:"dataset_name"`
	CSVFilePath   string                `json:"csv_file_path"`
	SpecPath      string                `json:"spec_path"`
	FactoryColumn string                `json:"factory_column"`
	ColumnsFound  int                   `json:"columns_found"`
	Diagnostics   []pipeline.Diagnostic `json:"diagnostics,omitempty"`
}

// Analyze stores a raw copy of the source CSV in the workspace, infers
// its transform spec from the two header rows, and persists the spec.
func (e *Engine) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	name, err := dataset.Canonicalize(req.DatasetName)
	if err != nil {
		return nil, err
	}
	release := e.locks.Acquire(name)
	defer release()

	if req.CSVContent != "" {
		if err := e.repo.SaveRawCSV(name, []byte(req.CSVContent)); err != nil {
			return nil, err
		}
	} else {
		if err := e.repo.ImportRawCSV(name, req.CSVPath); err != nil {
			return nil, err
		}
	}

	delimiter := req.Delimiter
	if delimiter == "" {
		delimiter = pipeline.DefaultDelimiter
	}

	f, err := e.repo.OpenRawCSV(name)
	if err != nil {
		return nil, err
	}
	rows, err := dataset.ReadWideRows(f, []rune(delimiter)[0])
	_ = f.Close()
	if err != nil {
		return nil, err
	}

	spec, diags, err := pipeline.InferSpec(headerRow(rows, 0), headerRow(rows, 1), delimiter)
	if err != nil {
		return nil, err
	}
	spec.DatasetName = name
	spec.CSVFilePath = e.repo.RawCSVPath(name)

	if err := e.repo.SaveSpec(name, spec); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "analyze complete",
		"dataset", name, "columns", len(spec.DataColumns), "diagnostics", len(diags))

	return &AnalyzeResult{
		Dataset:       name,
		CSVFilePath:   spec.CSVFilePath,
		SpecPath:      e.repo.SpecPath(name),
		FactoryColumn: spec.FactoryColumn,
		ColumnsFound:  len(spec.DataColumns),
		Diagnostics:   diags,
	}, nil
}

// TransformResult summarizes a completed transform step.
type TransformResult struct {
	Dataset        string                `json:"dataset_name"`
	NormalizedPath string                `json:"normalized_path"`
	Records        int                   `json:"records_processed"`
	Diagnostics    []pipeline.Diagnostic `json:"diagnostics,omitempty"`
}

// Transform reshapes the dataset's raw CSV into normalized records
// using its persisted spec and writes the normalized CSV artifact. The
// previous normalized set is replaced wholesale.
func (e *Engine) Transform(ctx context.Context, datasetName string) (*TransformResult, error) {
	name, err := dataset.Canonicalize(datasetName)
	if err != nil {
		return nil, err
	}
	release := e.locks.Acquire(name)
	defer release()

	spec, err := e.repo.LoadSpec(name)
	if err != nil {
		return nil, err
	}

	f, err := e.repo.OpenRawCSV(name)
	if err != nil {
		return nil, err
	}
	rows, err := dataset.ReadWideRows(f, spec.DelimiterRune())
	_ = f.Close()
	if err != nil {
		return nil, err
	}

	// The two header rows were consumed by the analyze step.
	var dataRows [][]string
	if len(rows) > 2 {
		dataRows = rows[2:]
	}
	records, diags := pipeline.Reshape(dataRows, spec)

	if err := e.repo.WriteNormalized(name, records); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "transform complete",
		"dataset", name, "records", len(records), "diagnostics", len(diags))

	return &TransformResult{
		Dataset:        name,
		NormalizedPath: e.repo.NormalizedPath(name),
		Records:        len(records),
		Diagnostics:    diags,
	}, nil
}

// LoadResult summarizes a completed load step.
type LoadResult struct {
	Dataset       string   `json:"dataset_name"`
	DatabasePath  string   `json:"database_path"`
	RecordsLoaded int      `json:"records_loaded"`
	Factories     int      `json:"factories_count"`
	TablesCreated []string `json:"tables_created"`
}

// Load replaces the dataset database's normalized rows with the
// normalized CSV artifact's contents and rebuilds the derived monthly
// values from scratch.
func (e *Engine) Load(ctx context.Context, datasetName string) (*LoadResult, error) {
	name, err := dataset.Canonicalize(datasetName)
	if err != nil {
		return nil, err
	}
	release := e.locks.Acquire(name)
	defer release()

	records, err := e.repo.ReadNormalized(name)
	if err != nil {
		return nil, err
	}

	dbPath := e.repo.DatabasePath(name)
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	if err := st.ReplaceNormalized(ctx, records); err != nil {
		return nil, err
	}
	if err := st.MaterializeDerived(ctx, pipeline.DeriveMonthly(records)); err != nil {
		return nil, err
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "load complete",
		"dataset", name, "records", stats.Records, "factories", stats.Factories)

	return &LoadResult{
		Dataset:       name,
		DatabasePath:  dbPath,
		RecordsLoaded: stats.Records,
		Factories:     stats.Factories,
		TablesCreated: []string{"factory_data", "monthly_values"},
	}, nil
}

// Query runs a read-only SELECT against the dataset database.
func (e *Engine) Query(ctx context.Context, datasetName, query string) (*store.QueryResult, error) {
	st, name, err := e.openReadOnly(datasetName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	result, err := st.Query(ctx, query, e.maxQueryRows)
	if err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "query complete", "dataset", name, "rows", len(result.Rows))
	return result, nil
}

// DescribeSchema introspects the dataset database's tables.
func (e *Engine) DescribeSchema(ctx context.Context, datasetName string) ([]store.SchemaTable, error) {
	st, _, err := e.openReadOnly(datasetName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	return st.DescribeSchema(ctx)
}

func (e *Engine) openReadOnly(datasetName string) (*store.Store, string, error) {
	name, err := dataset.Canonicalize(datasetName)
	if err != nil {
		return nil, "", err
	}
	info := e.repo.Info(name)
	if !info.HasDatabase {
		return nil, "", &dataset.NotFoundError{
			Kind:    dataset.KindDatabase,
			Dataset: name,
			Path:    info.DatabasePath,
		}
	}
	st, err := store.OpenReadOnly(info.DatabasePath)
	if err != nil {
		return nil, "", err
	}
	return st, name, nil
}

// ListDatasets enumerates all datasets and their artifact status.
func (e *Engine) ListDatasets(_ context.Context) ([]dataset.Info, error) {
	return e.repo.List()
}

// DeleteDataset removes every artifact of a dataset.
func (e *Engine) DeleteDataset(ctx context.Context, datasetName string) (*dataset.DeleteResult, error) {
	name, err := dataset.Canonicalize(datasetName)
	if err != nil {
		return nil, err
	}
	release := e.locks.Acquire(name)
	defer release()

	result, err := e.repo.Delete(name)
	if err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "dataset deleted", "dataset", name, "files", len(result.Deleted))
	return result, nil
}

func headerRow(rows [][]string, i int) []string {
	if i >= len(rows) {
		return nil
	}
	row := rows[i]
	// Tolerate a UTF-8 BOM on the first cell of the export.
	if i == 0 && len(row) > 0 {
		row[0] = strings.TrimPrefix(row[0], "\uFEFF")
	}
	return row
}
