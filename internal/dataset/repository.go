package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/csvflow/internal/pipeline"
)

// Artifact file suffixes under the workspace directory.
const (
	specSuffix       = "_spec.json"
	rawSuffix        = "_raw.csv"
	normalizedSuffix = "_normalized.csv"
	dbSuffix         = ".db"
)

// Status values reported by Info, in pipeline order.
const (
	StatusIncomplete  = "incomplete"
	StatusAnalyzed    = "analyzed"
	StatusTransformed = "transformed"
	StatusLoaded      = "ready"
)

// Repository persists and resolves dataset artifacts under a single
// workspace directory. Names passed in must already be canonical.
type Repository struct {
	root string
}

// NewRepository creates a repository rooted at dir, creating the
// directory if needed.
func NewRepository(dir string) (*Repository, error) {
	if dir == "" {
		return nil, errors.New("workspace directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}
	return &Repository{root: dir}, nil
}

// Root returns the workspace directory.
func (r *Repository) Root() string { return r.root }

// SpecPath returns the transform spec path for a dataset.
func (r *Repository) SpecPath(name string) string {
	return filepath.Join(r.root, name+specSuffix)
}

// RawCSVPath returns the raw CSV copy path for a dataset.
func (r *Repository) RawCSVPath(name string) string {
	return filepath.Join(r.root, name+rawSuffix)
}

// NormalizedPath returns the normalized CSV path for a dataset.
func (r *Repository) NormalizedPath(name string) string {
	return filepath.Join(r.root, name+normalizedSuffix)
}

// DatabasePath returns the SQLite database path for a dataset.
func (r *Repository) DatabasePath(name string) string {
	return filepath.Join(r.root, name+dbSuffix)
}

// SaveSpec persists the transform spec in its JSON form.
func (r *Repository) SaveSpec(name string, spec *pipeline.TransformSpec) error {
	data, err := spec.MarshalIndent()
	if err != nil {
		return err
	}
	path := r.SpecPath(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write spec %s: %w", path, err)
	}
	return nil
}

// LoadSpec reloads a persisted transform spec.
func (r *Repository) LoadSpec(name string) (*pipeline.TransformSpec, error) {
	path := r.SpecPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: KindSpec, Dataset: name, Path: path}
		}
		return nil, fmt.Errorf("read spec %s: %w", path, err)
	}
	return pipeline.ParseSpec(data)
}

// SaveRawCSV stores the raw CSV content for a dataset.
func (r *Repository) SaveRawCSV(name string, content []byte) error {
	path := r.RawCSVPath(name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write raw csv %s: %w", path, err)
	}
	return nil
}

// ImportRawCSV copies an external CSV file into the workspace as the
// dataset's raw artifact.
func (r *Repository) ImportRawCSV(name, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Kind: KindRawCSV, Dataset: name, Path: srcPath}
		}
		return fmt.Errorf("open csv %s: %w", srcPath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(r.RawCSVPath(name))
	if err != nil {
		return fmt.Errorf("create raw csv copy: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("copy csv %s: %w", srcPath, err)
	}
	return dst.Close()
}

// OpenRawCSV opens the dataset's raw CSV for reading.
func (r *Repository) OpenRawCSV(name string) (io.ReadCloser, error) {
	path := r.RawCSVPath(name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: KindRawCSV, Dataset: name, Path: path}
		}
		return nil, fmt.Errorf("open raw csv %s: %w", path, err)
	}
	return f, nil
}

// Info describes one dataset's artifacts and derived pipeline status.
type Info struct {
	Name           string `json:"name"`
	SpecPath       string `json:"spec_path"`
	HasSpec        bool   `json:"has_spec"`
	RawPath        string `json:"raw_path"`
	HasRaw         bool   `json:"has_raw"`
	NormalizedPath string `json:"normalized_path"`
	HasNormalized  bool   `json:"has_normalized"`
	DatabasePath   string `json:"database_path"`
	HasDatabase    bool   `json:"has_database"`
	Status         string `json:"status"`
}

// Info reports artifact presence and status for one dataset.
func (r *Repository) Info(name string) Info {
	info := Info{
		Name:           name,
		SpecPath:       r.SpecPath(name),
		RawPath:        r.RawCSVPath(name),
		NormalizedPath: r.NormalizedPath(name),
		DatabasePath:   r.DatabasePath(name),
	}
	info.HasSpec = fileExists(info.SpecPath)
	info.HasRaw = fileExists(info.RawPath)
	info.HasNormalized = fileExists(info.NormalizedPath)
	info.HasDatabase = fileExists(info.DatabasePath)

	switch {
	case info.HasSpec && info.HasRaw && info.HasNormalized && info.HasDatabase:
		info.Status = StatusLoaded
	case info.HasSpec && info.HasRaw && info.HasNormalized:
		info.Status = StatusTransformed
	case info.HasSpec && info.HasRaw:
		info.Status = StatusAnalyzed
	default:
		info.Status = StatusIncomplete
	}
	return info
}

// List enumerates all datasets in the workspace, identified by their
// spec files, sorted by name.
func (r *Repository) List() ([]Info, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("read workspace %s: %w", r.root, err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), specSuffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), specSuffix)
		infos = append(infos, r.Info(name))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Exists reports whether any artifact exists for the dataset.
func (r *Repository) Exists(name string) bool {
	info := r.Info(name)
	return info.HasSpec || info.HasRaw || info.HasNormalized || info.HasDatabase
}

// DeleteResult lists the artifact paths removed and those that were
// already absent.
type DeleteResult struct {
	Deleted []string `json:"deleted"`
	Missing []string `json:"missing"`
}

// Delete removes every artifact belonging to the dataset.
func (r *Repository) Delete(name string) (*DeleteResult, error) {
	paths := []string{
		r.SpecPath(name),
		r.RawCSVPath(name),
		r.NormalizedPath(name),
		r.DatabasePath(name),
	}

	result := &DeleteResult{}
	for _, path := range paths {
		err := os.Remove(path)
		switch {
		case err == nil:
			result.Deleted = append(result.Deleted, path)
		case os.IsNotExist(err):
			result.Missing = append(result.Missing, path)
		default:
			return nil, fmt.Errorf("delete %s: %w", path, err)
		}
	}
	return result, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
