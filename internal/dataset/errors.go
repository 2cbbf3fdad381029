package dataset

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel matched by every NotFoundError.
var ErrNotFound = errors.New("artifact not found")

// Artifact kinds reported by NotFoundError.
const (
	KindSpec       = "transform spec"
	KindRawCSV     = "raw csv"
	KindNormalized = "normalized csv"
	KindDatabase   = "database"
)

// NotFoundError reports a missing prerequisite artifact, carrying the
// path the operation expected so callers can diagnose which step was
// skipped.
type NotFoundError struct {
	Kind    string
	Dataset string
	Path    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataset %q: %s not found at %s", e.Dataset, e.Kind, e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
