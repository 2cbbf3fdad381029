// Package dataset addresses pipeline artifacts by canonical dataset
// identity. A dataset owns four artifacts under the workspace
// directory: the transform spec JSON, a raw copy of the source CSV,
// the normalized CSV, and the SQLite database.
package dataset

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidName is returned when a dataset name canonicalizes to the
// empty string.
var ErrInvalidName = errors.New("dataset name contains no usable characters")

var (
	nonIdentifier  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// Canonicalize lowercases name, collapses every run of characters
// outside [a-zA-Z0-9_] to a single underscore, and trims leading and
// trailing underscores. The result is the key under which all of a
// dataset's artifacts are addressed.
func Canonicalize(name string) (string, error) {
	canonical := nonIdentifier.ReplaceAllString(strings.ToLower(name), "_")
	canonical = underscoreRuns.ReplaceAllString(canonical, "_")
	canonical = strings.Trim(canonical, "_")
	if canonical == "" {
		return "", ErrInvalidName
	}
	return canonical, nil
}
