package store

import (
	"fmt"
	"regexp"
	"strings"
)

// UnsafeQueryError reports a query rejected by the read-only filter.
type UnsafeQueryError struct {
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("unsafe query rejected: %s", e.Reason)
}

var (
	lineComments  = regexp.MustCompile(`(?m)--.*$`)
	blockComments = regexp.MustCompile(`(?s)/\*.*?\*/`)
	selectPrefix  = regexp.MustCompile(`(?i)^SELECT\s`)

	deniedKeywords = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bINSERT\b`),
		regexp.MustCompile(`(?i)\bUPDATE\b`),
		regexp.MustCompile(`(?i)\bDELETE\b`),
		regexp.MustCompile(`(?i)\bDROP\b`),
		regexp.MustCompile(`(?i)\bCREATE\b`),
		regexp.MustCompile(`(?i)\bALTER\b`),
		regexp.MustCompile(`(?i)\bPRAGMA\b`),
	}
)

// CheckReadOnly applies the textual read-only query filter: strip SQL
// comments, collapse whitespace, require a leading SELECT, and reject
// any mutation/DDL keyword anywhere in the remaining text.
//
// This is a heuristic, not a parser. It over-rejects a SELECT whose
// quoted data happens to contain a denied word and cannot catch
// keywords hidden behind encoding tricks. It is a guard rail for
// well-meaning callers, not a security boundary.
func CheckReadOnly(query string) error {
	cleaned := lineComments.ReplaceAllString(query, "")
	cleaned = blockComments.ReplaceAllString(cleaned, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if !selectPrefix.MatchString(cleaned) {
		return &UnsafeQueryError{Reason: "only SELECT statements are allowed"}
	}
	for _, kw := range deniedKeywords {
		if loc := kw.FindString(cleaned); loc != "" {
			return &UnsafeQueryError{Reason: fmt.Sprintf("statement contains forbidden keyword %s", strings.ToUpper(loc))}
		}
	}
	return nil
}
