package pipeline

import (
	"strconv"
	"strings"
)

// ParseCumulative converts a localized cumulative value string such as
// "1.126.286" into a number. The source locale uses "." only as a
// thousands separator, never as a decimal point, so every period is
// removed before parsing.
//
// Empty or whitespace-only input returns nil, as does any string that
// does not parse after cleaning. A nil result means "value absent";
// callers cannot distinguish an unparseable cell from an empty one.
func ParseCumulative(raw string) *float64 {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil
	}
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}
