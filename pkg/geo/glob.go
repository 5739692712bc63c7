package geo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandPaths resolves a layer path that may contain glob patterns ("*",
// "**", "?", "[...]", "{a,b}"). A plain path is returned as-is, even when the
// file does not exist, so that loading reports it as missing. Matches are
// sorted for a stable ingestion order.
func ExpandPaths(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid layer pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
