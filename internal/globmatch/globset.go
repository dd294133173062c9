package globmatch

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobSet is a compiled matcher over two pattern sets. Matching rule: if
// included is empty, match iff not excluded; if excluded is empty, match
// iff included; otherwise both conditions apply.
type GlobSet struct {
	included []string
	excluded []string
}

// Compile expands every extended-glob pattern and builds a GlobSet. Patterns
// are validated against doublestar's syntax at compile time so that an
// invalid pattern fails here rather than silently never matching.
func Compile(patterns []string) (*GlobSet, error) {
	gs := &GlobSet{}
	for _, raw := range patterns {
		for _, p := range ExpandPattern(raw) {
			if strings.HasPrefix(p, "!") {
				p = strings.TrimPrefix(p, "!")
				if _, err := doublestar.Match(p, ""); err != nil {
					return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
				}
				gs.excluded = append(gs.excluded, p)
				continue
			}
			if _, err := doublestar.Match(p, ""); err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
			}
			gs.included = append(gs.included, p)
		}
	}
	return gs, nil
}

// IsMatch reports whether path matches this GlobSet.
func (gs *GlobSet) IsMatch(path string) bool {
	path = toSlash(path)

	excluded := matchesAny(gs.excluded, path)
	if len(gs.included) == 0 {
		return !excluded
	}
	included := matchesAny(gs.included, path)
	if len(gs.excluded) == 0 {
		return included
	}
	return included && !excluded
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

func toSlash(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
