package search

import "github.com/padiauj/glint/internal/types"

// Query is a compiled search request: a matcher, an ordered filter list,
// and whether the matcher should evaluate against the record's path
// rather than its base name.
type Query struct {
	Matcher      Matcher
	Filters      []Filter
	SearchInPath bool

	// raw is the original, unparsed query line. Kept for incremental
	// narrowing (IsExtensionOf) and for diagnostics.
	raw string
}

// IsExtensionOf reports whether q is a strict, same-filter extension of
// prev: same filters and search_in_path, and q.raw starts with prev.raw
// plus at least one more character. Used by callers implementing
// incremental narrowing.
func (q Query) IsExtensionOf(prev Query) bool {
	if q.SearchInPath != prev.SearchInPath {
		return false
	}
	if len(q.raw) <= len(prev.raw) {
		return false
	}
	if q.raw[:len(prev.raw)] != prev.raw {
		return false
	}
	if len(q.Filters) != len(prev.Filters) {
		return false
	}
	for i := range q.Filters {
		if !sameFilter(q.Filters[i], prev.Filters[i]) {
			return false
		}
	}
	return true
}

func sameFilter(a, b Filter) bool {
	return filterKey(a) == filterKey(b)
}

// filterKey gives each filter value a comparable identity string, good
// enough to detect "same filter set" without exporting equality on every
// filter type.
func filterKey(f Filter) string {
	switch v := f.(type) {
	case FilesOnlyFilter:
		return "files"
	case DirsOnlyFilter:
		return "dirs"
	case ExtensionsFilter:
		return "ext:" + joinLower(v.Extensions)
	case ExcludeExtensionsFilter:
		return "xext:" + joinLower(v.Extensions)
	case MinSizeFilter:
		return "min"
	case MaxSizeFilter:
		return "max"
	case PathPrefixFilter:
		return "in:" + v.Prefix
	case ExcludePathFilter:
		return "xin:" + v.Prefix
	default:
		return "?"
	}
}

func joinLower(ss []string) string {
	out := ""
	for _, s := range ss {
		out += s + ","
	}
	return out
}

// Hit is a scored search result.
type Hit struct {
	Record types.FileRecord
	Score  int
}
