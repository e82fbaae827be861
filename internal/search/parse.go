package search

import (
	"strings"
)

// ParseQuery compiles a single query line into a Query, following the
// token grammar: bare words join into the match pattern; ext:/file:/
// files:/dir:/dirs:/folder:/path:/in: are recognized prefixes; a
// pattern of the form r/.../ longer than 3 characters is regex; any
// remaining pattern containing '*' or '?' is wildcard; otherwise
// substring.
func ParseQuery(line string) (Query, error) {
	fields := strings.Fields(line)

	var patternParts []string
	var filters []Filter
	searchInPath := false

	for _, tok := range fields {
		lower := strings.ToLower(tok)
		switch {
		case strings.HasPrefix(lower, "ext:"):
			filters = append(filters, ExtensionsFilter{Extensions: splitCSV(tok[len("ext:"):])})
		case strings.HasPrefix(lower, "file:"):
			filters = append(filters, FilesOnlyFilter{})
		case strings.HasPrefix(lower, "files:"):
			filters = append(filters, FilesOnlyFilter{})
		case strings.HasPrefix(lower, "dir:"):
			filters = append(filters, DirsOnlyFilter{})
		case strings.HasPrefix(lower, "dirs:"):
			filters = append(filters, DirsOnlyFilter{})
		case strings.HasPrefix(lower, "folder:"):
			filters = append(filters, DirsOnlyFilter{})
		case strings.HasPrefix(lower, "path:"):
			searchInPath = true
			if rest := tok[len("path:"):]; rest != "" {
				patternParts = append(patternParts, rest)
			}
		case strings.HasPrefix(lower, "in:"):
			filters = append(filters, PathPrefixFilter{Prefix: strings.ToLower(tok[len("in:"):])})
		default:
			patternParts = append(patternParts, tok)
		}
	}

	pattern := strings.Join(patternParts, " ")

	matcher, err := compileMatcher(pattern)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Matcher:      matcher,
		Filters:      filters,
		SearchInPath: searchInPath,
		raw:          line,
	}, nil
}

func compileMatcher(pattern string) (Matcher, error) {
	if len(pattern) > 3 && strings.HasPrefix(pattern, "r/") && strings.HasSuffix(pattern, "/") {
		body := pattern[2 : len(pattern)-1]
		return NewRegexMatcher(body)
	}
	if strings.ContainsAny(pattern, "*?") {
		return NewWildcardMatcher(pattern)
	}
	return SubstringMatcher{Pattern: strings.ToLower(pattern)}, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
