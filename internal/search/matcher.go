package search

import (
	"regexp"
	"strings"
)

// Matcher decides whether a single (name_lower, path_lower) pair satisfies
// a compiled pattern. Implementations never mutate; Match is safe for
// concurrent use across goroutines searching disjoint record ranges.
type Matcher interface {
	Match(nameLower, pathLower string, searchInPath bool) bool
}

func subject(nameLower, pathLower string, searchInPath bool) string {
	if searchInPath {
		return pathLower
	}
	return nameLower
}

// SubstringMatcher matches when the pattern occurs anywhere in the
// subject. An empty pattern matches everything.
type SubstringMatcher struct {
	Pattern string // already lower-cased
}

func (m SubstringMatcher) Match(nameLower, pathLower string, searchInPath bool) bool {
	if m.Pattern == "" {
		return true
	}
	return strings.Contains(subject(nameLower, pathLower, searchInPath), m.Pattern)
}

// ExactMatcher matches when the subject equals the pattern exactly.
type ExactMatcher struct {
	Pattern string // already lower-cased
}

func (m ExactMatcher) Match(nameLower, pathLower string, searchInPath bool) bool {
	return subject(nameLower, pathLower, searchInPath) == m.Pattern
}

// WildcardMatcher matches a glob pattern with '*' (any run) and '?' (single
// character), anchored and case-insensitive.
type WildcardMatcher struct {
	re *regexp.Regexp
}

// NewWildcardMatcher compiles pattern into an anchored, case-insensitive
// glob matcher.
func NewWildcardMatcher(pattern string) (*WildcardMatcher, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return &WildcardMatcher{re: re}, nil
}

func (m *WildcardMatcher) Match(nameLower, pathLower string, searchInPath bool) bool {
	return m.re.MatchString(subject(nameLower, pathLower, searchInPath))
}

// RegexMatcher wraps a caller-supplied pattern, always compiled
// case-insensitively.
type RegexMatcher struct {
	re *regexp.Regexp
}

// NewRegexMatcher compiles pattern case-insensitively.
func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	return &RegexMatcher{re: re}, nil
}

func (m *RegexMatcher) Match(nameLower, pathLower string, searchInPath bool) bool {
	return m.re.MatchString(subject(nameLower, pathLower, searchInPath))
}
