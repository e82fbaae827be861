package search

import (
	"strings"

	"github.com/padiauj/glint/internal/types"
)

// Filter independently admits or rejects a record. A query's filters are
// ANDed together.
type Filter interface {
	Admit(rec *types.FileRecord) bool
}

// FilesOnlyFilter admits only non-directory records.
type FilesOnlyFilter struct{}

func (FilesOnlyFilter) Admit(rec *types.FileRecord) bool { return !rec.IsDir }

// DirsOnlyFilter admits only directory records.
type DirsOnlyFilter struct{}

func (DirsOnlyFilter) Admit(rec *types.FileRecord) bool { return rec.IsDir }

// ExtensionsFilter admits records whose extension matches one of Extensions
// (case-insensitive).
type ExtensionsFilter struct {
	Extensions []string // already lower-cased, no leading dot
}

func (f ExtensionsFilter) Admit(rec *types.FileRecord) bool {
	ext := strings.ToLower(rec.Extension())
	for _, e := range f.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ExcludeExtensionsFilter rejects records whose extension matches one of
// Extensions.
type ExcludeExtensionsFilter struct {
	Extensions []string
}

func (f ExcludeExtensionsFilter) Admit(rec *types.FileRecord) bool {
	ext := strings.ToLower(rec.Extension())
	for _, e := range f.Extensions {
		if ext == e {
			return false
		}
	}
	return true
}

// MinSizeFilter admits files at least Bytes large. Directories (nil Size)
// are always admitted: size filters apply only to sized entries.
type MinSizeFilter struct {
	Bytes uint64
}

func (f MinSizeFilter) Admit(rec *types.FileRecord) bool {
	if rec.Size == nil {
		return true
	}
	return *rec.Size >= f.Bytes
}

// MaxSizeFilter admits files at most Bytes large.
type MaxSizeFilter struct {
	Bytes uint64
}

func (f MaxSizeFilter) Admit(rec *types.FileRecord) bool {
	if rec.Size == nil {
		return true
	}
	return *rec.Size <= f.Bytes
}

// PathPrefixFilter admits records whose path starts with Prefix
// (case-insensitive).
type PathPrefixFilter struct {
	Prefix string // already lower-cased
}

func (f PathPrefixFilter) Admit(rec *types.FileRecord) bool {
	return strings.HasPrefix(strings.ToLower(rec.Path), f.Prefix)
}

// ExcludePathFilter rejects records whose path starts with Prefix
// (case-insensitive).
type ExcludePathFilter struct {
	Prefix string // already lower-cased
}

func (f ExcludePathFilter) Admit(rec *types.FileRecord) bool {
	return !strings.HasPrefix(strings.ToLower(rec.Path), f.Prefix)
}
