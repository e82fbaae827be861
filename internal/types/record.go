package types

import (
	"strings"
	"time"
)

// FileRecord is the atom of the catalog: a single file or directory entry.
//
// A FileRecord with an empty Name is a tombstone: it still occupies its
// slot in the catalog's record sequence and its VolumeFileId key, but it
// is invisible to search and path reconstruction.
type FileRecord struct {
	ID       FileId
	ParentID *FileId // nil for volume roots and fallback-scanned records
	VolumeID VolumeId

	Name      string // UTF-8 base name; empty means tombstone
	NameLower string // case-fold of Name, lazily populated after deserialization

	Path string // reconstructed absolute path, including volume mount prefix

	IsDir bool
	Size  *uint64

	Modified *time.Time
	Created  *time.Time
}

// NewFileRecord builds a record with NameLower pre-computed from name.
func NewFileRecord(id FileId, parentID *FileId, volumeID VolumeId, name, path string, isDir bool) FileRecord {
	return FileRecord{
		ID:        id,
		ParentID:  parentID,
		VolumeID:  volumeID,
		Name:      name,
		NameLower: strings.ToLower(name),
		Path:      path,
		IsDir:     isDir,
	}
}

// Key returns the (VolumeId, FileId) pair identifying this record.
func (r *FileRecord) Key() VolumeFileId {
	return VolumeFileId{Volume: r.VolumeID, File: r.ID}
}

// IsTombstone reports whether this record has been logically deleted.
func (r *FileRecord) IsTombstone() bool {
	return r.Name == ""
}

// InitCache fills NameLower from Name if it hasn't been computed yet. Callers
// deserializing records from a legacy format (where NameLower was not
// persisted) must call this before the record is searchable.
func (r *FileRecord) InitCache() {
	if r.NameLower == "" && r.Name != "" {
		r.NameLower = strings.ToLower(r.Name)
	}
}

// Extension returns the text after the final '.' in Name, or "" if Name
// contains no '.' at all. A leading dot (".bashrc") still yields an
// extension ("bashrc"); a trailing dot yields an empty one.
func (r *FileRecord) Extension() string {
	idx := strings.LastIndexByte(r.Name, '.')
	if idx < 0 {
		return ""
	}
	return r.Name[idx+1:]
}

// HasExtension reports whether the record's extension matches ext,
// case-insensitively.
func (r *FileRecord) HasExtension(ext string) bool {
	e := r.Extension()
	if e == "" {
		return false
	}
	return strings.EqualFold(e, ext)
}

// WithSize returns a copy of r with Size set.
func (r FileRecord) WithSize(size uint64) FileRecord {
	r.Size = &size
	return r
}

// WithModified returns a copy of r with Modified set.
func (r FileRecord) WithModified(t time.Time) FileRecord {
	r.Modified = &t
	return r
}

// WithCreated returns a copy of r with Created set.
func (r FileRecord) WithCreated(t time.Time) FileRecord {
	r.Created = &t
	return r
}
