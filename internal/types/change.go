package types

// ChangeKind classifies a ChangeEvent derived from a USN journal record.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeDeleted
	ChangeRenamed
	ChangeModified
	ChangeAttributeChanged
	ChangeSecurityChanged
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeDeleted:
		return "deleted"
	case ChangeRenamed:
		return "renamed"
	case ChangeModified:
		return "modified"
	case ChangeAttributeChanged:
		return "attribute_changed"
	case ChangeSecurityChanged:
		return "security_changed"
	default:
		return "unknown"
	}
}

// ChangeEvent is a single change derived from the NTFS USN journal (or, in
// degraded mode, from an fsnotify event synthesized by the fallback
// backend). Sequence increases strictly within one watcher's event stream:
// both backends number their events with a per-watcher counter starting at
// 1, not with the journal's USN.
type ChangeEvent struct {
	Kind     ChangeKind
	VolumeID VolumeId
	FileID   FileId
	ParentID *FileId

	Name    string
	NewName *string

	NewParentID *FileId

	IsDir bool

	Sequence int64
}

func newChangeEvent(kind ChangeKind, volumeID VolumeId, fileID FileId, parentID *FileId, name string, isDir bool, seq int64) ChangeEvent {
	return ChangeEvent{
		Kind:     kind,
		VolumeID: volumeID,
		FileID:   fileID,
		ParentID: parentID,
		Name:     name,
		IsDir:    isDir,
		Sequence: seq,
	}
}

// CreatedEvent builds a Created change event.
func CreatedEvent(volumeID VolumeId, fileID FileId, parentID *FileId, name string, isDir bool, seq int64) ChangeEvent {
	return newChangeEvent(ChangeCreated, volumeID, fileID, parentID, name, isDir, seq)
}

// DeletedEvent builds a Deleted change event.
func DeletedEvent(volumeID VolumeId, fileID FileId, parentID *FileId, name string, isDir bool, seq int64) ChangeEvent {
	return newChangeEvent(ChangeDeleted, volumeID, fileID, parentID, name, isDir, seq)
}

// RenamedEvent builds a Renamed change event. oldName may be empty: the USN
// journal's rename-new-name record does not carry the previous name in a
// single record.
func RenamedEvent(volumeID VolumeId, fileID FileId, parentID *FileId, oldName, newName string, newParentID *FileId, isDir bool, seq int64) ChangeEvent {
	e := newChangeEvent(ChangeRenamed, volumeID, fileID, parentID, oldName, isDir, seq)
	e.NewName = &newName
	e.NewParentID = newParentID
	return e
}

// ModifiedEvent builds a Modified/AttributeChanged/SecurityChanged change
// event depending on kind.
func ModifiedEvent(kind ChangeKind, volumeID VolumeId, fileID FileId, parentID *FileId, name string, isDir bool, seq int64) ChangeEvent {
	return newChangeEvent(kind, volumeID, fileID, parentID, name, isDir, seq)
}
