package types

import "fmt"

// FileId is a 64-bit identifier for a file or directory, unique within a
// volume. On NTFS this is the MFT record number (the low 48 bits of the
// 128-bit file reference number when a v3 USN record is encountered).
type FileId uint64

// RootFileId is the NTFS volume root's well-known file ID.
const RootFileId FileId = 5

// FallbackFileIdBase is the base of the synthetic FileIds handed out by the
// recursive-directory fallback backend; the first id it assigns is
// FallbackFileIdBase+1. Records built above this base carry no real MFT
// identity (see VolumeDescriptor.Synthetic).
const FallbackFileIdBase FileId = 1 << 32

func (id FileId) String() string {
	return fmt.Sprintf("%d", uint64(id))
}

// VolumeId is a short string uniquely identifying a volume, derived from
// the NTFS volume serial number (formatted as 8 hex digits).
type VolumeId string

func (v VolumeId) String() string {
	return string(v)
}

// VolumeFileId pairs a VolumeId and FileId, which together are globally
// unique across every indexed volume. Used as a map key throughout the
// catalog.
type VolumeFileId struct {
	Volume VolumeId
	File   FileId
}

func (k VolumeFileId) String() string {
	return fmt.Sprintf("%s:%d", k.Volume, uint64(k.File))
}
