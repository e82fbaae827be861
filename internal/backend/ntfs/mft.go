//go:build windows

package ntfs

import (
	"context"
	"encoding/binary"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/types"
)

// mftEnumData mirrors MFT_ENUM_DATA_V0, the input structure to
// FSCTL_ENUM_USN_DATA.
type mftEnumData struct {
	StartFileReferenceNumber uint64
	LowUsn                   int64
	HighUsn                  int64
}

// rawRecord is an intermediate, pre-path-reconstruction view of one MFT
// entry, keyed by its low-48-bit file reference number.
type rawRecord struct {
	fileRef   uint64
	parentRef uint64
	name      string
	isDir     bool
	size      uint64
}

// FullScan enumerates every record on volume via repeated
// FSCTL_ENUM_USN_DATA calls, parses v2/v3 records, drops system
// artifacts, reconstructs paths, and emits a FileRecord per surviving
// entry.
func (b *Backend) FullScan(ctx context.Context, volume types.VolumeDescriptor, emit func(types.FileRecord)) error {
	handle, err := openVolumeHandle(volume.MountPoint)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(handle)

	raws := make(map[uint64]rawRecord)

	startRef := uint64(0)
	buf := make([]byte, maxRecordBufferSize)

	var filesSeen, dirsSeen uint64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		enumIn := mftEnumData{StartFileReferenceNumber: startRef, LowUsn: 0, HighUsn: 1<<63 - 1}
		inBytes := (*[24]byte)(unsafe.Pointer(&enumIn))[:]

		n, err := deviceIoControl(handle, fsctlEnumUsnData, inBytes, buf)
		if err != nil {
			if err == windows.ERROR_HANDLE_EOF {
				break
			}
			return &glinterrors.FilesystemError{Operation: "FSCTL_ENUM_USN_DATA", Reason: err.Error()}
		}
		if n <= 8 {
			break
		}

		startRef = binary.LittleEndian.Uint64(buf[0:8])

		offset := uint32(8)
		for offset < n {
			rec, recLen, ok := parseUsnRecord(buf[offset:n])
			if recLen == 0 {
				break
			}
			offset += recLen
			if !ok {
				continue
			}

			if isSystemName(rec.name) {
				continue
			}
			raws[rec.fileRef] = rec
			if rec.isDir {
				dirsSeen++
			} else {
				filesSeen++
			}
		}
	}

	parentToChildren := make(map[uint64][]uint64)
	for ref, rec := range raws {
		parentToChildren[rec.parentRef] = append(parentToChildren[rec.parentRef], ref)
	}

	for ref, rec := range raws {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		path := reconstructPath(volume.MountPoint, raws, ref)
		var parentID *types.FileId
		if _, ok := raws[rec.parentRef]; ok {
			p := types.FileId(rec.parentRef)
			parentID = &p
		}
		var size *uint64
		if !rec.isDir {
			s := rec.size
			size = &s
		}
		fr := types.NewFileRecord(types.FileId(ref), parentID, volume.ID, rec.name, path, rec.isDir)
		fr.Size = size
		emit(fr)
	}

	return nil
}

// parseUsnRecord decodes a single v2 or v3 USN record starting at buf[0].
// It returns the parsed record, the record's on-wire length (used by the
// caller to advance), and false if the version is unrecognized (in which
// case the caller should still advance by recLen to skip it, unless
// recLen is also 0, signalling no more valid data).
func parseUsnRecord(buf []byte) (rawRecord, uint32, bool) {
	if len(buf) < 8 {
		return rawRecord{}, 0, false
	}
	recLen := binary.LittleEndian.Uint32(buf[0:4])
	if recLen == 0 || uint32(len(buf)) < recLen {
		return rawRecord{}, 0, false
	}
	majorVersion := binary.LittleEndian.Uint16(buf[4:6])

	switch majorVersion {
	case 2:
		return parseUsnRecordV2(buf[:recLen]), recLen, true
	case 3:
		return parseUsnRecordV3(buf[:recLen]), recLen, true
	default:
		return rawRecord{}, recLen, false
	}
}

// USN_RECORD_V2 layout (offsets in bytes):
// 0 RecordLength u32, 4 MajorVersion u16, 6 MinorVersion u16,
// 8 FileReferenceNumber u64, 16 ParentFileReferenceNumber u64,
// 24 Usn i64, 32 TimeStamp i64, 40 Reason u32, 44 SourceInfo u32,
// 48 SecurityId u32, 52 FileAttributes u32, 56 FileNameLength u16,
// 58 FileNameOffset u16, then the UTF-16LE name.
func parseUsnRecordV2(buf []byte) rawRecord {
	fileRef := binary.LittleEndian.Uint64(buf[8:16]) & fileReferenceMask
	parentRef := binary.LittleEndian.Uint64(buf[16:24]) & fileReferenceMask
	attrs := binary.LittleEndian.Uint32(buf[52:56])
	nameLen := binary.LittleEndian.Uint16(buf[56:58])
	nameOff := binary.LittleEndian.Uint16(buf[58:60])

	name := decodeUTF16Name(buf, nameOff, nameLen)
	return rawRecord{
		fileRef:   fileRef,
		parentRef: parentRef,
		name:      name,
		isDir:     attrs&fileAttributeDirectory != 0,
	}
}

// USN_RECORD_V3 is identical to V2 except the two file-reference fields
// are 128-bit (16 bytes each) instead of 64-bit.
func parseUsnRecordV3(buf []byte) rawRecord {
	fileRefLow := binary.LittleEndian.Uint64(buf[8:16])
	parentRefLow := binary.LittleEndian.Uint64(buf[24:32])
	attrs := binary.LittleEndian.Uint32(buf[64:68])
	nameLen := binary.LittleEndian.Uint16(buf[68:70])
	nameOff := binary.LittleEndian.Uint16(buf[70:72])

	name := decodeUTF16Name(buf, nameOff, nameLen)
	return rawRecord{
		fileRef:   fileRefLow & fileReferenceMask,
		parentRef: parentRefLow & fileReferenceMask,
		name:      name,
		isDir:     attrs&fileAttributeDirectory != 0,
	}
}

func decodeUTF16Name(buf []byte, offset, length uint16) string {
	if int(offset)+int(length) > len(buf) || length == 0 {
		return ""
	}
	u16 := make([]uint16, length/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(buf[int(offset)+2*i:])
	}
	return windows.UTF16ToString(u16)
}

func isSystemName(name string) bool {
	return name == "" || name == "." || name == ".." || strings.HasPrefix(name, "$")
}

// reconstructPath walks parent pointers upward from ref, collecting names
// until the parent is unknown, is a system name, or depth exceeds 256.
func reconstructPath(mount string, raws map[uint64]rawRecord, ref uint64) string {
	var parts []string
	current := ref
	seen := map[uint64]bool{}

	for depth := 0; depth < 256; depth++ {
		rec, ok := raws[current]
		if !ok {
			break
		}
		if !seen[current] {
			seen[current] = true
			if rec.name != "" {
				parts = append(parts, rec.name)
			}
		}
		if rec.parentRef == current || seen[rec.parentRef] {
			break
		}
		if _, ok := raws[rec.parentRef]; !ok {
			break
		}
		current = rec.parentRef
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	sep := `\`
	prefix := strings.TrimSuffix(mount, sep) + sep
	return prefix + strings.Join(parts, sep)
}
