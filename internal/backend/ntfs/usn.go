//go:build windows

package ntfs

import (
	"context"
	"encoding/binary"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/types"
)

const (
	pollInterval    = 500 * time.Millisecond
	errorBackoff    = 1 * time.Second
	maxConsecutiveErrors = 5
)

// queryUsnJournalData mirrors QUERY_USN_JOURNAL_DATA.
type queryUsnJournalData struct {
	UsnJournalID    uint64
	FirstUsn        int64
	NextUsn         int64
	LowestValidUsn  int64
	MaxUsn          int64
	MaximumSize     uint64
	AllocationDelta uint64
}

// readUsnJournalData mirrors READ_USN_JOURNAL_DATA.
type readUsnJournalData struct {
	StartUsn          int64
	ReasonMask        uint32
	ReturnOnlyOnClose uint32
	Timeout           uint64
	BytesToWaitFor    uint64
	UsnJournalID      uint64
}

func queryJournal(handle windows.Handle, volume string) (queryUsnJournalData, error) {
	var out queryUsnJournalData
	outBuf := (*[unsafe.Sizeof(out)]byte)(unsafe.Pointer(&out))[:]
	_, err := deviceIoControl(handle, fsctlQueryUsnJournal, nil, outBuf)
	if err != nil {
		return queryUsnJournalData{}, &glinterrors.JournalUnavailableError{Volume: volume, Reason: err.Error()}
	}
	return out, nil
}

// GetJournalState queries the volume's current journal position directly;
// the ntfs backend keeps no independent cache of it.
func (b *Backend) GetJournalState(volume types.VolumeDescriptor) (*types.JournalState, bool) {
	handle, err := openVolumeHandle(volume.MountPoint)
	if err != nil {
		return nil, false
	}
	defer windows.CloseHandle(handle)

	q, err := queryJournal(handle, string(volume.ID))
	if err != nil {
		return nil, false
	}
	return &types.JournalState{JournalID: q.UsnJournalID, LastUSN: q.NextUsn}, true
}

// WatchChanges runs a single polling worker per volume, reading up to
// 64 KiB of journal records per iteration, classifying each by reason
// bitset, and sleeping ~500ms between polls. It detects journal ID
// changes and truncation and reports them via the error channel as
// JournalIDChangedError / JournalTruncatedError, after which the caller is
// expected to trigger a fresh full scan.
func (b *Backend) WatchChanges(ctx context.Context, volume types.VolumeDescriptor) (<-chan types.ChangeEvent, <-chan error) {
	events := make(chan types.ChangeEvent)
	errs := make(chan error, 1)

	go b.watchLoop(ctx, volume, events, errs)
	return events, errs
}

func (b *Backend) watchLoop(ctx context.Context, volume types.VolumeDescriptor, events chan<- types.ChangeEvent, errs chan<- error) {
	defer close(events)
	defer close(errs)

	handle, err := openVolumeHandle(volume.MountPoint)
	if err != nil {
		errs <- err
		return
	}
	defer windows.CloseHandle(handle)

	initial, err := queryJournal(handle, string(volume.ID))
	if err != nil {
		errs <- err
		return
	}

	journalID := initial.UsnJournalID
	currentUsn := initial.NextUsn

	if prior := volume.LastJournalState; prior != nil {
		switch {
		case prior.JournalID != journalID:
			errs <- &glinterrors.JournalIDChangedError{Volume: string(volume.ID)}
			return
		case prior.LastUSN < initial.FirstUsn:
			errs <- &glinterrors.JournalTruncatedError{Volume: string(volume.ID)}
			return
		default:
			currentUsn = prior.LastUSN
		}
	}

	var seq int64
	consecutiveErrors := 0
	buf := make([]byte, maxRecordBufferSize)

	// pathCache remembers names seen in create and rename events so a
	// later rename event can carry the old name; delete events drop the
	// entry. It lives only as long as this watch loop and is not persisted.
	var pathCache sync.Map

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		readIn := readUsnJournalData{
			StartUsn:     currentUsn,
			ReasonMask:   usnRecordReasonMask,
			UsnJournalID: journalID,
		}
		inBytes := (*[40]byte)(unsafe.Pointer(&readIn))[:]

		n, err := deviceIoControl(handle, fsctlReadUsnJournal, inBytes, buf)
		if err != nil {
			if err == windows.ERROR_JOURNAL_ENTRY_DELETED {
				errs <- &glinterrors.JournalTruncatedError{Volume: string(volume.ID)}
				return
			}
			consecutiveErrors++
			if consecutiveErrors > maxConsecutiveErrors {
				errs <- &glinterrors.FilesystemError{Operation: "FSCTL_READ_USN_JOURNAL", Reason: err.Error()}
				return
			}
			if !sleepOrDone(ctx, errorBackoff) {
				return
			}
			continue
		}
		consecutiveErrors = 0

		if n > 8 {
			currentUsn = int64(binary.LittleEndian.Uint64(buf[0:8]))
			seq = emitFromBuffer(ctx, volume, buf[8:n], &pathCache, events, seq)
		}

		if !sleepOrDone(ctx, pollInterval) {
			return
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func emitFromBuffer(ctx context.Context, volume types.VolumeDescriptor, buf []byte, pathCache *sync.Map, events chan<- types.ChangeEvent, seq int64) int64 {
	offset := uint32(0)
	for offset < uint32(len(buf)) {
		rec, recLen, ok := parseUsnJournalRecord(buf[offset:])
		if !ok || recLen == 0 {
			break
		}
		offset += recLen

		if isSystemName(rec.name) {
			continue
		}

		kind, recognized := classifyReason(rec.reason)
		if !recognized {
			continue
		}
		seq++

		var parentID *types.FileId
		p := types.FileId(rec.parentRef)
		parentID = &p

		fileID := types.FileId(rec.fileRef)
		var change types.ChangeEvent
		switch kind {
		case types.ChangeDeleted:
			change = types.DeletedEvent(volume.ID, fileID, parentID, rec.name, rec.isDir, seq)
			pathCache.Delete(uint64(fileID))
		case types.ChangeCreated:
			change = types.CreatedEvent(volume.ID, fileID, parentID, rec.name, rec.isDir, seq)
			pathCache.Store(uint64(fileID), rec.name)
		case types.ChangeRenamed:
			oldName := ""
			if v, ok := pathCache.Load(uint64(fileID)); ok {
				oldName, _ = v.(string)
			}
			change = types.RenamedEvent(volume.ID, fileID, parentID, oldName, rec.name, parentID, rec.isDir, seq)
			pathCache.Store(uint64(fileID), rec.name)
		default:
			change = types.ModifiedEvent(kind, volume.ID, fileID, parentID, rec.name, rec.isDir, seq)
		}

		select {
		case events <- change:
		case <-ctx.Done():
			return seq
		}
	}
	return seq
}

// classifyReason maps a USN reason bitset to a ChangeKind, prioritized as
// delete, then create, then rename, then data changes. Any other
// combination is an intermediate transition the watcher elects not to
// emit.
func classifyReason(reason uint32) (types.ChangeKind, bool) {
	switch {
	case reason&usnReasonFileDelete != 0:
		return types.ChangeDeleted, true
	case reason&usnReasonFileCreate != 0 && reason&usnReasonClose != 0:
		return types.ChangeCreated, true
	case reason&usnReasonRenameNewName != 0 && reason&usnReasonClose != 0:
		return types.ChangeRenamed, true
	case reason&(usnReasonDataOverwrite|usnReasonDataExtend|usnReasonDataTruncation) != 0 && reason&usnReasonClose != 0:
		return types.ChangeModified, true
	default:
		return 0, false
	}
}

type usnJournalRecord struct {
	fileRef   uint64
	parentRef uint64
	name      string
	isDir     bool
	reason    uint32
}

// parseUsnJournalRecord decodes one v2 or v3 record from the journal read
// buffer, same wire layout as the bulk-scan records in mft.go but also
// surfacing Reason for classification.
func parseUsnJournalRecord(buf []byte) (usnJournalRecord, uint32, bool) {
	if len(buf) < 8 {
		return usnJournalRecord{}, 0, false
	}
	recLen := binary.LittleEndian.Uint32(buf[0:4])
	if recLen == 0 || uint32(len(buf)) < recLen {
		return usnJournalRecord{}, 0, false
	}
	majorVersion := binary.LittleEndian.Uint16(buf[4:6])

	body := buf[:recLen]
	switch majorVersion {
	case 2:
		fileRef := binary.LittleEndian.Uint64(body[8:16]) & fileReferenceMask
		parentRef := binary.LittleEndian.Uint64(body[16:24]) & fileReferenceMask
		reason := binary.LittleEndian.Uint32(body[40:44])
		attrs := binary.LittleEndian.Uint32(body[52:56])
		nameLen := binary.LittleEndian.Uint16(body[56:58])
		nameOff := binary.LittleEndian.Uint16(body[58:60])
		return usnJournalRecord{
			fileRef:   fileRef,
			parentRef: parentRef,
			name:      decodeUTF16Name(body, nameOff, nameLen),
			isDir:     attrs&fileAttributeDirectory != 0,
			reason:    reason,
		}, recLen, true
	case 3:
		fileRef := binary.LittleEndian.Uint64(body[8:16])
		parentRef := binary.LittleEndian.Uint64(body[24:32])
		reason := binary.LittleEndian.Uint32(body[56:60])
		attrs := binary.LittleEndian.Uint32(body[64:68])
		nameLen := binary.LittleEndian.Uint16(body[68:70])
		nameOff := binary.LittleEndian.Uint16(body[70:72])
		return usnJournalRecord{
			fileRef:   fileRef & fileReferenceMask,
			parentRef: parentRef & fileReferenceMask,
			name:      decodeUTF16Name(body, nameOff, nameLen),
			isDir:     attrs&fileAttributeDirectory != 0,
			reason:    reason,
		}, recLen, true
	default:
		return usnJournalRecord{}, recLen, false
	}
}

