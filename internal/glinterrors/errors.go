// Package glinterrors defines the error taxonomy shared by every layer of
// the indexing and search engine. Each kind is its own type so callers can
// discriminate with errors.As; RequiresRescan and IsRecoverable implement
// the two recovery predicates the rest of the codebase relies on.
package glinterrors

import "fmt"

// IndexNotFoundError reports a missing index file.
type IndexNotFoundError struct {
	Path string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index not found at %s", e.Path)
}

// IndexCorruptedError reports an unreadable or checksum-invalid index file.
type IndexCorruptedError struct {
	Reason string
}

func (e *IndexCorruptedError) Error() string {
	return fmt.Sprintf("index is corrupted: %s", e.Reason)
}

// IndexVersionMismatchError reports an on-disk format newer than this
// binary understands.
type IndexVersionMismatchError struct {
	Found, Expected uint32
}

func (e *IndexVersionMismatchError) Error() string {
	return fmt.Sprintf("index version mismatch: found %d, expected %d", e.Found, e.Expected)
}

// IndexStaleError reports a volume whose index is known to be out of date.
type IndexStaleError struct {
	Volume string
	Reason string
}

func (e *IndexStaleError) Error() string {
	return fmt.Sprintf("index is stale for volume %s: %s", e.Volume, e.Reason)
}

// VolumeNotFoundError reports a volume that could not be located.
type VolumeNotFoundError struct {
	Volume string
}

func (e *VolumeNotFoundError) Error() string {
	return fmt.Sprintf("volume not found: %s", e.Volume)
}

// PermissionDeniedError reports an access-denied filesystem operation,
// reported distinctly from other I/O failures so the caller can choose
// elevation or the recursive-directory fallback.
type PermissionDeniedError struct {
	Operation, Path string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s on %s", e.Operation, e.Path)
}

// JournalUnavailableError reports a disabled or inaccessible USN journal.
type JournalUnavailableError struct {
	Volume, Reason string
}

func (e *JournalUnavailableError) Error() string {
	return fmt.Sprintf("USN journal unavailable for volume %s: %s", e.Volume, e.Reason)
}

// JournalTruncatedError reports a journal whose earliest retained USN has
// advanced past the watcher's last processed USN.
type JournalTruncatedError struct {
	Volume string
}

func (e *JournalTruncatedError) Error() string {
	return fmt.Sprintf("USN journal truncated for volume %s, rescan required", e.Volume)
}

// JournalIDChangedError reports that the journal was deleted and recreated
// since the watcher last observed it.
type JournalIDChangedError struct {
	Volume string
}

func (e *JournalIDChangedError) Error() string {
	return fmt.Sprintf("USN journal ID changed for volume %s, rescan required", e.Volume)
}

// FilesystemError is a generic filesystem operation failure.
type FilesystemError struct {
	Operation, Reason string
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error: %s failed: %s", e.Operation, e.Reason)
}

// InvalidPatternError reports a malformed search pattern (e.g. bad regex).
type InvalidPatternError struct {
	Pattern, Reason string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid search pattern %q: %s", e.Pattern, e.Reason)
}

// ConfigError reports a configuration load/parse failure.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// SerializationError reports a (de)serialization failure in the persistence
// layer.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %s", e.Reason)
}

// RequiresRescan reports whether err indicates the affected volume's index
// must be rebuilt via a fresh bulk scan.
func RequiresRescan(err error) bool {
	switch err.(type) {
	case *IndexNotFoundError, *IndexCorruptedError, *IndexVersionMismatchError,
		*IndexStaleError, *JournalTruncatedError, *JournalIDChangedError:
		return true
	default:
		return false
	}
}

// IsRecoverable reports whether err is transient, so a caller may sleep and
// retry rather than give up. The ntfs journal watcher does not call it: it
// retries any failed read up to a fixed number of consecutive times.
func IsRecoverable(err error) bool {
	switch err.(type) {
	case *FilesystemError:
		return true
	default:
		return false
	}
}
