// Package backend defines the platform abstraction between the catalog
// and the underlying filesystem: volume discovery, a full bulk scan, and
// a live change stream. internal/backend/ntfs implements it against the
// Windows USN change journal; internal/backend/fallback implements it
// with a recursive directory walk plus fsnotify. Select picks one of the
// two at compile time: ntfs on Windows, fallback everywhere else.
package backend

import (
	"context"

	"github.com/padiauj/glint/internal/types"
)

// Backend is the platform-specific source of volumes, bulk scans, and
// live change events.
type Backend interface {
	// Name identifies the backend for logging ("ntfs-usn", "fallback").
	Name() string

	// ListVolumes enumerates volumes this backend can index.
	ListVolumes(ctx context.Context) ([]types.VolumeDescriptor, error)

	// FullScan performs a complete bulk enumeration of volume, invoking
	// emit for every record discovered. Implementations may call emit
	// from multiple goroutines; emit must be safe for concurrent use.
	FullScan(ctx context.Context, volume types.VolumeDescriptor, emit func(types.FileRecord)) error

	// WatchChanges streams live change events for volume onto the
	// returned channel until ctx is canceled or an unrecoverable error
	// occurs, which is sent on the error channel before both channels
	// close.
	WatchChanges(ctx context.Context, volume types.VolumeDescriptor) (<-chan types.ChangeEvent, <-chan error)

	// GetJournalState returns the backend's current notion of volume's
	// change-tracking position, if it has one.
	GetJournalState(volume types.VolumeDescriptor) (*types.JournalState, bool)
}
