// Package fallback implements the degraded indexing path that
// backend.Select uses on every non-Windows build: a recursive directory
// walk for the bulk scan, and an fsnotify watch tree standing in for
// journal-derived change events. Records produced here carry synthetic,
// scan-local FileIds with no parent pointer; the scan command marks the
// descriptors it builds for such paths as Synthetic.
package fallback

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/types"
)

// Backend implements backend.Backend via os.ReadDir and fsnotify. It has
// no knowledge of NTFS internals and works on any filesystem Go's os
// package can walk.
type Backend struct {
	log    zerolog.Logger
	nextID atomic.Uint64
}

// New constructs a fallback backend. log receives progress and error
// messages.
func New(log zerolog.Logger) *Backend {
	b := &Backend{log: log}
	b.nextID.Store(uint64(types.FallbackFileIdBase))
	return b
}

func (b *Backend) Name() string { return "fallback" }

// ListVolumes is a no-op for the fallback backend: callers construct a
// synthetic VolumeDescriptor themselves, typically one per root directory
// they want scanned, since the fallback has no volume-enumeration
// privilege of its own.
func (b *Backend) ListVolumes(ctx context.Context) ([]types.VolumeDescriptor, error) {
	return nil, nil
}

// FullScan recursively walks volume.MountPoint, emitting a FileRecord for
// every entry it can stat. Permission errors on individual entries are
// logged and skipped rather than aborting the whole scan.
func (b *Backend) FullScan(ctx context.Context, volume types.VolumeDescriptor, emit func(types.FileRecord)) error {
	root := volume.MountPoint
	if root == "" {
		return &glinterrors.FilesystemError{Operation: "fallback scan", Reason: "empty mount point"}
	}

	var files, dirs uint64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if os.IsPermission(err) {
				b.log.Warn().Str("path", path).Msg("permission denied, skipping")
				return nil
			}
			return nil
		}

		name := d.Name()
		if isSystemName(name) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		var size *uint64
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				s := uint64(info.Size())
				size = &s
			}
			files++
		} else {
			dirs++
		}

		id := types.FileId(b.nextID.Add(1))
		rec := types.NewFileRecord(id, nil, volume.ID, name, path, d.IsDir())
		rec.Size = size
		emit(rec)

		if (files+dirs)%10_000 == 0 {
			b.log.Debug().Uint64("files", files).Uint64("dirs", dirs).Msg("fallback scan progress")
		}
		return nil
	})
	if err != nil && err != context.Canceled {
		return &glinterrors.FilesystemError{Operation: "fallback scan", Reason: err.Error()}
	}
	b.log.Info().Uint64("files", files).Uint64("dirs", dirs).Msg("fallback scan complete")
	return nil
}

// WatchChanges watches volume.MountPoint's directory tree with fsnotify,
// translating its Create/Write/Remove/Rename events into ChangeEvents.
// Because fsnotify does not hand out stable file identities the way the
// USN journal does, every event here carries a freshly allocated FileId;
// callers must not assume FileId continuity for fallback-sourced volumes.
func (b *Backend) WatchChanges(ctx context.Context, volume types.VolumeDescriptor) (<-chan types.ChangeEvent, <-chan error) {
	events := make(chan types.ChangeEvent)
	errs := make(chan error, 1)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errs <- &glinterrors.FilesystemError{Operation: "fsnotify init", Reason: err.Error()}
		close(events)
		close(errs)
		return events, errs
	}

	if err := addRecursive(watcher, volume.MountPoint); err != nil {
		errs <- err
		close(events)
		close(errs)
		watcher.Close()
		return events, errs
	}

	go b.watchLoop(ctx, volume, watcher, events, errs)
	return events, errs
}

func (b *Backend) watchLoop(ctx context.Context, volume types.VolumeDescriptor, watcher *fsnotify.Watcher, events chan<- types.ChangeEvent, errs chan<- error) {
	defer close(events)
	defer close(errs)
	defer watcher.Close()

	var seq int64
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			seq++
			name := filepath.Base(ev.Name)
			if isSystemName(name) {
				continue
			}
			isDir := false
			if info, err := os.Stat(ev.Name); err == nil {
				isDir = info.IsDir()
			}
			id := types.FileId(b.nextID.Add(1))

			var change types.ChangeEvent
			switch {
			case ev.Op&fsnotify.Create != 0:
				change = types.CreatedEvent(volume.ID, id, nil, name, isDir, seq)
				if isDir {
					watcher.Add(ev.Name)
				}
			case ev.Op&fsnotify.Remove != 0:
				change = types.DeletedEvent(volume.ID, id, nil, name, isDir, seq)
			case ev.Op&fsnotify.Rename != 0:
				change = types.RenamedEvent(volume.ID, id, nil, "", name, nil, isDir, seq)
			case ev.Op&fsnotify.Write != 0:
				change = types.ModifiedEvent(types.ChangeModified, volume.ID, id, nil, name, isDir, seq)
			default:
				continue
			}

			select {
			case events <- change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			b.log.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// GetJournalState always reports no journal state: the fallback backend
// has no change-tracking position of its own.
func (b *Backend) GetJournalState(volume types.VolumeDescriptor) (*types.JournalState, bool) {
	return nil, false
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if addErr := watcher.Add(path); addErr != nil {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return &glinterrors.FilesystemError{Operation: "fsnotify add tree", Reason: err.Error()}
	}
	return nil
}

func isSystemName(name string) bool {
	return name == "" || name == "." || name == ".." || (len(name) > 0 && name[0] == '$')
}
