// Package catalog implements the in-memory, concurrently-readable record
// store at the heart of the index. Many readers may search simultaneously;
// writers (bulk scans and change events) are serialized via the record
// sequence's lock, while the auxiliary ID and parent-child maps are
// lock-free concurrent maps updated strictly after the record they
// describe becomes visible.
package catalog

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/padiauj/glint/internal/syncmap"
	"github.com/padiauj/glint/internal/types"
)

// VolumeState tracks what the catalog knows about one indexed volume.
type VolumeState struct {
	Descriptor   types.VolumeDescriptor
	JournalState *types.JournalState
	RecordCount  uint64
	NeedsRescan  bool
}

// Catalog is the shared source of truth for indexed files and directories.
// The zero value is not usable; construct with New.
type Catalog struct {
	mu      sync.RWMutex
	records []types.FileRecord

	idIndex  syncmap.Map[types.VolumeFileId, int]
	children syncmap.Map[types.VolumeFileId, []int]

	statsMu sync.RWMutex
	stats   types.IndexStats

	volumesMu sync.RWMutex
	volumes   map[types.VolumeId]*VolumeState

	generation atomic.Uint64

	log zerolog.Logger
}

// New creates an empty catalog that logs through log.
func New(log zerolog.Logger) *Catalog {
	return &Catalog{
		volumes: make(map[types.VolumeId]*VolumeState),
		stats:   types.IndexStats{Version: types.CurrentStatsVersion},
		log:     log,
	}
}

// WithCapacity creates an empty catalog pre-sized for capacity records, for
// callers (bulk scan callers, persistence loaders) that know roughly how
// many records are coming and want to avoid repeated slice growth.
func WithCapacity(log zerolog.Logger, capacity int) *Catalog {
	c := New(log)
	c.records = make([]types.FileRecord, 0, capacity)
	return c
}

// Len returns the number of record slots in the catalog, including
// tombstones.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Generation returns the current modification counter. It is safe to call
// without holding any other lock; search callers use it to detect snapshot
// drift between paging calls without re-acquiring the record lock.
func (c *Catalog) Generation() uint64 {
	return c.generation.Load()
}

// Stats returns a copy of the current index statistics.
func (c *Catalog) Stats() types.IndexStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// AddVolumeRecords atomically replaces a volume's records with records. Any
// existing records belonging to descriptor.ID are removed first (see
// RemoveVolume), then the supplied list is appended and indexed.
func (c *Catalog) AddVolumeRecords(descriptor types.VolumeDescriptor, records []types.FileRecord) {
	sessionID := uuid.NewString()
	logger := c.log.With().Str("volume", string(descriptor.ID)).Str("scan_session", sessionID).Logger()
	logger.Info().Int("records", len(records)).Msg("adding records from volume scan")

	c.RemoveVolume(descriptor.ID)

	c.mu.Lock()
	base := len(c.records)

	var files, dirs, totalSize uint64
	for i := range records {
		rec := records[i]
		rec.InitCache()
		idx := base + i

		key := rec.Key()
		c.idIndex.Store(key, idx)

		if rec.ParentID != nil {
			pkey := types.VolumeFileId{Volume: rec.VolumeID, File: *rec.ParentID}
			c.appendChild(pkey, idx)
		}

		if !rec.IsTombstone() {
			if rec.IsDir {
				dirs++
			} else {
				files++
				if rec.Size != nil {
					totalSize += *rec.Size
				}
			}
		}

		c.records = append(c.records, rec)
	}
	c.mu.Unlock()

	c.volumesMu.Lock()
	c.volumes[descriptor.ID] = &VolumeState{
		Descriptor:   descriptor,
		JournalState: descriptor.LastJournalState,
		RecordCount:  uint64(len(records)),
	}
	volumeCount := len(c.volumes)
	c.volumesMu.Unlock()

	c.statsMu.Lock()
	c.stats.TotalFiles += files
	c.stats.TotalDirs += dirs
	c.stats.TotalSize += totalSize
	c.stats.VolumeCount = uint32(volumeCount)
	c.stats.LastUpdated = time.Now().UnixNano()
	c.statsMu.Unlock()

	c.generation.Add(1)
	logger.Info().Uint64("files", files).Uint64("dirs", dirs).Msg("volume indexing complete")
}

// appendChild adds idx to parent's child list. It uses the lock-free
// children map and never touches c.mu, so callers may call it with or
// without c.mu held.
func (c *Catalog) appendChild(parent types.VolumeFileId, idx int) {
	for {
		existing, ok := c.children.Load(parent)
		if !ok {
			if _, loaded := c.children.LoadOrStore(parent, []int{idx}); !loaded {
				return
			}
			continue
		}
		updated := append(append([]int(nil), existing...), idx)
		// best effort CAS-by-overwrite; concurrent appends to the same
		// parent are rare (single-writer discipline at the catalog level)
		c.children.Store(parent, updated)
		return
	}
}

// RemoveVolume deletes every record belonging to volumeID, compacting the
// record sequence and rebuilding both auxiliary maps. This is the only
// operation that renumbers positions.
func (c *Catalog) RemoveVolume(volumeID types.VolumeId) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.records[:0:0]
	removed := 0
	var files, dirs, totalSize uint64
	for _, rec := range c.records {
		if rec.VolumeID == volumeID {
			removed++
			if !rec.IsTombstone() {
				if rec.IsDir {
					dirs++
				} else {
					files++
					if rec.Size != nil {
						totalSize += *rec.Size
					}
				}
			}
			continue
		}
		kept = append(kept, rec)
	}
	if removed == 0 {
		return
	}
	c.records = kept

	c.idIndex.Clear()
	c.children.Clear()
	for i, rec := range c.records {
		key := rec.Key()
		c.idIndex.Store(key, i)
		if rec.ParentID != nil {
			pkey := types.VolumeFileId{Volume: rec.VolumeID, File: *rec.ParentID}
			c.appendChild(pkey, i)
		}
	}

	c.volumesMu.Lock()
	delete(c.volumes, volumeID)
	volumeCount := len(c.volumes)
	c.volumesMu.Unlock()

	c.statsMu.Lock()
	c.stats.TotalFiles -= min(files, c.stats.TotalFiles)
	c.stats.TotalDirs -= min(dirs, c.stats.TotalDirs)
	c.stats.TotalSize -= min(totalSize, c.stats.TotalSize)
	c.stats.VolumeCount = uint32(volumeCount)
	c.stats.LastUpdated = time.Now().UnixNano()
	c.statsMu.Unlock()

	c.generation.Add(1)
	c.log.Debug().Str("volume", string(volumeID)).Int("removed", removed).Msg("removed volume records")
}

// Get looks up a single record by identity. Records deleted through
// ApplyChange are removed from the id index and are not found; a record
// added with an empty name is still indexed and is returned (the caller
// can check IsTombstone).
func (c *Catalog) Get(volumeID types.VolumeId, fileID types.FileId) (types.FileRecord, bool) {
	idx, ok := c.idIndex.Load(types.VolumeFileId{Volume: volumeID, File: fileID})
	if !ok {
		return types.FileRecord{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx < 0 || idx >= len(c.records) {
		return types.FileRecord{}, false
	}
	return c.records[idx], true
}

// GetChildren returns the non-tombstone children of parentID on volumeID.
func (c *Catalog) GetChildren(volumeID types.VolumeId, parentID types.FileId) []types.FileRecord {
	indices, ok := c.children.Load(types.VolumeFileId{Volume: volumeID, File: parentID})
	if !ok {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.FileRecord, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(c.records) {
			continue
		}
		rec := c.records[idx]
		if rec.IsTombstone() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// AllRecords returns a copy of every record slot, including tombstones.
// Used by the persistence layer to snapshot the catalog for saving.
func (c *Catalog) AllRecords() []types.FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.FileRecord, len(c.records))
	copy(out, c.records)
	return out
}

// VolumeStates returns a snapshot of every tracked volume's state.
func (c *Catalog) VolumeStates() []VolumeState {
	c.volumesMu.RLock()
	defer c.volumesMu.RUnlock()
	out := make([]VolumeState, 0, len(c.volumes))
	for _, v := range c.volumes {
		out = append(out, *v)
	}
	return out
}

// UpdateJournalState records the latest known journal position for a
// watched volume.
func (c *Catalog) UpdateJournalState(volumeID types.VolumeId, state types.JournalState) {
	c.volumesMu.Lock()
	defer c.volumesMu.Unlock()
	if v, ok := c.volumes[volumeID]; ok {
		s := state
		v.JournalState = &s
	}
}

// MarkNeedsRescan flags a volume as requiring a fresh bulk scan, typically
// because its journal watcher observed a truncation or journal ID change.
func (c *Catalog) MarkNeedsRescan(volumeID types.VolumeId, reason string) {
	c.volumesMu.Lock()
	defer c.volumesMu.Unlock()
	if v, ok := c.volumes[volumeID]; ok {
		v.NeedsRescan = true
	}
	c.log.Warn().Str("volume", string(volumeID)).Str("reason", reason).Msg("volume marked for rescan")
}

// VolumesNeedingRescan returns descriptors for every volume currently
// flagged by MarkNeedsRescan.
func (c *Catalog) VolumesNeedingRescan() []types.VolumeDescriptor {
	c.volumesMu.RLock()
	defer c.volumesMu.RUnlock()
	var out []types.VolumeDescriptor
	for _, v := range c.volumes {
		if v.NeedsRescan {
			out = append(out, v.Descriptor)
		}
	}
	return out
}

// Clear empties the entire catalog.
func (c *Catalog) Clear() {
	c.mu.Lock()
	c.records = nil
	c.mu.Unlock()

	c.idIndex.Clear()
	c.children.Clear()

	c.statsMu.Lock()
	c.stats = types.IndexStats{Version: types.CurrentStatsVersion}
	c.statsMu.Unlock()

	c.volumesMu.Lock()
	c.volumes = make(map[types.VolumeId]*VolumeState)
	c.volumesMu.Unlock()

	c.generation.Add(1)
}

// ApplyChange folds a single journal-derived change event into the
// catalog, dispatching by kind. It returns the error returned by the
// matching handler, if any. Generation is bumped unconditionally after
// dispatch, even when the handler found nothing to mutate: generation
// counts applied events, not successful mutations.
func (c *Catalog) ApplyChange(event types.ChangeEvent) error {
	var err error
	switch event.Kind {
	case types.ChangeCreated:
		err = c.applyCreate(event)
	case types.ChangeDeleted:
		err = c.applyDelete(event)
	case types.ChangeRenamed:
		err = c.applyRename(event)
	default:
		err = c.applyModified(event)
	}
	c.generation.Add(1)
	return err
}

func (c *Catalog) applyCreate(event types.ChangeEvent) error {
	path := c.buildPath(event.VolumeID, event.ParentID, event.Name)
	rec := types.NewFileRecord(event.FileID, event.ParentID, event.VolumeID, event.Name, path, event.IsDir)
	rec.InitCache()
	key := rec.Key()

	c.mu.Lock()
	if idx, ok := c.idIndex.Load(key); ok && idx < len(c.records) {
		c.records[idx] = rec
		c.mu.Unlock()
	} else {
		idx := len(c.records)
		c.records = append(c.records, rec)
		c.mu.Unlock()
		c.idIndex.Store(key, idx)
		if event.ParentID != nil {
			c.appendChild(types.VolumeFileId{Volume: event.VolumeID, File: *event.ParentID}, idx)
		}
	}

	c.bumpStatsForCreate(rec)
	return nil
}

func (c *Catalog) applyDelete(event types.ChangeEvent) error {
	key := types.VolumeFileId{Volume: event.VolumeID, File: event.FileID}
	idx, ok := c.idIndex.Load(key)
	if !ok {
		return nil
	}

	c.mu.Lock()
	if idx < 0 || idx >= len(c.records) {
		c.mu.Unlock()
		return nil
	}
	old := c.records[idx]
	c.records[idx].Name = ""
	c.records[idx].NameLower = ""
	c.records[idx].Path = ""
	c.mu.Unlock()

	c.idIndex.Delete(key)

	if !old.IsTombstone() {
		c.statsMu.Lock()
		if old.IsDir {
			if c.stats.TotalDirs > 0 {
				c.stats.TotalDirs--
			}
		} else {
			if c.stats.TotalFiles > 0 {
				c.stats.TotalFiles--
			}
			if old.Size != nil && *old.Size <= c.stats.TotalSize {
				c.stats.TotalSize -= *old.Size
			}
		}
		c.stats.LastUpdated = time.Now().UnixNano()
		c.statsMu.Unlock()
	}

	return nil
}

func (c *Catalog) applyRename(event types.ChangeEvent) error {
	key := types.VolumeFileId{Volume: event.VolumeID, File: event.FileID}
	idx, ok := c.idIndex.Load(key)
	if !ok {
		// Rename of a record we never observed a create for; treat it as a
		// late create so the name isn't lost.
		return c.applyCreate(event)
	}

	newName := event.Name
	if event.NewName != nil {
		newName = *event.NewName
	}
	newParent := event.ParentID
	if event.NewParentID != nil {
		newParent = event.NewParentID
	}

	c.mu.Lock()
	if idx < 0 || idx >= len(c.records) {
		c.mu.Unlock()
		return nil
	}
	rec := c.records[idx]
	rec.Name = newName
	rec.NameLower = ""
	rec.ParentID = newParent
	rec.InitCache()
	c.mu.Unlock()
	rec.Path = c.buildPath(event.VolumeID, newParent, newName)
	c.mu.Lock()
	c.records[idx] = rec
	c.mu.Unlock()

	if newParent != nil {
		c.appendChild(types.VolumeFileId{Volume: event.VolumeID, File: *newParent}, idx)
	}

	return nil
}

func (c *Catalog) applyModified(event types.ChangeEvent) error {
	key := types.VolumeFileId{Volume: event.VolumeID, File: event.FileID}
	idx, ok := c.idIndex.Load(key)
	if !ok {
		return nil
	}
	c.mu.Lock()
	if idx < 0 || idx >= len(c.records) {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return nil
}

func (c *Catalog) bumpStatsForCreate(rec types.FileRecord) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	if rec.IsDir {
		c.stats.TotalDirs++
	} else {
		c.stats.TotalFiles++
		if rec.Size != nil {
			c.stats.TotalSize += *rec.Size
		}
	}
	c.stats.LastUpdated = time.Now().UnixNano()
}

// snapshot returns a read-locked view of the record slice for search. The
// caller MUST call the returned release function exactly once.
func (c *Catalog) snapshot() (records []types.FileRecord, release func()) {
	c.mu.RLock()
	return c.records, c.mu.RUnlock
}

// buildPath walks parent pointers to reconstruct an absolute path for
// (volumeID, parentID)/name, applying the same 256-depth loop guard as the
// bulk scanner.
func (c *Catalog) buildPath(volumeID types.VolumeId, parentID *types.FileId, name string) string {
	parts := []string{name}

	current := parentID
	c.mu.RLock()
	for depth := 0; current != nil && depth < 256; depth++ {
		idx, ok := c.idIndex.Load(types.VolumeFileId{Volume: volumeID, File: *current})
		if !ok || idx < 0 || idx >= len(c.records) {
			break
		}
		parent := c.records[idx]
		if parent.Name != "" {
			parts = append(parts, parent.Name)
		}
		current = parent.ParentID
	}
	c.mu.RUnlock()

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	mount := c.mountPointFor(volumeID)
	return mount + strings.Join(parts, "\\")
}

// mountPointFor returns the drive-letter mount point a volume was last
// scanned under. VolumeId is derived from the volume serial number and is
// not itself a usable path prefix (internal/backend/ntfs/volume.go sets
// them independently), so this looks up the real MountPoint recorded by
// AddVolumeRecords rather than deriving one from the id.
func (c *Catalog) mountPointFor(volumeID types.VolumeId) string {
	c.volumesMu.RLock()
	defer c.volumesMu.RUnlock()
	if v, ok := c.volumes[volumeID]; ok && v.Descriptor.MountPoint != "" {
		return strings.TrimSuffix(v.Descriptor.MountPoint, "\\") + "\\"
	}
	return string(volumeID) + ":\\"
}
