package types

// VolumeDescriptor is the identity and capability snapshot of a volume
// known to the catalog.
type VolumeDescriptor struct {
	ID         VolumeId
	MountPoint string
	Label      string
	FSType     string // "NTFS" for the real backend

	TotalBytes uint64
	FreeBytes  uint64

	SupportsChangeJournal bool
	LastJournalState      *JournalState

	// Synthetic is set for volumes whose records come from the
	// recursive-directory fallback scan rather than a real MFT bulk scan.
	// Synthetic FileIds are not guaranteed to be stable across scans. The
	// catalog and search packages do not read this flag: ApplyChange
	// handles events for synthetic volumes like those for any other.
	Synthetic bool
}

// WithCapacity returns a copy of v with total/free bytes set.
func (v VolumeDescriptor) WithCapacity(total, free uint64) VolumeDescriptor {
	v.TotalBytes = total
	v.FreeBytes = free
	return v
}

// JournalState tracks a volume's USN change journal position.
//
// JournalID changes iff the journal was deleted and recreated since the
// state was last observed; LastUSN monotonically tracks the most recent
// processed record.
type JournalState struct {
	JournalID uint64
	LastUSN   int64
}

// IndexStats summarizes the catalog's contents.
type IndexStats struct {
	TotalFiles  uint64
	TotalDirs   uint64
	TotalSize   uint64
	VolumeCount uint32
	LastUpdated int64 // unix nanos; zero means never updated
	Version     uint32
}

// TotalEntries returns TotalFiles + TotalDirs.
func (s IndexStats) TotalEntries() uint64 {
	return s.TotalFiles + s.TotalDirs
}

// CurrentStatsVersion is the format version stamped on freshly built stats.
const CurrentStatsVersion uint32 = 1
