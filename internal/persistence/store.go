package persistence

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/padiauj/glint/internal/catalog"
	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/types"
)

const chunkRecordLimit = 200_000

// IndexFileName and BackupFileName are the fixed names the store writes
// under a base directory.
const (
	IndexFileName  = "index"
	BackupFileName = "index.bak"
	tmpFileName    = "index.tmp"
)

// Store persists and restores a catalog's contents under a base
// directory, following the atomic tmp -> bak -> rename sequence.
type Store struct {
	baseDir string
	log     zerolog.Logger
}

// New returns a Store rooted at baseDir. The directory is created on Save
// if it does not already exist.
func New(baseDir string, log zerolog.Logger) *Store {
	return &Store{baseDir: baseDir, log: log}
}

func (s *Store) indexPath() string  { return filepath.Join(s.baseDir, IndexFileName) }
func (s *Store) backupPath() string { return filepath.Join(s.baseDir, BackupFileName) }
func (s *Store) tmpPath() string    { return filepath.Join(s.baseDir, tmpFileName) }

// Save writes every record in c, plus its stats and volume states, to the
// current index file as a chunked, LZ4-compressed version 2 body
// (encodeV2Body). Version 3 (the archived, mmap-friendly format) is only
// ever written by saveV3, invoked opportunistically by LoadAndUpgrade.
func (s *Store) Save(c *catalog.Catalog) error {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return &glinterrors.FilesystemError{Operation: "mkdir", Reason: err.Error()}
	}

	records := c.AllRecords()
	meta := metaPayload{
		Stats:   c.Stats(),
		Volumes: toVolumeStatePayloads(c.VolumeStates()),
	}

	body, flags, err := encodeV2Body(meta, records)
	if err != nil {
		return &glinterrors.SerializationError{Reason: err.Error()}
	}

	header := Header{Version: 2, Flags: flags, RecordCount: uint64(len(records))}
	footer := EncodeFooter(crc32Of(body))

	full := make([]byte, 0, headerSize+len(body)+footerSize)
	full = append(full, header.Encode()...)
	full = append(full, body...)
	full = append(full, footer...)

	if err := os.WriteFile(s.tmpPath(), full, 0o644); err != nil {
		return &glinterrors.FilesystemError{Operation: "write index.tmp", Reason: err.Error()}
	}

	if _, err := os.Stat(s.indexPath()); err == nil {
		if err := os.Rename(s.indexPath(), s.backupPath()); err != nil {
			return &glinterrors.FilesystemError{Operation: "rotate backup", Reason: err.Error()}
		}
	}

	if err := os.Rename(s.tmpPath(), s.indexPath()); err != nil {
		return &glinterrors.FilesystemError{Operation: "publish index", Reason: err.Error()}
	}

	s.log.Info().Int("records", len(records)).Str("base_dir", s.baseDir).Msg("index saved")
	return nil
}

// Load reads the current index file into a freshly constructed catalog.
func (s *Store) Load() (*catalog.Catalog, error) {
	return s.loadFrom(s.indexPath())
}

// RestoreFromBackup loads from index.bak and, on success, promotes it back
// to index (the prior, possibly corrupt, index is overwritten).
func (s *Store) RestoreFromBackup() (*catalog.Catalog, error) {
	c, err := s.loadFrom(s.backupPath())
	if err != nil {
		return nil, err
	}
	if err := copyFile(s.backupPath(), s.indexPath()); err != nil {
		return nil, &glinterrors.FilesystemError{Operation: "promote backup", Reason: err.Error()}
	}
	return c, nil
}

// LoadAndUpgrade loads the current index file and, if it was written in
// the legacy v1 or chunked v2 format, immediately re-saves it as v3. The
// returned catalog always reflects successfully loaded data regardless of
// whether the upgrade write succeeds; an upgrade failure is logged, not
// returned, since the caller already has a usable catalog.
func (s *Store) LoadAndUpgrade() (*catalog.Catalog, error) {
	raw, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &glinterrors.IndexNotFoundError{Path: s.indexPath()}
		}
		return nil, &glinterrors.FilesystemError{Operation: "read index", Reason: err.Error()}
	}
	header, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}

	c, err := s.loadFrom(s.indexPath())
	if err != nil {
		return nil, err
	}

	if header.Version < 3 {
		if err := s.saveV3(c); err != nil {
			s.log.Warn().Err(err).Msg("opportunistic v3 upgrade failed, keeping loaded catalog")
		}
	}
	return c, nil
}

func (s *Store) saveV3(c *catalog.Catalog) error {
	records := c.AllRecords()
	meta := metaPayload{
		Stats:   c.Stats(),
		Volumes: toVolumeStatePayloads(c.VolumeStates()),
	}
	body, err := encodeV3Body(meta, records)
	if err != nil {
		return &glinterrors.SerializationError{Reason: err.Error()}
	}

	header := Header{Version: 3, Flags: 0, RecordCount: uint64(len(records))}
	footer := EncodeFooter(crc32Of(body))

	full := make([]byte, 0, headerSize+len(body)+footerSize)
	full = append(full, header.Encode()...)
	full = append(full, body...)
	full = append(full, footer...)

	if err := os.WriteFile(s.tmpPath(), full, 0o644); err != nil {
		return &glinterrors.FilesystemError{Operation: "write index.tmp", Reason: err.Error()}
	}
	if _, err := os.Stat(s.indexPath()); err == nil {
		if err := os.Rename(s.indexPath(), s.backupPath()); err != nil {
			return &glinterrors.FilesystemError{Operation: "rotate backup", Reason: err.Error()}
		}
	}
	return os.Rename(s.tmpPath(), s.indexPath())
}

func (s *Store) loadFrom(path string) (*catalog.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &glinterrors.IndexNotFoundError{Path: path}
		}
		return nil, &glinterrors.FilesystemError{Operation: "read index", Reason: err.Error()}
	}

	header, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}

	bodyEnd := len(raw) - footerSize
	if bodyEnd < headerSize {
		return nil, &glinterrors.IndexCorruptedError{Reason: "file too short for declared sections"}
	}
	body := raw[headerSize:bodyEnd]

	crc, err := DecodeFooter(raw)
	if err != nil {
		return nil, err
	}
	if err := validateCRC(body, crc); err != nil {
		return nil, err
	}

	var meta metaPayload
	var records []types.FileRecord

	switch header.Version {
	case 1:
		meta, records, err = decodeV1Body(body, header.Flags)
	case 2:
		meta, records, err = decodeV2Body(body, header.Flags)
	case 3:
		meta, records, err = decodeV3Body(body)
	default:
		err = &glinterrors.IndexVersionMismatchError{Found: header.Version, Expected: CurrentVersion}
	}
	if err != nil {
		return nil, err
	}

	c := catalog.WithCapacity(s.log, len(records))
	byVolume := make(map[types.VolumeId][]types.FileRecord)
	for _, rec := range records {
		byVolume[rec.VolumeID] = append(byVolume[rec.VolumeID], rec)
	}
	descriptors := make(map[types.VolumeId]types.VolumeDescriptor)
	for _, v := range meta.Volumes {
		descriptors[v.Descriptor.ID] = v.Descriptor
	}
	for volumeID, recs := range byVolume {
		desc, ok := descriptors[volumeID]
		if !ok {
			desc = types.VolumeDescriptor{ID: volumeID}
		}
		c.AddVolumeRecords(desc, recs)
	}

	return c, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
