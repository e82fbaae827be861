package persistence

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padiauj/glint/internal/catalog"
	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/logging"
	"github.com/padiauj/glint/internal/types"
)

func seedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New(logging.Nop())
	root := types.RootFileId
	docsID := types.FileId(10)
	c.AddVolumeRecords(types.VolumeDescriptor{ID: "C", FSType: "NTFS"}, []types.FileRecord{
		types.NewFileRecord(root, nil, "C", "", `C:\`, true),
		types.NewFileRecord(docsID, &root, "C", "Documents", `C:\Documents`, true),
		types.NewFileRecord(11, &docsID, "C", "report.pdf", `C:\Documents\report.pdf`, false),
	})
	return c
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, logging.Nop())

	original := seedCatalog(t)
	require.NoError(t, store.Save(original))

	loaded, err := store.Load()
	require.NoError(t, err)

	got, ok := loaded.Get("C", 11)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", got.Name)
	assert.Equal(t, original.Stats().TotalFiles, loaded.Stats().TotalFiles)
}

func TestSaveCreatesBackupOnSecondWrite(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, logging.Nop())

	require.NoError(t, store.Save(seedCatalog(t)))
	require.NoError(t, store.Save(seedCatalog(t)))

	assert.FileExists(t, filepath.Join(dir, IndexFileName))
	assert.FileExists(t, filepath.Join(dir, BackupFileName))
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, logging.Nop())
	require.NoError(t, store.Save(seedCatalog(t)))

	path := filepath.Join(dir, IndexFileName)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	header, err := DecodeHeader(raw)
	require.NoError(t, err)
	assert.LessOrEqual(t, header.Version, CurrentVersion)

	binary.LittleEndian.PutUint32(raw[4:8], CurrentVersion+1)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = store.Load()
	var mismatch *glinterrors.IndexVersionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, CurrentVersion+1, mismatch.Found)
}

func TestV3RoundTrip(t *testing.T) {
	c := seedCatalog(t)
	meta := metaPayload{Stats: c.Stats(), Volumes: toVolumeStatePayloads(c.VolumeStates())}
	records := c.AllRecords()

	body, err := encodeV3Body(meta, records)
	require.NoError(t, err)

	gotMeta, gotRecords, err := decodeV3Body(body)
	require.NoError(t, err)
	assert.Equal(t, meta.Stats.TotalFiles, gotMeta.Stats.TotalFiles)
	assert.Len(t, gotRecords, len(records))
}
