package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padiauj/glint/internal/logging"
	"github.com/padiauj/glint/internal/search"
	"github.com/padiauj/glint/internal/types"
)

func testDescriptor() types.VolumeDescriptor {
	return types.VolumeDescriptor{ID: "C", MountPoint: `C:\`, FSType: "NTFS"}
}

func seedRecords() []types.FileRecord {
	root := types.RootFileId
	docsID := types.FileId(10)
	return []types.FileRecord{
		types.NewFileRecord(root, nil, "C", "", `C:\`, true),
		types.NewFileRecord(docsID, &root, "C", "Documents", `C:\Documents`, true),
		types.NewFileRecord(11, &docsID, "C", "report.pdf", `C:\Documents\report.pdf`, false),
		types.NewFileRecord(12, &docsID, "C", "notes.TXT", `C:\Documents\notes.TXT`, false),
	}
}

func TestAddAndSearch(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	q, err := search.ParseQuery("report")
	require.NoError(t, err)

	hits := search.Search(c.AllRecords(), q)
	require.Len(t, hits, 1)
	assert.Equal(t, "report.pdf", hits[0].Record.Name)
}

func TestSearchCaseInsensitive(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	q, err := search.ParseQuery("notes")
	require.NoError(t, err)

	hits := search.Search(c.AllRecords(), q)
	require.Len(t, hits, 1)
	assert.Equal(t, "notes.TXT", hits[0].Record.Name)
}

func TestSearchExtension(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	q, err := search.ParseQuery("ext:txt")
	require.NoError(t, err)

	hits := search.Search(c.AllRecords(), q)
	require.Len(t, hits, 1)
	assert.Equal(t, "notes.TXT", hits[0].Record.Name)
}

func TestGetChildren(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	children := c.GetChildren("C", types.FileId(10))
	names := make([]string, len(children))
	for i, rec := range children {
		names[i] = rec.Name
	}
	assert.ElementsMatch(t, []string{"report.pdf", "notes.TXT"}, names)
}

func TestStats(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.TotalFiles)
	assert.Equal(t, uint64(1), stats.TotalDirs) // the volume root is a tombstone placeholder, not counted
	assert.Equal(t, uint32(1), stats.VolumeCount)
}

func TestApplyCreateChange(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	docsID := types.FileId(10)
	before := c.Generation()
	err := c.ApplyChange(types.CreatedEvent("C", 99, &docsID, "new.log", false, 1))
	require.NoError(t, err)

	rec, ok := c.Get("C", 99)
	require.True(t, ok)
	assert.Equal(t, "new.log", rec.Name)
	assert.Greater(t, c.Generation(), before)

	stats := c.Stats()
	assert.Equal(t, uint64(3), stats.TotalFiles)
}

func TestApplyDeleteChange(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	err := c.ApplyChange(types.DeletedEvent("C", 11, nil, "report.pdf", false, 2))
	require.NoError(t, err)

	_, ok := c.Get("C", 11)
	assert.False(t, ok, "deleted records are removed from the id index and unreachable via Get")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.TotalFiles)
}

func TestApplyRenameChange(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	docsID := types.FileId(10)
	newName := "final-report.pdf"
	err := c.ApplyChange(types.RenamedEvent("C", 11, &docsID, "report.pdf", newName, &docsID, false, 3))
	require.NoError(t, err)

	rec, ok := c.Get("C", 11)
	require.True(t, ok)
	assert.Equal(t, newName, rec.Name)
	assert.Contains(t, rec.Path, newName)
}

func TestRemoveVolume(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())
	require.Equal(t, len(seedRecords()), c.Len())

	c.RemoveVolume("C")
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint32(0), c.Stats().VolumeCount)
}

func TestGeneration(t *testing.T) {
	c := New(logging.Nop())
	g0 := c.Generation()
	c.AddVolumeRecords(testDescriptor(), seedRecords())
	g1 := c.Generation()
	assert.Greater(t, g1, g0)
}

func TestMarkAndListVolumesNeedingRescan(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	c.MarkNeedsRescan("C", "journal truncated")

	volumes := c.VolumesNeedingRescan()
	require.Len(t, volumes, 1)
	assert.Equal(t, types.VolumeId("C"), volumes[0].ID)
}

func TestClear(t *testing.T) {
	c := New(logging.Nop())
	c.AddVolumeRecords(testDescriptor(), seedRecords())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(0), c.Stats().TotalFiles)
}
