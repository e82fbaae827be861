package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padiauj/glint/internal/types"
)

func rec(id uint64, name string, isDir bool, size uint64) types.FileRecord {
	r := types.NewFileRecord(types.FileId(id), nil, "C", name, `C:\`+name, isDir)
	r.Size = &size
	return r
}

func testRecords() []types.FileRecord {
	return []types.FileRecord{
		rec(1, "readme.txt", false, 120),
		rec(2, "photo.JPG", false, 4096),
		rec(3, "Documents", true, 0),
		rec(4, "report.pdf", false, 20000),
		rec(5, ".bashrc", false, 80),
	}
}

func TestSearchSubstringCaseInsensitive(t *testing.T) {
	q, err := ParseQuery("photo")
	require.NoError(t, err)

	hits := Search(testRecords(), q)
	require.Len(t, hits, 1)
	assert.Equal(t, "photo.JPG", hits[0].Record.Name)
}

func TestSearchExtensionFilter(t *testing.T) {
	q, err := ParseQuery("ext:pdf,txt")
	require.NoError(t, err)

	hits := Search(testRecords(), q)
	names := hitNames(hits)
	assert.ElementsMatch(t, []string{"readme.txt", "report.pdf"}, names)
}

func TestSearchFilesOnly(t *testing.T) {
	q, err := ParseQuery("files:")
	require.NoError(t, err)

	hits := Search(testRecords(), q)
	for _, h := range hits {
		assert.False(t, h.Record.IsDir)
	}
	assert.Len(t, hits, 4)
}

func TestSearchDirsOnly(t *testing.T) {
	q, err := ParseQuery("dir:")
	require.NoError(t, err)

	hits := Search(testRecords(), q)
	require.Len(t, hits, 1)
	assert.Equal(t, "Documents", hits[0].Record.Name)
}

func TestSearchWildcard(t *testing.T) {
	q, err := ParseQuery("*.txt")
	require.NoError(t, err)

	hits := Search(testRecords(), q)
	require.Len(t, hits, 1)
	assert.Equal(t, "readme.txt", hits[0].Record.Name)
}

func TestSearchRegex(t *testing.T) {
	q, err := ParseQuery("r/^report\\..+$/")
	require.NoError(t, err)

	hits := Search(testRecords(), q)
	require.Len(t, hits, 1)
	assert.Equal(t, "report.pdf", hits[0].Record.Name)
}

func TestSearchMinMaxSize(t *testing.T) {
	q, err := ParseQuery("")
	require.NoError(t, err)
	q.Filters = append(q.Filters, MinSizeFilter{Bytes: 100}, MaxSizeFilter{Bytes: 5000})

	hits := Search(testRecords(), q)
	names := hitNames(hits)
	assert.ElementsMatch(t, []string{"readme.txt", "photo.JPG"}, names)
}

func TestSearchLimited(t *testing.T) {
	q, err := ParseQuery("")
	require.NoError(t, err)

	hits := SearchLimited(testRecords(), q, 2)
	assert.Len(t, hits, 2)
}

func TestSearchSkipsTombstones(t *testing.T) {
	records := testRecords()
	records[0].Name = ""
	records[0].NameLower = ""
	records[0].Path = ""

	q, err := ParseQuery("")
	require.NoError(t, err)

	hits := Search(records, q)
	assert.Len(t, hits, 4)
}

func TestScoreShorterNameWinsAndDirsBonus(t *testing.T) {
	short := rec(1, "a.txt", false, 1)
	long := rec(2, "a-much-longer-name.txt", false, 1)
	dir := rec(3, "d", true, 0)

	assert.Greater(t, Score(&short), Score(&long))
	assert.Equal(t, Score(&dir), 1000-1+10)
}

func TestIsExtensionOf(t *testing.T) {
	prev, err := ParseQuery("rep")
	require.NoError(t, err)
	next, err := ParseQuery("report")
	require.NoError(t, err)
	other, err := ParseQuery("ext:pdf rep")
	require.NoError(t, err)

	assert.True(t, next.IsExtensionOf(prev))
	assert.False(t, other.IsExtensionOf(prev))
	assert.False(t, prev.IsExtensionOf(next))
}

func TestNarrowingCache(t *testing.T) {
	cache := NewNarrowingCache(8)
	prev, err := ParseQuery("rep")
	require.NoError(t, err)

	hits := Search(testRecords(), prev)
	cache.Put(prev, hits)

	next, err := ParseQuery("report")
	require.NoError(t, err)

	narrowed, ok := cache.Narrow(next)
	require.True(t, ok)
	names := hitNames(narrowed)
	assert.Equal(t, []string{"report.pdf"}, names)
}

func hitNames(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Record.Name
	}
	return out
}
