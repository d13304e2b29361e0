package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(path, hash string) Entry {
	return Entry{
		Path:    path,
		Hash:    hash,
		Mode:    0644,
		Size:    int64(len(path)),
		ModTime: time.Now().Truncate(time.Second),
	}
}

func TestLoadMissingFileYieldsEmptyIndex(t *testing.T) {
	ix, err := Load(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
}

func TestStagePersistsImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	ix, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, ix.Stage(testEntry("a.txt", "h1")))
	require.NoError(t, ix.Stage(testEntry("src/b.go", "h2")))

	// A fresh load (as the next command would do) sees staged state.
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	entry, ok := reloaded.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "h1", entry.Hash)
}

func TestStageOverwritesPreviousEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	ix, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, ix.Stage(testEntry("a.txt", "old")))
	require.NoError(t, ix.Stage(testEntry("a.txt", "new")))

	assert.Equal(t, 1, ix.Len())
	entry, _ := ix.Get("a.txt")
	assert.Equal(t, "new", entry.Hash)
}

func TestUnstage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	ix, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, ix.Stage(testEntry("a.txt", "h1")))
	require.NoError(t, ix.Unstage("a.txt"))
	require.NoError(t, ix.Unstage("never-staged.txt"))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Len())
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	ix, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, ix.Stage(testEntry("a.txt", "h1")))
	require.NoError(t, ix.Stage(testEntry("b.txt", "h2")))
	require.NoError(t, ix.Clear())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Len())
}

func TestEntriesReturnsCopy(t *testing.T) {
	ix, err := Load(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	require.NoError(t, ix.Stage(testEntry("a.txt", "h1")))

	entries := ix.Entries()
	delete(entries, "a.txt")
	assert.Equal(t, 1, ix.Len())
}

func TestLoadRejectsCorruptIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
