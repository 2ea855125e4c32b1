package sorter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(dst string) *Record {
	return &Record{
		Destination: dst,
		Identity:    "abc123",
		Size:        42,
		Timestamp:   time.Now().UTC(),
	}
}

func TestOpenLedgerMissingFile(t *testing.T) {
	l, err := OpenLedger(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Count())
}

func TestOpenLedgerCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	// corrupt history resets to empty instead of failing
	l, err := OpenLedger(path)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Count())
}

func TestLedgerSetPersistsImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	l, err := OpenLedger(path)
	require.NoError(t, err)

	l.Set("/src/a.txt", testRecord("/dst/a.txt"))

	// write-through: a fresh load sees the entry without an explicit save
	reloaded, err := OpenLedger(path)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Count())

	rec, ok := reloaded.Get("/src/a.txt")
	require.True(t, ok)
	assert.Equal(t, "/dst/a.txt", rec.Destination)
	assert.Equal(t, "abc123", rec.Identity)
	assert.Equal(t, int64(42), rec.Size)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestLedgerSetReplacesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	l, err := OpenLedger(path)
	require.NoError(t, err)

	l.Set("/src/a.txt", testRecord("/dst/a.txt"))
	updated := testRecord("/dst/a.txt")
	updated.Identity = "def456"
	l.Set("/src/a.txt", updated)

	assert.Equal(t, 1, l.Count())
	rec, _ := l.Get("/src/a.txt")
	assert.Equal(t, "def456", rec.Identity)
}

func TestLedgerPrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	l, err := OpenLedger(path)
	require.NoError(t, err)

	l.Set("/src/keep.txt", testRecord("/dst/keep.txt"))
	l.Set("/src/gone1.txt", testRecord("/dst/gone1.txt"))
	l.Set("/src/gone2.txt", testRecord("/dst/gone2.txt"))

	removed := l.Prune(func(key string) bool {
		return key == "/src/keep.txt"
	})

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, l.Count())

	// the prune's single batched save made it to disk
	reloaded, err := OpenLedger(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Count())
	_, ok := reloaded.Get("/src/keep.txt")
	assert.True(t, ok)
}

func TestLedgerPruneNoChangesNoSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	l, err := OpenLedger(path)
	require.NoError(t, err)
	l.Set("/src/a.txt", testRecord("/dst/a.txt"))

	before, err := os.Stat(path)
	require.NoError(t, err)

	removed := l.Prune(func(string) bool { return true })
	assert.Equal(t, 0, removed)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestLedgerClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	l, err := OpenLedger(path)
	require.NoError(t, err)

	l.Set("/src/a.txt", testRecord("/dst/a.txt"))
	require.NoError(t, l.Clear())

	reloaded, err := OpenLedger(path)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Count())
}

func TestLedgerLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	first, err := OpenLedger(path)
	require.NoError(t, err)
	require.NoError(t, first.Acquire())
	defer first.Close()

	second, err := OpenLedger(path)
	require.NoError(t, err)
	assert.ErrorIs(t, second.Acquire(), ErrLedgerLocked)
}

func TestLedgerTotals(t *testing.T) {
	l, err := OpenLedger(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)

	a := testRecord("/dst/a.txt")
	a.Size = 10
	b := testRecord("/dst/b.txt")
	b.Size = 30
	l.Set("/src/b.txt", b)
	l.Set("/src/a.txt", a)

	assert.Equal(t, int64(40), l.TotalSize())
	assert.Equal(t, []string{"/src/a.txt", "/src/b.txt"}, l.Keys())
}
