package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntries(t *testing.T, dir string, contents map[string]string, order ...string) []ExtractedEntry {
	t.Helper()
	entries := make([]ExtractedEntry, 0, len(order))
	for _, name := range order {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents[name]), 0o644))
		entries = append(entries, ExtractedEntry{Path: path, RelPath: name, Size: int64(len(contents[name]))})
	}
	return entries
}

func TestMergeConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	contents := map[string]string{"a.log": "alpha\n", "b.log": "bravo\n", "c.log": "charlie"}
	entries := writeEntries(t, dir, contents, "b.log", "a.log", "c.log")
	out := filepath.Join(dir, "merged", "out.log")

	result, err := Merge(entries, out, "", nil)
	require.NoError(t, err)

	want := "bravo\nalpha\ncharlie"
	assert.Equal(t, want, readFile(t, out))
	assert.Equal(t, int64(len(want)), result.TotalBytes)
	assert.Equal(t, result.TotalBytes, result.BytesWritten)
	assert.Equal(t, out, result.OutputPath)
	assert.Equal(t, []string{entries[0].Path, entries[1].Path, entries[2].Path}, result.SourcePaths())

	sum := sha256.Sum256([]byte(want))
	assert.Equal(t, hex.EncodeToString(sum[:]), result.SHA256)
}

func TestMergeSeparator(t *testing.T) {
	dir := t.TempDir()
	contents := map[string]string{"a.log": "a", "b.log": "b"}
	entries := writeEntries(t, dir, contents, "a.log", "b.log")
	out := filepath.Join(dir, "out.log")

	result, err := Merge(entries, out, "\n--\n", nil)
	require.NoError(t, err)
	assert.Equal(t, "a\n--\nb", readFile(t, out))
	assert.Equal(t, int64(2), result.TotalBytes)
	assert.Equal(t, int64(6), result.BytesWritten)
}

func TestMergeTruncatesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.log")
	require.NoError(t, os.WriteFile(out, []byte("stale content that is longer"), 0o644))
	entries := writeEntries(t, dir, map[string]string{"a.log": "new"}, "a.log")

	_, err := Merge(entries, out, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "new", readFile(t, out))
}

func TestMergeNoEntries(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.log")

	result, err := Merge(nil, out, "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.TotalBytes)
	assert.Empty(t, result.Sources)
	assert.Equal(t, "", readFile(t, out))
}

func TestMergeMissingEntry(t *testing.T) {
	dir := t.TempDir()
	entries := []ExtractedEntry{{Path: filepath.Join(dir, "gone.log"), RelPath: "gone.log"}}

	_, err := Merge(entries, filepath.Join(dir, "out.log"), "", nil)
	require.Error(t, err)
	assert.Equal(t, CodeIOFailure, Code(err))
}

func TestMergeUnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0o644))

	_, err := Merge(nil, filepath.Join(blocker, "out.log"), "", nil)
	require.Error(t, err)
	assert.Equal(t, CodeIOFailure, Code(err))
}
