package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultLocatorName)
	content := "  b.log \n\n a\r\n\t\nc\nb\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tokens, err := ParseLocator(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.log", "a", "c", "b"}, tokens, "order and duplicates are kept")
}

func TestParseLocatorEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultLocatorName)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	tokens, err := ParseLocator(path)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestParseLocatorMissing(t *testing.T) {
	_, err := ParseLocator(filepath.Join(t.TempDir(), DefaultLocatorName))
	require.Error(t, err)
	assert.Equal(t, CodeMissingLocator, Code(err))
}

func TestParseLocatorMalformed(t *testing.T) {
	dir := t.TempDir()

	withNUL := filepath.Join(dir, "nul.txt")
	require.NoError(t, os.WriteFile(withNUL, []byte("a\x00b\n"), 0o644))
	_, err := ParseLocator(withNUL)
	require.Error(t, err)
	assert.Equal(t, CodeMalformedLocator, Code(err))

	invalidUTF8 := filepath.Join(dir, "latin1.txt")
	require.NoError(t, os.WriteFile(invalidUTF8, []byte{'a', 0xff, 0xfe, '\n'}, 0o644))
	_, err = ParseLocator(invalidUTF8)
	require.Error(t, err)
	assert.Equal(t, CodeMalformedLocator, Code(err))
}

func TestParseLocatorDirectory(t *testing.T) {
	_, err := ParseLocator(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, CodeIOFailure, Code(err))
}

func TestFindLocator(t *testing.T) {
	entries := []ExtractedEntry{
		{Path: "/w/filelist.txt.gz", Compressed: true},
		{Path: "/w/logs/a.log"},
		{Path: "/w/logs/filelist.txt"},
		{Path: "/w/other/filelist.txt"},
	}

	got, ok := findLocator(entries, DefaultLocatorName)
	require.True(t, ok)
	assert.Equal(t, "/w/logs/filelist.txt", got.Path)

	_, ok = findLocator(entries, "order.txt")
	assert.False(t, ok)
}
