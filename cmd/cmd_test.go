package cmd

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logmerge/pkg/bundle"
	"logmerge/pkg/version"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func gz(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeBundle writes a .tar.gz holding files, in the order given by names.
func writeBundle(t *testing.T, path string, names []string, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for _, name := range names {
		body := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func sampleBundle(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "bugreport.tar.gz")
	writeBundle(t, path,
		[]string{"a.log.gz", "b.log.gz", "filelist.txt"},
		map[string][]byte{
			"a.log.gz":     gz(t, "alpha\n"),
			"b.log.gz":     gz(t, "bravo\n"),
			"filelist.txt": []byte("b\na\n"),
		})
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, version.AppName+" version "))
}

func TestMergeCommand(t *testing.T) {
	dir := isolate(t)
	src := sampleBundle(t, dir)
	work := filepath.Join(dir, "work")
	report := filepath.Join(dir, "report.yaml")

	out, err := run(t, "merge", src, "--workdir", work, "--report", report, "--tree")
	require.NoError(t, err)

	merged := filepath.Join(work, "bugreport"+bundle.DefaultOutputSuffix)
	data, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.Equal(t, "bravo\nalpha\n", string(data))
	assert.Contains(t, out, "merged 2 fragment(s), 12 bytes -> "+merged)
	assert.Contains(t, out, "a.log.gz")
	assert.FileExists(t, report)
}

func TestMergeCommandFilterAndSeparator(t *testing.T) {
	dir := isolate(t)
	src := sampleBundle(t, dir)
	out := filepath.Join(dir, "only-a.log")

	_, err := run(t, "merge", src, "-w", filepath.Join(dir, "work"), "-o", out, "-f", "a.log", "--separator", `\n`)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", string(data))
}

func TestMergeCommandEnvironment(t *testing.T) {
	dir := isolate(t)
	src := sampleBundle(t, dir)
	work := filepath.Join(dir, "env-work")
	t.Setenv("LOGMERGE_WORKDIR", work)

	_, err := run(t, "merge", src)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(work, "bugreport"+bundle.DefaultOutputSuffix))
}

func TestMergeCommandErrors(t *testing.T) {
	dir := isolate(t)

	_, err := run(t, "merge")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))

	_, err = run(t, "merge", "x.tar.gz", "--no-such-flag")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))

	zip := filepath.Join(dir, "bundle.zip")
	require.NoError(t, os.WriteFile(zip, []byte("PK"), 0o644))
	_, err = run(t, "merge", zip, "-w", filepath.Join(dir, "work"))
	require.Error(t, err)
	assert.Equal(t, ExitBadInput, ExitCode(err))
	assert.Equal(t, string(bundle.StateExtractedOuter), bundle.StageOf(err))

	evil := filepath.Join(dir, "evil.tar.gz")
	writeBundle(t, evil, []string{"../../etc/passwd"}, map[string][]byte{"../../etc/passwd": []byte("root")})
	_, err = run(t, "merge", evil, "-w", filepath.Join(dir, "a", "b", "work"))
	require.Error(t, err)
	assert.Equal(t, ExitTraversal, ExitCode(err))
}

func TestTreeCommand(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out", "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out", "logs", "a.log"), nil, 0o644))

	out, err := run(t, "tree", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "└── logs/")
	assert.Contains(t, out, "    └── a.log")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(assert.AnError))
	assert.Equal(t, ExitUsage, ExitCode(errors.New(errors.CodeInvalidConfig, "bad")))
	assert.Equal(t, ExitBadInput, ExitCode(errors.New(bundle.CodeCorruptArchive, "bad")))
	assert.Equal(t, ExitBadInput, ExitCode(errors.New(bundle.CodeMalformedLocator, "bad")))
	assert.Equal(t, ExitTraversal, ExitCode(errors.New(bundle.CodePathTraversal, "bad")))
	assert.Equal(t, ExitIO, ExitCode(errors.New(bundle.CodeIOFailure, "bad")))
	assert.Equal(t, ExitFailure, ExitCode(errors.New(errors.CodeNetwork, "offline")))
}
