package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// member describes one tar entry written by writeTarGz.
type member struct {
	name     string
	body     []byte
	typeflag byte
	linkname string
}

func file(name, body string) member {
	return member{name: name, body: []byte(body), typeflag: tar.TypeReg}
}

func dir(name string) member {
	return member{name: name, typeflag: tar.TypeDir}
}

func gzFile(t *testing.T, name, body string) member {
	t.Helper()
	return member{name: name, body: gzipBytes(t, []byte(body)), typeflag: tar.TypeReg}
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarGzBytes(t *testing.T, members ...member) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for _, m := range members {
		hdr := &tar.Header{
			Name:     m.name,
			Typeflag: m.typeflag,
			Linkname: m.linkname,
			Mode:     0o644,
			Size:     int64(len(m.body)),
		}
		if m.typeflag == tar.TypeDir {
			hdr.Mode = 0o755
		}
		if m.typeflag != tar.TypeReg {
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write(m.body)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeTarGz writes a bundle holding members to dir/name and returns its path.
func writeTarGz(t *testing.T, dir, name string, members ...member) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, tarGzBytes(t, members...), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
