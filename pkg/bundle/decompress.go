// File: pkg/bundle/decompress.go
package bundle

import (
	"archive/tar"
	"compress/gzip"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmgilman/go/errors"
	"go.uber.org/zap"
)

// Decompress expands the compressed file at path into destDir and returns the
// produced file paths in archive order.
//
// A .tar.gz/.tgz input is extracted entry by entry, preserving the stored
// relative paths. A .gz input is decompressed into destDir under its name with
// the .gz suffix stripped. destDir is created when absent and same-named
// outputs are overwritten, so extracting twice yields identical files.
func Decompress(ctx context.Context, path, destDir string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch {
	case isTarGz(path):
		return extractTarGz(ctx, path, destDir, logger)
	case isGz(path):
		out, err := gunzipFile(path, destDir, logger)
		if err != nil {
			return nil, err
		}
		return []string{out}, nil
	default:
		return nil, errors.WithContext(
			errors.Newf(CodeUnsupportedFormat, "unsupported archive format: %s", filepath.Base(path)),
			ctxPath, path)
	}
}

// extractTarGz streams the gzip layer and writes tar members below destDir.
func extractTarGz(ctx context.Context, path, destDir string, logger *zap.Logger) ([]string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, ioFailure(err, "open", path)
	}
	defer in.Close()

	if err := ensureDirectory(destDir, logger); err != nil {
		return nil, err
	}
	rootAbs, err := filepath.Abs(destDir)
	if err != nil {
		return nil, ioFailure(err, "resolve", destDir)
	}

	gz, err := gzip.NewReader(in)
	if err != nil {
		return nil, corrupt(err, path)
	}
	defer gz.Close()

	var produced []string
	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return produced, errors.Wrap(err, errors.CodeInternal, "extraction canceled")
		}

		hdr, err := tr.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		// Insecure names still carry a header; resolveMember reports them.
		if err != nil && !(stderrors.Is(err, tar.ErrInsecurePath) && hdr != nil) {
			return produced, corrupt(err, path)
		}

		target, err := resolveMember(rootAbs, hdr.Name)
		if err != nil {
			logger.Error("Rejected archive member", zap.String("member", hdr.Name), zap.String("archive", path))
			return produced, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := ensureDirectory(target, logger); err != nil {
				return produced, err
			}
		case tar.TypeReg:
			if err := ensureDirectory(filepath.Dir(target), logger); err != nil {
				return produced, err
			}
			if _, err := writeStream(tr, target, path); err != nil {
				return produced, err
			}
			logger.Debug("Extracted archive member",
				zap.String("member", hdr.Name),
				zap.Int64("sizeBytes", hdr.Size))
			produced = append(produced, target)
		case tar.TypeSymlink:
			if err := checkLink(rootAbs, target, hdr.Linkname); err != nil {
				return produced, err
			}
			logger.Debug("Skipping symlink member", zap.String("member", hdr.Name), zap.String("target", hdr.Linkname))
		case tar.TypeLink:
			if _, err := resolveMember(rootAbs, hdr.Linkname); err != nil {
				return produced, err
			}
			logger.Debug("Skipping hardlink member", zap.String("member", hdr.Name), zap.String("target", hdr.Linkname))
		default:
			logger.Debug("Skipping unsupported member type",
				zap.String("member", hdr.Name),
				zap.Int("typeflag", int(hdr.Typeflag)))
		}
	}

	// Drain the gzip trailer so a CRC mismatch after the last member is reported.
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return produced, corrupt(err, path)
	}
	return produced, nil
}

// gunzipFile decompresses a single-file gzip input into destDir.
func gunzipFile(path, destDir string, logger *zap.Logger) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", ioFailure(err, "open", path)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return "", corrupt(err, path)
	}
	defer gz.Close()

	if err := ensureDirectory(destDir, logger); err != nil {
		return "", err
	}
	destAbs, err := filepath.Abs(destDir)
	if err != nil {
		return "", ioFailure(err, "resolve", destDir)
	}
	target := filepath.Join(destAbs, strings.TrimSuffix(filepath.Base(path), suffixGz))
	n, err := writeStream(gz, target, path)
	if err != nil {
		return "", err
	}
	logger.Debug("Decompressed fragment",
		zap.String("source", path),
		zap.String("target", target),
		zap.Int64("sizeBytes", n))
	return target, nil
}

// writeStream copies src into target, truncating any previous content.
// Read failures are reported as CORRUPT_ARCHIVE of archive, write failures as IO_FAILURE.
func writeStream(src io.Reader, target, archive string) (int64, error) {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, ioFailure(err, "create", target)
	}

	w := &trackingWriter{w: out}
	n, copyErr := io.Copy(w, src)
	closeErr := out.Close()
	switch {
	case copyErr != nil && w.err != nil:
		return n, ioFailure(copyErr, "write", target)
	case copyErr != nil:
		return n, corrupt(copyErr, archive)
	case closeErr != nil:
		return n, ioFailure(closeErr, "close", target)
	}
	return n, nil
}

// trackingWriter remembers whether a failure came from the write side of a copy.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
