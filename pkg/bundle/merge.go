// File: pkg/bundle/merge.go
package bundle

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Merge concatenates the contents of entries, in the given order, into outputPath.
// An existing output is truncated. separator is written between consecutive
// entries; with an empty separator the output is the pure concatenation.
// Entries are streamed one at a time.
func Merge(entries []ExtractedEntry, outputPath, separator string, logger *zap.Logger) (*MergeResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Writing merged output", zap.String("output", outputPath), zap.Int("entries", len(entries)))

	if err := ensureDirectory(filepath.Dir(outputPath), logger); err != nil {
		return nil, err
	}
	outFile, err := os.Create(outputPath)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", outputPath), zap.Error(err))
		return nil, ioFailure(err, "create", outputPath)
	}
	defer func() {
		if outFile != nil {
			_ = outFile.Close()
		}
	}()

	hasher := sha256.New()
	writer := bufio.NewWriter(io.MultiWriter(outFile, hasher))
	result := &MergeResult{OutputPath: outputPath, Sources: make([]MergedSource, 0, len(entries))}

	for i, entry := range entries {
		if i > 0 && separator != "" {
			n, err := writer.WriteString(separator)
			if err != nil {
				return nil, ioFailure(err, "write", outputPath)
			}
			result.BytesWritten += int64(n)
		}

		n, err := appendFile(writer, entry.Path, outputPath)
		if err != nil {
			logger.Error("Failed to append entry",
				zap.String("file", outputPath),
				zap.String("entry", entry.Path),
				zap.Error(err))
			return nil, err
		}
		logger.Debug("Appended entry", zap.String("entry", entry.RelPath), zap.Int64("bytes", n))
		result.Sources = append(result.Sources, MergedSource{Path: entry.Path, Bytes: n})
		result.TotalBytes += n
		result.BytesWritten += n
	}

	if err := writer.Flush(); err != nil {
		logger.Error("Failed to flush output file", zap.String("file", outputPath), zap.Error(err))
		return nil, ioFailure(err, "flush", outputPath)
	}
	err = outFile.Close()
	outFile = nil
	if err != nil {
		return nil, ioFailure(err, "close", outputPath)
	}

	result.SHA256 = hex.EncodeToString(hasher.Sum(nil))
	return result, nil
}

// appendFile copies the file at path into w.
func appendFile(w io.Writer, path, outputPath string) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, ioFailure(err, "open", path)
	}
	defer in.Close()

	tw := &trackingWriter{w: w}
	n, err := io.Copy(tw, in)
	if err != nil {
		if tw.err != nil {
			return n, ioFailure(err, "write", outputPath)
		}
		return n, ioFailure(err, "read", path)
	}
	return n, nil
}
