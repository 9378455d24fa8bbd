// File: pkg/bundle/helpers.go
package bundle

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return ioFailure(err, "create directory", path)
	}
	return nil
}

// relativeTo returns path relative to root with forward slashes, or path itself if that fails.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// OutputName derives the default merged output name for a bundle.
func OutputName(b Bundle, suffix string) string {
	if suffix == "" {
		suffix = DefaultOutputSuffix
	}
	return b.BaseName + suffix
}
