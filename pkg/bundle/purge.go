// File: pkg/bundle/purge.go
package bundle

import (
	"os"

	"go.uber.org/zap"
)

// Purge removes the given files. Files that no longer exist are ignored.
func Purge(paths []string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to purge file", zap.String("path", p), zap.Error(err))
			return ioFailure(err, "remove", p)
		}
		logger.Debug("Purged file", zap.String("path", p))
	}
	return nil
}
