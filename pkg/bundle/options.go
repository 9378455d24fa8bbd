// File: pkg/bundle/options.go
package bundle

import (
	"runtime"

	"go.uber.org/zap"
)

// Option configures a Pipeline.
type Option func(*config)

type config struct {
	workDir        string
	outputDir      string
	outputName     string
	outputSuffix   string
	locatorName    string
	filter         string
	separator      string
	sortFallback   bool
	includeLocator bool
	purge          bool
	workers        int
	logger         *zap.Logger
}

func defaultConfig() *config {
	return &config{
		workDir:      DefaultWorkDir,
		outputSuffix: DefaultOutputSuffix,
		locatorName:  DefaultLocatorName,
		workers:      runtime.NumCPU(),
		logger:       zap.NewNop(),
	}
}

// WithWorkDir sets the directory receiving extracted entries.
func WithWorkDir(dir string) Option {
	return func(c *config) {
		if dir != "" {
			c.workDir = dir
		}
	}
}

// WithOutputDir sets the directory of the merged file. Defaults to the working directory.
func WithOutputDir(dir string) Option {
	return func(c *config) {
		c.outputDir = dir
	}
}

// WithOutputName overrides the merged file name derived from the bundle.
// An absolute name is used as is.
func WithOutputName(name string) Option {
	return func(c *config) {
		c.outputName = name
	}
}

// WithOutputSuffix sets the suffix appended to the bundle base name.
func WithOutputSuffix(suffix string) Option {
	return func(c *config) {
		if suffix != "" {
			c.outputSuffix = suffix
		}
	}
}

// WithLocatorName sets the file name of the locator inside the bundle.
func WithLocatorName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.locatorName = name
		}
	}
}

// WithFilter sets the filter pattern selecting fragments to merge.
func WithFilter(pattern string) Option {
	return func(c *config) {
		c.filter = pattern
	}
}

// WithSeparator inserts sep between merged fragments.
func WithSeparator(sep string) Option {
	return func(c *config) {
		c.separator = sep
	}
}

// WithSortedFallback orders unreferenced fragments lexically instead of in archive order.
func WithSortedFallback(enabled bool) Option {
	return func(c *config) {
		c.sortFallback = enabled
	}
}

// WithIncludeLocator merges the locator file when a non-empty filter matches it.
func WithIncludeLocator(enabled bool) Option {
	return func(c *config) {
		c.includeLocator = enabled
	}
}

// WithPurge removes compressed fragments once they are decompressed.
func WithPurge(enabled bool) Option {
	return func(c *config) {
		c.purge = enabled
	}
}

// WithWorkers bounds parallel fragment decompression. Values below 1 mean NumCPU.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		c.workers = n
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	}
}
