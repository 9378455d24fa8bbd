// File: pkg/bundle/types.go
package bundle

import (
	"path/filepath"
	"strings"
)

// Defaults for the working directory layout and naming conventions.
const (
	DefaultWorkDir      = "out"          // Working directory receiving extracted entries
	DefaultLocatorName  = "filelist.txt" // Conventional name of the locator file
	DefaultOutputSuffix = ".merged.log"  // Appended to the bundle base name for the merged file
)

// Compression suffixes understood by the Decompressor.
const (
	suffixTarGz = ".tar.gz"
	suffixTgz   = ".tgz"
	suffixGz    = ".gz"
)

// Bundle is the root input of a pipeline run.
type Bundle struct {
	Path     string // Local path of the bundle
	BaseName string // File name without .tar.gz/.tgz/.gz suffix
}

// NewBundle describes the bundle stored at path.
func NewBundle(path string) Bundle {
	return Bundle{Path: path, BaseName: baseName(path)}
}

// ExtractedEntry is one file produced by decompression.
type ExtractedEntry struct {
	Path       string // Absolute path inside the working directory
	RelPath    string // Path relative to the working directory, slash separated
	Bundle     string // Path of the bundle the entry came from
	Compressed bool   // True while the entry still carries a .gz suffix
	Size       int64  // Size in bytes at extraction time
}

// Name returns the file name of the entry.
func (e ExtractedEntry) Name() string {
	return filepath.Base(e.Path)
}

// MergedSource records one entry copied into the merged output.
type MergedSource struct {
	Path  string `yaml:"path"`
	Bytes int64  `yaml:"bytes"`
}

// MergeResult describes a completed merge. It is not modified after Run returns.
type MergeResult struct {
	Bundle        string         `yaml:"bundle,omitempty"`
	OutputPath    string         `yaml:"output"`
	Sources       []MergedSource `yaml:"sources"`
	TotalBytes    int64          `yaml:"totalBytes"`   // Sum of merged fragment sizes
	BytesWritten  int64          `yaml:"bytesWritten"` // TotalBytes plus separators
	SHA256        string         `yaml:"sha256"`
	LocatorFound  bool           `yaml:"locatorFound"`
	BinaryEntries int            `yaml:"binaryEntries,omitempty"`
}

// SourcePaths returns the merged source paths in output order.
func (r *MergeResult) SourcePaths() []string {
	paths := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		paths = append(paths, s.Path)
	}
	return paths
}

// baseName strips the directory and any known compression suffix.
func baseName(path string) string {
	name := filepath.Base(path)
	for _, suffix := range []string{suffixTarGz, suffixTgz, suffixGz} {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

func isTarGz(path string) bool {
	return strings.HasSuffix(path, suffixTarGz) || strings.HasSuffix(path, suffixTgz)
}

func isGz(path string) bool {
	return strings.HasSuffix(path, suffixGz) && !isTarGz(path)
}

// IsCompressed reports whether path carries a suffix the Decompressor handles.
func IsCompressed(path string) bool {
	return isTarGz(path) || isGz(path)
}
