// File: pkg/bundle/tree.go
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RenderTree renders the directory rooted at dir as an indented tree.
// Directories come first, then files, each group alphabetically ignoring case.
func RenderTree(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", ioFailure(err, "stat", dir)
	}
	if !info.IsDir() {
		return filepath.Base(dir) + "\n", nil
	}

	var b strings.Builder
	b.WriteString(filepath.ToSlash(filepath.Clean(dir)) + "/\n")
	if err := renderTree(&b, dir, ""); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderTree(b *strings.Builder, directory, prefix string) error {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return ioFailure(err, "read directory", directory)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	for i, entry := range entries {
		connector, extension := "├── ", "│   "
		if i == len(entries)-1 {
			connector, extension = "└── ", "    "
		}
		if !entry.IsDir() {
			fmt.Fprintf(b, "%s%s%s\n", prefix, connector, entry.Name())
			continue
		}
		fmt.Fprintf(b, "%s%s%s/\n", prefix, connector, entry.Name())
		if err := renderTree(b, filepath.Join(directory, entry.Name()), prefix+extension); err != nil {
			return err
		}
	}
	return nil
}
