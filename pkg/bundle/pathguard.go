// File: pkg/bundle/pathguard.go
package bundle

import (
	"os"
	"path/filepath"
	"strings"
)

// resolveMember maps an archive member name to a path inside rootAbs.
// Absolute names, ".." components and names that clean to a location
// outside rootAbs are rejected with PATH_TRAVERSAL.
func resolveMember(rootAbs, member string) (string, error) {
	name := strings.ReplaceAll(member, "\\", "/")
	if name == "" || strings.ContainsRune(name, 0) {
		return "", traversal(member, rootAbs)
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", traversal(member, rootAbs)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", traversal(member, rootAbs)
		}
	}

	full := filepath.Clean(filepath.Join(rootAbs, filepath.FromSlash(name)))
	if !within(rootAbs, full) {
		return "", traversal(member, rootAbs)
	}
	return full, nil
}

// checkLink rejects symlink and hardlink targets that would resolve outside rootAbs.
func checkLink(rootAbs, linkPath, target string) error {
	if target == "" || filepath.IsAbs(target) || strings.HasPrefix(target, "/") {
		return traversal(target, rootAbs)
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(linkPath), filepath.FromSlash(target)))
	if !within(rootAbs, resolved) {
		return traversal(target, rootAbs)
	}
	return nil
}

func within(rootAbs, path string) bool {
	return path == rootAbs || strings.HasPrefix(path, rootAbs+string(os.PathSeparator))
}
