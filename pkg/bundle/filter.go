// File: pkg/bundle/filter.go
package bundle

import (
	"sort"
	"strings"
)

// Filter selects mergeable entries and orders them.
type Filter struct {
	Pattern        *Pattern // Name pattern; nil or empty selects everything
	LocatorName    string   // Entries with this name are excluded
	IncludeLocator bool     // Keep the locator when a non-empty Pattern matches it
}

// SelectAndOrder returns the candidates among entries in merge order.
//
// Candidates are the decompressed entries whose name matches the pattern,
// minus the locator file. Each locator token, in order, claims the first
// unclaimed candidate whose name contains it; tokens without a match are
// skipped. Unclaimed candidates follow in their input order. Every returned
// entry appears in entries exactly once.
func (f Filter) SelectAndOrder(entries []ExtractedEntry, tokens []string) []ExtractedEntry {
	candidates := f.candidates(entries)
	if len(tokens) == 0 {
		return candidates
	}

	ordered := make([]ExtractedEntry, 0, len(candidates))
	consumed := make([]bool, len(candidates))
	for _, token := range tokens {
		for i, c := range candidates {
			if consumed[i] || !strings.Contains(c.Name(), token) {
				continue
			}
			consumed[i] = true
			ordered = append(ordered, c)
			break
		}
	}
	for i, c := range candidates {
		if !consumed[i] {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

func (f Filter) candidates(entries []ExtractedEntry) []ExtractedEntry {
	pattern := f.Pattern
	if pattern == nil {
		pattern = CompilePattern("")
	}

	seen := make(map[string]bool, len(entries))
	var out []ExtractedEntry
	for _, e := range entries {
		if e.Compressed || seen[e.Path] {
			continue
		}
		name := e.Name()
		if !pattern.Match(name) {
			continue
		}
		if f.LocatorName != "" && name == f.LocatorName && !(f.IncludeLocator && !pattern.Empty()) {
			continue
		}
		seen[e.Path] = true
		out = append(out, e)
	}
	return out
}

// SortEntries orders entries lexically by relative path.
func SortEntries(entries []ExtractedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})
}
