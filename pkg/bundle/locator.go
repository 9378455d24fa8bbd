// File: pkg/bundle/locator.go
package bundle

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jmgilman/go/errors"
)

// ParseLocator reads the locator file at path and returns its non-empty lines,
// trimmed, in file order. Duplicate tokens are kept.
//
// A missing file yields MISSING_LOCATOR, which callers treat as a signal to
// fall back to enumeration order. Content that is not valid UTF-8 text yields
// MALFORMED_LOCATOR.
func ParseLocator(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithContext(
				errors.Wrapf(err, CodeMissingLocator, "locator %s not found", path), ctxPath, path)
		}
		return nil, ioFailure(err, "read locator", path)
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return nil, errors.WithContext(
			errors.Newf(CodeMalformedLocator, "locator %s is not a text file", path), ctxPath, path)
	}

	var tokens []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		if token := strings.TrimSpace(scanner.Text()); token != "" {
			tokens = append(tokens, token)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithContext(
			errors.Wrapf(err, CodeMalformedLocator, "scan locator %s", path), ctxPath, path)
	}
	return tokens, nil
}

// findLocator returns the first plain entry named name, in enumeration order.
func findLocator(entries []ExtractedEntry, name string) (ExtractedEntry, bool) {
	for _, e := range entries {
		if !e.Compressed && e.Name() == name {
			return e, true
		}
	}
	return ExtractedEntry{}, false
}
