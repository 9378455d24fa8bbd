// File: pkg/bundle/pattern.go
package bundle

import (
	"regexp"
	"strings"
)

// Precompiled regular expressions used in pattern translation.
var (
	SingleStarReplacementPattern = regexp.MustCompile(`\\\*`)
	QuestionReplacementPattern   = regexp.MustCompile(`\\\?`)
)

// Pattern is a compiled filter pattern matched against entry file names.
// A pattern without '*' or '?' is a plain substring; otherwise the wildcards
// expand and the result must occur somewhere in the name. Matching is case-sensitive.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// CompilePattern compiles raw. The empty pattern matches every name.
func CompilePattern(raw string) *Pattern {
	p := &Pattern{raw: raw}
	if strings.ContainsAny(raw, "*?") {
		p.re = regexp.MustCompile(wildcardToRegex(regexp.QuoteMeta(raw)))
	}
	return p
}

// String returns the pattern as supplied.
func (p *Pattern) String() string {
	return p.raw
}

// Empty reports whether the pattern matches everything.
func (p *Pattern) Empty() bool {
	return p.raw == ""
}

// Match reports whether name contains the pattern.
func (p *Pattern) Match(name string) bool {
	switch {
	case p.raw == "":
		return true
	case p.re != nil:
		return p.re.MatchString(name)
	default:
		return strings.Contains(name, p.raw)
	}
}

// wildcardToRegex converts quoted '*' and '?' wildcards back to regex equivalents.
func wildcardToRegex(quoted string) string {
	quoted = SingleStarReplacementPattern.ReplaceAllString(quoted, `.*`)
	return QuestionReplacementPattern.ReplaceAllString(quoted, `.`)
}
