package cmd

import (
	"github.com/jmgilman/go/errors"

	"logmerge/pkg/bundle"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitBadInput  = 3
	ExitTraversal = 4
	ExitIO        = 5
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeInvalidConfig:
		return ExitUsage
	case bundle.CodeUnsupportedFormat, bundle.CodeCorruptArchive, bundle.CodeMalformedLocator:
		return ExitBadInput
	case bundle.CodePathTraversal:
		return ExitTraversal
	case bundle.CodeIOFailure:
		return ExitIO
	default:
		return ExitFailure
	}
}
