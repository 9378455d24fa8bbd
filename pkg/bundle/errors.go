// File: pkg/bundle/errors.go
package bundle

import (
	"fmt"

	"github.com/jmgilman/go/errors"
)

// Error codes produced by the extraction-and-merge pipeline.
const (
	// CodeUnsupportedFormat indicates an input whose suffix is not .tar.gz, .tgz or .gz.
	CodeUnsupportedFormat errors.ErrorCode = "UNSUPPORTED_FORMAT"

	// CodeCorruptArchive indicates a gzip or tar stream that failed to decode.
	CodeCorruptArchive errors.ErrorCode = "CORRUPT_ARCHIVE"

	// CodeMissingLocator indicates the locator file was not extracted. It is never fatal.
	CodeMissingLocator errors.ErrorCode = "MISSING_LOCATOR"

	// CodeMalformedLocator indicates the locator file could not be read as text.
	CodeMalformedLocator errors.ErrorCode = "MALFORMED_LOCATOR"

	// CodeIOFailure indicates a read, write or permission failure on the local filesystem.
	CodeIOFailure errors.ErrorCode = "IO_FAILURE"

	// CodePathTraversal indicates an archive member resolving outside the destination.
	CodePathTraversal errors.ErrorCode = "PATH_TRAVERSAL"
)

// Context keys attached to pipeline errors.
const (
	ctxStage = "stage"
	ctxPath  = "path"
)

// ioFailure wraps a filesystem error, e.g. ioFailure(err, "create", path).
func ioFailure(err error, action, path string) errors.PlatformError {
	return errors.WithContext(errors.Wrapf(err, CodeIOFailure, "%s %s", action, path), ctxPath, path)
}

func corrupt(err error, path string) errors.PlatformError {
	return errors.WithContext(errors.Wrapf(err, CodeCorruptArchive, "corrupt archive %s", path), ctxPath, path)
}

func traversal(member, dest string) errors.PlatformError {
	err := errors.Newf(CodePathTraversal, "archive member %q escapes destination %s", member, dest)
	return errors.WithContext(err, ctxPath, member)
}

// withStage wraps err with the pipeline stage it failed in, keeping its code.
func withStage(err error, stage State) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrap(err, errors.GetCode(err), fmt.Sprintf("%s failed", stage))
	return errors.WithContext(wrapped, ctxStage, string(stage))
}

// StageOf returns the pipeline stage recorded on err, or "" if none.
func StageOf(err error) string {
	var pe errors.PlatformError
	if !errors.As(err, &pe) {
		return ""
	}
	if stage, ok := pe.Context()[ctxStage].(string); ok {
		return stage
	}
	return ""
}

// Code returns the pipeline error code of err.
func Code(err error) errors.ErrorCode {
	return errors.GetCode(err)
}
