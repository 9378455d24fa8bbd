// File: pkg/bundle/binary.go
package bundle

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
)

// sniffSize is the number of leading bytes inspected by looksBinary.
const sniffSize = 512

// looksBinary reports whether the file at path appears to hold binary data:
// a NUL byte or more than 30% non-printable bytes in its first block.
func looksBinary(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, ioFailure(err, "open", path)
	}
	defer file.Close()

	buffer := make([]byte, sniffSize)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !stderrors.Is(err, io.EOF) && !stderrors.Is(err, io.ErrUnexpectedEOF) {
		return false, ioFailure(err, "read", path)
	}
	buffer = buffer[:n]

	if len(buffer) == 0 {
		return false, nil
	}
	if bytes.IndexByte(buffer, 0) >= 0 {
		return true, nil
	}

	nonPrintable := 0
	for _, b := range buffer {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(buffer)) > 0.3, nil
}

// isPrintable checks if a byte is printable ASCII, whitespace, or part of a UTF-8 sequence.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b >= 0x80
}
