package scanner

import (
	"errors"
	"fmt"
)

// ErrNotDirectory is returned by Walk when the root is not a directory
var ErrNotDirectory = errors.New("not a directory")

// ErrInvalidEncoding marks content that is not valid UTF-8 text
var ErrInvalidEncoding = errors.New("invalid UTF-8 content")

// PermissionError represents a permission-related error during scanning
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s: %v", e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// ReadError reports a failure part-way through reading a file. Line is the
// number of lines consumed before the failure.
type ReadError struct {
	Path string
	Line int
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: line %d: %v", e.Path, e.Line, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
