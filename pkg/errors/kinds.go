package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// Exported variables.
var (
	// ErrMissingManifest is reported when an update package has no deletion manifest.
	ErrMissingManifest = errors.New("missing .deleted_items manifest")

	// ErrBackslashName is reported for a file name holding a backslash on a
	// system where it is not a separator. Catalog paths read it as one.
	ErrBackslashName = errors.New("name contains a backslash, which catalog paths treat as a separator")
)

// IOError wraps a failed stat/open/read/write/remove with the path it was
// attempted on. Any IOError is fatal to the running command.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// NewIOError creates an IOError. A nil err yields nil. A *fs.PathError is
// unwrapped since op and path are already carried by the IOError.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	if pathErr, ok := err.(*fs.PathError); ok { //nolint:errorlint // only the direct os error repeats op and path
		err = pathErr.Err
	}

	return &IOError{Op: op, Path: path, Err: err}
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// FormatError reports a malformed update package manifest or a package
// missing its manifest. Line is 1-based, 0 when not tied to a line.
type FormatError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

// NewFormatError creates a FormatError not tied to a particular line.
func NewFormatError(path, msg string, cause error) error {
	return &FormatError{Path: path, Msg: msg, Err: cause}
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Unwrap returns the underlying cause, if any.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsIOError reports whether err (or anything it wraps) is an IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// IsFormatError reports whether err (or anything it wraps) is a FormatError.
func IsFormatError(err error) bool {
	var fmtErr *FormatError
	return errors.As(err, &fmtErr)
}
