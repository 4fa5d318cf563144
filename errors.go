package pdfmerge

import (
	"errors"
	"fmt"
)

// Sentinel errors for merge failure conditions.
//
// ErrEncrypted, ErrUnreadable and ErrUnsupportedFormat describe a single
// source and never abort a merge. ErrOutputEmpty and ErrSaveFailure are fatal.
var (
	ErrEncrypted         = errors.New("pdfmerge: document is encrypted")
	ErrUnreadable        = errors.New("pdfmerge: document is unreadable")
	ErrUnsupportedFormat = errors.New("pdfmerge: unsupported format")
	ErrOutputEmpty       = errors.New("pdfmerge: output has no pages")
	ErrSaveFailure       = errors.New("pdfmerge: saving failed")
	ErrInvalidParam      = errors.New("pdfmerge: invalid parameter")
)

// PDFError represents an error that occurred during a specific operation on a path.
// It wraps an underlying error and includes the operation name for context.
type PDFError struct {
	Op   string // operation name, e.g. "Open", "Merge", "Save"
	Path string // source or output path, may be empty
	Err  error  // underlying error
}

func (e *PDFError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("pdfmerge.%s %s: %s", e.Op, e.Path, msg)
	}
	return fmt.Sprintf("pdfmerge.%s: %s", e.Op, msg)
}

func (e *PDFError) Unwrap() error {
	return e.Err
}

// NewError creates a new PDFError wrapping err with operation and path context.
func NewError(op, path string, err error) *PDFError {
	return &PDFError{Op: op, Path: path, Err: err}
}

// Reason classifies err into one of the per-source sentinels.
// Errors outside the taxonomy are reported as ErrUnreadable.
func Reason(err error) error {
	switch {
	case errors.Is(err, ErrEncrypted):
		return ErrEncrypted
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrUnsupportedFormat
	default:
		return ErrUnreadable
	}
}
