package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies operation failures at the operation boundary.
type ErrorKind int

const (
	// KindParse: an input cannot be read as its declared table format.
	KindParse ErrorKind = iota + 1
	// KindDocument: a PDF cannot be read or its pages cannot be copied.
	KindDocument
	// KindIO: the result could not be serialized.
	KindIO
	// KindSchema: column sets differ under the strict merge policy.
	KindSchema
	// KindPrecondition: the operation was invoked with unusable arguments.
	KindPrecondition
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindDocument:
		return "document error"
	case KindIO:
		return "io error"
	case KindSchema:
		return "schema mismatch"
	case KindPrecondition:
		return "precondition failed"
	default:
		return "error"
	}
}

var (
	ErrNoInputs          = errors.New("no input files")
	ErrInvalidChunkSize  = errors.New("rows per file must be at least 1")
	ErrOrderBoundary     = errors.New("file is already at the edge of the list")
	ErrOrderPosition     = errors.New("position out of range")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrJobNotFound       = errors.New("job not found")
	ErrNoSession         = errors.New("session not found")
	ErrEmptyFile         = errors.New("empty file")
	ErrNoHeader          = errors.New("no header row")
)

// OpError is the error returned by every core operation.
// File names the offending input when one is known.
type OpError struct {
	Kind ErrorKind
	File string
	Err  error
}

func (e *OpError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.File, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func parseError(file string, err error) error {
	return &OpError{Kind: KindParse, File: file, Err: err}
}

func documentError(file string, err error) error {
	return &OpError{Kind: KindDocument, File: file, Err: err}
}

func ioError(file string, err error) error {
	return &OpError{Kind: KindIO, File: file, Err: err}
}

func preconditionError(err error) error {
	return &OpError{Kind: KindPrecondition, Err: err}
}

// KindOf returns the ErrorKind carried by err, or 0 when err is not an OpError.
func KindOf(err error) ErrorKind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return 0
}
