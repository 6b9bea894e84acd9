package bmp

import (
	"errors"
	"fmt"
)

// Kind classifies why a decode or encode failed
type Kind int

const (
	KindFileOpen   Kind = iota + 1 // source or destination path unusable
	KindFormat                     // bad signature, unsupported depth, truncated data...
	KindAllocation                 // the planes could not be allocated
)

func (k Kind) String() string {
	switch k {
	case KindFileOpen:
		return "file open"
	case KindFormat:
		return "format"
	case KindAllocation:
		return "allocation"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is; every *Error matches the sentinel of its Kind
var (
	ErrFileOpen   = errors.New("bmp: file open error")
	ErrFormat     = errors.New("bmp: format error")
	ErrAllocation = errors.New("bmp: allocation error")
)

var (
	errShortFileHeader = errors.New("file header is shorter than 14 bytes")
	errShortInfoHeader = errors.New("info header is shorter than 40 bytes")
)

// Error is returned by every failing codec operation
type Error struct {
	Kind Kind
	Op   string // "decode", "encode", ...
	Path string // empty when operating on a stream
	Err  error
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func formatErrorf(op, format string, args ...any) *Error {
	return newError(KindFormat, op, "", fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("bmp: %s %s: %s error: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("bmp: %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrFileOpen:
		return e.Kind == KindFileOpen
	case ErrFormat:
		return e.Kind == KindFormat
	case ErrAllocation:
		return e.Kind == KindAllocation
	}
	return false
}

// Returns the Kind of err, or 0 if err did not come from this package
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
