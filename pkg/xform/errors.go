package xform

import (
	"errors"
	"fmt"
)

// Parse error kinds, usable with errors.Is.
var (
	ErrInvalidNumber   = errors.New("invalid number")
	ErrInvalidVector   = errors.New("invalid vector")
	ErrUnknownArgument = errors.New("unknown argument")
	ErrMissingValue    = errors.New("missing value")
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	InvalidNumber ErrorKind = iota
	InvalidVector
	UnknownArgument
	MissingValue
)

func (k ErrorKind) sentinel() error {
	switch k {
	case InvalidNumber:
		return ErrInvalidNumber
	case InvalidVector:
		return ErrInvalidVector
	case UnknownArgument:
		return ErrUnknownArgument
	default:
		return ErrMissingValue
	}
}

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case InvalidNumber:
		return "InvalidNumber"
	case InvalidVector:
		return "InvalidVector"
	case UnknownArgument:
		return "UnknownArgument"
	case MissingValue:
		return "MissingValue"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ParseError reports an argument that could not be turned into an op.
type ParseError struct {
	Kind  ErrorKind
	Flag  string // as written, e.g. "--rx"
	Value string
	Err   error // underlying strconv error, if any
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case InvalidNumber:
		return fmt.Sprintf("%s: invalid number %q", e.Flag, e.Value)
	case InvalidVector:
		return fmt.Sprintf("%s: invalid vector %q (want X,Y,Z)", e.Flag, e.Value)
	case UnknownArgument:
		return fmt.Sprintf("unknown argument %q", e.Flag)
	default:
		return fmt.Sprintf("%s: missing value", e.Flag)
	}
}

// Is matches the kind sentinel.
func (e *ParseError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MeshReadError aborts a run when the triangle source fails.
// Triangles before Index have already been written.
type MeshReadError struct {
	Index int
	Err   error
}

func (e *MeshReadError) Error() string {
	return fmt.Sprintf("reading triangle %d: %v", e.Index, e.Err)
}

func (e *MeshReadError) Unwrap() error {
	return e.Err
}
