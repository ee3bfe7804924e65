// Package errors defines the error kinds shared by the roster, its codec
// and the front ends.
//
// Every typed error matches one sentinel through errors.Is, so callers can
// branch on the kind without caring which layer produced it:
//
//	if rerrors.IsNotFound(err) { ... 404 ... }
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per kind.
var (
	// ErrNotFound is returned when no student exists for an id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when caller-supplied fields fail validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIO is returned when a roster file or backend cannot be read or written.
	ErrIO = errors.New("i/o failure")

	// ErrParse is returned when a roster line carries a malformed field.
	ErrParse = errors.New("parse failure")
)

// NotFoundError reports a lookup miss. The store itself reports misses as
// ok=false; front ends and backup targets turn that into this error.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	if e.Kind == "student" {
		return fmt.Sprintf("no student found with id: %s", e.Key)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports a field that a caller must fix before the
// record may be inserted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field %s %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// IOError wraps a failure to open, read, write or close a roster source.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// ParseError reports a roster line whose GPA field is not a number.
// Line is 1-based; zero means the line number is unknown.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: invalid %s %q", e.Line, e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewNotFoundError creates a NotFoundError for a student id.
func NewNotFoundError(id string) error {
	return &NotFoundError{Kind: "student", Key: id}
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewIOError wraps err as an IOError, or returns nil for a nil err.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsIO checks if err is an I/O error.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsParse checks if err is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}
