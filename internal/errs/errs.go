// Package errs defines the error taxonomy shared by every wvgo package.
//
// The root package re-exports these types so callers never import an
// internal path.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches any *FormatError.
	ErrFormat = errors.New("format error")
	// ErrLookup matches any *LookupError.
	ErrLookup = errors.New("lookup failure")
	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrNotImplemented matches any *NotImplementedError.
	ErrNotImplemented = errors.New("not implemented")
	// ErrNumeric matches any *NumericError.
	ErrNumeric = errors.New("numeric error")
)

// FormatError reports malformed input.
//
// Source names the file or container member, Line is 1-based (0 when the
// error is not tied to a line) and Text holds the offending record.
type FormatError struct {
	Source string
	Line   int
	Text   string
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	s := "format error"
	if e.Source != "" {
		s += " in " + e.Source
	}
	if e.Line > 0 {
		s += fmt.Sprintf(" line %d", e.Line)
	}
	s += ": " + e.Msg
	if e.Text != "" {
		s += fmt.Sprintf(": %q", e.Text)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Formatf returns a FormatError without source information.
func Formatf(format string, args ...any) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// WithSource sets Source on a FormatError found in err's chain.
// Other errors are returned unchanged.
func WithSource(err error, source string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Source == "" {
		fe.Source = source
	}
	return err
}

// LookupError reports a word that is not in the vocabulary.
type LookupError struct {
	Word string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("word not in vocabulary: %q", e.Word)
}

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// ValidationError reports an invalid parameter.
type ValidationError struct {
	Param string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Msg)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a ValidationError for param.
func Invalid(param, format string, args ...any) *ValidationError {
	return &ValidationError{Param: param, Msg: fmt.Sprintf(format, args...)}
}

// NotImplementedError reports an unsupported format or combination.
type NotImplementedError struct {
	What string
}

func (e *NotImplementedError) Error() string {
	return "not implemented: " + e.What
}

func (e *NotImplementedError) Is(target error) bool { return target == ErrNotImplemented }

// NumericError reports a numeric condition such as a zero-norm vector.
// Index is the row involved, or -1 for a query vector.
type NumericError struct {
	Index int
	Msg   string
}

func (e *NumericError) Error() string {
	if e.Index < 0 {
		return "numeric error: query vector: " + e.Msg
	}
	return fmt.Sprintf("numeric error: row %d: %s", e.Index, e.Msg)
}

func (e *NumericError) Is(target error) bool { return target == ErrNumeric }
