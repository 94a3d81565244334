package wvgo

import (
	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/resource"
)

// Error taxonomy. Match kinds with errors.Is against the sentinels and
// inspect details with errors.As against the types.
type (
	// FormatError reports malformed input: a bad header, a wrong field
	// count, a missing container member or an unsorted vocabulary.
	FormatError = errs.FormatError
	// LookupError reports a word that is not in the vocabulary.
	LookupError = errs.LookupError
	// ValidationError reports an invalid parameter.
	ValidationError = errs.ValidationError
	// NotImplementedError reports an unsupported format or combination.
	NotImplementedError = errs.NotImplementedError
	// NumericError reports a zero-norm vector where a direction is needed.
	NumericError = errs.NumericError
)

var (
	// ErrFormat matches any *FormatError.
	ErrFormat = errs.ErrFormat
	// ErrLookup matches any *LookupError.
	ErrLookup = errs.ErrLookup
	// ErrValidation matches any *ValidationError.
	ErrValidation = errs.ErrValidation
	// ErrNotImplemented matches any *NotImplementedError.
	ErrNotImplemented = errs.ErrNotImplemented
	// ErrNumeric matches any *NumericError.
	ErrNumeric = errs.ErrNumeric
	// ErrMemoryLimit is returned when a load exceeds the memory limit of
	// the configured resource controller.
	ErrMemoryLimit = resource.ErrMemoryLimit
)
