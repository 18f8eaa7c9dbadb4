package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies extraction failures. Kinds are stable strings: the HTTP
// layer maps them to status codes and clients may switch on them.
type ErrorKind string

const (
	KindInvalidURL       ErrorKind = "INVALID_URL"
	KindFetchTimeout     ErrorKind = "FETCH_TIMEOUT"
	KindFetchUnavailable ErrorKind = "FETCH_UNAVAILABLE"
	KindStructural       ErrorKind = "STRUCTURAL_ERROR"
	KindUnparseableRow   ErrorKind = "UNPARSEABLE_ROW"
	KindCacheWrite       ErrorKind = "CACHE_WRITE_FAILURE"
	KindInternal         ErrorKind = "INTERNAL"
)

// ExtractionError carries the most specific failure kind through the pipeline.
// Stages wrap with %w but never replace the kind of an underlying ExtractionError.
type ExtractionError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewError builds an ExtractionError with an optional cause.
func NewError(kind ErrorKind, detail string, cause error) *ExtractionError {
	return &ExtractionError{Kind: kind, Detail: detail, Cause: cause}
}

// Errorf builds an ExtractionError with a formatted detail and no cause.
func Errorf(kind ErrorKind, format string, args ...any) *ExtractionError {
	return &ExtractionError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the innermost ExtractionError in err's chain,
// or KindInternal when err carries no kind.
func KindOf(err error) ErrorKind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindInternal
}

// WrapError annotates err without losing its kind.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
