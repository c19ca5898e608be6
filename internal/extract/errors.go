package extract

import (
	"errors"
	"fmt"
)

// Kind categorizes extraction failures so callers can present distinct messaging
type Kind int

const (
	KindUnknown Kind = iota
	KindCancelledByUser
	KindMissingDocument
	KindPageProcessing
	KindUnhandledPipeline
	KindInvalidConfiguration
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindCancelledByUser:
		return "CANCELLED_BY_USER"
	case KindMissingDocument:
		return "MISSING_DOCUMENT"
	case KindPageProcessing:
		return "PAGE_PROCESSING_FAILURE"
	case KindUnhandledPipeline:
		return "UNHANDLED_PIPELINE_ERROR"
	case KindInvalidConfiguration:
		return "INVALID_CONFIGURATION"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCancelled       = errors.New("cancelled by user")
	ErrDeclined        = errors.New("pre-flight warnings declined")
	ErrMissingDocument = errors.New("no document supplied")
	ErrPipeline        = errors.New("text pipeline failed")
	ErrPageProcessing  = errors.New("page processing failed")
	ErrInvalidAreas    = errors.New("invalid area configuration")
)

// sentinel maps a kind to the error errors.Is matches it against
func (k Kind) sentinel() error {
	switch k {
	case KindCancelledByUser:
		return ErrCancelled
	case KindMissingDocument:
		return ErrMissingDocument
	case KindPageProcessing:
		return ErrPageProcessing
	case KindUnhandledPipeline:
		return ErrPipeline
	case KindInvalidConfiguration:
		return ErrInvalidAreas
	default:
		return nil
	}
}

// ExtractionError carries the failure kind plus the page and area it happened on
type ExtractionError struct {
	Kind Kind
	Page int
	Area string
	Err  error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	msg := e.Kind.String()
	if e.Page > 0 {
		msg = fmt.Sprintf("%s on page %d", msg, e.Page)
	}
	if e.Area != "" {
		msg = fmt.Sprintf("%s (area %q)", msg, e.Area)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "[" + msg + "]"
}

// Unwrap returns the underlying cause
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error's kind
func (e *ExtractionError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first ExtractionError in err's chain
func KindOf(err error) Kind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnknown
}

// IsExpected reports whether err is a control-flow outcome rather than a defect
func IsExpected(err error) bool {
	switch KindOf(err) {
	case KindCancelledByUser, KindMissingDocument:
		return true
	default:
		return false
	}
}
