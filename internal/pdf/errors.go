package pdf

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPage = errors.New("invalid page number")
	ErrNoRaster    = errors.New("page has no embedded image")
	ErrClosed      = errors.New("document is closed")
)

// BackendError represents an error from one of the PDF libraries
type BackendError struct {
	Op   string
	Page int
	Err  error
}

func (e *BackendError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("pdf %s (page %d): %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("pdf %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// recoverInto turns a panic from a parser into a BackendError stored in err
func recoverInto(err *error, op string, page int) {
	if r := recover(); r != nil {
		*err = &BackendError{Op: op, Page: page, Err: fmt.Errorf("parser panicked: %v", r)}
	}
}
