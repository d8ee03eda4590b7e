package probe

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnexpectedStatus marks attempts whose status code failed the matcher.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrBodyMismatch marks attempts whose body failed the body predicate.
	ErrBodyMismatch = errors.New("response body did not match predicate")
)

// AttemptError describes a failed HTTP attempt together with what the server
// returned, so callers can report the last observed response.
type AttemptError struct {
	// Status is the response status code, or 0 when no response arrived.
	Status int
	// Body is the response text read during the attempt, if any.
	Body string
	Err  error
}

func (e *AttemptError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnexpectedStatus):
		return fmt.Sprintf("%s %d %s", ErrUnexpectedStatus, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "attempt failed"
	}
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}
