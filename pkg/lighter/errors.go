package lighter

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks inputs rejected before any network I/O.
// Callers can separate bad-input failures from transport failures with
// errors.Is(err, ErrInvalidArgument).
var ErrInvalidArgument = errors.New("invalid argument")

// RequestError is the single failure kind for API calls. Four causes
// collapse into it: timeout, connection failure, non-2xx status, and a
// body that is not valid JSON. Status is zero when no response was
// received.
type RequestError struct {
	URL    string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
