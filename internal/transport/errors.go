package transport

import (
	"errors"
	"fmt"
)

// Failure is a network-level failure: no response, or a response that could not be decoded.
// Application-level refusals (success=false) are never reported as a Failure.
type Failure struct {
	Op     string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s: http %d: %v", f.Op, f.Status, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsFailure reports whether err is (or wraps) a transport Failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

var (
	errUnexpectedStatus = errors.New("unexpected status")
	errEmptyBody        = errors.New("empty response body")
	errMissingSuccess   = errors.New("response has no success field")
	errBadActionType    = errors.New("action in progress without a known type")
)

func newFailure(op string, status int, err error) *Failure {
	return &Failure{Op: op, Status: status, Err: err}
}
