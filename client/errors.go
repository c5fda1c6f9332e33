package client

import "errors"

var (
	ErrConnectionClosed = errors.New("Connection is closed")
	ErrUnexpectedReply  = errors.New("Received a reply with no request waiting for it")
)

// ClosedError is returned for every request that is pending when a connection
// closes, and for every request sent afterwards. It matches
// ErrConnectionClosed with errors.Is and unwraps to the cause, if any.
type ClosedError struct {
	Cause error
}

func (e *ClosedError) Error() string {
	if e.Cause == nil {
		return ErrConnectionClosed.Error()
	}

	return ErrConnectionClosed.Error() + ": " + e.Cause.Error()
}

func (e *ClosedError) Is(target error) bool {
	return target == ErrConnectionClosed
}

func (e *ClosedError) Unwrap() error {
	return e.Cause
}
