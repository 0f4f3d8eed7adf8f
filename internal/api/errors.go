package api

import (
	"errors"
	"fmt"
)

// ErrTransport matches every backend failure: unreachable backend,
// non-2xx status, or an undecodable response.
var ErrTransport = errors.New("api: transport failure")

// Error describes a failed backend call.
type Error struct {
	Op      string // e.g. "GET /api/destinations/random"
	Status  int    // HTTP status; 0 when the request never completed
	Message string // backend "error" field, or a generic message
	Err     error  // underlying network/decode error, if any
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) true for every *Error.
func (e *Error) Is(target error) bool { return target == ErrTransport }
