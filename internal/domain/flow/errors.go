package flow

import "errors"

// Sentinel kinds for flow errors.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnknownSession    = errors.New("unknown session")
)
