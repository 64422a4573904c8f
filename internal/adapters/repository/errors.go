package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("politician not found")
	ErrInvalid  = errors.New("invalid politician view")
)
