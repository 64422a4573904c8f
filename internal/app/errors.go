package service

import "errors"

// ErrNotStarted is returned by operations called before Start or after Stop.
var ErrNotStarted = errors.New("service not started")

// ErrNoJournal is returned by Rebuild when no journal is configured.
var ErrNoJournal = errors.New("no action journal configured")
