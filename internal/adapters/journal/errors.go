package journal

import "errors"

// Sentinel kinds for journal errors.
var (
	ErrClosed    = errors.New("journal closed")
	ErrDuplicate = errors.New("action already journaled")
)
