package flow

import "github.com/okian/vigia/internal/domain/auth"

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithHook sets a hook run before every transition is committed.
func WithHook(h Hook) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.hook = h
		}
	}
}

// WithAuth binds sessions to the provider's user: new sessions take the
// current user id, and sessions of a user who signs out or is replaced are
// reset to landing.
func WithAuth(p auth.Provider) Option {
	return func(d *Dispatcher) {
		d.auth = p
	}
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(gen func() string) Option {
	return func(d *Dispatcher) {
		if gen != nil {
			d.newID = gen
		}
	}
}
