package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/vigia/internal/domain/auth"
)

// Hook observes a transition before it is committed. Returning an error
// rejects the transition and leaves the session unchanged.
type Hook func(ctx context.Context, before, after Session, e Event) error

// Dispatcher owns sessions and applies events to them one at a time.
type Dispatcher struct {
	mu       sync.Mutex
	sessions map[string]Session
	hook     Hook
	auth     auth.Provider
	newID    func() string

	userID      string
	unsubscribe func()
}

// NewDispatcher creates a dispatcher with configuration options.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sessions: make(map[string]Session),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.auth != nil {
		if u, ok := d.auth.CurrentUser(); ok {
			d.userID = u.ID
		}
		d.unsubscribe = d.auth.OnChange(d.onAuthChange)
	}
	return d
}

// Start opens a new session on the landing screen.
func (d *Dispatcher) Start() Session {
	userID := ""
	if d.auth != nil {
		if u, ok := d.auth.CurrentUser(); ok {
			userID = u.ID
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	s := NewSession(d.newID(), userID)
	d.sessions[s.ID] = s
	return s
}

// Get returns a session by id.
func (d *Dispatcher) Get(id string) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s.clone(), nil
}

// Dispatch applies e to the session id and returns the committed session.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, e Event) (Session, error) { //nolint:gocritic // hugeParam
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	next, err := Transition(s, e)
	if err != nil {
		return s.clone(), err
	}
	if d.hook != nil {
		if err := d.hook(ctx, s.clone(), next.clone(), e); err != nil {
			return s.clone(), fmt.Errorf("flow: %s rejected: %w", e.Type, err)
		}
	}
	d.sessions[id] = next
	return next.clone(), nil
}

// Remove discards a session.
func (d *Dispatcher) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, id)
}

// Len returns the number of open sessions.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// Close detaches from the auth provider.
func (d *Dispatcher) Close() error {
	if d.unsubscribe != nil {
		d.unsubscribe()
	}
	return nil
}

func (d *Dispatcher) onAuthChange(u auth.User, signedIn bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.userID
	d.userID = ""
	if signedIn {
		d.userID = u.ID
	}
	if prev == "" || prev == d.userID {
		return
	}
	for id, s := range d.sessions {
		if s.UserID == prev {
			d.sessions[id] = Reset(s)
		}
	}
}
