// Package auth models the signed-in user as an injected capability.
package auth

import "sync"

// User is the signed-in identity.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Handler receives the new user and whether anyone is signed in.
type Handler func(u User, signedIn bool)

// Provider exposes the current user and notifies about sign-in changes.
type Provider interface {
	// CurrentUser returns the signed-in user, if any.
	CurrentUser() (User, bool)
	// OnChange registers h and returns a function that removes it.
	OnChange(h Handler) (unsubscribe func())
}

// StaticProvider is an in-memory Provider driven by SignIn and SignOut.
type StaticProvider struct {
	mu       sync.Mutex
	user     User
	signedIn bool
	handlers map[uint64]Handler
	order    []uint64
	next     uint64
}

// NewStaticProvider creates a provider with nobody signed in.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{handlers: make(map[uint64]Handler)}
}

// CurrentUser implements Provider.
func (p *StaticProvider) CurrentUser() (User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user, p.signedIn
}

// OnChange implements Provider. Handlers run in registration order, outside
// the provider's lock.
func (p *StaticProvider) OnChange(h Handler) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.handlers[id] = h
	p.order = append(p.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.handlers, id)
		})
	}
}

// SignIn replaces the current user and notifies handlers.
func (p *StaticProvider) SignIn(u User) {
	p.set(u, true)
}

// SignOut clears the current user and notifies handlers.
func (p *StaticProvider) SignOut() {
	p.set(User{}, false)
}

func (p *StaticProvider) set(u User, signedIn bool) {
	p.mu.Lock()
	p.user = u
	p.signedIn = signedIn
	live := p.order[:0]
	handlers := make([]Handler, 0, len(p.order))
	for _, id := range p.order {
		if h, ok := p.handlers[id]; ok {
			live = append(live, id)
			handlers = append(handlers, h)
		}
	}
	p.order = live
	p.mu.Unlock()

	for _, h := range handlers {
		h(u, signedIn)
	}
}
