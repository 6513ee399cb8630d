package identity

import (
	"context"
	"sync"
)

// Provider tracks the currently signed-in user and notifies subscribers of
// every change, mirroring the auth-change stream of a hosted identity SDK.
//
// Events are strictly ordered: state changes and their notifications happen
// under one lock, so a subscriber never observes event n after event n+1.
// Callbacks must therefore be quick and must not call back into the Provider.
type Provider struct {
	tokens *TokenService

	mu      sync.Mutex
	current *User
	subs    map[int]func(*User)
	nextID  int
}

// NewProvider creates a provider that verifies credentials with tokens.
func NewProvider(tokens *TokenService) *Provider {
	return &Provider{
		tokens: tokens,
		subs:   make(map[int]func(*User)),
	}
}

// VerifyToken validates a bearer credential and returns the identity it
// asserts, independent of any local sign-in state.
func (p *Provider) VerifyToken(token string) (*User, error) {
	return p.tokens.Verify(token)
}

// Subscribe registers fn on the auth-change stream and fires it once with
// the current state. The returned func removes the subscription; in normal
// operation subscriptions live for the life of the process.
func (p *Provider) Subscribe(fn func(*User)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs[id] = fn

	// Initial event so subscribers learn the current state immediately.
	fn(p.current)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// SignInWithToken verifies the credential and, on success, emits a
// signed-in event carrying the asserted identity.
func (p *Provider) SignInWithToken(ctx context.Context, token string) error {
	user, err := p.tokens.Verify(token)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = user
	p.notifyLocked()
	return nil
}

// SignOut terminates the session and emits a signed-out event. Calling it
// while already signed out is a no-op.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	p.current = nil
	p.notifyLocked()
	return nil
}

func (p *Provider) notifyLocked() {
	for _, fn := range p.subs {
		fn(p.current)
	}
}
