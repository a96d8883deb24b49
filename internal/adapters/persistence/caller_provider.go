// Package persistence contains adapters that bridge local configuration
// and process state to the secondary ports.
package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/carjohnson/annosync/internal/config"
	"github.com/carjohnson/annosync/internal/ctxutil"
	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// CallerProviderAdapter resolves caller identity from workspace config,
// with a context actor taking precedence when present. The Ready channel
// is closed once the config has been loaded.
type CallerProviderAdapter struct {
	mu     sync.Mutex
	ready  chan struct{}
	loaded bool
	caller secondary.Caller
}

// NewCallerProvider creates an unloaded provider. Call Load before the
// first Caller call, or rely on a context actor.
func NewCallerProvider() *CallerProviderAdapter {
	return &CallerProviderAdapter{ready: make(chan struct{})}
}

// Load reads the workspace config from dir and resolves the identity.
func (p *CallerProviderAdapter) Load(dir string) error {
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return fmt.Errorf("failed to load caller identity: %w", err)
	}
	p.SetCaller(secondary.Caller{Username: cfg.Username, Role: cfg.Role})
	return nil
}

// SetCaller injects an identity directly and marks the provider ready.
func (p *CallerProviderAdapter) SetCaller(caller secondary.Caller) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.caller = caller
	if !p.loaded {
		p.loaded = true
		close(p.ready)
	}
}

// Caller returns the identity of the current caller. A context actor
// overrides the configured identity, which lets the HTTP layer act on
// behalf of authenticated request callers.
func (p *CallerProviderAdapter) Caller(ctx context.Context) (*secondary.Caller, error) {
	if actor := ctxutil.ActorFromContext(ctx); actor.Username != "" {
		return &secondary.Caller{Username: actor.Username, Role: actor.Role}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return nil, fmt.Errorf("caller identity has not been loaded")
	}
	c := p.caller
	return &c, nil
}

// Ready is closed once the identity has been resolved.
func (p *CallerProviderAdapter) Ready() <-chan struct{} {
	return p.ready
}

// Ensure CallerProviderAdapter implements the interface
var _ secondary.CallerProvider = (*CallerProviderAdapter)(nil)
