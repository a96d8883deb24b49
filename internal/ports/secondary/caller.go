package secondary

import "context"

// CallerProvider defines the secondary port for caller identity resolution.
// Identity is explicitly constructed and injected rather than read from
// ambient global state; Ready lets late-wired components wait for the
// one-shot load before using the synchronous getter.
type CallerProvider interface {
	// Caller returns the identity of the current caller.
	Caller(ctx context.Context) (*Caller, error)

	// Ready is closed once the identity has been resolved.
	Ready() <-chan struct{}
}

// Caller represents the caller identity as provided by the secondary port.
type Caller struct {
	Username string
	Role     string // "reader" or "administrator"
}
