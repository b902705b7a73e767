// Package tasklist is the client-side mirror of server state: the session
// gate that decides which views are reachable, and the task/directory store
// the filter layer reads from.
package tasklist

import (
	"sync"
	"time"
)

type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// SessionGate holds the client's copy of the session token. The transition
// function is: Anonymous -> (login) -> Authenticated -> (logout | expiry) ->
// Anonymous. Expiry is observed lazily on the next read; the server is never
// consulted.
type SessionGate struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

func NewSessionGate() *SessionGate {
	return &SessionGate{now: time.Now}
}

// SetToken records a freshly minted token; the gate becomes Authenticated.
func (g *SessionGate) SetToken(token string, expiresAt time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
	g.expiresAt = expiresAt
}

// Token returns the held token if the gate is still Authenticated.
func (g *SessionGate) Token() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token == "" || !g.now().Before(g.expiresAt) {
		return "", false
	}
	return g.token, true
}

func (g *SessionGate) State() State {
	if _, ok := g.Token(); ok {
		return StateAuthenticated
	}
	return StateAnonymous
}

// Clear drops the client-held token. The server-side token stays valid until
// its natural expiry; there is no revocation list.
func (g *SessionGate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
	g.expiresAt = time.Time{}
}
