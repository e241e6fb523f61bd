package notify

import (
	"log/slog"
	"sync"

	"github.com/erazemk/najdeno/internal/auth"
)

// TokenVerifier resolves a bearer token to the user it was issued to.
type TokenVerifier interface {
	VerifyToken(token string) (auth.Identity, error)
}

// Directory finds live connections. Router depends on this rather than
// on Registry so the backing store can be swapped.
type Directory interface {
	Lookup(userID int64) (Conn, bool)
	Connections() []Conn
}

// Registry tracks open connections and which user each belongs to.
// Every user has at most one registered connection; the latest
// Identify wins. It is safe for concurrent use.
type Registry struct {
	verifier TokenVerifier

	mu     sync.Mutex
	conns  map[string]Conn  // conn ID -> conn, identified or not
	byUser map[int64]Conn   // user ID -> current conn
	byConn map[string]int64 // conn ID -> user ID, only for current conns
}

// NewRegistry creates an empty registry that checks tokens with v.
func NewRegistry(v TokenVerifier) *Registry {
	return &Registry{
		verifier: v,
		conns:    make(map[string]Conn),
		byUser:   make(map[int64]Conn),
		byConn:   make(map[string]int64),
	}
}

// Attach records an open, not yet identified connection so it receives
// broadcasts.
func (r *Registry) Attach(c Conn) {
	r.mu.Lock()
	r.conns[c.ID()] = c
	r.mu.Unlock()
}

// Identify verifies token and makes c the connection for its user,
// replacing any earlier one. If c was identified as a different user
// before, that mapping is dropped.
func (r *Registry) Identify(token string, c Conn) (auth.Identity, error) {
	id, err := r.verifier.VerifyToken(token)
	if err != nil {
		return auth.Identity{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[c.ID()]; ok && prev != id.UserID {
		delete(r.byUser, prev)
	}
	if old, ok := r.byUser[id.UserID]; ok && old.ID() != c.ID() {
		delete(r.byConn, old.ID())
		slog.Debug("connection superseded", "user", id.UserID, "old", old.ID(), "new", c.ID())
	}

	r.conns[c.ID()] = c
	r.byUser[id.UserID] = c
	r.byConn[c.ID()] = id.UserID
	return id, nil
}

// Forget removes c. A user's mapping is only removed if c is still the
// user's current connection.
func (r *Registry) Forget(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, c.ID())
	userID, ok := r.byConn[c.ID()]
	if !ok {
		return
	}
	delete(r.byConn, c.ID())
	if cur, ok := r.byUser[userID]; ok && cur.ID() == c.ID() {
		delete(r.byUser, userID)
	}
}

// Lookup returns the user's current connection.
func (r *Registry) Lookup(userID int64) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// Connections returns a snapshot of every open connection.
func (r *Registry) Connections() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Online returns the number of identified users.
func (r *Registry) Online() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}
