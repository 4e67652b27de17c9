package session

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrIdentityConflict = errors.New("client identity already connected")
	ErrClientNotFound   = errors.New("client not connected")
)

// Outbound is the write side of a client's connection. Send must not block.
type Outbound interface {
	Send(frame []byte) error
}

type clientEntry struct {
	out       Outbound
	sessionID string
}

// ClientRegistry tracks connected identities and the session each is in
type ClientRegistry struct {
	clients map[string]*clientEntry
	mu      sync.RWMutex
}

// NewClientRegistry creates an empty registry
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*clientEntry),
	}
}

// Register binds id to out. A second live binding for id is refused.
func (r *ClientRegistry) Register(id string, out Outbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[id]; exists {
		return ErrIdentityConflict
	}
	r.clients[id] = &clientEntry{out: out}
	return nil
}

// Unregister removes id if it is still bound to out, returning the
// session it was in.
func (r *ClientRegistry) Unregister(id string, out Outbound) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[id]
	if !ok || entry.out != out {
		return "", false
	}
	delete(r.clients, id)
	return entry.sessionID, true
}

// IsConnected reports whether id has a live connection
func (r *ClientRegistry) IsConnected(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[id]
	return ok
}

// SessionOf returns the session id recorded for a connected client
func (r *ClientRegistry) SessionOf(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.clients[id]
	if !ok || entry.sessionID == "" {
		return "", false
	}
	return entry.sessionID, true
}

// SetSession records sessionID for id; an empty sessionID clears it
func (r *ClientRegistry) SetSession(id, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[id]
	if !ok {
		return false
	}
	entry.sessionID = sessionID
	return true
}

// Send queues frame on the client's outbound handle
func (r *ClientRegistry) Send(id string, frame []byte) error {
	r.mu.RLock()
	entry, ok := r.clients[id]
	r.mu.RUnlock()

	if !ok {
		return ErrClientNotFound
	}
	return entry.out.Send(frame)
}

// IDs returns every connected client id, sorted
func (r *ClientRegistry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Count returns the number of connected clients
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
