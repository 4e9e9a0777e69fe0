package registry

import "sync"

// Conn is a live transport handle capable of receiving pushed events.
type Conn interface {
	SendEvent(event string, data any) error
}

// Registry maps an external user identity to at most one live connection.
// It is the single shared mutable structure in the process; all access goes
// through these methods. Nothing is persisted: a restart empties the
// registry and clients reappear by reconnecting.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Conn
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{clients: make(map[string]Conn)}
}

// Put records the connection for the user, displacing any previous one
// (last-connect-wins). The displaced connection is returned so the caller
// can decide what to do with it.
func (r *Registry) Put(userID string, conn Conn) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.clients[userID]
	r.clients[userID] = conn
	return prev, had
}

// Get returns the live connection for the user, if any.
func (r *Registry) Get(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.clients[userID]
	return conn, ok
}

// Remove drops the user's entry unconditionally.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, userID)
}

// RemoveIfCurrent drops the user's entry only if the given connection is
// still the one on record, so a closing connection never evicts a newer one
// that already replaced it.
func (r *Registry) RemoveIfCurrent(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.clients[userID]; ok && current == conn {
		delete(r.clients, userID)
		return true
	}
	return false
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
