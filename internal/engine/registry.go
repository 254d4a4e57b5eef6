package engine

import "sync"

// Registry holds the live sessions of one process, keyed by session ID.
// Sessions live in process memory only; deleting a session discards its
// state. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session, replacing any existing one under the same ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session, or a typed not-found error.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, NewSessionNotFound(id)
	}
	return s, nil
}

// Delete removes the session. Returns a typed not-found error when absent.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return NewSessionNotFound(id)
	}
	delete(r.sessions, id)
	return nil
}

// List returns every live session's state snapshot.
func (r *Registry) List() []SessionState {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	states := make([]SessionState, 0, len(sessions))
	for _, s := range sessions {
		states = append(states, s.State())
	}
	return states
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
