package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry hands out one orchestrator per session key. Sessions live for the
// process lifetime only; nothing is rehydrated from storage.
type Registry struct {
	backend Backend
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Orchestrator
}

func NewRegistry(backend Backend, timeout time.Duration) *Registry {
	return &Registry{
		backend:  backend,
		timeout:  timeout,
		sessions: make(map[string]*Orchestrator),
	}
}

// Get returns the orchestrator for an existing session.
func (r *Registry) Get(id string) (*Orchestrator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.sessions[id]
	return o, ok
}

// Create starts a new session under a fresh ID.
func (r *Registry) Create() *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	o := New(id, r.backend, r.timeout)
	r.sessions[id] = o
	return o
}

// GetOrCreate returns the session for a caller-chosen key, creating it on
// first use. The Telegram surface keys sessions by chat ID.
func (r *Registry) GetOrCreate(id string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.sessions[id]; ok {
		return o
	}
	o := New(id, r.backend, r.timeout)
	r.sessions[id] = o
	return o
}
