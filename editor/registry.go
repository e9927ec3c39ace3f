package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"booking-miniapp/apiclient"
)

// Workspace is everything the gateway keeps in memory for one session.
type Workspace struct {
	SessionID uuid.UUID
	Client    *apiclient.Client
	Editor    *Editor
	LastUsed  time.Time
}

// Factory builds a workspace the first time a session is seen.
type Factory func(sessionID uuid.UUID) (*Workspace, error)

// Registry holds workspaces in memory and drops idle ones.
type Registry struct {
	mu         sync.RWMutex
	workspaces map[uuid.UUID]*Workspace
	idle       time.Duration
	now        func() time.Time
}

func NewRegistry(idle time.Duration) *Registry {
	if idle <= 0 {
		idle = time.Hour
	}
	return &Registry{
		workspaces: make(map[uuid.UUID]*Workspace),
		idle:       idle,
		now:        time.Now,
	}
}

// Cleanup removes workspaces not used within the idle window and returns how many were dropped.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle)
	dropped := 0
	for id, ws := range r.workspaces {
		if ws.LastUsed.Before(cutoff) {
			delete(r.workspaces, id)
			dropped++
		}
	}
	return dropped
}

// GetOrCreate returns the session's workspace, building it with factory on
// first use. factory runs without the registry lock; if two callers race,
// the first workspace stored wins and the other is discarded.
func (r *Registry) GetOrCreate(id uuid.UUID, factory Factory) (*Workspace, error) {
	if ws, ok := r.Get(id); ok {
		return ws, nil
	}

	built, err := factory(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[id]; ok {
		ws.LastUsed = r.now()
		return ws, nil
	}
	built.SessionID = id
	built.LastUsed = r.now()
	r.workspaces[id] = built
	return built, nil
}

// Get retrieves a workspace without creating one.
func (r *Registry) Get(id uuid.UUID) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.workspaces[id]
	if ok {
		ws.LastUsed = r.now()
	}
	return ws, ok
}

// Remove drops a workspace, e.g. on logout.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workspaces)
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (r *Registry) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
