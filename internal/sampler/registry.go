package sampler

import "sync"

// Registry owns the per-session samplers. Detection workers run in a
// pool, so two ticks for the same session may be handled on different
// goroutines; the registry hands out a per-session lock together with
// the sampler so tick order inside one session stays serialized.
type Registry struct {
	mu       sync.Mutex
	batch    int
	sessions map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	sampler *Sampler
}

func NewRegistry(batchSize int) *Registry {
	return &Registry{
		batch:    batchSize,
		sessions: make(map[string]*entry),
	}
}

// WithSession runs fn with the session's sampler while holding that
// session's lock. The sampler is created on first use.
func (r *Registry) WithSession(sessionID string, fn func(*Sampler)) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{sampler: New(r.batch)}
		r.sessions[sessionID] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sampler)
}

// EndSession discards the session's sampler and any uncommitted samples.
func (r *Registry) EndSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Shutdown drops all per-session state.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*entry)
}

// Active returns the number of sessions currently holding sampler state.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
