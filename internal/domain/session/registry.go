package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/process"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/window"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/id"
)

// ErrExists is returned by Add when the serial already has a session.
var ErrExists = errors.New("session already exists")

// Policy holds the per-session window policy booleans.
type Policy struct {
	AlwaysOnTop bool `json:"always_on_top"`
	Fullscreen  bool `json:"fullscreen"`
	Borderless  bool `json:"borderless"`
	AspectLock  bool `json:"aspect_lock"`
}

// Session is what the launcher registers for a spawned process.
type Session struct {
	Serial    string
	ID        id.SessionID
	Model     string
	Process   process.Handle
	Policy    Policy
	StartedAt time.Time
}

// Snapshot is a copy of a registered session.
type Snapshot struct {
	Serial    string         `json:"serial"`
	ID        id.SessionID   `json:"id"`
	Model     string         `json:"model"`
	PID       int            `json:"pid"`
	Window    window.Handle  `json:"window,omitempty"`
	Policy    Policy         `json:"policy"`
	StartedAt time.Time      `json:"started_at"`
	Process   process.Handle `json:"-"`
}

// Alive reports whether the session's process is still running.
func (s Snapshot) Alive() bool {
	return s.Process != nil && !s.Process.Exited()
}

type entry struct {
	Session
	window window.Handle
}

func (e *entry) snapshot() Snapshot {
	pid := 0
	if e.Process != nil {
		pid = e.Process.PID()
	}
	return Snapshot{
		Serial:    e.Serial,
		ID:        e.ID,
		Model:     e.Model,
		PID:       pid,
		Window:    e.window,
		Policy:    e.Policy,
		StartedAt: e.StartedAt,
		Process:   e.Process,
	}
}

// Registry maps device serials to their active session. All access goes
// through one RWMutex and only copies leave the registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry // Protected by mu
	metrics  *monitoring.Metrics
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Add registers s. It fails with ErrExists if the serial is taken.
func (r *Registry) Add(s Session) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.Serial]; exists {
		return Snapshot{}, ErrExists
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	e := &entry{Session: s}
	r.sessions[s.Serial] = e
	r.metrics.SetSessionsActive(len(r.sessions))
	return e.snapshot(), nil
}

// Remove unregisters serial and returns what was registered.
func (r *Registry) Remove(serial string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[serial]
	if !ok {
		return Snapshot{}, false
	}
	delete(r.sessions, serial)
	r.metrics.SetSessionsActive(len(r.sessions))
	return e.snapshot(), true
}

// RemoveIf unregisters serial only while it still belongs to instance sid.
func (r *Registry) RemoveIf(serial string, sid id.SessionID) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[serial]
	if !ok || e.ID != sid {
		return Snapshot{}, false
	}
	delete(r.sessions, serial)
	r.metrics.SetSessionsActive(len(r.sessions))
	return e.snapshot(), true
}

// Get returns a copy of the session for serial.
func (r *Registry) Get(serial string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[serial]
	if !ok {
		return Snapshot{}, false
	}
	return e.snapshot(), true
}

// List returns copies of every session ordered by serial.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	out := make([]Snapshot, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SetWindow caches the resolved window for instance sid.
func (r *Registry) SetWindow(serial string, sid id.SessionID, h window.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[serial]
	if !ok || e.ID != sid {
		return false
	}
	e.window = h
	return true
}

// Update applies fn to the policy of serial's session.
func (r *Registry) Update(serial string, fn func(*Policy)) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[serial]
	if !ok {
		return Snapshot{}, false
	}
	fn(&e.Policy)
	return e.snapshot(), true
}

// Active reports whether instance sid is still registered for serial and
// its process has not exited.
func (r *Registry) Active(serial string, sid id.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[serial]
	return ok && e.ID == sid && e.Process != nil && !e.Process.Exited()
}
