package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/shared/id"
)

// Type names a lifecycle event.
type Type string

const (
	SessionStarted  Type = "session.started"
	SessionStopped  Type = "session.stopped"
	SessionExited   Type = "session.exited"
	SessionReplaced Type = "session.replaced"
	PolicyApplied   Type = "policy.applied"
	WindowUpdated   Type = "window.updated"
	ProfileReloaded Type = "profile.reloaded"
)

// Event is a lifecycle notification delivered to subscribers.
type Event struct {
	ID        id.EventID     `json:"id"`
	Type      Type           `json:"type"`
	Serial    string         `json:"serial,omitempty"`
	SessionID id.SessionID   `json:"session_id,omitempty"`
	Time      time.Time      `json:"time"`
	Data      map[string]any `json:"data,omitempty"`
}

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Bus fans events out to subscribers without blocking the publisher. A
// subscriber whose queue is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[id.SubscriberID]chan Event
	buffer int
	closed bool
	logger *zap.Logger
}

// NewBus creates a bus with the given per-subscriber buffer.
func NewBus(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[id.SubscriberID]chan Event),
		buffer: buffer,
		logger: logger.Named("events"),
	}
}

// Publish stamps e with an id and time and delivers it. Safe on a nil bus.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.ID == "" {
		e.ID = id.NewEventID()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for sid, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Debug("dropped event for slow subscriber",
				zap.String("subscriber", sid.String()),
				zap.String("type", string(e.Type)))
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (id.SubscriberID, <-chan Event, func()) {
	sid := id.NewSubscriberID()
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return sid, ch, func() {}
	}
	b.subs[sid] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[sid]; ok {
				delete(b.subs, sid)
				close(c)
			}
		})
	}
	return sid, ch, cancel
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sid, ch := range b.subs {
		delete(b.subs, sid)
		close(ch)
	}
}
