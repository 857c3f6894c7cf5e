package launcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/command"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/events"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/session"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/process"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/id"
)

// SpawnError reports that the mirroring process could not be started.
// Nothing is registered when it is returned.
type SpawnError struct {
	Serial string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start mirroring for %s: %v", e.Serial, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ModelResolver looks up a device's display name.
type ModelResolver interface {
	Model(ctx context.Context, serial string) (string, bool)
}

// Launcher spawns and terminates mirroring processes and keeps the
// registry in step with them.
type Launcher struct {
	binary   string
	spawner  process.Spawner
	registry *session.Registry
	models   ModelResolver
	bus      *events.Bus
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-serial start/stop serialization
}

// New creates a launcher that runs binary through spawner.
func New(binary string, spawner process.Spawner, registry *session.Registry, models ModelResolver, bus *events.Bus, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		binary:   binary,
		spawner:  spawner,
		registry: registry,
		models:   models,
		bus:      bus,
		logger:   logger.Named("launcher"),
		locks:    make(map[string]*sync.Mutex),
	}
}

// WithMetrics adds metrics tracking to the launcher
func (l *Launcher) WithMetrics(metrics *monitoring.Metrics) *Launcher {
	l.metrics = metrics
	return l
}

func (l *Launcher) lock(serial string) func() {
	l.mu.Lock()
	m, ok := l.locks[serial]
	if !ok {
		m = &sync.Mutex{}
		l.locks[serial] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// ResolveModel returns the device's model name, or serial when the
// bridge cannot provide one.
func (l *Launcher) ResolveModel(ctx context.Context, serial string) string {
	if l.models != nil {
		if model, ok := l.models.Model(ctx, serial); ok && model != "" {
			return model
		}
	}
	return serial
}

// Start mirrors serial with opts. An existing session for serial is
// terminated and unregistered first, so at most one process per serial
// is ever registered.
func (l *Launcher) Start(ctx context.Context, serial string, opts command.Options) (session.Snapshot, error) {
	model := l.ResolveModel(ctx, serial)

	unlock := l.lock(serial)
	defer unlock()

	if old, ok := l.registry.Remove(serial); ok {
		l.terminate(old, monitoring.ExitReplaced)
		l.bus.Publish(events.Event{
			Type:      events.SessionReplaced,
			Serial:    serial,
			SessionID: old.ID,
		})
	}

	args := command.Command(serial, opts)
	l.logger.Info("starting mirroring process",
		zap.String("serial", serial),
		zap.String("binary", l.binary),
		zap.Strings("args", args))

	h, err := l.spawner.Spawn(ctx, l.binary, args)
	if err != nil {
		l.metrics.IncSpawnFailures()
		l.logger.Error("mirroring process failed to start", zap.String("serial", serial), zap.Error(err))
		return session.Snapshot{}, &SpawnError{Serial: serial, Err: err}
	}

	snap, err := l.registry.Add(session.Session{
		Serial:  serial,
		ID:      id.NewSessionID(),
		Model:   model,
		Process: h,
		Policy: session.Policy{
			AlwaysOnTop: opts.AlwaysOnTop,
			Fullscreen:  opts.Fullscreen,
			AspectLock:  opts.AspectLock,
		},
		StartedAt: time.Now(),
	})
	if err != nil {
		// Only reachable if something registers outside the launcher.
		_ = h.Terminate()
		return session.Snapshot{}, fmt.Errorf("register session %s: %w", serial, err)
	}

	l.metrics.IncSessionsStarted()
	go l.watch(serial, snap.ID, h)

	l.logger.Info("mirroring started",
		zap.String("serial", serial),
		zap.String("session_id", snap.ID.String()),
		zap.Int("pid", snap.PID),
		zap.String("model", model))
	l.bus.Publish(events.Event{
		Type:      events.SessionStarted,
		Serial:    serial,
		SessionID: snap.ID,
		Data:      map[string]any{"pid": snap.PID, "model": model},
	})
	return snap, nil
}

// Stop unregisters serial's session and terminates its process. It
// reports whether a session existed. Termination errors are logged only.
func (l *Launcher) Stop(serial string) bool {
	unlock := l.lock(serial)
	defer unlock()

	snap, ok := l.registry.Remove(serial)
	if !ok {
		return false
	}
	l.terminate(snap, monitoring.ExitStopped)
	l.logger.Info("mirroring stopped", zap.String("serial", serial), zap.String("session_id", snap.ID.String()))
	l.bus.Publish(events.Event{
		Type:      events.SessionStopped,
		Serial:    serial,
		SessionID: snap.ID,
	})
	return true
}

// StopAll stops every registered session and returns how many there were.
func (l *Launcher) StopAll() int {
	n := 0
	for _, snap := range l.registry.List() {
		if l.Stop(snap.Serial) {
			n++
		}
	}
	return n
}

func (l *Launcher) terminate(snap session.Snapshot, reason string) {
	l.metrics.RecordSessionExit(reason)
	if snap.Process == nil {
		return
	}
	if err := snap.Process.Terminate(); err != nil {
		l.logger.Debug("terminate failed",
			zap.String("serial", snap.Serial),
			zap.Int("pid", snap.PID),
			zap.Error(err))
	}
}

// watch unregisters the session when its process exits on its own.
func (l *Launcher) watch(serial string, sid id.SessionID, h process.Handle) {
	<-h.Done()

	snap, ok := l.registry.RemoveIf(serial, sid)
	if !ok {
		return
	}
	l.metrics.RecordSessionExit(monitoring.ExitExited)

	fields := []zap.Field{
		zap.String("serial", serial),
		zap.String("session_id", sid.String()),
		zap.Int("pid", snap.PID),
	}
	data := map[string]any{"pid": snap.PID}
	if err := h.Err(); err != nil {
		fields = append(fields, zap.Error(err))
		data["error"] = err.Error()
	}
	l.logger.Info("mirroring process exited", fields...)
	l.bus.Publish(events.Event{
		Type:      events.SessionExited,
		Serial:    serial,
		SessionID: sid,
		Data:      data,
	})
}
