package supervisor

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/session"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/window"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/id"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/types"
)

// SizeProvider reports a device's native screen size.
type SizeProvider interface {
	PhysicalSize(ctx context.Context, serial string) (types.Size, bool)
}

// Config paces the control loop.
type Config struct {
	// Grace is the wait before the first geometry read.
	Grace time.Duration
	// Interval is the pause between polls and bounds how long a removed
	// or disabled session keeps its supervisor.
	Interval time.Duration
	// Tolerance is the allowed |current - target| ratio deviation.
	Tolerance float64
}

// DefaultConfig returns a 1s grace, 500ms interval and 2% tolerance.
func DefaultConfig() Config {
	return Config{
		Grace:     time.Second,
		Interval:  500 * time.Millisecond,
		Tolerance: 0.02,
	}
}

type task struct {
	sid    id.SessionID
	cancel context.CancelFunc
	done   chan struct{}
}

// Group runs one aspect-ratio supervisor per serial.
type Group struct {
	cfg        Config
	registry   *session.Registry
	locator    *window.Locator
	controller *window.Controller
	sizes      SizeProvider
	metrics    *monitoring.Metrics
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	tasks map[string]*task // Protected by mu
}

// NewGroup creates an idle group.
func NewGroup(cfg Config, registry *session.Registry, locator *window.Locator, controller *window.Controller, sizes SizeProvider, logger *zap.Logger) *Group {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{
		cfg:        cfg,
		registry:   registry,
		locator:    locator,
		controller: controller,
		sizes:      sizes,
		logger:     logger.Named("supervisor"),
		ctx:        ctx,
		cancel:     cancel,
		tasks:      make(map[string]*task),
	}
}

// WithMetrics adds metrics tracking to the group
func (g *Group) WithMetrics(metrics *monitoring.Metrics) *Group {
	g.metrics = metrics
	return g
}

// Start supervises instance sid of serial, replacing any supervisor the
// serial already has. It is a no-op, reporting false, when sid is no
// longer the serial's registered instance.
func (g *Group) Start(serial string, sid id.SessionID) bool {
	ctx, cancel := context.WithCancel(g.ctx)
	t := &task{sid: sid, cancel: cancel, done: make(chan struct{})}

	g.mu.Lock()
	if !g.registry.Active(serial, sid) {
		g.mu.Unlock()
		cancel()
		g.logger.Debug("supervisor start skipped for stale session",
			zap.String("serial", serial), zap.String("session_id", sid.String()))
		return false
	}
	prev := g.tasks[serial]
	g.tasks[serial] = t
	g.metrics.SetSupervisorsActive(len(g.tasks))
	g.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	go g.run(ctx, t, serial)
	return true
}

// Release stops serial's supervisor only when it watches an instance that
// is no longer registered, leaving a current instance's supervisor alone.
func (g *Group) Release(serial string) bool {
	g.mu.Lock()
	t, ok := g.tasks[serial]
	if !ok || g.registry.Active(serial, t.sid) {
		g.mu.Unlock()
		return false
	}
	delete(g.tasks, serial)
	g.metrics.SetSupervisorsActive(len(g.tasks))
	g.mu.Unlock()

	t.cancel()
	<-t.done
	return true
}

// Stop cancels serial's supervisor and waits for it to return. It
// reports whether one was running.
func (g *Group) Stop(serial string) bool {
	g.mu.Lock()
	t, ok := g.tasks[serial]
	if ok {
		delete(g.tasks, serial)
		g.metrics.SetSupervisorsActive(len(g.tasks))
	}
	g.mu.Unlock()

	if !ok {
		return false
	}
	t.cancel()
	<-t.done
	return true
}

// StopAll stops every supervisor.
func (g *Group) StopAll() {
	for _, serial := range g.Running() {
		g.Stop(serial)
	}
}

// Close stops every supervisor; the group cannot be reused.
func (g *Group) Close() {
	g.cancel()
	g.StopAll()
}

// Running returns the serials with a live supervisor, sorted.
func (g *Group) Running() []string {
	g.mu.Lock()
	out := make([]string, 0, len(g.tasks))
	for serial := range g.tasks {
		out = append(out, serial)
	}
	g.mu.Unlock()

	sort.Strings(out)
	return out
}

// IsRunning reports whether serial has a live supervisor.
func (g *Group) IsRunning(serial string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tasks[serial]
	return ok
}

func (g *Group) finish(serial string, t *task) {
	g.mu.Lock()
	if g.tasks[serial] == t {
		delete(g.tasks, serial)
		g.metrics.SetSupervisorsActive(len(g.tasks))
	}
	g.mu.Unlock()
	close(t.done)
}

func (g *Group) run(ctx context.Context, t *task, serial string) {
	defer g.finish(serial, t)
	log := g.logger.With(zap.String("serial", serial), zap.String("session_id", t.sid.String()))

	if !sleep(ctx, g.cfg.Grace) {
		return
	}

	size, ok := g.sizes.PhysicalSize(ctx, serial)
	if !ok {
		log.Debug("device resolution unavailable, aspect lock inactive")
		return
	}
	target := size.Ratio()
	log.Debug("aspect lock engaged", zap.Stringer("device", size), zap.Float64("target", target))

	for g.keepGoing(ctx, serial, t.sid) {
		g.correct(ctx, serial, t.sid, target, log)
		if !sleep(ctx, g.cfg.Interval) {
			return
		}
	}
	log.Debug("aspect lock released")
}

// keepGoing is the per-iteration predicate: same instance registered,
// process alive and aspect lock still on.
func (g *Group) keepGoing(ctx context.Context, serial string, sid id.SessionID) bool {
	if ctx.Err() != nil {
		return false
	}
	snap, ok := g.registry.Get(serial)
	return ok && snap.ID == sid && snap.Alive() && snap.Policy.AspectLock
}

func (g *Group) correct(ctx context.Context, serial string, sid id.SessionID, target float64, log *zap.Logger) {
	snap, ok := g.registry.Get(serial)
	if !ok || snap.ID != sid {
		return
	}
	// A fake-fullscreen window covers the monitor; leave it alone until
	// fullscreen is turned off.
	if snap.Policy.Fullscreen {
		return
	}

	h, err := g.locator.Resolve(snap.Window, uint32(snap.PID))
	if err != nil {
		return
	}
	if h != snap.Window {
		g.registry.SetWindow(serial, sid, h)
	}

	r, ok := g.controller.Rect(h)
	if !ok {
		return
	}
	current := r.Ratio()
	if current == 0 || math.Abs(current-target) <= g.cfg.Tolerance {
		return
	}

	// Width is the anchor; only the height follows the device ratio.
	height := int(math.Round(float64(r.Width) / target))
	if ctx.Err() != nil {
		return
	}
	if g.controller.SetSize(h, r.Width, height) {
		g.metrics.IncSupervisorCorrections()
		log.Debug("corrected window ratio",
			zap.Int("width", r.Width),
			zap.Int("from_height", r.Height),
			zap.Int("to_height", height))
	}
}

// sleep waits for d or until ctx is done, reporting whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
