package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/command"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/events"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/launcher"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/profile"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/session"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/supervisor"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/window"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/types"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/utils"
)

var (
	// ErrNoSession is returned when the serial has no registered session.
	ErrNoSession = errors.New("no mirroring session")
	// ErrInvalidInput wraps rejected serials, addresses, ports and keycodes.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownPolicy is returned by ApplyPolicy for unrecognised names.
	ErrUnknownPolicy = errors.New("unknown policy")
)

// Global policy names accepted by ApplyPolicy.
const (
	PolicyStayAwake   = "stay_awake"
	PolicyAlwaysOnTop = "always_on_top"
	PolicyFullscreen  = "fullscreen"
	PolicyAspectLock  = "aspect_lock"
)

// Policies lists the global policy names.
func Policies() []string {
	return []string{PolicyStayAwake, PolicyAlwaysOnTop, PolicyFullscreen, PolicyAspectLock}
}

// DeviceBridge is the subset of the adb bridge the service drives directly.
type DeviceBridge interface {
	ListDevices(ctx context.Context) []types.Device
	EnableTCPMode(ctx context.Context, serial string, port int) bool
	Connect(ctx context.Context, address string) bool
	Disconnect(ctx context.Context, address string) bool
	DeviceIP(ctx context.Context, serial string) string
	SendKeyEvent(ctx context.Context, serial, keycode string) bool
	SetStayAwake(ctx context.Context, serial string, enabled bool) bool
}

// Deps are the collaborators a Service coordinates.
type Deps struct {
	Launcher    *launcher.Launcher
	Registry    *session.Registry
	Supervisors *supervisor.Group
	Locator     *window.Locator
	Controller  *window.Controller
	Bridge      DeviceBridge
	Bus         *events.Bus
	Catalog     *profile.Catalog
	Logger      *zap.Logger
}

// Service is the entry point for every control operation.
type Service struct {
	launcher    *launcher.Launcher
	registry    *session.Registry
	supervisors *supervisor.Group
	locator     *window.Locator
	controller  *window.Controller
	bridge      DeviceBridge
	bus         *events.Bus
	metrics     *monitoring.Metrics
	logger      *zap.Logger

	mu      sync.RWMutex
	options command.Options  // Protected by mu
	catalog *profile.Catalog // Protected by mu
}

// New creates a service whose global options come from deps.Catalog, or
// the default preset when it is nil.
func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = &profile.Catalog{}
	}
	return &Service{
		launcher:    deps.Launcher,
		registry:    deps.Registry,
		supervisors: deps.Supervisors,
		locator:     deps.Locator,
		controller:  deps.Controller,
		bridge:      deps.Bridge,
		bus:         deps.Bus,
		logger:      logger.Named("mirror"),
		options:     catalog.Options(),
		catalog:     catalog,
	}
}

// WithMetrics adds metrics tracking to the service
func (s *Service) WithMetrics(metrics *monitoring.Metrics) *Service {
	s.metrics = metrics
	return s
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// Options returns the current global options.
func (s *Service) Options() command.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// OptionsFor returns the options a new session for serial would use.
func (s *Service) OptionsFor(serial string) command.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.ApplyOverrides(s.options, serial)
}

// UpdateOptions replaces the global options. Every policy boolean that
// changed is re-applied to all sessions; the rest take effect on the next
// start.
func (s *Service) UpdateOptions(ctx context.Context, opts command.Options) (command.Options, error) {
	if err := opts.Validate(); err != nil {
		return command.Options{}, err
	}

	s.mu.Lock()
	prev := s.options
	s.options = opts
	s.mu.Unlock()

	s.applyChanged(ctx, prev, opts)
	return opts, nil
}

// ReloadProfile swaps in a new catalog and applies its global options.
func (s *Service) ReloadProfile(ctx context.Context, c *profile.Catalog) {
	next := c.Options()

	s.mu.Lock()
	prev := s.options
	s.options = next
	s.catalog = c
	s.mu.Unlock()

	s.applyChanged(ctx, prev, next)
	s.bus.Publish(events.Event{
		Type: events.ProfileReloaded,
		Data: map[string]any{
			"source":  c.Source,
			"digest":  utils.Short(c.Digest),
			"devices": len(c.Devices),
		},
	})
}

func (s *Service) applyChanged(ctx context.Context, prev, next command.Options) {
	changes := []struct {
		name      string
		old, want bool
	}{
		{PolicyStayAwake, prev.StayAwake, next.StayAwake},
		{PolicyAlwaysOnTop, prev.AlwaysOnTop, next.AlwaysOnTop},
		{PolicyFullscreen, prev.Fullscreen, next.Fullscreen},
		{PolicyAspectLock, prev.AspectLock, next.AspectLock},
	}
	for _, c := range changes {
		if c.old != c.want {
			s.applyToAll(ctx, c.name, c.want)
		}
	}
}

// ApplyPolicy sets one global policy and re-applies it to every
// registered session. It returns how many sessions the change reached.
func (s *Service) ApplyPolicy(ctx context.Context, name string, enabled bool) (int, error) {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")

	s.mu.Lock()
	switch name {
	case PolicyStayAwake:
		s.options.StayAwake = enabled
	case PolicyAlwaysOnTop:
		s.options.AlwaysOnTop = enabled
	case PolicyFullscreen:
		s.options.Fullscreen = enabled
	case PolicyAspectLock:
		s.options.AspectLock = enabled
	default:
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	s.mu.Unlock()

	return s.applyToAll(ctx, name, enabled), nil
}

// applyToAll pushes one policy value to every registered session. The
// change carries no serial, so it cannot target a single session.
func (s *Service) applyToAll(ctx context.Context, name string, enabled bool) int {
	applied := 0
	for _, snap := range s.registry.List() {
		var ok bool
		switch name {
		case PolicyStayAwake:
			ok = s.bridge.SetStayAwake(ctx, snap.Serial, enabled)
		case PolicyAlwaysOnTop:
			ok, _ = s.SetAlwaysOnTop(snap.Serial, enabled)
		case PolicyFullscreen:
			ok, _ = s.SetFullscreen(snap.Serial, enabled)
		case PolicyAspectLock:
			ok, _ = s.SetAspectLock(snap.Serial, enabled)
		}
		if ok {
			applied++
		}
	}

	s.metrics.RecordPolicyApplied(name, enabled)
	s.logger.Info("policy applied to all sessions",
		zap.String("policy", name),
		zap.Bool("enabled", enabled),
		zap.Int("applied", applied))
	s.bus.Publish(events.Event{
		Type: events.PolicyApplied,
		Data: map[string]any{"policy": name, "enabled": enabled, "applied": applied},
	})
	return applied
}

// Shutdown stops every supervisor and then every session.
func (s *Service) Shutdown() {
	s.supervisors.Close()
	n := s.launcher.StopAll()
	s.logger.Info("mirror service stopped", zap.Int("sessions", n))
}
