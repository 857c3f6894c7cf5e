package mirror

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/events"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/session"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/window"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/utils"
)

// StartSession mirrors serial with its resolved options, replacing any
// session the serial already has.
func (s *Service) StartSession(ctx context.Context, serial string) (session.Snapshot, error) {
	if err := utils.ValidateSerial(serial); err != nil {
		return session.Snapshot{}, invalid(err)
	}
	opts := s.OptionsFor(serial)

	snap, err := s.launcher.Start(ctx, serial, opts)
	if err != nil {
		return session.Snapshot{}, err
	}

	if opts.AspectLock {
		s.supervisors.Start(serial, snap.ID)
	} else {
		s.supervisors.Release(serial)
	}
	return snap, nil
}

// StopSession stops serial's supervisor and then its process. It reports
// whether a session existed.
func (s *Service) StopSession(serial string) bool {
	s.supervisors.Stop(serial)
	return s.launcher.Stop(serial)
}

// RestartSession restarts an existing session with the current options.
func (s *Service) RestartSession(ctx context.Context, serial string) (session.Snapshot, error) {
	if _, ok := s.registry.Get(serial); !ok {
		return session.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSession, serial)
	}
	return s.StartSession(ctx, serial)
}

// Sessions lists the registered sessions.
func (s *Service) Sessions() []session.Snapshot {
	return s.registry.List()
}

// Session returns serial's session.
func (s *Service) Session(serial string) (session.Snapshot, error) {
	snap, ok := s.registry.Get(serial)
	if !ok {
		return session.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSession, serial)
	}
	return snap, nil
}

// window returns serial's session and its window, re-validating the cached
// handle and locating the window again when it went stale. A zero handle
// means the window is not there yet.
func (s *Service) window(serial string) (session.Snapshot, window.Handle, error) {
	snap, ok := s.registry.Get(serial)
	if !ok {
		return session.Snapshot{}, 0, fmt.Errorf("%w: %s", ErrNoSession, serial)
	}

	h, err := s.locator.Resolve(snap.Window, uint32(snap.PID))
	if err != nil {
		s.logger.Debug("window not found", zap.String("serial", serial), zap.Int("pid", snap.PID))
		return snap, 0, nil
	}
	if h != snap.Window && s.registry.SetWindow(serial, snap.ID, h) {
		s.bus.Publish(events.Event{
			Type:      events.WindowUpdated,
			Serial:    serial,
			SessionID: snap.ID,
			Data:      map[string]any{"window": h.String()},
		})
	}
	return snap, h, nil
}

// setPolicy records the desired value on the session and reports the
// outcome.
func (s *Service) setPolicy(serial, name string, enabled, applied bool, fn func(*session.Policy)) {
	snap, ok := s.registry.Update(serial, fn)
	if !ok {
		return
	}
	s.bus.Publish(events.Event{
		Type:      events.PolicyApplied,
		Serial:    serial,
		SessionID: snap.ID,
		Data:      map[string]any{"policy": name, "enabled": enabled, "applied": applied},
	})
}

// SetAlwaysOnTop pins or unpins serial's window.
func (s *Service) SetAlwaysOnTop(serial string, enabled bool) (bool, error) {
	_, h, err := s.window(serial)
	if err != nil {
		return false, err
	}
	applied := s.controller.SetAlwaysOnTop(h, enabled)
	s.setPolicy(serial, PolicyAlwaysOnTop, enabled, applied, func(p *session.Policy) { p.AlwaysOnTop = enabled })
	return applied, nil
}

// SetFullscreen switches serial's window in or out of borderless
// fullscreen on its nearest monitor.
func (s *Service) SetFullscreen(serial string, enabled bool) (bool, error) {
	_, h, err := s.window(serial)
	if err != nil {
		return false, err
	}
	record := func(p *session.Policy) { p.Fullscreen = enabled }
	// The aspect supervisor pauses on the recorded flag, so it must be set
	// before the window is stretched over the monitor.
	if enabled {
		s.registry.Update(serial, record)
	}
	applied := s.controller.SetFakeFullscreen(h, enabled)
	s.setPolicy(serial, PolicyFullscreen, enabled, applied, record)
	return applied, nil
}

// SetBorderless strips or restores the caption and sizing border of
// serial's window without moving it.
func (s *Service) SetBorderless(serial string, enabled bool) (bool, error) {
	_, h, err := s.window(serial)
	if err != nil {
		return false, err
	}
	applied := s.controller.SetBorderless(h, enabled)
	s.setPolicy(serial, "borderless", enabled, applied, func(p *session.Policy) { p.Borderless = enabled })
	return applied, nil
}

// SetAspectLock starts or stops the aspect-ratio supervisor for serial.
func (s *Service) SetAspectLock(serial string, enabled bool) (bool, error) {
	snap, ok := s.registry.Update(serial, func(p *session.Policy) { p.AspectLock = enabled })
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNoSession, serial)
	}
	if enabled {
		s.supervisors.Start(serial, snap.ID)
	} else {
		s.supervisors.Stop(serial)
	}
	s.bus.Publish(events.Event{
		Type:      events.PolicyApplied,
		Serial:    serial,
		SessionID: snap.ID,
		Data:      map[string]any{"policy": PolicyAspectLock, "enabled": enabled, "applied": true},
	})
	return true, nil
}

// Focus brings serial's window to the foreground.
func (s *Service) Focus(serial string) (bool, error) {
	_, h, err := s.window(serial)
	if err != nil {
		return false, err
	}
	return s.controller.Focus(h), nil
}

// Minimize minimizes serial's window.
func (s *Service) Minimize(serial string) (bool, error) {
	_, h, err := s.window(serial)
	if err != nil {
		return false, err
	}
	return s.controller.Minimize(h), nil
}

// Restore restores serial's window from minimized or maximized.
func (s *Service) Restore(serial string) (bool, error) {
	_, h, err := s.window(serial)
	if err != nil {
		return false, err
	}
	return s.controller.Restore(h), nil
}
