package window

import (
	"go.uber.org/zap"
)

// Locator finds the window owned by a process.
type Locator struct {
	wm     Manager
	logger *zap.Logger
}

// NewLocator creates a locator over wm.
func NewLocator(wm Manager, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{wm: wm, logger: logger.Named("locator")}
}

// FindByProcessID returns the first visible top-level window owned by pid,
// in enumeration order. Enumeration failures degrade to ErrWindowNotFound.
func (l *Locator) FindByProcessID(pid uint32) (Handle, error) {
	if pid == 0 {
		return 0, ErrWindowNotFound
	}

	handles, err := l.wm.Windows()
	if err != nil {
		l.logger.Debug("window enumeration failed", zap.Uint32("pid", pid), zap.Error(err))
		return 0, ErrWindowNotFound
	}

	for _, h := range handles {
		if !l.wm.IsVisible(h) {
			continue
		}
		owner, err := l.wm.ProcessID(h)
		if err != nil {
			continue
		}
		if owner == pid {
			return h, nil
		}
	}
	return 0, ErrWindowNotFound
}

// Resolve returns cached when it still names a live window, otherwise it
// locates the window for pid again.
func (l *Locator) Resolve(cached Handle, pid uint32) (Handle, error) {
	if cached.Valid() && l.wm.IsWindow(cached) {
		return cached, nil
	}
	return l.FindByProcessID(pid)
}
