package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/shared/utils"
)

// Watcher reloads a profile file when it changes on disk.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	onChange func(*Catalog)
	logger   *zap.Logger

	mu     sync.Mutex
	digest string // Protected by mu
	once   sync.Once
}

// NewWatcher watches path, whose current content has digest. onChange
// receives every catalog that decodes, validates and differs from the
// previous one.
func NewWatcher(path, digest string, onChange func(*Catalog), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve profile path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		fsw:      fsw,
		onChange: onChange,
		digest:   digest,
		logger:   logger.Named("profile").With(zap.String("path", abs)),
	}, nil
}

// Run dispatches file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("profile watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid profile", zap.Error(err))
		return
	}

	w.mu.Lock()
	unchanged := c.Digest == w.digest
	w.digest = c.Digest
	w.mu.Unlock()
	if unchanged {
		return
	}

	w.logger.Info("profile reloaded", zap.String("digest", utils.Short(c.Digest)))
	if w.onChange != nil {
		w.onChange(c)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() { err = w.fsw.Close() })
	return err
}
