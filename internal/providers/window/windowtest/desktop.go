// Package windowtest provides an in-memory window system for tests.
package windowtest

import (
	"errors"
	"sync"

	"github.com/GriffinCanCode/mirrordeck/internal/providers/window"
)

// Default styles for new windows: a captioned, resizable frame.
const (
	DefaultStyle   uint32 = window.StyleCaption | window.StyleThickFrame | 0x10000000
	DefaultExStyle uint32 = 0x00000100
)

// ErrEnumerate is returned by Windows when FailEnumeration is set.
var ErrEnumerate = errors.New("windowtest: enumeration failed")

type win struct {
	pid       uint32
	visible   bool
	rect      window.Rect
	style     uint32
	exStyle   uint32
	minimized bool
	ops       int
}

// Desktop is a window.Manager backed by a map. Topmost z-order changes set
// and clear the topmost extended style bit the way the native system does.
type Desktop struct {
	mu         sync.Mutex
	next       window.Handle
	order      []window.Handle
	windows    map[window.Handle]*win
	monitor    window.Rect
	failEnum   bool
	foreground window.Handle
}

// NewDesktop creates an empty desktop with a single 1920x1080 monitor.
func NewDesktop() *Desktop {
	return &Desktop{
		next:    0x1000,
		windows: make(map[window.Handle]*win),
		monitor: window.Rect{Width: 1920, Height: 1080},
	}
}

// SetMonitor replaces the monitor rectangle.
func (d *Desktop) SetMonitor(r window.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.monitor = r
}

// FailEnumeration makes Windows return ErrEnumerate.
func (d *Desktop) FailEnumeration(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failEnum = fail
}

// Open adds a visible top-level window owned by pid.
func (d *Desktop) Open(pid uint32, r window.Rect) window.Handle {
	return d.add(pid, r, true)
}

// OpenHidden adds an invisible top-level window owned by pid.
func (d *Desktop) OpenHidden(pid uint32, r window.Rect) window.Handle {
	return d.add(pid, r, false)
}

func (d *Desktop) add(pid uint32, r window.Rect, visible bool) window.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next += 0x10
	h := d.next
	d.windows[h] = &win{
		pid:     pid,
		visible: visible,
		rect:    r,
		style:   DefaultStyle,
		exStyle: DefaultExStyle,
	}
	d.order = append(d.order, h)
	return h
}

// Close destroys h.
func (d *Desktop) Close(h window.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.windows, h)
	for i, o := range d.order {
		if o == h {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Resize simulates the user dragging the window border.
func (d *Desktop) Resize(h window.Handle, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[h]; ok {
		w.rect.Width, w.rect.Height = width, height
	}
}

// Bounds returns the current rectangle of h.
func (d *Desktop) Bounds(h window.Handle) window.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[h]; ok {
		return w.rect
	}
	return window.Rect{}
}

// Styles returns the basic and extended style words of h.
func (d *Desktop) Styles(h window.Handle) (style, exStyle uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[h]; ok {
		return w.style, w.exStyle
	}
	return 0, 0
}

// Minimized reports whether h is minimized.
func (d *Desktop) Minimized(h window.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[h]
	return ok && w.minimized
}

// Foreground returns the last focused window.
func (d *Desktop) Foreground() window.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.foreground
}

// Ops returns how many geometry or style calls have targeted h.
func (d *Desktop) Ops(h window.Handle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[h]; ok {
		return w.ops
	}
	return 0
}

func (d *Desktop) lookup(h window.Handle) (*win, error) {
	w, ok := d.windows[h]
	if !ok {
		return nil, window.ErrWindowNotFound
	}
	w.ops++
	return w, nil
}

// Windows implements window.Manager.
func (d *Desktop) Windows() ([]window.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failEnum {
		return nil, ErrEnumerate
	}
	out := make([]window.Handle, len(d.order))
	copy(out, d.order)
	return out, nil
}

// IsWindow implements window.Manager.
func (d *Desktop) IsWindow(h window.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.windows[h]
	return ok
}

// IsVisible implements window.Manager.
func (d *Desktop) IsVisible(h window.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[h]
	return ok && w.visible
}

// ProcessID implements window.Manager.
func (d *Desktop) ProcessID(h window.Handle) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[h]
	if !ok {
		return 0, window.ErrWindowNotFound
	}
	return w.pid, nil
}

// Rect implements window.Manager.
func (d *Desktop) Rect(h window.Handle) (window.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return window.Rect{}, err
	}
	return w.rect, nil
}

// SetPos implements window.Manager.
func (d *Desktop) SetPos(h window.Handle, z window.ZOrder, r window.Rect, flags window.PosFlag) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return err
	}

	if !flags.Has(window.PosNoZOrder) {
		switch z {
		case window.ZOrderTopmost:
			w.exStyle |= window.ExStyleTopmost
		case window.ZOrderNotTopmost:
			w.exStyle &^= window.ExStyleTopmost
		}
	}
	if !flags.Has(window.PosNoMove) {
		w.rect.X, w.rect.Y = r.X, r.Y
	}
	if !flags.Has(window.PosNoSize) {
		w.rect.Width, w.rect.Height = r.Width, r.Height
	}
	if flags.Has(window.PosShowWindow) {
		w.visible = true
	}
	return nil
}

// Style implements window.Manager.
func (d *Desktop) Style(h window.Handle, kind window.StyleKind) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return 0, err
	}
	if kind == window.StyleExtended {
		return w.exStyle, nil
	}
	return w.style, nil
}

// SetStyle implements window.Manager.
func (d *Desktop) SetStyle(h window.Handle, kind window.StyleKind, value uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	if kind == window.StyleExtended {
		w.exStyle = value
	} else {
		w.style = value
	}
	return nil
}

// MonitorRect implements window.Manager.
func (d *Desktop) MonitorRect(h window.Handle) (window.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.lookup(h); err != nil {
		return window.Rect{}, err
	}
	return d.monitor, nil
}

// Show implements window.Manager.
func (d *Desktop) Show(h window.Handle, cmd window.ShowCmd) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.minimized = cmd == window.ShowMinimize
	return nil
}

// Focus implements window.Manager.
func (d *Desktop) Focus(h window.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.minimized = false
	d.foreground = h
	return nil
}
