package window

import (
	"go.uber.org/zap"
)

// Controller applies window policies through a Manager. Every operation is
// a no-op returning false for a zero or stale handle; backend failures are
// logged and reported the same way.
type Controller struct {
	wm     Manager
	logger *zap.Logger
}

// NewController creates a controller over wm.
func NewController(wm Manager, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{wm: wm, logger: logger.Named("window")}
}

func (c *Controller) live(h Handle) bool {
	return h.Valid() && c.wm.IsWindow(h)
}

func (c *Controller) failed(op string, h Handle, err error) bool {
	c.logger.Debug("window operation failed",
		zap.String("op", op),
		zap.Stringer("hwnd", h),
		zap.Error(err))
	return false
}

// SetAlwaysOnTop moves h in or out of the topmost band and sets the
// topmost extended style bit to match, so applications that reassert
// their own z-order do not undo it. Re-applying the current value leaves
// the style bits unchanged.
func (c *Controller) SetAlwaysOnTop(h Handle, enabled bool) bool {
	if !c.live(h) {
		return false
	}

	z := ZOrderNotTopmost
	if enabled {
		z = ZOrderTopmost
	}
	if err := c.wm.SetPos(h, z, Rect{}, posZOrderOnly); err != nil {
		return c.failed("always-on-top", h, err)
	}

	ex, err := c.wm.Style(h, StyleExtended)
	if err != nil {
		return c.failed("always-on-top", h, err)
	}
	want := ex &^ ExStyleTopmost
	if enabled {
		want |= ExStyleTopmost
	}
	if want == ex {
		return true
	}
	if err := c.wm.SetStyle(h, StyleExtended, want); err != nil {
		return c.failed("always-on-top", h, err)
	}
	if err := c.wm.SetPos(h, ZOrderUnchanged, Rect{}, posFrameRefresh); err != nil {
		return c.failed("always-on-top", h, err)
	}
	return true
}

// SetFakeFullscreen strips the caption and sizing border and covers the
// nearest monitor. Disabling restores the frame but keeps the current
// position and size.
func (c *Controller) SetFakeFullscreen(h Handle, enabled bool) bool {
	if !c.live(h) {
		return false
	}
	if !c.setFrame(h, !enabled, "fullscreen") {
		return false
	}

	if !enabled {
		if err := c.wm.SetPos(h, ZOrderUnchanged, Rect{}, posFrameRefresh); err != nil {
			return c.failed("fullscreen", h, err)
		}
		return true
	}

	mon, err := c.wm.MonitorRect(h)
	if err != nil {
		return c.failed("fullscreen", h, err)
	}
	if err := c.wm.SetPos(h, ZOrderUnchanged, mon, PosNoZOrder|PosFrameChanged|PosShowWindow); err != nil {
		return c.failed("fullscreen", h, err)
	}
	return true
}

// SetBorderless removes or restores the caption and sizing border without
// changing geometry.
func (c *Controller) SetBorderless(h Handle, enabled bool) bool {
	if !c.live(h) {
		return false
	}
	if !c.setFrame(h, !enabled, "borderless") {
		return false
	}
	if err := c.wm.SetPos(h, ZOrderUnchanged, Rect{}, posFrameRefresh); err != nil {
		return c.failed("borderless", h, err)
	}
	return true
}

func (c *Controller) setFrame(h Handle, framed bool, op string) bool {
	style, err := c.wm.Style(h, StyleBasic)
	if err != nil {
		return c.failed(op, h, err)
	}
	want := style &^ styleFrame
	if framed {
		want |= styleFrame
	}
	if want == style {
		return true
	}
	if err := c.wm.SetStyle(h, StyleBasic, want); err != nil {
		return c.failed(op, h, err)
	}
	return true
}

// SetSize resizes h without moving it or changing its z-order.
func (c *Controller) SetSize(h Handle, width, height int) bool {
	if !c.live(h) || width <= 0 || height <= 0 {
		return false
	}
	if err := c.wm.SetPos(h, ZOrderUnchanged, Rect{Width: width, Height: height}, posResizeInPlace); err != nil {
		return c.failed("resize", h, err)
	}
	return true
}

// Rect returns the window rectangle, or false when it is unavailable.
func (c *Controller) Rect(h Handle) (Rect, bool) {
	if !c.live(h) {
		return Rect{}, false
	}
	r, err := c.wm.Rect(h)
	if err != nil {
		c.failed("rect", h, err)
		return Rect{}, false
	}
	return r, true
}

// Focus brings h to the foreground.
func (c *Controller) Focus(h Handle) bool {
	if !c.live(h) {
		return false
	}
	if err := c.wm.Focus(h); err != nil {
		return c.failed("focus", h, err)
	}
	return true
}

// Minimize minimizes h.
func (c *Controller) Minimize(h Handle) bool {
	return c.show(h, ShowMinimize, "minimize")
}

// Restore restores h from a minimized or maximized state.
func (c *Controller) Restore(h Handle) bool {
	return c.show(h, ShowRestore, "restore")
}

func (c *Controller) show(h Handle, cmd ShowCmd, op string) bool {
	if !c.live(h) {
		return false
	}
	if err := c.wm.Show(h, cmd); err != nil {
		return c.failed(op, h, err)
	}
	return true
}
