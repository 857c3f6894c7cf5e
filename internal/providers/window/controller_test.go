package window_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/mirrordeck/internal/providers/window"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/window/windowtest"
)

func newController(t *testing.T) (*window.Controller, *windowtest.Desktop) {
	t.Helper()
	desk := windowtest.NewDesktop()
	return window.NewController(desk, zaptest.NewLogger(t)), desk
}

func TestSetAlwaysOnTopIsIdempotent(t *testing.T) {
	ctrl, desk := newController(t)
	h := desk.Open(100, window.Rect{X: 10, Y: 10, Width: 400, Height: 800})

	require.True(t, ctrl.SetAlwaysOnTop(h, true))
	_, first := desk.Styles(h)
	require.True(t, ctrl.SetAlwaysOnTop(h, true))
	_, second := desk.Styles(h)

	assert.Equal(t, windowtest.DefaultExStyle|window.ExStyleTopmost, first)
	assert.Equal(t, first, second)
}

func TestSetAlwaysOnTopRoundTripRestoresBits(t *testing.T) {
	ctrl, desk := newController(t)
	h := desk.Open(100, window.Rect{Width: 400, Height: 800})
	origStyle, origEx := desk.Styles(h)

	require.True(t, ctrl.SetAlwaysOnTop(h, true))
	require.True(t, ctrl.SetAlwaysOnTop(h, false))

	style, ex := desk.Styles(h)
	assert.Equal(t, origEx, ex)
	assert.Equal(t, origStyle, style)
	assert.Equal(t, window.Rect{Width: 400, Height: 800}, desk.Bounds(h))
}

func TestFakeFullscreenCoversNearestMonitor(t *testing.T) {
	ctrl, desk := newController(t)
	monitor := window.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}
	desk.SetMonitor(monitor)
	h := desk.Open(100, window.Rect{X: 2000, Y: 100, Width: 400, Height: 800})

	require.True(t, ctrl.SetFakeFullscreen(h, true))

	style, _ := desk.Styles(h)
	assert.Zero(t, style&window.StyleCaption)
	assert.Zero(t, style&window.StyleThickFrame)
	assert.Equal(t, monitor, desk.Bounds(h))

	require.True(t, ctrl.SetFakeFullscreen(h, false))

	style, _ = desk.Styles(h)
	assert.Equal(t, window.StyleCaption, style&window.StyleCaption)
	assert.Equal(t, window.StyleThickFrame, style&window.StyleThickFrame)
	// Leaving fullscreen keeps the monitor-sized rectangle.
	assert.Equal(t, monitor, desk.Bounds(h))
}

func TestSetBorderlessKeepsGeometry(t *testing.T) {
	ctrl, desk := newController(t)
	r := window.Rect{X: 50, Y: 60, Width: 400, Height: 800}
	h := desk.Open(100, r)

	require.True(t, ctrl.SetBorderless(h, true))
	style, _ := desk.Styles(h)
	assert.Zero(t, style&(window.StyleCaption|window.StyleThickFrame))
	assert.Equal(t, r, desk.Bounds(h))

	require.True(t, ctrl.SetBorderless(h, false))
	style, _ = desk.Styles(h)
	assert.Equal(t, windowtest.DefaultStyle, style)
}

func TestSetSizeDoesNotMove(t *testing.T) {
	ctrl, desk := newController(t)
	h := desk.Open(100, window.Rect{X: 300, Y: 200, Width: 400, Height: 800})

	require.True(t, ctrl.SetSize(h, 500, 1000))

	assert.Equal(t, window.Rect{X: 300, Y: 200, Width: 500, Height: 1000}, desk.Bounds(h))
	_, ex := desk.Styles(h)
	assert.Equal(t, windowtest.DefaultExStyle, ex)

	assert.False(t, ctrl.SetSize(h, 0, 100))
}

func TestRect(t *testing.T) {
	ctrl, desk := newController(t)
	r := window.Rect{X: 1, Y: 2, Width: 3, Height: 4}
	h := desk.Open(100, r)

	got, ok := ctrl.Rect(h)
	require.True(t, ok)
	assert.Equal(t, r, got)

	desk.Close(h)
	_, ok = ctrl.Rect(h)
	assert.False(t, ok)
}

func TestShowStateOperations(t *testing.T) {
	ctrl, desk := newController(t)
	h := desk.Open(100, window.Rect{Width: 400, Height: 800})

	require.True(t, ctrl.Minimize(h))
	assert.True(t, desk.Minimized(h))

	require.True(t, ctrl.Restore(h))
	assert.False(t, desk.Minimized(h))

	require.True(t, ctrl.Focus(h))
	assert.Equal(t, h, desk.Foreground())
}

func TestInvalidHandlesAreNoOps(t *testing.T) {
	ctrl, desk := newController(t)
	closed := desk.Open(100, window.Rect{Width: 400, Height: 800})
	desk.Close(closed)

	for _, h := range []window.Handle{0, closed, 0xdead} {
		assert.False(t, ctrl.SetAlwaysOnTop(h, true))
		assert.False(t, ctrl.SetFakeFullscreen(h, true))
		assert.False(t, ctrl.SetBorderless(h, true))
		assert.False(t, ctrl.SetSize(h, 100, 100))
		assert.False(t, ctrl.Focus(h))
		assert.False(t, ctrl.Minimize(h))
		assert.False(t, ctrl.Restore(h))
		_, ok := ctrl.Rect(h)
		assert.False(t, ok)
	}
}

func TestRectRatio(t *testing.T) {
	assert.InDelta(t, 0.5, window.Rect{Width: 400, Height: 800}.Ratio(), 1e-9)
	assert.Zero(t, window.Rect{Width: 400}.Ratio())
}
