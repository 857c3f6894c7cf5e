package window

import (
	"errors"
	"fmt"
)

var (
	// ErrWindowNotFound means no visible top-level window belongs to the
	// process yet. Callers treat it as "retry later".
	ErrWindowNotFound = errors.New("window not found")
	// ErrUnsupported is returned by the backend on platforms without a
	// window implementation.
	ErrUnsupported = errors.New("window management not supported on this platform")
)

// Handle is an opaque top-level window identifier. It is a lookup key
// into the OS window system, never an owned resource.
type Handle uintptr

// Valid reports whether h is non-zero. It does not check the OS.
func (h Handle) Valid() bool { return h != 0 }

func (h Handle) String() string { return fmt.Sprintf("0x%x", uintptr(h)) }

// Rect is a window or monitor rectangle in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Ratio returns Width/Height, or 0 for a degenerate rectangle.
func (r Rect) Ratio() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// StyleKind selects the basic or extended style word.
type StyleKind int

const (
	StyleBasic StyleKind = iota
	StyleExtended
)

// Style bits used by the controller.
const (
	StyleCaption    uint32 = 0x00C00000
	StyleThickFrame uint32 = 0x00040000
	ExStyleTopmost  uint32 = 0x00000008
)

const styleFrame = StyleCaption | StyleThickFrame

// ZOrder is the insert-after position passed to SetPos.
type ZOrder int

const (
	ZOrderUnchanged ZOrder = iota
	ZOrderTopmost
	ZOrderNotTopmost
)

// PosFlag controls which parts of SetPos take effect.
type PosFlag uint32

const (
	PosNoSize       PosFlag = 0x0001
	PosNoMove       PosFlag = 0x0002
	PosNoZOrder     PosFlag = 0x0004
	PosFrameChanged PosFlag = 0x0020
	PosShowWindow   PosFlag = 0x0040
)

const (
	posFrameRefresh  = PosNoMove | PosNoSize | PosNoZOrder | PosFrameChanged
	posZOrderOnly    = PosNoMove | PosNoSize
	posResizeInPlace = PosNoMove | PosNoZOrder
)

// Has reports whether all bits of g are set in f.
func (f PosFlag) Has(g PosFlag) bool { return f&g == g }

// ShowCmd is a show-state command.
type ShowCmd int

const (
	ShowMinimize ShowCmd = 6
	ShowRestore  ShowCmd = 9
)

// Manager is the native window system capability. Implementations must be
// safe for concurrent use.
type Manager interface {
	// Windows enumerates top-level windows in OS order.
	Windows() ([]Handle, error)
	IsWindow(h Handle) bool
	IsVisible(h Handle) bool
	ProcessID(h Handle) (uint32, error)
	Rect(h Handle) (Rect, error)
	SetPos(h Handle, z ZOrder, r Rect, flags PosFlag) error
	Style(h Handle, kind StyleKind) (uint32, error)
	SetStyle(h Handle, kind StyleKind, value uint32) error
	// MonitorRect returns the bounds of the monitor nearest to h.
	MonitorRect(h Handle) (Rect, error)
	Show(h Handle, cmd ShowCmd) error
	Focus(h Handle) error
}
