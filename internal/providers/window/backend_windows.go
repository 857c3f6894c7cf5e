package window

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
	procGetWindowLongW      = user32.NewProc("GetWindowLongW")
	procSetWindowLongW      = user32.NewProc("SetWindowLongW")
	procMonitorFromWindow   = user32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
	procShowWindow          = user32.NewProc("ShowWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

const (
	gwlStyle   int32 = -16
	gwlExStyle int32 = -20

	monitorDefaultToNearest = 2
)

var (
	hwndTopmost   = ^uintptr(0) // -1
	hwndNoTopmost = ^uintptr(1) // -2
)

// EnumWindows takes a callback pointer, and each NewCallback consumes a
// slot that is never released, so one callback collects into a shared
// buffer under enumMu.
var (
	enumMu       sync.Mutex
	enumHandles  []Handle
	enumCallback = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		enumHandles = append(enumHandles, Handle(hwnd))
		return 1
	})
)

type win32Manager struct{}

// NewManager returns the Win32 window manager.
func NewManager() Manager {
	return win32Manager{}
}

func hwnd(h Handle) windows.HWND { return windows.HWND(h) }

func callFailed(err error) bool {
	errno, ok := err.(syscall.Errno)
	return !ok || errno != 0
}

func (win32Manager) Windows() ([]Handle, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumHandles = enumHandles[:0]
	if err := windows.EnumWindows(enumCallback, nil); err != nil {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}
	out := make([]Handle, len(enumHandles))
	copy(out, enumHandles)
	return out, nil
}

func (win32Manager) IsWindow(h Handle) bool {
	return windows.IsWindow(hwnd(h))
}

func (win32Manager) IsVisible(h Handle) bool {
	return windows.IsWindowVisible(hwnd(h))
}

func (win32Manager) ProcessID(h Handle) (uint32, error) {
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd(h), &pid); err != nil {
		return 0, fmt.Errorf("GetWindowThreadProcessId: %w", err)
	}
	return pid, nil
}

func (win32Manager) Rect(h Handle) (Rect, error) {
	var r windows.Rect
	ok, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return Rect{}, fmt.Errorf("GetWindowRect: %w", err)
	}
	return fromWin32(r), nil
}

func (win32Manager) SetPos(h Handle, z ZOrder, r Rect, flags PosFlag) error {
	var after uintptr
	switch z {
	case ZOrderTopmost:
		after = hwndTopmost
	case ZOrderNotTopmost:
		after = hwndNoTopmost
	default:
		flags |= PosNoZOrder
	}
	x, y, w, hgt := int32(r.X), int32(r.Y), int32(r.Width), int32(r.Height)
	ok, _, err := procSetWindowPos.Call(
		uintptr(h), after,
		uintptr(x), uintptr(y), uintptr(w), uintptr(hgt),
		uintptr(flags),
	)
	if ok == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}
	return nil
}

func styleIndex(kind StyleKind) int32 {
	if kind == StyleExtended {
		return gwlExStyle
	}
	return gwlStyle
}

func (win32Manager) Style(h Handle, kind StyleKind) (uint32, error) {
	idx := styleIndex(kind)
	v, _, err := procGetWindowLongW.Call(uintptr(h), uintptr(idx))
	if v == 0 && callFailed(err) {
		return 0, fmt.Errorf("GetWindowLongW: %w", err)
	}
	return uint32(v), nil
}

func (win32Manager) SetStyle(h Handle, kind StyleKind, value uint32) error {
	idx := styleIndex(kind)
	prev, _, err := procSetWindowLongW.Call(uintptr(h), uintptr(idx), uintptr(value))
	if prev == 0 && callFailed(err) {
		return fmt.Errorf("SetWindowLongW: %w", err)
	}
	return nil
}

type monitorInfo struct {
	CbSize  uint32
	Monitor windows.Rect
	Work    windows.Rect
	Flags   uint32
}

func (win32Manager) MonitorRect(h Handle) (Rect, error) {
	mon, _, _ := procMonitorFromWindow.Call(uintptr(h), monitorDefaultToNearest)
	if mon == 0 {
		return Rect{}, fmt.Errorf("MonitorFromWindow: no monitor for %s", h)
	}
	info := monitorInfo{CbSize: uint32(unsafe.Sizeof(monitorInfo{}))}
	ok, _, err := procGetMonitorInfoW.Call(mon, uintptr(unsafe.Pointer(&info)))
	if ok == 0 {
		return Rect{}, fmt.Errorf("GetMonitorInfoW: %w", err)
	}
	return fromWin32(info.Monitor), nil
}

func (win32Manager) Show(h Handle, cmd ShowCmd) error {
	// ShowWindow returns the previous visibility, not success.
	procShowWindow.Call(uintptr(h), uintptr(cmd))
	return nil
}

func (win32Manager) Focus(h Handle) error {
	ok, _, _ := procSetForegroundWindow.Call(uintptr(h))
	if ok == 0 {
		return fmt.Errorf("SetForegroundWindow: refused for %s", h)
	}
	return nil
}

func fromWin32(r windows.Rect) Rect {
	return Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
}
