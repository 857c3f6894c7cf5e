//go:build !windows

package window

type unsupportedManager struct{}

// NewManager returns a manager that enumerates nothing and fails every
// mutation with ErrUnsupported.
func NewManager() Manager {
	return unsupportedManager{}
}

func (unsupportedManager) Windows() ([]Handle, error) { return nil, nil }
func (unsupportedManager) IsWindow(Handle) bool { return false }
func (unsupportedManager) IsVisible(Handle) bool { return false }
func (unsupportedManager) ProcessID(Handle) (uint32, error) { return 0, ErrUnsupported }
func (unsupportedManager) Rect(Handle) (Rect, error) { return Rect{}, ErrUnsupported }
func (unsupportedManager) SetPos(Handle, ZOrder, Rect, PosFlag) error { return ErrUnsupported }
func (unsupportedManager) Style(Handle, StyleKind) (uint32, error) { return 0, ErrUnsupported }
func (unsupportedManager) SetStyle(Handle, StyleKind, uint32) error { return ErrUnsupported }
func (unsupportedManager) MonitorRect(Handle) (Rect, error) { return Rect{}, ErrUnsupported }
func (unsupportedManager) Show(Handle, ShowCmd) error { return ErrUnsupported }
func (unsupportedManager) Focus(Handle) error { return ErrUnsupported }
