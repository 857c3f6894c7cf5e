package mirror

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/shared/id"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/types"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/utils"
)

// DeviceStatus is an online device and its mirroring state.
type DeviceStatus struct {
	types.Device
	Mirroring bool         `json:"mirroring"`
	SessionID id.SessionID `json:"session_id,omitempty"`
}

// Devices lists online devices. An unreachable adb yields an empty list.
func (s *Service) Devices(ctx context.Context) []DeviceStatus {
	devices := s.bridge.ListDevices(ctx)
	out := make([]DeviceStatus, 0, len(devices))
	for _, d := range devices {
		st := DeviceStatus{Device: d}
		if snap, ok := s.registry.Get(d.Serial); ok && snap.Alive() {
			st.Mirroring = true
			st.SessionID = snap.ID
		}
		out = append(out, st)
	}
	return out
}

// EnableTCPMode restarts adbd on serial listening on port (0 means 5555).
func (s *Service) EnableTCPMode(ctx context.Context, serial string, port int) (bool, error) {
	if err := utils.ValidateSerial(serial); err != nil {
		return false, invalid(err)
	}
	if port == 0 {
		port = utils.DefaultTCPPort
	}
	if err := utils.ValidatePort(port); err != nil {
		return false, invalid(err)
	}
	return s.bridge.EnableTCPMode(ctx, serial, port), nil
}

// ConnectWireless connects to address, adding port when address has none.
// It returns the normalized host:port.
func (s *Service) ConnectWireless(ctx context.Context, address string, port int) (string, bool, error) {
	addr, err := utils.NormalizeAddress(address, port)
	if err != nil {
		return "", false, invalid(err)
	}
	ok := s.bridge.Connect(ctx, addr)
	s.logger.Info("wireless connect", zap.String("address", addr), zap.Bool("connected", ok))
	return addr, ok, nil
}

// DisconnectWireless drops a wireless device, stopping its session first.
func (s *Service) DisconnectWireless(ctx context.Context, address string) (string, bool, error) {
	addr, err := utils.NormalizeAddress(address, 0)
	if err != nil {
		return "", false, invalid(err)
	}
	s.StopSession(addr)
	return addr, s.bridge.Disconnect(ctx, addr), nil
}

// SendKeyEvent injects an Android key event on serial.
func (s *Service) SendKeyEvent(ctx context.Context, serial, keycode string) (bool, error) {
	if err := utils.ValidateSerial(serial); err != nil {
		return false, invalid(err)
	}
	if err := utils.ValidateKeycode(keycode); err != nil {
		return false, invalid(err)
	}
	return s.bridge.SendKeyEvent(ctx, serial, keycode), nil
}

// DeviceIP returns serial's wlan0 address, or "" when it has none.
func (s *Service) DeviceIP(ctx context.Context, serial string) (string, error) {
	if err := utils.ValidateSerial(serial); err != nil {
		return "", invalid(err)
	}
	return s.bridge.DeviceIP(ctx, serial), nil
}
