package adb

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/mirrordeck/internal/shared/types"
)

const stateDevice = "device"

// ParseDevices parses `adb devices -l` output, keeping only devices in
// the "device" state.
func ParseDevices(out string) []types.Device {
	var devices []types.Device

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != stateDevice {
			continue
		}

		d := types.Device{
			Serial:   fields[0],
			Model:    types.DefaultModel,
			State:    fields[1],
			Wireless: types.IsWirelessSerial(fields[0]),
		}
		for _, f := range fields[2:] {
			if model, ok := strings.CutPrefix(f, "model:"); ok && model != "" {
				d.Model = strings.ReplaceAll(model, "_", " ")
			}
		}
		devices = append(devices, d)
	}
	return devices
}

// ParsePhysicalSize extracts the size from `wm size` output, e.g.
// "Physical size: 1080x2400". An override line is ignored.
func ParsePhysicalSize(out string) (types.Size, bool) {
	_, rest, ok := strings.Cut(out, "Physical size:")
	if !ok {
		return types.Size{}, false
	}
	rest = strings.TrimSpace(rest)
	if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
		rest = rest[:i]
	}
	ws, hs, ok := strings.Cut(strings.TrimSpace(rest), "x")
	if !ok {
		return types.Size{}, false
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return types.Size{}, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return types.Size{}, false
	}
	size := types.Size{Width: w, Height: h}
	return size, size.Valid()
}

// ParseRouteIP returns the src address of the wlan0 route in `ip route`
// output.
func ParseRouteIP(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "wlan0") {
			continue
		}
		fields := strings.Fields(line)
		for i, f := range fields {
			if f == "src" && i+1 < len(fields) {
				return fields[i+1]
			}
		}
	}
	return ""
}

// ParseInetAddr returns the first IPv4 address in `ip addr show` output.
func ParseInetAddr(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "inet ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		addr, _, _ := strings.Cut(fields[1], "/")
		return addr
	}
	return ""
}
