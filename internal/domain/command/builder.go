package command

import (
	"strconv"
)

// Args turns o into the mirroring process's flags. The order is fixed:
// --max-size, --video-bit-rate, --max-fps, --video-codec, then the
// boolean flags --turn-screen-off, --stay-awake, --always-on-top and
// --fullscreen, each only when set.
func Args(o Options) []string {
	args := make([]string, 0, 12)

	if o.MaxSize != 0 {
		args = append(args, "--max-size", strconv.Itoa(o.MaxSize))
	}
	args = append(args, "--video-bit-rate", strconv.Itoa(o.BitrateMbps)+"M")
	if o.MaxFPS != 0 {
		args = append(args, "--max-fps", strconv.Itoa(o.MaxFPS))
	}
	args = append(args, "--video-codec", string(o.Codec))

	if o.TurnScreenOff {
		args = append(args, "--turn-screen-off")
	}
	if o.StayAwake {
		args = append(args, "--stay-awake")
	}
	if o.AlwaysOnTop {
		args = append(args, "--always-on-top")
	}
	if o.Fullscreen {
		args = append(args, "--fullscreen")
	}
	return args
}

// Command returns the full argument list targeting serial.
func Command(serial string, o Options) []string {
	return append([]string{"-s", serial}, Args(o)...)
}
