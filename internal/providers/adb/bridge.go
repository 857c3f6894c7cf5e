package adb

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/types"
)

// Options configures a Bridge.
type Options struct {
	// Path is the adb executable.
	Path string
	// Timeout bounds every adb invocation.
	Timeout time.Duration
	// BreakerFailures is the run of daemon-level failures that opens the
	// breaker. A single device rejecting a command does not count.
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

// Bridge talks to devices through the adb command line. Failures never
// cross its boundary: they come back as empty strings, nil slices or
// false, and are logged.
type Bridge struct {
	opts    Options
	runner  Runner
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// New creates a bridge. A nil runner uses OSRunner.
func New(opts Options, runner Runner, metrics *monitoring.Metrics, logger *zap.Logger) *Bridge {
	if opts.Path == "" {
		opts.Path = "adb"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if runner == nil {
		runner = OSRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("adb")

	b := &Bridge{
		opts:    opts,
		runner:  runner,
		metrics: metrics,
		logger:  logger,
	}
	b.breaker = resilience.New("adb", resilience.Settings{
		Failures: opts.BreakerFailures,
		Timeout:  opts.BreakerTimeout,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("device bridge breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return b
}

// BreakerState reports the breaker state for health checks.
func (b *Bridge) BreakerState() resilience.State {
	return b.breaker.State()
}

// run executes adb with args under the breaker and the call timeout.
func (b *Bridge) run(ctx context.Context, op string, args ...string) (string, bool) {
	timer := monitoring.NewTimer(b.metrics, op)

	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	var out []byte
	var runErr error
	err := b.breaker.Execute(func() error {
		out, runErr = b.runner.Run(ctx, b.opts.Path, args...)
		if runErr != nil && daemonFailure(ctx, out, runErr) {
			return runErr
		}
		return nil
	})
	if err == nil {
		err = runErr
	}

	switch {
	case err == nil:
		timer.Stop("success")
		return string(out), true
	case errors.Is(err, resilience.ErrCircuitOpen):
		timer.Stop("rejected")
		b.logger.Debug("adb call rejected", zap.String("op", op), zap.Error(err))
	default:
		timer.Stop("error")
		b.logger.Debug("adb call failed",
			zap.String("op", op),
			zap.Strings("args", args),
			zap.String("output", strings.TrimSpace(string(out))),
			zap.Error(err))
	}
	return "", false
}

// daemonFailure reports whether err means adb itself is unusable rather
// than one device refusing a command. Only these trip the breaker.
func daemonFailure(ctx context.Context, out []byte, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	text := strings.ToLower(string(out) + " " + err.Error())
	for _, marker := range daemonMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

var daemonMarkers = []string{
	"cannot connect to daemon",
	"failed to start daemon",
	"daemon not running",
	"executable file not found",
}

func (b *Bridge) shell(ctx context.Context, op, serial, command string) (string, bool) {
	return b.run(ctx, op, "-s", serial, "shell", command)
}

// ListDevices returns the devices that are online.
func (b *Bridge) ListDevices(ctx context.Context) []types.Device {
	out, ok := b.run(ctx, "devices", "devices", "-l")
	if !ok {
		return nil
	}
	return ParseDevices(out)
}

// Shell runs command on the device and returns its output.
func (b *Bridge) Shell(ctx context.Context, serial, command string) string {
	out, _ := b.shell(ctx, "shell", serial, command)
	return out
}

// EnableTCPMode restarts adbd on the device listening on port.
func (b *Bridge) EnableTCPMode(ctx context.Context, serial string, port int) bool {
	_, ok := b.run(ctx, "tcpip", "-s", serial, "tcpip", strconv.Itoa(port))
	return ok
}

// Connect connects to a device over TCP/IP at address (host:port).
func (b *Bridge) Connect(ctx context.Context, address string) bool {
	out, ok := b.run(ctx, "connect", "connect", address)
	if !ok {
		return false
	}
	// adb exits 0 on "failed to connect", so the text decides.
	connected := strings.Contains(strings.ToLower(out), "connected")
	if !connected {
		b.logger.Info("wireless connect refused",
			zap.String("address", address),
			zap.String("output", strings.TrimSpace(out)))
	}
	return connected
}

// Disconnect drops a TCP/IP connection.
func (b *Bridge) Disconnect(ctx context.Context, address string) bool {
	out, ok := b.run(ctx, "disconnect", "disconnect", address)
	return ok && strings.Contains(strings.ToLower(out), "disconnected")
}

// Model returns the device's ro.product.model property.
func (b *Bridge) Model(ctx context.Context, serial string) (string, bool) {
	out, ok := b.shell(ctx, "model", serial, "getprop ro.product.model")
	if !ok {
		return "", false
	}
	model := strings.TrimSpace(out)
	return model, model != ""
}

// DeviceIP returns the device's Wi-Fi address, or "" when unknown.
func (b *Bridge) DeviceIP(ctx context.Context, serial string) string {
	if out, ok := b.shell(ctx, "ip", serial, "ip route"); ok {
		if ip := ParseRouteIP(out); ip != "" {
			return ip
		}
	}
	if out, ok := b.shell(ctx, "ip", serial, "ip addr show wlan0"); ok {
		return ParseInetAddr(out)
	}
	return ""
}

// PhysicalSize returns the device's native resolution from `wm size`.
func (b *Bridge) PhysicalSize(ctx context.Context, serial string) (types.Size, bool) {
	out, ok := b.shell(ctx, "wm_size", serial, "wm size")
	if !ok {
		return types.Size{}, false
	}
	size, ok := ParsePhysicalSize(out)
	if !ok {
		b.logger.Debug("unparsable wm size output",
			zap.String("serial", serial),
			zap.String("output", strings.TrimSpace(out)))
	}
	return size, ok
}

// SendKeyEvent injects an Android key event.
func (b *Bridge) SendKeyEvent(ctx context.Context, serial, keycode string) bool {
	_, ok := b.shell(ctx, "keyevent", serial, "input keyevent "+keycode)
	return ok
}

// SetStayAwake keeps the device screen on while plugged in, or restores
// the normal timeout.
func (b *Bridge) SetStayAwake(ctx context.Context, serial string, enabled bool) bool {
	_, ok := b.shell(ctx, "stay_awake", serial, fmt.Sprintf("svc power stayon %t", enabled))
	return ok
}
