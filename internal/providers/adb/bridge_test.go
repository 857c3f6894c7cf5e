package adb

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/types"
)

type reply struct {
	out string
	err error
}

// scriptRunner answers commands keyed by their space-joined arguments.
type scriptRunner struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []string
}

func newScriptRunner() *scriptRunner {
	return &scriptRunner{replies: make(map[string]reply)}
}

func (r *scriptRunner) on(args string, out string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[args] = reply{out: out, err: err}
}

func (r *scriptRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.Join(args, " ")
	r.calls = append(r.calls, name+" "+key)
	rep, ok := r.replies[key]
	if !ok {
		return []byte("error: unknown command"), errors.New("exit status 1")
	}
	return []byte(rep.out), rep.err
}

func (r *scriptRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestBridge(t *testing.T, runner Runner) (*Bridge, *monitoring.Metrics) {
	t.Helper()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	b := New(Options{
		Path:            "adb",
		Timeout:         time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}, runner, metrics, zaptest.NewLogger(t))
	return b, metrics
}

func TestListDevices(t *testing.T) {
	runner := newScriptRunner()
	runner.on("devices -l", `List of devices attached
R58M12ABCDE            device usb:1-1 product:beyond1 model:SM_G973F device:beyond1 transport_id:1
192.168.1.20:5555      device product:panther model:Pixel_7 device:panther transport_id:3
emulator-5554          offline transport_id:2
0123456789             unauthorized usb:1-2 transport_id:4
`, nil)
	b, metrics := newTestBridge(t, runner)

	devices := b.ListDevices(context.Background())

	assert.Equal(t, []types.Device{
		{Serial: "R58M12ABCDE", Model: "SM G973F", State: "device"},
		{Serial: "192.168.1.20:5555", Model: "Pixel 7", State: "device", Wireless: true},
	}, devices)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BridgeCalls.WithLabelValues("devices", "success")))
}

func TestListDevicesWithoutModel(t *testing.T) {
	devices := ParseDevices("* daemon started successfully\nList of devices attached\nabc123\tdevice\n")

	require.Len(t, devices, 1)
	assert.Equal(t, types.DefaultModel, devices[0].Model)
}

func TestListDevicesFailureIsEmpty(t *testing.T) {
	runner := newScriptRunner()
	runner.on("devices -l", "", errors.New("executable file not found"))
	b, _ := newTestBridge(t, runner)

	assert.Empty(t, b.ListDevices(context.Background()))
}

func TestPhysicalSize(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   types.Size
		ok     bool
	}{
		{"plain", "Physical size: 1080x2400\n", types.Size{Width: 1080, Height: 2400}, true},
		{"with override", "Physical size: 1440x3200\r\nOverride size: 1080x2400\r\n", types.Size{Width: 1440, Height: 3200}, true},
		{"missing", "Override size: 1080x2400", types.Size{}, false},
		{"garbage", "Physical size: big", types.Size{}, false},
		{"zero", "Physical size: 0x2400", types.Size{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newScriptRunner()
			runner.on("-s dev shell wm size", tt.output, nil)
			b, _ := newTestBridge(t, runner)

			size, ok := b.PhysicalSize(context.Background(), "dev")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, size)
		})
	}
}

func TestDeviceIP(t *testing.T) {
	t.Run("from route", func(t *testing.T) {
		runner := newScriptRunner()
		runner.on("-s dev shell ip route", "192.168.1.0/24 dev wlan0 proto kernel scope link src 192.168.1.123\n", nil)
		b, _ := newTestBridge(t, runner)

		assert.Equal(t, "192.168.1.123", b.DeviceIP(context.Background(), "dev"))
	})

	t.Run("falls back to interface address", func(t *testing.T) {
		runner := newScriptRunner()
		runner.on("-s dev shell ip route", "10.0.0.0/8 dev rmnet0 src 10.1.2.3\n", nil)
		runner.on("-s dev shell ip addr show wlan0", `3: wlan0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500
    link/ether 02:00:00:00:00:00 brd ff:ff:ff:ff:ff:ff
    inet 192.168.1.77/24 brd 192.168.1.255 scope global wlan0
`, nil)
		b, _ := newTestBridge(t, runner)

		assert.Equal(t, "192.168.1.77", b.DeviceIP(context.Background(), "dev"))
	})

	t.Run("unknown", func(t *testing.T) {
		b, _ := newTestBridge(t, newScriptRunner())
		assert.Empty(t, b.DeviceIP(context.Background(), "dev"))
	})
}

func TestConnect(t *testing.T) {
	runner := newScriptRunner()
	runner.on("connect 192.168.1.20:5555", "connected to 192.168.1.20:5555\n", nil)
	runner.on("connect 192.168.1.21:5555", "already connected to 192.168.1.21:5555\n", nil)
	runner.on("connect 192.168.1.22:5555", "failed to connect to '192.168.1.22:5555': Connection refused\n", nil)
	b, _ := newTestBridge(t, runner)

	ctx := context.Background()
	assert.True(t, b.Connect(ctx, "192.168.1.20:5555"))
	assert.True(t, b.Connect(ctx, "192.168.1.21:5555"))
	assert.False(t, b.Connect(ctx, "192.168.1.22:5555"))
}

func TestDeviceCommands(t *testing.T) {
	runner := newScriptRunner()
	runner.on("-s dev tcpip 5555", "restarting in TCP mode port: 5555\n", nil)
	runner.on("disconnect 192.168.1.20:5555", "disconnected 192.168.1.20:5555\n", nil)
	runner.on("-s dev shell getprop ro.product.model", "Pixel 7\n", nil)
	runner.on("-s dev shell input keyevent KEYCODE_HOME", "", nil)
	runner.on("-s dev shell svc power stayon true", "", nil)
	runner.on("-s dev shell svc power stayon false", "", nil)
	runner.on("-s dev shell echo hi", "hi\n", nil)
	b, _ := newTestBridge(t, runner)

	ctx := context.Background()
	assert.True(t, b.EnableTCPMode(ctx, "dev", 5555))
	assert.True(t, b.Disconnect(ctx, "192.168.1.20:5555"))
	assert.True(t, b.SendKeyEvent(ctx, "dev", "KEYCODE_HOME"))
	assert.True(t, b.SetStayAwake(ctx, "dev", true))
	assert.True(t, b.SetStayAwake(ctx, "dev", false))
	assert.Equal(t, "hi\n", b.Shell(ctx, "dev", "echo hi"))

	model, ok := b.Model(ctx, "dev")
	require.True(t, ok)
	assert.Equal(t, "Pixel 7", model)
}

func TestModelEmptyIsUnavailable(t *testing.T) {
	runner := newScriptRunner()
	runner.on("-s dev shell getprop ro.product.model", "\n", nil)
	b, _ := newTestBridge(t, runner)

	_, ok := b.Model(context.Background(), "dev")
	assert.False(t, ok)
}

func TestBreakerShortCircuitsAfterFailures(t *testing.T) {
	runner := newScriptRunner()
	runner.on("devices -l", "", errors.New("cannot connect to daemon"))
	b, metrics := newTestBridge(t, runner)

	for i := 0; i < 5; i++ {
		assert.Empty(t, b.ListDevices(context.Background()))
	}

	assert.Equal(t, 3, runner.count())
	assert.Equal(t, resilience.StateOpen, b.BreakerState())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.BridgeCalls.WithLabelValues("devices", "rejected")))
}

func TestDeviceFailuresDoNotTripBreaker(t *testing.T) {
	runner := newScriptRunner()
	runner.on("devices -l", "List of devices attached\nGOOD1\tdevice\nGONE\tdevice\n", nil)
	runner.on("-s GOOD1 shell wm size", "Physical size: 1080x2400\n", nil)
	runner.on("-s GONE shell input keyevent KEYCODE_HOME", "error: device 'GONE' not found\n", errors.New("exit status 1"))
	b, metrics := newTestBridge(t, runner)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.False(t, b.SendKeyEvent(ctx, "GONE", "KEYCODE_HOME"))
	}
	assert.Equal(t, resilience.StateClosed, b.BreakerState())
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.BridgeCalls.WithLabelValues("keyevent", "error")))

	devices := b.ListDevices(ctx)
	require.NotEmpty(t, devices)
	assert.Equal(t, "GOOD1", devices[0].Serial)

	size, ok := b.PhysicalSize(ctx, "GOOD1")
	require.True(t, ok)
	assert.Equal(t, types.Size{Width: 1080, Height: 2400}, size)
}

func TestDaemonFailure(t *testing.T) {
	ctx := context.Background()
	expired, cancel := context.WithTimeout(ctx, -time.Second)
	defer cancel()

	assert.True(t, daemonFailure(ctx, nil, &exec.Error{Name: "adb", Err: exec.ErrNotFound}))
	assert.True(t, daemonFailure(expired, nil, errors.New("signal: killed")))
	assert.True(t, daemonFailure(ctx, []byte("* cannot connect to daemon at tcp:5037"), errors.New("exit status 1")))
	assert.True(t, daemonFailure(ctx, nil, errors.New("ADB server didn't ACK\nfailed to start daemon")))
	assert.False(t, daemonFailure(ctx, []byte("error: device 'GONE' not found"), errors.New("exit status 1")))
	assert.False(t, daemonFailure(ctx, []byte("error: device unauthorized."), errors.New("exit status 1")))
}

func TestRunHonoursTimeout(t *testing.T) {
	b := New(Options{Timeout: 20 * time.Millisecond}, blockingRunner{}, nil, nil)

	start := time.Now()
	assert.Empty(t, b.Shell(context.Background(), "dev", "sleep 100"))
	assert.Less(t, time.Since(start), 5*time.Second)
}

type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context, _ string, _ ...string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
