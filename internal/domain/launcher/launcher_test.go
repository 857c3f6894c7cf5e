package launcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/command"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/events"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/session"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/process/processtest"
	mocks "github.com/GriffinCanCode/mirrordeck/internal/testutil"
)

type fixture struct {
	launcher *Launcher
	spawner  *processtest.Spawner
	registry *session.Registry
	bridge   *mocks.MockBridge
	bus      *events.Bus
	metrics  *monitoring.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		spawner:  processtest.NewSpawner(),
		registry: session.NewRegistry(),
		bridge:   mocks.NewMockBridge(t),
		bus:      events.NewBus(16, nil),
		metrics:  monitoring.NewMetrics(prometheus.NewRegistry()),
	}
	f.launcher = New("scrcpy", f.spawner, f.registry, f.bridge, f.bus, zaptest.NewLogger(t)).
		WithMetrics(f.metrics)
	return f
}

func TestStartRegistersSession(t *testing.T) {
	f := newFixture(t)
	f.bridge.WithModel("dev", "Pixel 7")

	opts := command.Default()
	opts.AspectLock = true
	snap, err := f.launcher.Start(context.Background(), "dev", opts)
	require.NoError(t, err)

	assert.Equal(t, "Pixel 7", snap.Model)
	assert.True(t, snap.Policy.AspectLock)
	assert.Equal(t, 1, f.registry.Len())

	calls := f.spawner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "scrcpy", calls[0].Name)
	assert.Equal(t, []string{"-s", "dev", "--video-bit-rate", "8M", "--video-codec", "h264"}, calls[0].Args)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionsStarted))
}

func TestStartFallsBackToSerialForModel(t *testing.T) {
	f := newFixture(t)
	f.bridge.WithModel("dev", "")

	snap, err := f.launcher.Start(context.Background(), "dev", command.Default())
	require.NoError(t, err)
	assert.Equal(t, "dev", snap.Model)

	nilModels := New("scrcpy", f.spawner, f.registry, nil, nil, nil)
	assert.Equal(t, "other", nilModels.ResolveModel(context.Background(), "other"))
}

func TestSpawnFailureRegistersNothing(t *testing.T) {
	f := newFixture(t)
	f.bridge.WithModel("dev", "")
	boom := errors.New("executable file not found")
	f.spawner.FailWith(boom)

	_, err := f.launcher.Start(context.Background(), "dev", command.Default())

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, "dev", spawnErr.Serial)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.registry.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SpawnFailures))
}

func TestStartReplacesExistingSession(t *testing.T) {
	f := newFixture(t)
	f.bridge.WithModel("dev", "")
	_, sub, cancel := f.bus.Subscribe()
	defer cancel()

	first, err := f.launcher.Start(context.Background(), "dev", command.Default())
	require.NoError(t, err)
	second, err := f.launcher.Start(context.Background(), "dev", command.Default())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, f.registry.Len())
	assert.Equal(t, 1, f.spawner.Live())

	procs := f.spawner.Processes()
	require.Len(t, procs, 2)
	assert.True(t, procs[0].Terminated())
	assert.False(t, procs[1].Exited())

	current, ok := f.registry.Get("dev")
	require.True(t, ok)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionExits.WithLabelValues(monitoring.ExitReplaced)))

	var seen []events.Type
	for len(sub) > 0 {
		seen = append(seen, (<-sub).Type)
	}
	assert.Equal(t, []events.Type{events.SessionStarted, events.SessionReplaced, events.SessionStarted}, seen)
}

func TestConcurrentStartsKeepOneLiveProcess(t *testing.T) {
	f := newFixture(t)
	f.bridge.WithModel("dev", "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.launcher.Start(context.Background(), "dev", command.Default())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.registry.Len())
	// Replaced processes are terminated before the next spawn, and the
	// replaced session's watcher must not unregister its successor.
	assert.Eventually(t, func() bool { return f.spawner.Live() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, f.registry.Len())
}

func TestStopTerminatesAndUnregisters(t *testing.T) {
	f := newFixture(t)
	f.bridge.WithModel("dev", "")
	_, err := f.launcher.Start(context.Background(), "dev", command.Default())
	require.NoError(t, err)

	assert.True(t, f.launcher.Stop("dev"))
	assert.Zero(t, f.registry.Len())
	assert.True(t, f.spawner.Last().Terminated())

	assert.False(t, f.launcher.Stop("dev"))
}

func TestStopSwallowsAlreadyExited(t *testing.T) {
	f := newFixture(t)
	f.bridge.WithModel("dev", "")
	_, err := f.launcher.Start(context.Background(), "dev", command.Default())
	require.NoError(t, err)
	proc := f.spawner.Last()

	// Whichever of Stop and the exit watcher wins, the entry goes away.
	proc.Exit(nil)
	f.launcher.Stop("dev")

	assert.Zero(t, f.registry.Len())
}

func TestExitWatcherUnregisters(t *testing.T) {
	f := newFixture(t)
	f.bridge.WithModel("dev", "")
	_, sub, cancel := f.bus.Subscribe()
	defer cancel()

	snap, err := f.launcher.Start(context.Background(), "dev", command.Default())
	require.NoError(t, err)
	<-sub // session.started

	f.spawner.Last().Exit(errors.New("exit status 1"))

	require.Eventually(t, func() bool { return f.registry.Len() == 0 }, time.Second, 5*time.Millisecond)
	select {
	case e := <-sub:
		assert.Equal(t, events.SessionExited, e.Type)
		assert.Equal(t, snap.ID, e.SessionID)
		assert.Equal(t, "exit status 1", e.Data["error"])
	case <-time.After(time.Second):
		t.Fatal("no exit event")
	}
}

func TestStopAll(t *testing.T) {
	f := newFixture(t)
	for _, serial := range []string{"a", "b", "c"} {
		f.bridge.WithModel(serial, "")
		_, err := f.launcher.Start(context.Background(), serial, command.Default())
		require.NoError(t, err)
	}

	assert.Equal(t, 3, f.launcher.StopAll())
	assert.Zero(t, f.registry.Len())
	assert.Zero(t, f.spawner.Live())
}
