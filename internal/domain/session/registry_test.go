package session

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/process/processtest"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/window"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/id"
)

func spawn(t *testing.T, sp *processtest.Spawner) *processtest.Process {
	t.Helper()
	h, err := sp.Spawn(context.Background(), "scrcpy", nil)
	require.NoError(t, err)
	return h.(*processtest.Process)
}

func TestAddRejectsDuplicateSerial(t *testing.T) {
	reg := NewRegistry()
	sp := processtest.NewSpawner()

	first, err := reg.Add(Session{Serial: "dev", ID: id.NewSessionID(), Process: spawn(t, sp)})
	require.NoError(t, err)
	assert.False(t, first.StartedAt.IsZero())
	assert.Equal(t, 1001, first.PID)

	_, err = reg.Add(Session{Serial: "dev", ID: id.NewSessionID(), Process: spawn(t, sp)})
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, 1, reg.Len())
}

func TestRemoveIfChecksInstance(t *testing.T) {
	reg := NewRegistry()
	sp := processtest.NewSpawner()
	current := id.NewSessionID()
	_, err := reg.Add(Session{Serial: "dev", ID: current, Process: spawn(t, sp)})
	require.NoError(t, err)

	_, removed := reg.RemoveIf("dev", id.NewSessionID())
	assert.False(t, removed)
	assert.Equal(t, 1, reg.Len())

	snap, removed := reg.RemoveIf("dev", current)
	assert.True(t, removed)
	assert.Equal(t, current, snap.ID)
	assert.Zero(t, reg.Len())
}

func TestActive(t *testing.T) {
	reg := NewRegistry()
	sp := processtest.NewSpawner()
	sid := id.NewSessionID()
	proc := spawn(t, sp)
	_, err := reg.Add(Session{Serial: "dev", ID: sid, Process: proc})
	require.NoError(t, err)

	assert.True(t, reg.Active("dev", sid))
	assert.False(t, reg.Active("dev", id.NewSessionID()))
	assert.False(t, reg.Active("other", sid))

	proc.Exit(nil)
	assert.False(t, reg.Active("dev", sid))
}

func TestSnapshotsAreCopies(t *testing.T) {
	reg := NewRegistry()
	sid := id.NewSessionID()
	_, err := reg.Add(Session{Serial: "dev", ID: sid, Process: spawn(t, processtest.NewSpawner())})
	require.NoError(t, err)

	snap, ok := reg.Get("dev")
	require.True(t, ok)
	snap.Policy.AspectLock = true
	snap.Window = 0x42

	again, _ := reg.Get("dev")
	assert.False(t, again.Policy.AspectLock)
	assert.Zero(t, again.Window)
}

func TestSetWindowAndUpdate(t *testing.T) {
	reg := NewRegistry()
	sid := id.NewSessionID()
	_, err := reg.Add(Session{Serial: "dev", ID: sid, Process: spawn(t, processtest.NewSpawner())})
	require.NoError(t, err)

	assert.False(t, reg.SetWindow("dev", id.NewSessionID(), 0x10))
	assert.True(t, reg.SetWindow("dev", sid, window.Handle(0x20)))

	snap, ok := reg.Update("dev", func(p *Policy) { p.AlwaysOnTop = true })
	require.True(t, ok)
	assert.True(t, snap.Policy.AlwaysOnTop)
	assert.Equal(t, window.Handle(0x20), snap.Window)

	_, ok = reg.Update("missing", func(p *Policy) {})
	assert.False(t, ok)
}

func TestListIsSorted(t *testing.T) {
	reg := NewRegistry()
	sp := processtest.NewSpawner()
	for _, serial := range []string{"c", "a", "b"} {
		_, err := reg.Add(Session{Serial: serial, ID: id.NewSessionID(), Process: spawn(t, sp)})
		require.NoError(t, err)
	}

	var serials []string
	for _, s := range reg.List() {
		serials = append(serials, s.Serial)
	}
	assert.Equal(t, []string{"a", "b", "c"}, serials)
}

func TestMetricsTrackSize(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	reg := NewRegistry().WithMetrics(metrics)
	sp := processtest.NewSpawner()

	_, _ = reg.Add(Session{Serial: "a", ID: id.NewSessionID(), Process: spawn(t, sp)})
	_, _ = reg.Add(Session{Serial: "b", ID: id.NewSessionID(), Process: spawn(t, sp)})
	reg.Remove("a")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsActive))
}

func TestConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	sp := processtest.NewSpawner()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			serial := string(rune('a' + i%4))
			sid := id.NewSessionID()
			h, _ := sp.Spawn(context.Background(), "scrcpy", nil)
			if _, err := reg.Add(Session{Serial: serial, ID: sid, Process: h}); err == nil {
				reg.Active(serial, sid)
				reg.List()
				reg.RemoveIf(serial, sid)
			}
		}(i)
	}
	wg.Wait()

	assert.Zero(t, reg.Len())
}
