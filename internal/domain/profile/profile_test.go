package profile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/command"
)

const yamlProfile = `
preset: fast
global:
  aspect_lock: true
  stay_awake: true
devices:
  - match: "192.168.*:5555"
    options:
      bitrate: 2
      max_fps: 30
  - match: "192.168.1.20:5555"
    options:
      max_fps: 60
`

const jsonProfile = `{
  "preset": "high-quality",
  "global": {"always_on_top": true},
  "devices": [
    {"match": "emulator-*", "options": {"max_size": 800, "codec": "h265"}}
  ]
}`

const tomlProfile = `
preset = "fast"

[global]
fullscreen = true

[[devices]]
match = "R58*"

[devices.options]
bitrate = 16
turn_screen_off = true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "profile.yaml", yamlProfile)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Source)
	assert.Len(t, c.Digest, 64)

	global := c.Options()
	assert.Equal(t, 1024, global.MaxSize)
	assert.Equal(t, 4, global.BitrateMbps)
	assert.True(t, global.AspectLock)
	assert.True(t, global.StayAwake)

	// Overrides apply in declaration order; later ones win.
	wifi := c.Resolve("192.168.1.20:5555")
	assert.Equal(t, 2, wifi.BitrateMbps)
	assert.Equal(t, 60, wifi.MaxFPS)

	other := c.Resolve("192.168.1.21:5555")
	assert.Equal(t, 2, other.BitrateMbps)
	assert.Equal(t, 30, other.MaxFPS)

	usb := c.Resolve("R58M12345")
	assert.Equal(t, global, usb)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "profile.json", jsonProfile)

	c, err := Load(path)
	require.NoError(t, err)

	o := c.Resolve("emulator-5554")
	assert.Equal(t, 800, o.MaxSize)
	assert.Equal(t, command.CodecH265, o.Codec)
	assert.Equal(t, 8, o.BitrateMbps)
	assert.True(t, o.AlwaysOnTop)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "profile.toml", tomlProfile)

	c, err := Load(path)
	require.NoError(t, err)

	o := c.Resolve("R58M12345")
	assert.Equal(t, 16, o.BitrateMbps)
	assert.True(t, o.TurnScreenOff)
	assert.True(t, o.Fullscreen)
	assert.Equal(t, 60, o.MaxFPS)
}

func TestLoadEmptyPathUsesBuiltin(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, command.Default(), c.Options())
	assert.Empty(t, c.Source)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		target  error
	}{
		{"unsupported extension", "profile.ini", "preset=fast", ErrUnsupportedFormat},
		{"unknown key", "profile.yaml", "preset: fast\nbogus: 1\n", ErrInvalidProfile},
		{"unknown preset", "profile.json", `{"preset": "ultra"}`, ErrInvalidProfile},
		{"invalid global value", "profile.toml", "[global]\nbitrate = 99\n", ErrInvalidProfile},
		{"invalid override value", "profile.yaml", "devices:\n  - match: \"*\"\n    options:\n      max_fps: 45\n", ErrInvalidProfile},
		{"bad pattern", "profile.json", `{"devices": [{"match": "[", "options": {}}]}`, ErrInvalidProfile},
		{"empty pattern", "profile.json", `{"devices": [{"options": {}}]}`, ErrInvalidProfile},
		{"empty", "profile.yaml", "\n  \n", ErrInvalidProfile},
		{"malformed", "profile.json", `{"preset": `, ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPatchApplyLeavesUnsetFields(t *testing.T) {
	on := true
	fps := 120
	base := command.Default()

	got := Patch{AlwaysOnTop: &on, MaxFPS: &fps}.Apply(base)

	want := base
	want.AlwaysOnTop = true
	want.MaxFPS = 120
	assert.Equal(t, want, got)
}

func TestApplyOverridesUsesGivenBase(t *testing.T) {
	bitrate := 3
	c := &Catalog{Devices: []Override{{Match: "emulator-*", Options: Patch{BitrateMbps: &bitrate}}}}

	base := command.Default()
	base.AspectLock = true
	got := c.ApplyOverrides(base, "emulator-5556")

	assert.Equal(t, 3, got.BitrateMbps)
	assert.True(t, got.AspectLock, "runtime global values survive")
}

type reloads struct {
	mu   sync.Mutex
	seen []*Catalog
}

func (r *reloads) add(c *Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, c)
}

func (r *reloads) all() []*Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Catalog(nil), r.seen...)
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "profile.yaml", "preset: fast\n")
	initial, err := Load(path)
	require.NoError(t, err)

	var got reloads
	w, err := NewWatcher(path, initial.Digest, got.add, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	// Same content: no callback.
	writeFile(t, dir, "profile.yaml", "preset: fast\n")
	// Invalid content: logged and ignored.
	writeFile(t, dir, "profile.yaml", "preset: ultra\n")
	// Unrelated files are filtered out.
	writeFile(t, dir, "notes.yaml", "preset: high-quality\n")
	writeFile(t, dir, "profile.yaml", "preset: fast\nglobal:\n  aspect_lock: true\n")

	require.Eventually(t, func() bool {
		for _, c := range got.all() {
			if c.Options().AspectLock {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "profile.yaml"), "", nil, nil)
	assert.Error(t, err)
}
