package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProfile(t *testing.T) {
	dir := t.TempDir()

	_, ok := FindProfile(dir)
	assert.False(t, ok)

	toml := filepath.Join(dir, "profile.toml")
	require.NoError(t, os.WriteFile(toml, []byte("preset = \"fast\"\n"), 0o644))
	got, ok := FindProfile(dir)
	require.True(t, ok)
	assert.Equal(t, toml, got)

	yaml := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(yaml, []byte("preset: fast\n"), 0o644))
	got, ok = FindProfile(dir)
	require.True(t, ok)
	assert.Equal(t, yaml, got)
}

func TestFindProfileSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "profile.yaml"), 0o755))

	_, ok := FindProfile(dir)
	assert.False(t, ok)
}

func TestProfileCandidates(t *testing.T) {
	got := ProfileCandidates("cfg")
	require.Len(t, got, len(ProfileNames))
	assert.Equal(t, filepath.Join("cfg", "profile.yaml"), got[0])
}

func TestConfigDir(t *testing.T) {
	dir, err := ConfigDir()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.Equal(t, AppName, filepath.Base(dir))
}
