package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the per-user config directory.
const AppName = "mirrordeck"

// ProfileNames are the profile file names looked up in a config
// directory, in order of preference.
var ProfileNames = []string{
	"profile.yaml",
	"profile.yml",
	"profile.json",
	"profile.toml",
}

// ConfigDir returns the per-user config directory, e.g.
// ~/.config/mirrordeck on Linux or %AppData%\mirrordeck on Windows.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// ProfileCandidates returns every profile path looked up in dir.
func ProfileCandidates(dir string) []string {
	out := make([]string, len(ProfileNames))
	for i, name := range ProfileNames {
		out[i] = filepath.Join(dir, name)
	}
	return out
}

// FindProfile returns the first candidate in dir that is a regular file.
func FindProfile(dir string) (string, bool) {
	for _, p := range ProfileCandidates(dir) {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// DefaultProfile looks for a profile in ConfigDir.
func DefaultProfile() (string, bool) {
	dir, err := ConfigDir()
	if err != nil {
		return "", false
	}
	return FindProfile(dir)
}
