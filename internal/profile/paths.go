// Package profile names and resolves the per-profile directories under
// ~/.smswire where configuration, logs and the watch lock live.
package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.smswire.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".smswire")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// ProfilePath returns the profile.toml path for a profile.
func ProfilePath(name string) string {
	return filepath.Join(Dir(name), "profile.toml")
}

// LockPath returns the lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the watch-mode log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "smswire.log")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
