// Package config loads and persists smswire configuration: a global
// config.toml, one profile.toml per profile, and a read-only view of the
// process environment that overrides both.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.smswire/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
}

// Profile represents a per-profile profile.toml. PollInterval is a
// time.ParseDuration string such as "15s".
type Profile struct {
	APIURL       string `toml:"api_url"`
	APIKey       string `toml:"api_key"`
	Owner        string `toml:"owner"`
	PollInterval string `toml:"poll_interval"`
}

// Load reads the global config from the given path. Returns an error if
// the file is missing.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the global config to the given path, creating parent dirs
// as needed.
func Save(path string, cfg *Config) error {
	return write(path, cfg)
}

// LoadProfile reads a profile.toml from the given path.
func LoadProfile(path string) (*Profile, error) {
	var prof Profile
	if _, err := toml.DecodeFile(path, &prof); err != nil {
		return nil, err
	}
	return &prof, nil
}

// SaveProfile writes a profile.toml to the given path. The file carries
// the API key, so it is created 0600 like the global config.
func SaveProfile(path string, prof *Profile) error {
	return write(path, prof)
}

func write(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
