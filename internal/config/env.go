package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Environment variable names recognized by the view.
const (
	EnvAPIURL  = "SMSWIRE_API_URL"
	EnvAPIKey  = "SMSWIRE_API_KEY"
	EnvProfile = "SMSWIRE_PROFILE"
)

// DefaultPollInterval applies when neither the profile file nor the
// caller sets a refresh cadence.
const DefaultPollInterval = 15 * time.Second

// Env is the read-only configuration view backed by the process
// environment. Read decodes a fresh copy on every call and never caches,
// so long-running consumers observe environment changes.
type Env struct {
	APIURL      string `env:"SMSWIRE_API_URL,default=https://api.smswire.io"`
	APIKey      string `env:"SMSWIRE_API_KEY"`
	Profile     string `env:"SMSWIRE_PROFILE"`
	AppName     string `env:"SMSWIRE_APP_NAME,default=smswire"`
	DocsURL     string `env:"SMSWIRE_DOCS_URL,default=https://docs.smswire.io"`
	DownloadURL string `env:"SMSWIRE_APP_DOWNLOAD_URL,default=https://github.com/smswire/android/releases/latest"`
	SourceURL   string `env:"SMSWIRE_SOURCE_URL,default=https://github.com/smswire/smswire"`
}

// Read decodes the environment view. The API base URL is normalized with
// any trailing slash stripped.
func Read() (Env, error) {
	var e Env
	if err := envdecode.Decode(&e); err != nil {
		return Env{}, fmt.Errorf("decode environment: %w", err)
	}
	e.APIURL = strings.TrimSuffix(strings.TrimSpace(e.APIURL), "/")
	return e, nil
}

// Runtime is the merged configuration for one invocation. Environment
// variables win over the profile file, which wins over built-in defaults.
type Runtime struct {
	APIURL       string
	APIKey       string
	Owner        string
	PollInterval time.Duration
}

// Resolve merges the environment view with an optional profile file.
func Resolve(env Env, prof *Profile) Runtime {
	rt := Runtime{
		APIURL:       env.APIURL,
		APIKey:       env.APIKey,
		PollInterval: DefaultPollInterval,
	}
	if prof == nil {
		return rt
	}
	if prof.APIURL != "" && os.Getenv(EnvAPIURL) == "" {
		rt.APIURL = strings.TrimSuffix(strings.TrimSpace(prof.APIURL), "/")
	}
	if prof.APIKey != "" && rt.APIKey == "" {
		rt.APIKey = prof.APIKey
	}
	rt.Owner = prof.Owner
	if prof.PollInterval != "" {
		if d, err := time.ParseDuration(prof.PollInterval); err == nil && d > 0 {
			rt.PollInterval = d
		}
	}
	return rt
}
