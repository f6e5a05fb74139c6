package config

import (
	"testing"
	"time"
)

func TestReadDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIKey, "")

	env, err := Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if env.APIURL != "https://api.smswire.io" {
		t.Errorf("APIURL = %q, want default", env.APIURL)
	}
	if env.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", env.APIKey)
	}
	if env.AppName != "smswire" {
		t.Errorf("AppName = %q, want smswire", env.AppName)
	}
}

func TestReadStripsTrailingSlash(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://gateway.example.com/v1/")

	env, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	if env.APIURL != "https://gateway.example.com/v1" {
		t.Errorf("APIURL = %q, want trailing slash stripped", env.APIURL)
	}
}

func TestReadIsNotCached(t *testing.T) {
	t.Setenv(EnvAPIKey, "first")
	env, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	if env.APIKey != "first" {
		t.Fatalf("APIKey = %q, want first", env.APIKey)
	}

	t.Setenv(EnvAPIKey, "second")
	env, err = Read()
	if err != nil {
		t.Fatal(err)
	}
	if env.APIKey != "second" {
		t.Errorf("APIKey = %q, want second (fresh read)", env.APIKey)
	}
}

func TestResolveProfileFillsGaps(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIKey, "")

	env, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	rt := Resolve(env, &Profile{
		APIURL:       "https://self-hosted.example.com/",
		APIKey:       "file-key",
		Owner:        "+15550100001",
		PollInterval: "45s",
	})

	if rt.APIURL != "https://self-hosted.example.com" {
		t.Errorf("APIURL = %q, want profile value without slash", rt.APIURL)
	}
	if rt.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", rt.APIKey)
	}
	if rt.Owner != "+15550100001" {
		t.Errorf("Owner = %q, want +15550100001", rt.Owner)
	}
	if rt.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", rt.PollInterval)
	}
}

func TestResolveEnvironmentWins(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvAPIKey, "env-key")

	env, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	rt := Resolve(env, &Profile{APIURL: "https://file.example.com", APIKey: "file-key"})

	if rt.APIURL != "https://env.example.com" {
		t.Errorf("APIURL = %q, want environment value", rt.APIURL)
	}
	if rt.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", rt.APIKey)
	}
}

func TestResolveNilProfile(t *testing.T) {
	t.Setenv(EnvAPIURL, "")

	env, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	rt := Resolve(env, nil)

	if rt.APIURL != "https://api.smswire.io" {
		t.Errorf("APIURL = %q, want default", rt.APIURL)
	}
	if rt.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default", rt.PollInterval)
	}
}

func TestResolveBadIntervalFallsBack(t *testing.T) {
	t.Setenv(EnvAPIURL, "")

	env, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	rt := Resolve(env, &Profile{PollInterval: "often"})

	if rt.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default on parse failure", rt.PollInterval)
	}
}
