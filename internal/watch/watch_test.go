package watch

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smswire/smswire/internal/bus"
	"github.com/smswire/smswire/internal/config"
	"github.com/smswire/smswire/internal/profile"
)

// TestModuleGraphResolves verifies the fx dependency graph is complete.
// Regression guard: a provider taking a bare string (instead of Params)
// makes fx fail at startup with "missing type: string".
func TestModuleGraphResolves(t *testing.T) {
	if err := fx.ValidateApp(Module(Params{Profile: "test"})); err != nil {
		t.Fatalf("fx graph does not resolve: %v", err)
	}
}

func TestRuntimeRequiresAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvAPIURL, "")

	_, err := provideRuntime(Params{Profile: "test"}, zap.NewNop())
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("provideRuntime() error = %v, want ErrNoAPIKey", err)
	}
}

func TestRuntimeMergesProfileFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvAPIURL, "")

	if err := os.MkdirAll(profile.Dir("test"), 0700); err != nil {
		t.Fatal(err)
	}
	prof := &config.Profile{
		APIKey:       "key-1",
		Owner:        "+15550100001",
		PollInterval: "5s",
	}
	if err := config.SaveProfile(profile.ProfilePath("test"), prof); err != nil {
		t.Fatal(err)
	}

	rt, err := provideRuntime(Params{Profile: "test"}, zap.NewNop())
	if err != nil {
		t.Fatalf("provideRuntime() error = %v", err)
	}
	if rt.APIKey != "key-1" {
		t.Errorf("APIKey = %q, want key-1", rt.APIKey)
	}
	if rt.Owner != "+15550100001" {
		t.Errorf("Owner = %q, want +15550100001", rt.Owner)
	}
	if rt.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", rt.PollInterval)
	}
}

func TestMirrorLogsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	b := bus.New()
	m := newMirror(b, zap.New(core))

	m.Start(context.Background())
	defer m.Stop()

	b.Publish(bus.KindOwnerChanged, "+15550100001")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && logs.FilterMessage("event").Len() == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	entries := logs.FilterMessage("event").All()
	if len(entries) == 0 {
		t.Fatal("timeout waiting for mirrored event")
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != bus.KindOwnerChanged {
		t.Errorf("kind = %v, want %s", fields["kind"], bus.KindOwnerChanged)
	}
	if fields["payload"] != "+15550100001" {
		t.Errorf("payload = %v, want owner number", fields["payload"])
	}
}

func TestMirrorStops(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	b := bus.New()
	m := newMirror(b, zap.New(core))

	m.Start(context.Background())
	b.Publish(bus.KindPollingChanged, true)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && logs.Len() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	m.Stop()
	time.Sleep(50 * time.Millisecond)

	before := logs.Len()
	b.Publish(bus.KindPollingChanged, false)
	time.Sleep(100 * time.Millisecond)

	if logs.Len() != before {
		t.Errorf("entries after Stop: %d -> %d, want no change", before, logs.Len())
	}
}
