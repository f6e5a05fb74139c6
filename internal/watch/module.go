// Package watch composes the long-running refresh process: it locks the
// profile, signs in, and keeps the store tracking the gateway until
// stopped.
package watch

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smswire/smswire/internal/bus"
	"github.com/smswire/smswire/internal/config"
	"github.com/smswire/smswire/internal/gateway"
	"github.com/smswire/smswire/internal/lock"
	"github.com/smswire/smswire/internal/logging"
	"github.com/smswire/smswire/internal/poller"
	"github.com/smswire/smswire/internal/profile"
	"github.com/smswire/smswire/internal/state"
	"github.com/smswire/smswire/internal/status"
	intsync "github.com/smswire/smswire/internal/sync"
)

// ErrNoAPIKey means neither the environment nor the profile file carries
// credentials.
var ErrNoAPIKey = errors.New("no API key configured: set SMSWIRE_API_KEY or run 'smswire profiles init'")

// Params holds the resolved profile name passed to the fx module.
type Params struct {
	Profile string
}

// Module returns the fx module for watch mode, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("watch",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStore,
			provideStateMachine,
			provideLock,
			provideRuntime,
			provideGateway,
			provideEngine,
			providePoller,
			newMirror,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile), p.Profile)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStore(b *bus.Bus) *state.Store {
	return state.New(b)
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideRuntime(p Params, logger *zap.Logger) (config.Runtime, error) {
	env, err := config.Read()
	if err != nil {
		return config.Runtime{}, err
	}
	prof, err := config.LoadProfile(profile.ProfilePath(p.Profile))
	if err != nil {
		// Missing profile file is fine; the environment must then carry
		// the credentials.
		prof = nil
	}
	rt := config.Resolve(env, prof)
	if rt.APIKey == "" {
		return config.Runtime{}, ErrNoAPIKey
	}
	logger.Info("configuration resolved",
		zap.String("api_url", rt.APIURL),
		zap.Duration("poll_interval", rt.PollInterval),
	)
	return rt, nil
}

func provideGateway(rt config.Runtime) (*gateway.Client, error) {
	return gateway.NewClient(rt.APIURL, rt.APIKey)
}

func provideEngine(client *gateway.Client, st *state.Store, machine *status.Machine, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(client, st, machine, logger)
}

func providePoller(engine *intsync.Engine, st *state.Store, rt config.Runtime, logger *zap.Logger) *poller.Poller {
	return poller.New(engine, st, logger, rt.PollInterval)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, engine *intsync.Engine, pol *poller.Poller, m *mirror, rt config.Runtime, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			m.Start(context.Background())
			engine.SetPolling(true)

			// Sign-in runs in the background so a slow gateway does not
			// stall startup; the poller catches up once it lands.
			go func() {
				ctx := context.Background()
				if err := engine.SignIn(ctx); err != nil {
					logger.Error("sign-in failed", zap.Error(err))
					return
				}
				if rt.Owner != "" {
					if err := engine.SetOwner(ctx, rt.Owner); err != nil {
						logger.Error("owner selection failed", zap.Error(err), zap.String("owner", rt.Owner))
					}
				}
				if err := engine.LoadThreads(ctx); err != nil {
					logger.Error("initial thread load failed", zap.Error(err))
				}
			}()

			pol.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			pol.Stop()
			m.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("watch stopped")
			return nil
		},
	})
}
