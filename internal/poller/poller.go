// Package poller drives periodic background refresh of remote state.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smswire/smswire/internal/state"
)

// DefaultInterval is the refresh cadence used when none is configured.
const DefaultInterval = 15 * time.Second

// Refresher is the slice of the sync engine the poller drives.
type Refresher interface {
	LoadThreads(ctx context.Context) error
	OpenThread(ctx context.Context, threadID string) error
	RefreshHeartbeat(ctx context.Context) error
}

// Poller re-fetches remote state on a fixed cadence so the store keeps
// tracking the gateway while the process idles. Each cycle honors the
// store's polling toggle, so refresh can be paused without stopping the
// loop.
type Poller struct {
	engine   Refresher
	store    *state.Store
	logger   *zap.Logger
	interval time.Duration
	cancel   context.CancelFunc
}

// New creates a poller. A non-positive interval falls back to
// DefaultInterval.
func New(engine Refresher, store *state.Store, logger *zap.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		engine:   engine,
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the background refresh loop.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop stops the refresh loop.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// refresh runs one polling cycle. A failed step is logged and skipped;
// the next tick retries it.
func (p *Poller) refresh(ctx context.Context) {
	if !p.store.Polling() {
		return
	}

	if err := p.engine.LoadThreads(ctx); err != nil {
		p.logger.Warn("failed to refresh threads", zap.Error(err))
	}

	if p.store.Owner() != "" {
		if err := p.engine.RefreshHeartbeat(ctx); err != nil {
			p.logger.Warn("failed to refresh heartbeat", zap.Error(err))
		}
	}

	if id := p.store.ThreadID(); id != "" {
		if err := p.engine.OpenThread(ctx, id); err != nil {
			p.logger.Warn("failed to refresh open thread", zap.Error(err), zap.String("thread_id", id))
		}
	}
}
