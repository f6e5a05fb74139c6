package watch

import (
	"context"

	"go.uber.org/zap"

	"github.com/smswire/smswire/internal/bus"
)

// mirror copies every bus event into the log, so tailing the profile's
// log file shows state changes as they land.
type mirror struct {
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	unsub  func()
}

func newMirror(b *bus.Bus, logger *zap.Logger) *mirror {
	return &mirror{bus: b, logger: logger}
}

// Start subscribes to all event kinds and logs them until Stop or context
// cancellation. Events beyond the buffer are dropped by the bus, never
// queued against the publisher.
func (m *mirror) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	ch, unsub := m.bus.Subscribe("", 64)
	m.unsub = unsub

	go func() {
		for {
			select {
			case evt := <-ch:
				m.logger.Info("event",
					zap.String("kind", evt.Kind),
					zap.Any("payload", evt.Payload),
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop unsubscribes and ends the logging goroutine.
func (m *mirror) Stop() {
	if m.unsub != nil {
		m.unsub()
	}
	if m.cancel != nil {
		m.cancel()
	}
}
