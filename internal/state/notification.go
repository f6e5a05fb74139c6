package state

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/smswire/smswire/internal/bus"
)

// NotificationKind classifies a transient notification.
type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient user-facing message. Active flips to false
// when the display window elapses or the consumer dismisses it early.
type Notification struct {
	ID      string
	Message string
	Kind    NotificationKind
	Timeout time.Duration
	Active  bool
}

const (
	notifyBaseTimeout = 3 * time.Second
	notifyJitterMS    = 100
)

func notifyTimeout() time.Duration {
	return notifyBaseTimeout + time.Duration(rand.Intn(notifyJitterMS))*time.Millisecond
}

// Notify replaces the current notification and schedules its expiry. The
// display window carries a small random jitter so back-to-back
// notifications do not all vanish on the same frame. Replacing an active
// notification leaves the old timer running; the id check in the expiry
// path makes the stale timer a no-op.
func (s *Store) Notify(message string, kind NotificationKind) Notification {
	n := Notification{
		ID:      uuid.NewString(),
		Message: message,
		Kind:    kind,
		Timeout: notifyTimeout(),
		Active:  true,
	}

	s.mu.Lock()
	s.notification = n
	s.mu.Unlock()
	s.publish(bus.KindNotifyPushed, n)

	time.AfterFunc(n.Timeout, func() { s.expireNotification(n.ID) })
	return n
}

// Notification returns the current notification. A zero ID means none has
// been pushed yet.
func (s *Store) Notification() Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notification
}

// DismissNotification hides the current notification ahead of its timer.
func (s *Store) DismissNotification() {
	s.mu.Lock()
	if !s.notification.Active {
		s.mu.Unlock()
		return
	}
	id := s.notification.ID
	s.notification.Active = false
	s.mu.Unlock()
	s.publish(bus.KindNotifyDismissed, id)
}

// expireNotification deactivates the notification the timer was armed
// for. A timer belonging to a replaced or already-dismissed notification
// must not touch the current one.
func (s *Store) expireNotification(id string) {
	s.mu.Lock()
	if s.notification.ID != id || !s.notification.Active {
		s.mu.Unlock()
		return
	}
	s.notification.Active = false
	s.mu.Unlock()
	s.publish(bus.KindNotifyDismissed, id)
}
