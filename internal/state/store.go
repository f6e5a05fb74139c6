// Package state holds the in-memory client state: the signed-in account,
// its phones, the selected owner, threads, messages and the transient
// notification. Every mutation publishes a bus event so consumers know
// when to re-render.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/smswire/smswire/internal/bus"
	"github.com/smswire/smswire/internal/domain"
)

// ErrThreadNotFound is returned by Thread when the selected id is absent
// from the loaded thread list.
var ErrThreadNotFound = errors.New("thread not found")

// Store is the synchronized client state. All methods are safe for
// concurrent use. Collection getters return the live backing slice;
// mutations replace slices wholesale and never edit them in place, so a
// returned slice is stable once obtained.
type Store struct {
	mu sync.RWMutex

	authUser *domain.AuthUser
	user     *domain.User
	phones   []domain.Phone
	owner    string

	threads  []domain.MessageThread
	threadID string
	messages []domain.Message

	heartbeat *domain.Heartbeat

	threadsLoading  bool
	messagesLoading bool
	polling         bool

	notification Notification

	bus *bus.Bus
}

// New creates a Store. Both loading flags start armed so consumers render
// placeholders until the first loads land. The bus may be nil.
func New(b *bus.Bus) *Store {
	return &Store{
		threadsLoading:  true,
		messagesLoading: true,
		bus:             b,
	}
}

func (s *Store) publish(kind string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(kind, payload)
}

// AuthUser returns the authenticated identity, or nil before sign-in.
func (s *Store) AuthUser() *domain.AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authUser
}

// User returns the gateway-side profile, or nil until loaded.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Phones returns the registered phones.
func (s *Store) Phones() []domain.Phone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phones
}

// Owner returns the selected owner phone number, or "" when none is
// selected.
func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// ActivePhone returns the phone whose number matches the owner. The
// second return is false when no owner is selected or the owner has no
// matching phone.
func (s *Store) ActivePhone() (domain.Phone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findPhone(s.phones, s.owner)
}

// Threads returns the loaded conversation list.
func (s *Store) Threads() []domain.MessageThread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threads
}

// ThreadID returns the selected thread id, or "" when none is open.
func (s *Store) ThreadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadID
}

// HasThread reports whether a thread is selected and the thread list has
// settled enough to look it up.
func (s *Store) HasThread() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadID != "" && !s.threadsLoading
}

// Thread resolves the selected thread against the loaded list. Unlike
// ActivePhone this fails loudly: a selected id that is missing from the
// list is a bug in the caller's sequencing, not a renderable state.
func (s *Store) Thread() (domain.MessageThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.threads {
		if t.ID == s.threadID {
			return t, nil
		}
	}
	return domain.MessageThread{}, fmt.Errorf("thread %q: %w", s.threadID, ErrThreadNotFound)
}

// Messages returns the messages of the open thread.
func (s *Store) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages
}

// Heartbeat returns the owner's most recent heartbeat, or nil.
func (s *Store) Heartbeat() *domain.Heartbeat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heartbeat
}

// ThreadsLoading reports whether a thread list load is outstanding.
func (s *Store) ThreadsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadsLoading
}

// MessagesLoading reports whether a message load is outstanding.
func (s *Store) MessagesLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messagesLoading
}

// Polling reports whether background refresh is enabled.
func (s *Store) Polling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.polling
}

// SetAuthUser replaces the authenticated identity. Pass nil on sign-out.
func (s *Store) SetAuthUser(u *domain.AuthUser) {
	s.mu.Lock()
	s.authUser = u
	s.mu.Unlock()
	id := ""
	if u != nil {
		id = u.ID
	}
	s.publish(bus.KindAuthChanged, id)
}

// SetUser replaces the gateway-side profile.
func (s *Store) SetUser(u *domain.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.publish(bus.KindUserReplaced, nil)
}

// SetPhones replaces the phone list. When the current owner does not
// appear in the new list and the list is non-empty, the owner snaps to
// the first phone; an empty list leaves the owner untouched. Snapping
// assigns the owner field directly and does not re-arm loading flags.
func (s *Store) SetPhones(phones []domain.Phone) {
	s.mu.Lock()
	s.phones = phones
	newOwner := ""
	if len(phones) > 0 {
		if _, ok := findPhone(phones, s.owner); !ok {
			s.owner = phones[0].PhoneNumber
			newOwner = s.owner
		}
	}
	s.mu.Unlock()
	s.publish(bus.KindPhonesReplaced, len(phones))
	if newOwner != "" {
		s.publish(bus.KindOwnerChanged, newOwner)
	}
}

// SetOwner selects the owner phone number and re-arms both loading flags,
// even when the value is unchanged or empty. Stale thread and message
// collections remain visible until their reloads land.
func (s *Store) SetOwner(owner string) {
	s.mu.Lock()
	s.owner = owner
	s.threadsLoading = true
	s.messagesLoading = true
	s.mu.Unlock()
	s.publish(bus.KindOwnerChanged, owner)
}

// SetThreads replaces the conversation list and clears the thread loading
// flag.
func (s *Store) SetThreads(threads []domain.MessageThread) {
	s.mu.Lock()
	s.threads = threads
	s.threadsLoading = false
	s.mu.Unlock()
	s.publish(bus.KindThreadsReplaced, len(threads))
}

// SetThreadID selects a thread. The id is not checked against the loaded
// list here; Thread performs the lookup.
func (s *Store) SetThreadID(id string) {
	s.mu.Lock()
	s.threadID = id
	s.mu.Unlock()
	s.publish(bus.KindThreadSelected, id)
}

// SetThreadMessages replaces the open thread's messages and clears the
// message loading flag.
func (s *Store) SetThreadMessages(messages []domain.Message) {
	s.mu.Lock()
	s.messages = messages
	s.messagesLoading = false
	s.mu.Unlock()
	s.publish(bus.KindMessagesReplaced, len(messages))
}

// SetHeartbeat replaces the owner's last heartbeat. Pass nil when the
// gateway returned none.
func (s *Store) SetHeartbeat(hb *domain.Heartbeat) {
	s.mu.Lock()
	s.heartbeat = hb
	s.mu.Unlock()
	s.publish(bus.KindHeartbeat, hb)
}

// SetPolling toggles background refresh.
func (s *Store) SetPolling(enabled bool) {
	s.mu.Lock()
	s.polling = enabled
	s.mu.Unlock()
	s.publish(bus.KindPollingChanged, enabled)
}

func findPhone(phones []domain.Phone, number string) (domain.Phone, bool) {
	if number == "" {
		return domain.Phone{}, false
	}
	for _, p := range phones {
		if p.PhoneNumber == number {
			return p, true
		}
	}
	return domain.Phone{}, false
}
