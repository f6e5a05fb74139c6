// Package sync orchestrates state synchronization: each operation drives
// the gateway, commits results into the state store and advances the
// owner-flow machine. Operations hold no state of their own, so callers
// may run them concurrently; the store applies commits in arrival order.
package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smswire/smswire/internal/domain"
	"github.com/smswire/smswire/internal/state"
	"github.com/smswire/smswire/internal/status"
)

const (
	phoneListLimit     = 100
	heartbeatListLimit = 1
)

// Gateway is the remote API surface the engine drives. *gateway.Client
// implements it.
type Gateway interface {
	GetUser(ctx context.Context) (domain.User, error)
	UpdateActivePhone(ctx context.Context, phoneID string) (domain.User, error)
	ListPhones(ctx context.Context, limit int) ([]domain.Phone, error)
	ListThreads(ctx context.Context, owner string) ([]domain.MessageThread, error)
	ListMessages(ctx context.Context, owner, contact string) ([]domain.Message, error)
	SendMessage(ctx context.Context, req domain.MessageSendRequest) error
	ListHeartbeats(ctx context.Context, owner string, limit int) ([]domain.Heartbeat, error)
}

// Engine coordinates gateway calls and store commits.
type Engine struct {
	gw      Gateway
	store   *state.Store
	machine *status.Machine
	logger  *zap.Logger
}

// NewEngine creates a sync engine. The machine may be nil when no
// consumer cares about flow states.
func NewEngine(gw Gateway, st *state.Store, machine *status.Machine, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		gw:      gw,
		store:   st,
		machine: machine,
		logger:  logger,
	}
}

// SignIn resolves the remote identity and dispatches the sign-in cascade.
func (e *Engine) SignIn(ctx context.Context) error {
	user, err := e.gw.GetUser(ctx)
	if err != nil {
		return fmt.Errorf("resolve identity: %w", err)
	}
	return e.SetAuthUser(ctx, &domain.AuthUser{ID: user.ID, Email: user.Email})
}

// SetAuthUser records the authenticated identity. A change of identity
// cascades: the profile and phone list load concurrently, then the
// account's active phone, if registered, is selected as owner through
// SetOwner (persisting the selection). Re-dispatching the same account
// id or signing out (nil) skips the cascade.
func (e *Engine) SetAuthUser(ctx context.Context, user *domain.AuthUser) error {
	if sameIdentity(e.store.AuthUser(), user) {
		return nil
	}
	e.store.SetAuthUser(user)
	if user == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.LoadUser(gctx) })
	g.Go(func() error { return e.LoadPhones(gctx, false) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("sign-in cascade: %w", err)
	}

	// SetPhones may already have snapped the owner to the first phone.
	// When the account's configured active phone is among the loaded
	// phones it wins, and the selection runs through SetOwner so the
	// choice is persisted back to the profile. An unregistered active
	// phone keeps whatever SetPhones settled on.
	profile := e.store.User()
	if profile == nil {
		return nil
	}
	phone, ok := findPhoneByID(e.store.Phones(), profile.ActivePhoneID)
	if !ok {
		return nil
	}
	return e.SetOwner(ctx, phone.PhoneNumber)
}

// SetOwner selects the sending phone number and persists the choice as
// the account's active phone. The local selection commits before the
// network call so views react immediately; an owner with no matching
// registered phone skips persistence.
func (e *Engine) SetOwner(ctx context.Context, owner string) error {
	e.selectOwner(owner)

	phone, ok := e.store.ActivePhone()
	if !ok {
		return nil
	}
	user, err := e.gw.UpdateActivePhone(ctx, phone.ID)
	if err != nil {
		return fmt.Errorf("persist active phone: %w", err)
	}
	e.store.SetUser(&user)
	return nil
}

// LoadUser fetches the account profile.
func (e *Engine) LoadUser(ctx context.Context) error {
	user, err := e.gw.GetUser(ctx)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	e.store.SetUser(&user)
	return nil
}

// LoadPhones fetches the registered phones. The list rarely changes, so a
// non-empty cache short-circuits unless force is set. Concurrent forced
// loads each issue their own call; the store keeps whichever lands last.
func (e *Engine) LoadPhones(ctx context.Context, force bool) error {
	if !force && len(e.store.Phones()) > 0 {
		return nil
	}
	phones, err := e.gw.ListPhones(ctx, phoneListLimit)
	if err != nil {
		return fmt.Errorf("load phones: %w", err)
	}
	e.store.SetPhones(phones)
	return nil
}

// LoadThreads fetches the owner's conversations. With no owner selected
// the thread view empties without a remote call.
func (e *Engine) LoadThreads(ctx context.Context) error {
	owner := e.store.Owner()
	if owner == "" {
		e.store.SetThreads(nil)
		return nil
	}
	e.flowTo(status.Loading)
	threads, err := e.gw.ListThreads(ctx, owner)
	if err != nil {
		return fmt.Errorf("load threads: %w", err)
	}
	e.store.SetThreads(threads)
	e.settle()
	return nil
}

// OpenThread selects a thread and loads its messages, filtered by the
// thread's contact and owner. The selection commits before the lookup, so
// an id missing from the loaded list still leaves that id selected and
// surfaces ErrThreadNotFound to the caller.
func (e *Engine) OpenThread(ctx context.Context, threadID string) error {
	e.store.SetThreadID(threadID)
	thread, err := e.store.Thread()
	if err != nil {
		return err
	}
	e.flowTo(status.Loading)
	msgs, err := e.gw.ListMessages(ctx, thread.Owner, thread.Contact)
	if err != nil {
		return fmt.Errorf("load thread messages: %w", err)
	}
	e.store.SetThreadMessages(msgs)
	e.settle()
	return nil
}

// RefreshHeartbeat fetches the owner's most recent heartbeat, or clears
// it when the gateway has none.
func (e *Engine) RefreshHeartbeat(ctx context.Context) error {
	hbs, err := e.gw.ListHeartbeats(ctx, e.store.Owner(), heartbeatListLimit)
	if err != nil {
		return fmt.Errorf("refresh heartbeat: %w", err)
	}
	if len(hbs) == 0 {
		e.store.SetHeartbeat(nil)
		return nil
	}
	hb := hbs[0]
	e.store.SetHeartbeat(&hb)
	return nil
}

// SendMessage posts a new SMS. On acceptance it pushes a success
// notification and reloads the open thread's messages and the thread list
// concurrently, returning once both land. Field-level rejections are
// recovered into FieldErrors for inline display, except "from" messages,
// which become error notifications because the compose form has no from
// input to attach them to. Transport failures return a non-nil error.
func (e *Engine) SendMessage(ctx context.Context, req domain.MessageSendRequest) (*FieldErrors, error) {
	if err := e.gw.SendMessage(ctx, req); err != nil {
		if fieldErrs := e.recoverValidation(err); fieldErrs != nil {
			return fieldErrs, nil
		}
		return nil, fmt.Errorf("send message: %w", err)
	}

	e.store.Notify("Message sent", state.NotifySuccess)

	openID := e.store.ThreadID()
	g, gctx := errgroup.WithContext(ctx)
	if openID != "" {
		g.Go(func() error { return e.OpenThread(gctx, openID) })
	}
	g.Go(func() error { return e.LoadThreads(gctx) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nil, nil
}

// SetPolling toggles background refresh.
func (e *Engine) SetPolling(enabled bool) {
	e.store.SetPolling(enabled)
}

// selectOwner commits the owner locally and moves the flow machine.
func (e *Engine) selectOwner(owner string) {
	e.store.SetOwner(owner)
	if owner == "" {
		e.flowTo(status.NoOwner)
		return
	}
	e.flowTo(status.Stale)
}

func (e *Engine) flowTo(s status.State) {
	if e.machine == nil {
		return
	}
	if err := e.machine.Transition(s); err != nil {
		e.logger.Debug("flow transition rejected", zap.Error(err))
	}
}

// settle marks the flow READY once every renderable view has loaded: the
// thread list always, the open thread's messages when one is selected.
func (e *Engine) settle() {
	if e.store.ThreadsLoading() {
		return
	}
	if e.store.ThreadID() != "" && e.store.MessagesLoading() {
		return
	}
	e.flowTo(status.Ready)
}

func sameIdentity(a, b *domain.AuthUser) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

func findPhoneByID(phones []domain.Phone, id string) (domain.Phone, bool) {
	if id == "" {
		return domain.Phone{}, false
	}
	for _, p := range phones {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Phone{}, false
}
