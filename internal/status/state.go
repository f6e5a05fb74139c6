// Package status tracks how settled the synced state is for the selected
// owner: whether an owner is chosen at all, whether its views are stale,
// mid-load, or fully loaded.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/smswire/smswire/internal/bus"
)

// State represents one phase of the owner-selection flow.
type State string

const (
	// NoOwner means no owner phone is selected; thread and message views
	// are not meaningful.
	NoOwner State = "NO_OWNER"
	// Stale means an owner is selected but its views still show data
	// from before the selection.
	Stale State = "STALE"
	// Loading means at least one view reload is in flight.
	Loading State = "LOADING"
	// Ready means every view the consumer can currently render is loaded.
	Ready State = "READY"
)

// validTransitions defines allowed state transitions. Same-state
// transitions are accepted everywhere and handled as no-ops.
var validTransitions = map[State][]State{
	NoOwner: {Stale},
	Stale:   {Loading, NoOwner},
	Loading: {Ready, Stale, NoOwner},
	Ready:   {Loading, Stale, NoOwner},
}

// Machine tracks and enforces owner-flow transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in NoOwner.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: NoOwner,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Moving to the current state
// is a no-op and publishes nothing. Returns an error if the transition is
// invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	if to == m.current {
		m.mu.Unlock()
		return nil
	}
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(bus.KindFlowChanged, Change{From: from, To: to})
	}
	return nil
}

// Change is the payload for flow change events.
type Change struct {
	From State
	To   State
}
