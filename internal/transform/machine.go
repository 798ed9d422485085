// Package transform owns the two-state transformation flag and decides when a
// transform event fires from the raw gesture stream.
package transform

import (
	"github.com/ayusman/kaishou/internal/gesture"
)

// State is the presentation state driven by the machine.
type State int

const (
	// Dormant is the idle "closed" presentation.
	Dormant State = iota
	// Transformed is the triggered "open" presentation.
	Transformed
)

func (s State) String() string {
	if s == Transformed {
		return "TRANSFORMED"
	}
	return "DORMANT"
}

// GestureState is the smoothed gesture signal. It never carries an unknown value.
type GestureState int

const (
	GestureFist GestureState = iota
	GestureOpen
)

func (g GestureState) String() string {
	if g == GestureOpen {
		return "OPEN"
	}
	return "FIST"
}

// Event is a state transition notification.
type Event int

const (
	// EnterTransformed fires on Dormant -> Transformed.
	EnterTransformed Event = iota + 1
	// ExitTransformed fires on Transformed -> Dormant.
	ExitTransformed
)

func (e Event) String() string {
	switch e {
	case EnterTransformed:
		return "ENTER_TRANSFORMED"
	case ExitTransformed:
		return "EXIT_TRANSFORMED"
	default:
		return "NONE"
	}
}

// Snapshot is the externally observable machine state.
type Snapshot struct {
	State   State
	Gesture GestureState
}

// Transformed reports whether the snapshot is in the transformed presentation.
func (s Snapshot) Transformed() bool {
	return s.State == Transformed
}

// Machine applies hysteresis to the raw gesture stream: a state change needs
// the opposite stable label, and unknown frames are absorbed.
//
// A Machine is not safe for concurrent use. It is owned by the frame loop.
type Machine struct {
	state     State
	gesture   GestureState
	observers []*observer
}

type observer struct {
	fn func(Event, Snapshot)
}

// NewMachine returns a Machine in the Dormant state with a FIST gesture signal.
func NewMachine() *Machine {
	return &Machine{state: Dormant, gesture: GestureFist}
}

// OnRawGesture feeds one raw label into the machine and returns the fired
// event, if any.
func (m *Machine) OnRawGesture(raw gesture.Raw) (Event, bool) {
	switch raw {
	case gesture.RawOpen:
		m.gesture = GestureOpen
		if m.state == Dormant {
			m.state = Transformed
			m.notify(EnterTransformed)
			return EnterTransformed, true
		}
	case gesture.RawFist:
		m.gesture = GestureFist
		if m.state == Transformed {
			m.state = Dormant
			m.notify(ExitTransformed)
			return ExitTransformed, true
		}
	}
	return 0, false
}

// State returns the current presentation state.
func (m *Machine) State() State {
	return m.state
}

// Gesture returns the last stable gesture signal.
func (m *Machine) Gesture() GestureState {
	return m.gesture
}

// Transformed is the transformation flag.
func (m *Machine) Transformed() bool {
	return m.state == Transformed
}

// Snapshot returns the current observable state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{State: m.state, Gesture: m.gesture}
}

// Subscribe registers fn to be called synchronously, in order, for every
// transition. The returned func removes the subscription.
func (m *Machine) Subscribe(fn func(Event, Snapshot)) (unsubscribe func()) {
	o := &observer{fn: fn}
	m.observers = append(m.observers, o)
	return func() {
		for i, cur := range m.observers {
			if cur == o {
				m.observers = append(m.observers[:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

// notify calls the observers registered when the transition happened. An
// observer removed during notification still sees the current event.
func (m *Machine) notify(ev Event) {
	snap := m.Snapshot()
	observers := make([]*observer, len(m.observers))
	copy(observers, m.observers)
	for _, o := range observers {
		o.fn(ev, snap)
	}
}
