package countdown

import (
	"fmt"
	"time"
)

// Unit is the amount of time a single tick removes from a running countdown.
const Unit = time.Second

// Type identifies which phase a countdown belongs to.
type Type uint8

const (
	Focus Type = iota + 1
	Rest
)

// Other returns the phase that follows t.
func (t Type) Other() Type {
	if t == Focus {
		return Rest
	}
	return Focus
}

func (t Type) String() string {
	switch t {
	case Focus:
		return "Focus"
	case Rest:
		return "Rest"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the defined phases.
func (t Type) Valid() bool {
	return t == Focus || t == Rest
}

// Message is a control command delivered to the engine.
type Message uint8

const (
	Start Message = iota + 1
	Stop
)

func (m Message) String() string {
	switch m {
	case Start:
		return "start"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("Message(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the defined messages.
func (m Message) Valid() bool {
	return m == Start || m == Stop
}

// State is one of Stopped, Started or Finished.
type State interface {
	isState()
}

// Stopped is an idle countdown. Remaining is zero for a period that has not
// been started yet and non-zero for a paused one.
type Stopped struct {
	Type      Type
	Remaining time.Duration
	Cycle     uint64
}

// Started is a countdown that loses one Unit per tick.
type Started struct {
	Type      Type
	Remaining time.Duration
	Cycle     uint64
}

// Finished marks the period of Type that just completed. It waits for Start.
type Finished struct {
	Type  Type
	Cycle uint64
}

func (Stopped) isState()  {}
func (Started) isState()  {}
func (Finished) isState() {}

// Initial returns the state the daemon starts in.
func Initial() State {
	return Stopped{Type: Focus, Remaining: 0, Cycle: 1}
}

// TypeOf returns the phase carried by s.
func TypeOf(s State) Type {
	switch st := s.(type) {
	case Stopped:
		return st.Type
	case Started:
		return st.Type
	case Finished:
		return st.Type
	default:
		return 0
	}
}

// CycleOf returns the cycle count carried by s.
func CycleOf(s State) uint64 {
	switch st := s.(type) {
	case Stopped:
		return st.Cycle
	case Started:
		return st.Cycle
	case Finished:
		return st.Cycle
	default:
		return 0
	}
}

// RemainingOf returns the remaining time of s; Finished states report zero.
func RemainingOf(s State) time.Duration {
	switch st := s.(type) {
	case Stopped:
		return st.Remaining
	case Started:
		return st.Remaining
	default:
		return 0
	}
}

// Label names the variant of s for logs and metrics.
func Label(s State) string {
	switch s.(type) {
	case Stopped:
		return "stopped"
	case Started:
		return "started"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}
