package countdown

import "time"

// Durations holds the period lengths used when a countdown is (re)started.
// LongBreakAfter controls how often a Rest period becomes a long break.
type Durations struct {
	Focus          time.Duration
	ShortBreak     time.Duration
	LongBreak      time.Duration
	LongBreakAfter uint64
}

// For returns the full length of a period of type t at the given cycle.
//
// Cycle counting starts at 1, so the modulus is LongBreakAfter+1: with
// LongBreakAfter=4 the Rest that follows the fourth Focus period (cycle 5)
// is the long one.
func (d Durations) For(t Type, cycle uint64) time.Duration {
	if t == Focus {
		return d.Focus
	}
	if cycle%(d.LongBreakAfter+1) == 0 {
		return d.LongBreak
	}
	return d.ShortBreak
}

// Advance moves s forward by one tick.
func Advance(s State) State {
	st, ok := s.(Started)
	if !ok {
		return s
	}
	if st.Remaining > 0 {
		st.Remaining -= Unit
		if st.Remaining < 0 {
			st.Remaining = 0
		}
		return st
	}
	cycle := st.Cycle
	if st.Type == Focus {
		cycle++
	}
	return Finished{Type: st.Type, Cycle: cycle}
}

// Apply returns the state that results from delivering msg to s. The boolean
// is false when the message has no effect in the current state.
func Apply(s State, msg Message, d Durations) (State, bool) {
	switch st := s.(type) {
	case Started:
		if msg != Stop {
			return s, false
		}
		return Stopped(st), true
	case Stopped:
		if msg != Start {
			return s, false
		}
		next := Started(st)
		if st.Remaining == 0 {
			next.Remaining = d.For(st.Type, st.Cycle)
		}
		return next, true
	case Finished:
		if msg != Start {
			return s, false
		}
		t := st.Type.Other()
		return Started{Type: t, Remaining: d.For(t, st.Cycle), Cycle: st.Cycle}, true
	default:
		return s, false
	}
}

// Fold applies msgs to s in order, skipping the ones Apply ignores.
func Fold(s State, d Durations, msgs ...Message) State {
	for _, msg := range msgs {
		if next, ok := Apply(s, msg, d); ok {
			s = next
		}
	}
	return s
}
