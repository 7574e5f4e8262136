package timer

import (
	"time"

	"pomo/internal/countdown"
)

// Event describes one step of the loop. Previous is nil for the event
// published at startup.
type Event struct {
	At        time.Time
	Previous  countdown.State
	Current   countdown.State
	Applied   []countdown.Message
	Ignored   []countdown.Message
	Durations countdown.Durations
}

// Initial reports whether e is the startup snapshot.
func (e Event) Initial() bool {
	return e.Previous == nil
}

// Finished returns the completed period when this step moved a running
// countdown to Finished.
func (e Event) Finished() (countdown.Finished, bool) {
	done, ok := e.Current.(countdown.Finished)
	if !ok {
		return countdown.Finished{}, false
	}
	if _, wasRunning := e.Previous.(countdown.Started); !wasRunning {
		return countdown.Finished{}, false
	}
	return done, true
}

// Started reports whether this step began a fresh period, as opposed to
// resuming a paused one.
func (e Event) Started() bool {
	if _, running := e.Current.(countdown.Started); !running {
		return false
	}
	switch prev := e.Previous.(type) {
	case countdown.Finished:
		return true
	case countdown.Stopped:
		return prev.Remaining == 0
	default:
		return false
	}
}

// Changed reports whether the step altered anything beyond the remaining
// time of a running countdown.
func (e Event) Changed() bool {
	if e.Previous == nil {
		return true
	}
	return countdown.Label(e.Previous) != countdown.Label(e.Current) ||
		countdown.TypeOf(e.Previous) != countdown.TypeOf(e.Current) ||
		countdown.CycleOf(e.Previous) != countdown.CycleOf(e.Current)
}
