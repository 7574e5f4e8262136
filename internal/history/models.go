package history

import (
	"time"

	"pomo/internal/countdown"
)

// Period is one completed countdown.
type Period struct {
	ID         int64
	Type       countdown.Type
	Cycle      uint64
	LongBreak  bool
	Planned    time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary aggregates periods finished within a window.
type Summary struct {
	Since      time.Time
	FocusCount int
	FocusTime  time.Duration
	RestCount  int
	RestTime   time.Duration
}

func kindOf(t countdown.Type) string {
	if t == countdown.Rest {
		return "rest"
	}
	return "focus"
}

func typeOf(kind string) countdown.Type {
	if kind == "rest" {
		return countdown.Rest
	}
	return countdown.Focus
}
