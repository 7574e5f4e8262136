// Package timer drives the countdown engine once per tick and fans the
// resulting events out to subscribers.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pomo/internal/countdown"
	"pomo/internal/logging"
)

// DefaultInterval is the wall-clock length of one tick.
const DefaultInterval = time.Second

// Options configure a Loop.
type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
	// Now replaces time.Now for event timestamps.
	Now func() time.Time
}

// Loop owns the engine state. Only the goroutine running Run mutates it.
type Loop struct {
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	messages <-chan countdown.Message

	mu        sync.Mutex
	state     countdown.State
	durations countdown.Durations
	pending   *countdown.Durations
	subs      []chan Event
	closed    bool

	dropped atomic.Uint64
}

// NewLoop prepares a loop that starts from initial and reads control
// messages from messages.
func NewLoop(initial countdown.State, durations countdown.Durations, messages <-chan countdown.Message, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if initial == nil {
		initial = countdown.Initial()
	}
	return &Loop{
		interval:  opts.Interval,
		logger:    logging.NewComponentLogger(opts.Logger, "timer"),
		now:       opts.Now,
		messages:  messages,
		state:     initial,
		durations: durations,
	}
}

// Subscribe registers an observer channel. Events that do not fit in the
// buffer are dropped for that subscriber only. The channel is closed when
// Run returns.
func (l *Loop) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		close(ch)
		return ch
	}
	l.subs = append(l.subs, ch)
	return ch
}

// Reload replaces the durations used for periods computed after the next
// tick. Remaining time of the current period is untouched.
func (l *Loop) Reload(d countdown.Durations) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = &d
}

// Current returns the most recent state.
func (l *Loop) Current() countdown.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Durations returns the durations currently in effect.
func (l *Loop) Durations() countdown.Durations {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.durations
}

// Dropped returns how many events were discarded because a subscriber was
// not keeping up.
func (l *Loop) Dropped() uint64 {
	return l.dropped.Load()
}

// Run publishes the initial state and then ticks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.closeSubscribers()

	l.mu.Lock()
	initial := Event{At: l.now(), Current: l.state, Durations: l.durations}
	l.mu.Unlock()
	l.publish(initial)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("tick loop stopped", logging.String(logging.FieldState, countdown.Label(l.Current())))
			return nil
		case <-ticker.C:
			l.publish(l.Tick())
		}
	}
}

// Tick performs one step: every queued message is applied in arrival
// order, then the state advances by one unit. Run calls it on each tick;
// it is exported so callers driving the loop manually can step it.
func (l *Loop) Tick() Event {
	l.mu.Lock()
	if l.pending != nil {
		l.durations = *l.pending
		l.pending = nil
		l.logger.Info("timer durations reloaded",
			logging.String(logging.FieldEventType, "durations_reloaded"),
			logging.Duration("focus", l.durations.Focus),
			logging.Duration("short_break", l.durations.ShortBreak),
			logging.Duration("long_break", l.durations.LongBreak),
			logging.Uint64("long_break_after", l.durations.LongBreakAfter),
		)
	}
	prev := l.state
	d := l.durations
	l.mu.Unlock()

	evt := Event{At: l.now(), Previous: prev, Durations: d}
	state := prev
	for drained := false; !drained; {
		select {
		case msg, ok := <-l.messages:
			if !ok {
				drained = true
				break
			}
			next, applied := countdown.Apply(state, msg, d)
			if applied {
				state = next
				evt.Applied = append(evt.Applied, msg)
			} else {
				evt.Ignored = append(evt.Ignored, msg)
			}
		default:
			drained = true
		}
	}
	state = countdown.Advance(state)
	evt.Current = state

	l.mu.Lock()
	l.state = state
	l.mu.Unlock()

	if evt.Changed() {
		l.logger.Debug("countdown transition",
			logging.String(logging.FieldEventType, "countdown_transition"),
			logging.String("from", countdown.Label(prev)),
			logging.String(logging.FieldState, countdown.Label(state)),
			logging.String(logging.FieldType, countdown.TypeOf(state).String()),
			logging.Uint64(logging.FieldCycle, countdown.CycleOf(state)),
		)
	}
	for _, msg := range evt.Ignored {
		l.logger.Debug("message ignored",
			logging.String("message", msg.String()),
			logging.String(logging.FieldState, countdown.Label(prev)))
	}
	return evt
}

func (l *Loop) publish(evt Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- evt:
		default:
			l.dropped.Add(1)
			l.logger.Debug("subscriber lagging; event dropped",
				logging.String(logging.FieldEventType, "event_dropped"))
		}
	}
}

func (l *Loop) closeSubscribers() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for _, ch := range l.subs {
		close(ch)
	}
	l.subs = nil
}
