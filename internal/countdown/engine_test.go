package countdown_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomo/internal/countdown"
)

func classicDurations() countdown.Durations {
	return countdown.Durations{
		Focus:          25 * time.Minute,
		ShortBreak:     5 * time.Minute,
		LongBreak:      25 * time.Minute,
		LongBreakAfter: 4,
	}
}

func shortDurations() countdown.Durations {
	return countdown.Durations{
		Focus:          5 * time.Second,
		ShortBreak:     2 * time.Second,
		LongBreak:      4 * time.Second,
		LongBreakAfter: 2,
	}
}

func TestInitialState(t *testing.T) {
	assert.Equal(t, countdown.Stopped{Type: countdown.Focus, Remaining: 0, Cycle: 1}, countdown.Initial())
}

func TestDurationsForRestUsesLongBreakOnMultiplesOfCycleWindow(t *testing.T) {
	d := classicDurations()

	assert.Equal(t, 5*time.Minute, d.For(countdown.Rest, 1), "1 mod 5 != 0 is short")
	assert.Equal(t, 25*time.Minute, d.For(countdown.Rest, 5), "5 mod 5 == 0 is long")
	assert.Equal(t, 5*time.Minute, d.For(countdown.Rest, 6))
	assert.Equal(t, 25*time.Minute, d.For(countdown.Rest, 10))
	assert.Equal(t, 25*time.Minute, d.For(countdown.Focus, 5), "focus ignores cycle")
}

func TestApplyTransitionTable(t *testing.T) {
	d := classicDurations()
	tests := []struct {
		name    string
		state   countdown.State
		msg     countdown.Message
		want    countdown.State
		applied bool
	}{
		{
			name:  "start on started is ignored",
			state: countdown.Started{Type: countdown.Focus, Remaining: time.Minute, Cycle: 2},
			msg:   countdown.Start,
			want:  countdown.Started{Type: countdown.Focus, Remaining: time.Minute, Cycle: 2},
		},
		{
			name:    "stop on started pauses",
			state:   countdown.Started{Type: countdown.Rest, Remaining: 42 * time.Second, Cycle: 3},
			msg:     countdown.Stop,
			want:    countdown.Stopped{Type: countdown.Rest, Remaining: 42 * time.Second, Cycle: 3},
			applied: true,
		},
		{
			name:    "start on fresh stopped computes duration",
			state:   countdown.Stopped{Type: countdown.Focus, Remaining: 0, Cycle: 1},
			msg:     countdown.Start,
			want:    countdown.Started{Type: countdown.Focus, Remaining: 25 * time.Minute, Cycle: 1},
			applied: true,
		},
		{
			name:    "start on paused stopped resumes",
			state:   countdown.Stopped{Type: countdown.Focus, Remaining: 90 * time.Second, Cycle: 1},
			msg:     countdown.Start,
			want:    countdown.Started{Type: countdown.Focus, Remaining: 90 * time.Second, Cycle: 1},
			applied: true,
		},
		{
			name:  "stop on stopped is ignored",
			state: countdown.Stopped{Type: countdown.Rest, Remaining: time.Second, Cycle: 4},
			msg:   countdown.Stop,
			want:  countdown.Stopped{Type: countdown.Rest, Remaining: time.Second, Cycle: 4},
		},
		{
			name:    "start on finished focus flips to rest",
			state:   countdown.Finished{Type: countdown.Focus, Cycle: 5},
			msg:     countdown.Start,
			want:    countdown.Started{Type: countdown.Rest, Remaining: 25 * time.Minute, Cycle: 5},
			applied: true,
		},
		{
			name:    "start on finished rest flips to focus",
			state:   countdown.Finished{Type: countdown.Rest, Cycle: 2},
			msg:     countdown.Start,
			want:    countdown.Started{Type: countdown.Focus, Remaining: 25 * time.Minute, Cycle: 2},
			applied: true,
		},
		{
			name:  "stop on finished is ignored",
			state: countdown.Finished{Type: countdown.Rest, Cycle: 2},
			msg:   countdown.Stop,
			want:  countdown.Finished{Type: countdown.Rest, Cycle: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := countdown.Apply(tt.state, tt.msg, d)
			assert.Equal(t, tt.applied, applied)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdvanceIsIdentityWhenNotStarted(t *testing.T) {
	for _, s := range []countdown.State{
		countdown.Initial(),
		countdown.Stopped{Type: countdown.Rest, Remaining: 3 * time.Second, Cycle: 7},
		countdown.Finished{Type: countdown.Focus, Cycle: 2},
		countdown.Finished{Type: countdown.Rest, Cycle: 9},
	} {
		assert.Equal(t, s, countdown.Advance(s))
	}
}

func TestAdvanceFinishesRestWithoutCounting(t *testing.T) {
	got := countdown.Advance(countdown.Started{Type: countdown.Rest, Remaining: 0, Cycle: 3})
	assert.Equal(t, countdown.Finished{Type: countdown.Rest, Cycle: 3}, got)
}

func TestFocusPeriodRunsDownAndCountsCycle(t *testing.T) {
	d := shortDurations()
	s, ok := countdown.Apply(countdown.Initial(), countdown.Start, d)
	require.True(t, ok)

	ticks := int(d.Focus / countdown.Unit)
	for i := 0; i < ticks; i++ {
		s = countdown.Advance(s)
	}
	require.Equal(t, countdown.Started{Type: countdown.Focus, Remaining: 0, Cycle: 1}, s,
		"remaining reaches zero after focus_duration ticks")

	s = countdown.Advance(s)
	assert.Equal(t, countdown.Finished{Type: countdown.Focus, Cycle: 2}, s)
}

func runToFinish(t *testing.T, s countdown.State) countdown.State {
	t.Helper()
	for i := 0; i < 10_000; i++ {
		if _, done := s.(countdown.Finished); done {
			return s
		}
		s = countdown.Advance(s)
	}
	t.Fatalf("countdown never finished: %#v", s)
	return nil
}

func TestFullCyclesCountFocusPeriodsAndPickLongBreaks(t *testing.T) {
	d := shortDurations()
	s := countdown.Initial()

	const cycles = 9
	for k := 1; k <= cycles; k++ {
		s = countdown.Fold(s, d, countdown.Start)
		require.Equal(t, countdown.Focus, countdown.TypeOf(s))
		s = runToFinish(t, s)
		require.Equal(t, uint64(k+1), countdown.CycleOf(s))

		s = countdown.Fold(s, d, countdown.Start)
		require.Equal(t, countdown.Rest, countdown.TypeOf(s))
		// The k-th rest period runs at cycle k+1.
		long := uint64(k+1)%(d.LongBreakAfter+1) == 0
		want := d.ShortBreak
		if long {
			want = d.LongBreak
		}
		require.Equal(t, want, countdown.RemainingOf(s), "rest %d", k)
		s = runToFinish(t, s)
		require.Equal(t, uint64(k+1), countdown.CycleOf(s), "rest must not count")
	}
	assert.Equal(t, uint64(cycles+1), countdown.CycleOf(s))
}

func TestPauseResumeKeepsRemainingTime(t *testing.T) {
	d := shortDurations()
	s := countdown.Fold(countdown.Initial(), d, countdown.Start)
	s = countdown.Advance(countdown.Advance(s))
	before := countdown.RemainingOf(s)

	s = countdown.Fold(s, d, countdown.Stop)
	require.IsType(t, countdown.Stopped{}, s)
	for i := 0; i < 5; i++ {
		s = countdown.Advance(s)
	}
	require.Equal(t, before, countdown.RemainingOf(s))

	s = countdown.Fold(s, d, countdown.Start)
	require.IsType(t, countdown.Started{}, s)
	assert.Equal(t, before, countdown.RemainingOf(s), "resume must not recompute the duration")
}

func TestFoldIgnoresSecondStart(t *testing.T) {
	d := classicDurations()
	once := countdown.Fold(countdown.Initial(), d, countdown.Start)
	twice := countdown.Fold(countdown.Initial(), d, countdown.Start, countdown.Start)
	assert.Equal(t, once, twice)
}

func TestRandomSequencesKeepInvariants(t *testing.T) {
	d := shortDurations()
	rng := rand.New(rand.NewPCG(7, 11))

	for run := 0; run < 200; run++ {
		s := countdown.Initial()
		for step := 0; step < 400; step++ {
			prev := s
			if rng.IntN(3) == 0 {
				msg := countdown.Start
				if rng.IntN(2) == 0 {
					msg = countdown.Stop
				}
				s, _ = countdown.Apply(s, msg, d)
			} else {
				s = countdown.Advance(s)
			}

			require.GreaterOrEqual(t, countdown.RemainingOf(s), time.Duration(0))
			require.GreaterOrEqual(t, countdown.CycleOf(s), countdown.CycleOf(prev), "cycle never decreases")

			if countdown.TypeOf(s) != countdown.TypeOf(prev) {
				_, wasFinished := prev.(countdown.Finished)
				_, nowStarted := s.(countdown.Started)
				require.True(t, wasFinished && nowStarted, "type changed outside Finished->Started: %#v -> %#v", prev, s)
			}
			if countdown.CycleOf(s) != countdown.CycleOf(prev) {
				_, wasStarted := prev.(countdown.Started)
				_, nowFinished := s.(countdown.Finished)
				require.True(t, wasStarted && nowFinished && countdown.TypeOf(prev) == countdown.Focus,
					"cycle changed outside focus completion: %#v -> %#v", prev, s)
				require.Equal(t, countdown.CycleOf(prev)+1, countdown.CycleOf(s))
			}
		}
	}
}
