package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomo/internal/countdown"
	"pomo/internal/history"
	"pomo/internal/logging"
	"pomo/internal/testsupport"
	"pomo/internal/timer"
)

func TestOpenAppliesMigrationsIdempotently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg.HistoryPath())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := history.Open(cfg.HistoryPath())
	require.NoError(t, err)
	defer reopened.Close()

	periods, err := reopened.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestRecordAndListNewestFirst(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.Record(ctx, history.Period{
		Type: countdown.Focus, Cycle: 1, Planned: 25 * time.Minute,
		StartedAt: base, FinishedAt: base.Add(25 * time.Minute),
	})
	require.NoError(t, err)
	id, err := store.Record(ctx, history.Period{
		Type: countdown.Rest, Cycle: 2, Planned: 5 * time.Minute,
		FinishedAt: base.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	periods, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, id, periods[0].ID)
	assert.Equal(t, countdown.Rest, periods[0].Type)
	assert.True(t, periods[0].StartedAt.Equal(base.Add(25*time.Minute)), "missing start is derived from planned length")
	assert.Equal(t, countdown.Focus, periods[1].Type)
	assert.Equal(t, 25*time.Minute, periods[1].Planned)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecordRejectsInvalidPeriod(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	_, err := store.Record(ctx, history.Period{Type: 0, FinishedAt: time.Now()})
	assert.Error(t, err)
	_, err = store.Record(ctx, history.Period{Type: countdown.Focus})
	assert.Error(t, err)
}

func TestSummaryAndPrune(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	record := func(typ countdown.Type, planned time.Duration, finished time.Time) {
		t.Helper()
		_, err := store.Record(ctx, history.Period{Type: typ, Cycle: 1, Planned: planned, FinishedAt: finished})
		require.NoError(t, err)
	}
	record(countdown.Focus, 25*time.Minute, now.Add(-48*time.Hour))
	record(countdown.Focus, 25*time.Minute, now.Add(-2*time.Hour))
	record(countdown.Focus, 25*time.Minute, now.Add(-time.Hour))
	record(countdown.Rest, 5*time.Minute, now.Add(-30*time.Minute))

	summary, err := store.Summary(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FocusCount)
	assert.Equal(t, 50*time.Minute, summary.FocusTime)
	assert.Equal(t, 1, summary.RestCount)
	assert.Equal(t, 5*time.Minute, summary.RestTime)

	removed, err := store.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	periods, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, periods, 3)
}

type memoryWriter struct {
	periods []history.Period
	err     error
}

func (m *memoryWriter) Record(_ context.Context, p history.Period) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.periods = append(m.periods, p)
	return int64(len(m.periods)), nil
}

// drive replays a full run of the loop through the recorder.
func drive(t *testing.T, rec *history.Recorder, loop *timer.Loop, messages chan<- countdown.Message, start time.Time, ticks int, sends map[int]countdown.Message) {
	t.Helper()
	for i := 0; i < ticks; i++ {
		if msg, ok := sends[i]; ok {
			messages <- msg
		}
		evt := loop.Tick()
		evt.At = start.Add(time.Duration(i) * time.Second)
		rec.Handle(context.Background(), evt)
	}
}

func TestRecorderWritesCompletedPeriodsOnly(t *testing.T) {
	d := countdown.Durations{Focus: 3 * time.Second, ShortBreak: 2 * time.Second, LongBreak: 4 * time.Second, LongBreakAfter: 1}
	messages := make(chan countdown.Message, 4)
	loop := timer.NewLoop(countdown.Initial(), d, messages, timer.Options{})
	writer := &memoryWriter{}
	rec := history.NewRecorder(writer, logging.NewNop())
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Focus: start at tick 0, pause at tick 1 for two ticks, resume at 3.
	// Rest starts at tick 7; cycle 2 with LongBreakAfter=1 is a long break.
	drive(t, rec, loop, messages, start, 14, map[int]countdown.Message{
		0: countdown.Start,
		1: countdown.Stop,
		3: countdown.Start,
		7: countdown.Start,
	})

	require.Len(t, writer.periods, 2)
	focus := writer.periods[0]
	assert.Equal(t, countdown.Focus, focus.Type)
	assert.Equal(t, uint64(1), focus.Cycle)
	assert.Equal(t, 3*time.Second, focus.Planned)
	assert.True(t, focus.StartedAt.Equal(start), "resume keeps original start")
	assert.True(t, focus.FinishedAt.Equal(start.Add(5*time.Second)))

	rest := writer.periods[1]
	assert.Equal(t, countdown.Rest, rest.Type)
	assert.Equal(t, uint64(2), rest.Cycle)
	assert.True(t, rest.LongBreak)
	assert.Equal(t, 4*time.Second, rest.Planned)
}

func TestRecorderSurvivesStoreErrors(t *testing.T) {
	d := countdown.Durations{Focus: time.Second, ShortBreak: time.Second, LongBreak: time.Second, LongBreakAfter: 4}
	messages := make(chan countdown.Message, 1)
	loop := timer.NewLoop(countdown.Initial(), d, messages, timer.Options{})
	writer := &memoryWriter{err: errors.New("disk full")}
	rec := history.NewRecorder(writer, logging.NewNop())

	assert.NotPanics(t, func() {
		drive(t, rec, loop, messages, time.Now(), 4, map[int]countdown.Message{0: countdown.Start})
	})
	assert.Empty(t, writer.periods)
}
