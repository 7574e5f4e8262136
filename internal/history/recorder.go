package history

import (
	"context"
	"log/slog"
	"time"

	"pomo/internal/countdown"
	"pomo/internal/logging"
	"pomo/internal/timer"
)

// PeriodWriter persists completed periods. *Store implements it.
type PeriodWriter interface {
	Record(ctx context.Context, p Period) (int64, error)
}

// Recorder turns tick events into history rows.
type Recorder struct {
	store  PeriodWriter
	logger *slog.Logger

	open    bool
	current Period
}

// NewRecorder returns a Recorder writing to store.
func NewRecorder(store PeriodWriter, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logging.NewComponentLogger(logger, "history")}
}

// Run consumes events until the channel closes or ctx is canceled.
func (r *Recorder) Run(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			r.Handle(ctx, evt)
		}
	}
}

// Handle processes one event.
func (r *Recorder) Handle(ctx context.Context, evt timer.Event) {
	if evt.Started() {
		st := evt.Current.(countdown.Started)
		r.open = true
		r.current = Period{
			Type:      st.Type,
			Cycle:     st.Cycle,
			LongBreak: isLongBreak(st.Type, st.Cycle, evt.Durations),
			Planned:   evt.Durations.For(st.Type, st.Cycle),
			StartedAt: evt.At,
		}
	}

	finished, ok := evt.Finished()
	if !ok {
		return
	}

	cycle := finished.Cycle
	if finished.Type == countdown.Focus && cycle > 0 {
		cycle--
	}
	period := Period{
		Type:       finished.Type,
		Cycle:      cycle,
		LongBreak:  isLongBreak(finished.Type, cycle, evt.Durations),
		Planned:    evt.Durations.For(finished.Type, cycle),
		FinishedAt: evt.At,
	}
	if r.open && r.current.Type == finished.Type && r.current.Cycle == cycle {
		period.LongBreak = r.current.LongBreak
		period.Planned = r.current.Planned
		period.StartedAt = r.current.StartedAt
	}
	r.open = false
	if period.StartedAt.IsZero() {
		period.StartedAt = period.FinishedAt.Add(-period.Planned)
	}

	id, err := r.store.Record(ctx, period)
	if err != nil {
		logging.WarnWithContext(r.logger, "history write failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldType, period.Type.String()),
			logging.Uint64(logging.FieldCycle, period.Cycle),
			logging.String(logging.FieldImpact, "the finished period is missing from pomo history"),
			logging.String(logging.FieldErrorHint, "check the history database in the data directory"))
		return
	}
	r.logger.Info("period recorded",
		logging.String(logging.FieldEventType, "period_recorded"),
		logging.Int64("period_id", id),
		logging.String(logging.FieldType, period.Type.String()),
		logging.Uint64(logging.FieldCycle, period.Cycle),
		logging.Duration("planned", period.Planned),
		logging.Duration("elapsed", period.FinishedAt.Sub(period.StartedAt).Round(time.Second)),
	)
}

func isLongBreak(t countdown.Type, cycle uint64, d countdown.Durations) bool {
	return t == countdown.Rest && cycle%(d.LongBreakAfter+1) == 0
}
