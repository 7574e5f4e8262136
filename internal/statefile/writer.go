package statefile

import (
	"context"
	"log/slog"

	"pomo/internal/logging"
	"pomo/internal/timer"
)

// Writer persists every tick event it receives.
type Writer struct {
	path   string
	logger *slog.Logger
	failed bool
}

// NewWriter returns a Writer targeting path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logging.NewComponentLogger(logger, "statefile")}
}

// Run consumes events until the channel closes or ctx is canceled.
func (w *Writer) Run(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			w.Handle(evt)
		}
	}
}

// Handle writes a single event. Failures are logged once until a write
// succeeds again.
func (w *Writer) Handle(evt timer.Event) {
	err := Write(w.path, Snapshot{State: evt.Current, WrittenAt: evt.At})
	if err == nil {
		if w.failed {
			w.logger.Info("state file writable again",
				logging.String("path", w.path),
				logging.String(logging.FieldEventType, "state_write_recovered"))
		}
		w.failed = false
		return
	}
	if w.failed {
		return
	}
	w.failed = true
	logging.WarnWithContext(w.logger, "state file write failed", "state_write_failed",
		logging.String("path", w.path),
		logging.Error(err),
		logging.String(logging.FieldImpact, "pomo status shows a stale countdown"),
		logging.String(logging.FieldErrorHint, "check permissions on the --state directory"))
}
