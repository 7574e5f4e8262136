package notifications

import (
	"context"
	"log/slog"

	"pomo/internal/logging"
	"pomo/internal/timer"
)

// Notifier forwards finished periods from the tick loop to a Service.
type Notifier struct {
	svc    Service
	logger *slog.Logger
}

func NewNotifier(svc Service, logger *slog.Logger) *Notifier {
	return &Notifier{svc: svc, logger: logging.NewComponentLogger(logger, "notifications")}
}

// Run consumes events until the channel closes or ctx is canceled.
func (n *Notifier) Run(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			n.Handle(ctx, evt)
		}
	}
}

func (n *Notifier) Handle(ctx context.Context, evt timer.Event) {
	done, ok := evt.Finished()
	if !ok {
		return
	}
	if err := n.svc.NotifyPeriodFinished(ctx, done, evt.Durations); err != nil {
		logging.WarnWithContext(n.logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldType, done.Type.String()),
			logging.Uint64(logging.FieldCycle, done.Cycle),
			logging.String(logging.FieldImpact, "no push notification for this period"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"))
		return
	}
	n.logger.Debug("period notification sent",
		logging.String(logging.FieldType, done.Type.String()),
		logging.Uint64(logging.FieldCycle, done.Cycle))
}
