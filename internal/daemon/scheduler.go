package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"pomo/internal/logging"
)

// Housekeeping runs periodic maintenance tasks next to the tick loop.
type Housekeeping struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewHousekeeping creates a stopped scheduler.
func NewHousekeeping(logger *slog.Logger) (*Housekeeping, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Housekeeping{scheduler: s, logger: logging.NewComponentLogger(logger, "housekeeping")}, nil
}

// Every registers task to run at interval. Runs never overlap; a task still
// busy when the next run is due skips that run.
func (h *Housekeeping) Every(name string, interval time.Duration, immediately bool, task func()) error {
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	if _, err := h.scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(task), opts...); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	h.logger.Debug("housekeeping job scheduled",
		logging.String("job", name),
		logging.Duration("interval", interval))
	return nil
}

func (h *Housekeeping) Start() {
	h.scheduler.Start()
}

// Stop waits for running tasks and shuts the scheduler down.
func (h *Housekeeping) Stop() error {
	if err := h.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}
