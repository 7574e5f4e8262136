// Package metrics exposes daemon counters and gauges on a private prometheus
// registry and flushes them to a node-exporter textfile.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"pomo/internal/countdown"
	"pomo/internal/logging"
	"pomo/internal/timer"
)

const namespace = "pomo"

// Collector tracks countdown activity. It satisfies ipc.Observer.
type Collector struct {
	registry *prometheus.Registry

	messages  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	ignored   *prometheus.CounterVec
	finished  *prometheus.CounterVec
	state     *prometheus.GaugeVec
	remaining prometheus.Gauge
	cycle     prometheus.Gauge
	ticks     prometheus.Counter

	logger *slog.Logger
}

// NewCollector registers every metric on a fresh registry.
func NewCollector(logger *slog.Logger) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages decoded from client connections.",
		}, []string{"message"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_rejected_total",
			Help:      "Client connections dropped without a valid message.",
		}, []string{"reason"}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_ignored_total",
			Help:      "Messages that had no effect on the countdown state.",
		}, []string{"message"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "periods_finished_total",
			Help:      "Countdown periods that ran down to zero.",
		}, []string{"type"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current countdown variant (1 for the active one).",
		}, []string{"state"}),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remaining_seconds",
			Help:      "Seconds left in the current period.",
		}),
		cycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle",
			Help:      "Current cycle number.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Tick events observed.",
		}),
		logger: logging.NewComponentLogger(logger, "metrics"),
	}
	c.registry.MustRegister(c.messages, c.rejected, c.ignored, c.finished, c.state, c.remaining, c.cycle, c.ticks)
	return c
}

// Registry returns the private registry backing c.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// TrackDropped exports a loop's dropped-event counter.
func (c *Collector) TrackDropped(dropped func() uint64) error {
	fn := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Tick events a slow subscriber missed.",
	}, func() float64 { return float64(dropped()) })
	if err := c.registry.Register(fn); err != nil {
		return fmt.Errorf("register dropped counter: %w", err)
	}
	return nil
}

func (c *Collector) RecordMessage(msg countdown.Message) {
	c.messages.WithLabelValues(msg.String()).Inc()
}

func (c *Collector) RecordRejected(reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}

// Run consumes events until the channel closes or ctx is canceled.
func (c *Collector) Run(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			c.Handle(evt)
		}
	}
}

// Handle folds one tick event into the gauges.
func (c *Collector) Handle(evt timer.Event) {
	if !evt.Initial() {
		c.ticks.Inc()
	}
	for _, msg := range evt.Ignored {
		c.ignored.WithLabelValues(msg.String()).Inc()
	}
	if done, ok := evt.Finished(); ok {
		c.finished.WithLabelValues(strings.ToLower(done.Type.String())).Inc()
	}

	current := countdown.Label(evt.Current)
	for _, label := range []string{"stopped", "started", "finished"} {
		value := 0.0
		if label == current {
			value = 1
		}
		c.state.WithLabelValues(label).Set(value)
	}
	c.remaining.Set(countdown.RemainingOf(evt.Current).Seconds())
	c.cycle.Set(float64(countdown.CycleOf(evt.Current)))
}

// WriteTextfile writes the registry in text exposition format. The write is
// atomic, so a collector never reads a partial file.
func (c *Collector) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Flush writes the textfile and logs failures instead of returning them.
func (c *Collector) Flush(path string) {
	if err := c.WriteTextfile(path); err != nil {
		logging.WarnWithContext(c.logger, "metrics flush failed", "metrics_flush_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "textfile collector serves stale values"),
			logging.String(logging.FieldErrorHint, "check metrics.textfile directory permissions"))
	}
}
