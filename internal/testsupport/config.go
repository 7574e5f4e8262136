package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"pomo/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp data directory per
// test. Notifications and the metrics export stay disabled unless an option
// enables them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Metrics.Textfile = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTimer overrides the period lengths in minutes.
func WithTimer(focus, shortBreak, longBreak, longBreakAfter int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Timer = config.Timer{
			FocusDuration:      focus,
			ShortBreakDuration: shortBreak,
			LongBreakDuration:  longBreak,
			LongBreakAfter:     longBreakAfter,
		}
	}
}

// WithNtfyTopic enables notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
		b.cfg.Notifications.RequestTimeout = 2
	}
}

// WithMetricsTextfile enables the textfile export under the test directory.
func WithMetricsTextfile(flush time.Duration) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "pomo.prom")
		b.cfg.Metrics.FlushInterval = int(flush / time.Second)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// RuntimePaths returns socket, lock and state paths inside the test
// directory of cfg.
func RuntimePaths(cfg *config.Config) (socket, lock, state string) {
	base := BaseDir(cfg)
	return filepath.Join(base, "pomo.sock"), filepath.Join(base, "pomo.lock"), filepath.Join(base, "pomo.state")
}
