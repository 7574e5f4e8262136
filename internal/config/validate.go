package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTimer(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Metrics.FlushInterval < 0 {
		return errors.New("metrics.flush_interval must be positive")
	}
	return nil
}

func (c *Config) validateTimer() error {
	fields := []struct {
		name  string
		value int
	}{
		{"timer.focus_duration", c.Timer.FocusDuration},
		{"timer.short_break_duration", c.Timer.ShortBreakDuration},
		{"timer.long_break_duration", c.Timer.LongBreakDuration},
		{"timer.long_break_after", c.Timer.LongBreakAfter},
	}
	for _, field := range fields {
		if field.value <= 0 {
			return fmt.Errorf("%s must be a positive integer (got %d)", field.name, field.value)
		}
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Daemon.QueueCapacity < 0 {
		return errors.New("daemon.queue_capacity must be positive")
	}
	if c.Daemon.ReadTimeout < 0 {
		return errors.New("daemon.read_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}
