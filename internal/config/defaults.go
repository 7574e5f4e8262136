package config

const (
	defaultConfigPath           = "~/.config/pomo/config.toml"
	defaultFocusMinutes         = 25
	defaultShortBreakMinutes    = 5
	defaultLongBreakMinutes     = 25
	defaultLongBreakAfter       = 4
	defaultDataDir              = "~/.local/share/pomo"
	defaultQueueCapacity        = 128
	defaultReadTimeoutSeconds   = 5
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultHistoryRetentionDays = 365
	defaultNotifyTimeoutSeconds = 10
	defaultMetricsFlushSeconds  = 15
	ntfyTopicEnv                = "POMO_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Timer: Timer{
			FocusDuration:      defaultFocusMinutes,
			ShortBreakDuration: defaultShortBreakMinutes,
			LongBreakDuration:  defaultLongBreakMinutes,
			LongBreakAfter:     defaultLongBreakAfter,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Daemon: Daemon{
			QueueCapacity: defaultQueueCapacity,
			ReadTimeout:   defaultReadTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeoutSeconds,
			FocusFinished:  true,
			RestFinished:   true,
		},
		Metrics: Metrics{
			FlushInterval: defaultMetricsFlushSeconds,
		},
	}
}
