package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pomo/internal/config"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	unsetEnv(t, "POMO_NTFY_TOPIC")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "pomo", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "pomo"); cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, want)
	}
	if cfg.LogDir() != filepath.Join(cfg.Paths.DataDir, "logs") {
		t.Fatalf("unexpected log dir %q", cfg.LogDir())
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected notifications disabled by default, got %q", cfg.Notifications.NtfyTopic)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
}

func TestDefaultDurationsMatchClassicPomodoro(t *testing.T) {
	cfg := config.Default()
	d := cfg.Durations()
	if d.Focus != 25*time.Minute || d.ShortBreak != 5*time.Minute || d.LongBreak != 25*time.Minute {
		t.Fatalf("unexpected durations %+v", d)
	}
	if d.LongBreakAfter != 4 {
		t.Fatalf("LongBreakAfter = %d, want 4", d.LongBreakAfter)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, "POMO_NTFY_TOPIC")
	path := writeConfig(t, dir, `
[timer]
focus_duration = 50
short_break_duration = 10
long_break_duration = 30
long_break_after = 2

[paths]
data_dir = "`+filepath.Join(dir, "data")+`"

[logging]
format = " JSON "
level = "Debug"

[daemon]
queue_capacity = 16
read_timeout = 1
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to resolve, got %q exists=%v", resolved, exists)
	}
	d := cfg.Durations()
	if d.Focus != 50*time.Minute || d.ShortBreak != 10*time.Minute || d.LongBreak != 30*time.Minute || d.LongBreakAfter != 2 {
		t.Fatalf("unexpected durations %+v", d)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	if cfg.Daemon.QueueCapacity != 16 || cfg.ReadTimeout() != time.Second {
		t.Fatalf("daemon section not applied: %+v", cfg.Daemon)
	}
	if cfg.Metrics.FlushInterval != 15 {
		t.Fatalf("expected default flush interval, got %d", cfg.Metrics.FlushInterval)
	}
	if cfg.HistoryPath() != filepath.Join(dir, "data", "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
}

func TestLoadRejectsInvalidTimer(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[timer]\nfocus_duration = 0\n")

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "timer.focus_duration") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[timer\nfocus_duration = 25\n")

	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[logging]\nformat = \"xml\"\n")

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected logging.format error")
	}
}

func TestLoadReadsEnvFileBesideConfig(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, "POMO_NTFY_TOPIC")
	path := writeConfig(t, dir, "[paths]\ndata_dir = \""+filepath.Join(dir, "data")+"\"\n")
	if err := os.WriteFile(filepath.Join(dir, config.EnvFileName), []byte("POMO_NTFY_TOPIC=from-env-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "from-env-file" {
		t.Fatalf("expected topic from env file, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestConfigTopicWinsOverEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POMO_NTFY_TOPIC", "from-env")
	path := writeConfig(t, dir, "[notifications]\nntfy_topic = \"from-file\"\n[paths]\ndata_dir = \""+filepath.Join(dir, "data")+"\"\n")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "from-file" {
		t.Fatalf("expected config topic, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	unsetEnv(t, "POMO_NTFY_TOPIC")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed map[string]any
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	def := config.Default()
	if cfg.Durations() != def.Durations() {
		t.Fatalf("sample durations %+v differ from defaults %+v", cfg.Durations(), def.Durations())
	}
}

func TestEncodeRoundTripsThroughTOML(t *testing.T) {
	cfg := config.Default()
	cfg.Timer.FocusDuration = 45
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Timer.FocusDuration != 45 {
		t.Fatalf("focus_duration = %d, want 45", decoded.Timer.FocusDuration)
	}
}

func TestExpandPathHandlesTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	got, err := config.ExpandPath("~/pomo")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(tempHome, "pomo") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
