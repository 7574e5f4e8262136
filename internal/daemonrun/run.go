// Package daemonrun assembles a daemon process: signal handling, per-run
// logs, the instance guard and the config.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"pomo/internal/config"
	"pomo/internal/daemon"
	"pomo/internal/fileutil"
	"pomo/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	ConfigPath string
	// ConfigExplicit makes a missing config file fatal.
	ConfigExplicit bool
	Paths          daemon.Paths
	// LogLevel overrides logging.level and pins it across reloads.
	LogLevel    string
	Development bool
	Build       string
	// TickInterval is for tests; zero means one second.
	TickInterval time.Duration
}

// Run starts the pomo daemon and blocks until SIGINT, SIGTERM or cmdCtx
// cancellation.
func Run(cmdCtx context.Context, opts Options) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	guard, err := daemon.AcquireGuard(opts.Paths.Lock)
	if err != nil {
		return err
	}
	defer guard.Release()

	cfg, configPath, exists, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ConfigExplicit && !exists {
		return fmt.Errorf("config file %s not found (run pomo config init)", configPath)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := uuid.NewString()
	stamp := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.LogDir(), fmt.Sprintf("pomo-%s.log", stamp))

	level := cfg.Logging.Level
	pinned := strings.TrimSpace(opts.LogLevel) != ""
	if pinned {
		level = opts.LogLevel
	}
	levelVar := new(slog.LevelVar)
	logger, err := newLogger(cfg, level, logPath, levelVar, opts.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	if err := ensureCurrentLogPointer(cfg.CurrentLogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update pomo.log link: %v\n", err)
	}
	pidPath := filepath.Join(cfg.Paths.DataDir, "pomo.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	watchPath := ""
	if exists {
		watchPath = configPath
	}
	logger.Info("pomo daemon starting",
		logging.String(logging.FieldEventType, "daemon_starting"),
		logging.String("config", configPath),
		logging.Bool("config_found", exists),
		logging.String("log_path", logPath),
		logging.Int("pid", os.Getpid()),
		logging.String("build", opts.Build),
	)

	d, err := daemon.New(cfg, opts.Paths, logger, daemon.Options{
		ConfigPath:   watchPath,
		RunID:        runID,
		Build:        opts.Build,
		LogPath:      logPath,
		LevelVar:     levelVar,
		LevelPinned:  pinned,
		TickInterval: opts.TickInterval,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String("socket", opts.Paths.Socket),
			logging.String(logging.FieldErrorHint, "check the --socket directory exists and is writable"))
		return err
	}
	return nil
}

// newLogger writes human-readable lines to stdout and JSON lines to the
// per-run log file. Both share levelVar.
func newLogger(cfg *config.Config, level, logPath string, levelVar *slog.LevelVar, development bool) (*slog.Logger, error) {
	console, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stdout"},
		Development:      development,
		LevelVar:         levelVar,
	})
	if err != nil {
		return nil, err
	}
	file, err := logging.New(logging.Options{
		Level:            level,
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
		Development:      development,
		LevelVar:         levelVar,
	})
	if err != nil {
		return nil, err
	}
	return logging.TeeLogger(console, file.Handler()), nil
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := fileutil.RemoveIfExists(current); err != nil {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return fileutil.WriteAtomic(path, []byte(value), 0o644)
}
