package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"pomo/internal/config"
	"pomo/internal/countdown"
	"pomo/internal/history"
	"pomo/internal/ipc"
	"pomo/internal/logging"
	"pomo/internal/metrics"
	"pomo/internal/notifications"
	"pomo/internal/statefile"
	"pomo/internal/timer"
)

const (
	subscriberBuffer  = 16
	historyPruneEvery = 24 * time.Hour
	logCleanupEvery   = 24 * time.Hour
)

// Paths holds the runtime locations chosen on the command line.
type Paths struct {
	Socket string
	Lock   string
	State  string
}

// Options tunes a daemon run.
type Options struct {
	// ConfigPath enables the config watcher when it names an existing file.
	ConfigPath string
	RunID      string
	Build      string
	LogPath    string
	// LevelVar receives logging.level on reload unless LevelPinned is set.
	LevelVar    *slog.LevelVar
	LevelPinned bool
	// TickInterval defaults to timer.DefaultInterval.
	TickInterval   time.Duration
	ReloadDebounce time.Duration
	Notifier       notifications.Service
}

// Daemon wires the listener, the tick loop and its subscribers.
type Daemon struct {
	cfg     *config.Config
	paths   Paths
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Collector

	mu   sync.Mutex
	loop *timer.Loop
}

// New validates inputs. Nothing is bound until Run.
func New(cfg *config.Config, paths Paths, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if strings.TrimSpace(paths.Socket) == "" {
		return nil, errors.New("daemon requires a socket path")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(cfg)
	}
	return &Daemon{
		cfg:     cfg,
		paths:   paths,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "daemon"),
		metrics: metrics.NewCollector(logger),
	}, nil
}

// Metrics exposes the collector backing this daemon.
func (d *Daemon) Metrics() *metrics.Collector {
	return d.metrics
}

// Current returns the engine state, or Initial before Run has started.
func (d *Daemon) Current() countdown.State {
	d.mu.Lock()
	loop := d.loop
	d.mu.Unlock()
	if loop == nil {
		return countdown.Initial()
	}
	return loop.Current()
}

// Run binds the socket and serves until ctx is canceled. Bind failures are
// returned before any goroutine starts.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	server, err := ipc.Listen(d.paths.Socket, d.logger, ipc.Options{
		ReadTimeout: d.cfg.ReadTimeout(),
		Observer:    d.metrics,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages := make(chan countdown.Message, d.cfg.Daemon.QueueCapacity)
	loop := timer.NewLoop(countdown.Initial(), d.cfg.Durations(), messages, timer.Options{
		Interval: d.opts.TickInterval,
		Logger:   d.logger,
	})
	d.mu.Lock()
	d.loop = loop
	d.mu.Unlock()
	if err := d.metrics.TrackDropped(loop.Dropped); err != nil {
		d.logger.Debug("dropped counter not exported", logging.Error(err))
	}

	var subscribers sync.WaitGroup
	subscribe := func(run func(context.Context, <-chan timer.Event)) {
		events := loop.Subscribe(subscriberBuffer)
		subscribers.Add(1)
		go func() {
			defer subscribers.Done()
			run(context.Background(), events)
		}()
	}

	store := d.openHistory()
	if store != nil {
		defer store.Close()
	}
	housekeeping, err := d.startHousekeeping(store)
	if err != nil {
		server.Close()
		return err
	}

	if d.paths.State != "" {
		subscribe(statefile.NewWriter(d.paths.State, d.logger).Run)
	}
	subscribe(d.metrics.Run)
	subscribe(notifications.NewNotifier(d.opts.Notifier, d.logger).Run)
	if store != nil {
		subscribe(history.NewRecorder(store, d.logger).Run)
	}

	watcher := d.startWatcher(runCtx, loop)
	d.writeInfo()

	server.Serve(runCtx, messages)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(runCtx)
	}()

	d.logger.Info("pomo daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("socket", d.paths.Socket),
		logging.String("state", d.paths.State),
		logging.Duration("focus", d.cfg.Durations().Focus),
		logging.Int("queue_capacity", d.cfg.Daemon.QueueCapacity),
	)

	<-runCtx.Done()
	d.logger.Info("pomo daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_stopping"),
		logging.String(logging.FieldState, countdown.Label(loop.Current())))

	server.Close()
	<-loopDone
	// subscribers drain until the loop closes their channels
	subscribers.Wait()
	if watcher != nil {
		watcher.Wait()
	}
	if housekeeping != nil {
		if err := housekeeping.Stop(); err != nil {
			d.logger.Debug("housekeeping shutdown", logging.Error(err))
		}
	}
	if d.cfg.Metrics.Textfile != "" {
		d.metrics.Flush(d.cfg.Metrics.Textfile)
	}
	if err := RemoveInfo(d.cfg.DaemonInfoPath()); err != nil {
		d.logger.Debug("daemon info cleanup", logging.Error(err))
	}
	d.logger.Info("pomo daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	return nil
}

func (d *Daemon) openHistory() *history.Store {
	if !d.cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(d.cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(d.logger, "history disabled", "history_open_failed",
			logging.String("path", d.cfg.HistoryPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "finished periods are not recorded this run"),
			logging.String(logging.FieldErrorHint, "check the data directory or remove a corrupt history.db"))
		return nil
	}
	return store
}

func (d *Daemon) startHousekeeping(store *history.Store) (*Housekeeping, error) {
	h, err := NewHousekeeping(d.logger)
	if err != nil {
		return nil, err
	}

	if path := d.cfg.Metrics.Textfile; path != "" {
		interval := time.Duration(d.cfg.Metrics.FlushInterval) * time.Second
		if err := h.Every("metrics-flush", interval, true, func() { d.metrics.Flush(path) }); err != nil {
			return nil, err
		}
	}

	if store != nil && d.cfg.History.RetentionDays > 0 {
		days := d.cfg.History.RetentionDays
		prune := func() {
			cutoff := time.Now().AddDate(0, 0, -days)
			removed, err := store.Prune(context.Background(), cutoff)
			if err != nil {
				logging.WarnWithContext(d.logger, "history prune failed", "history_prune_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "old periods stay in history.db"))
				return
			}
			if removed > 0 {
				d.logger.Info("history pruned",
					logging.String(logging.FieldEventType, "history_pruned"),
					logging.Int64("removed", removed),
					logging.Int("retention_days", days))
			}
		}
		if err := h.Every("history-prune", historyPruneEvery, true, prune); err != nil {
			return nil, err
		}
	}

	if d.cfg.Logging.RetentionDays > 0 {
		target := logging.RetentionTarget{Dir: d.cfg.LogDir(), Pattern: "pomo-*.log"}
		if d.opts.LogPath != "" {
			target.Exclude = []string{d.opts.LogPath}
		}
		cleanup := func() { logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, target) }
		if err := h.Every("log-retention", logCleanupEvery, true, cleanup); err != nil {
			return nil, err
		}
	}

	h.Start()
	return h, nil
}

func (d *Daemon) startWatcher(ctx context.Context, loop *timer.Loop) *ConfigWatcher {
	path := strings.TrimSpace(d.opts.ConfigPath)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	watcher, err := NewConfigWatcher(path, d.opts.ReloadDebounce, func(cfg *config.Config) {
		loop.Reload(cfg.Durations())
		if d.opts.LevelVar != nil && !d.opts.LevelPinned {
			d.opts.LevelVar.Set(logging.ParseLevel(cfg.Logging.Level))
		}
	}, d.logger)
	if err != nil {
		logging.WarnWithContext(d.logger, "config watcher unavailable", "config_watch_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "config edits need a daemon restart"))
		return nil
	}
	go watcher.Run(ctx)
	return watcher
}

func (d *Daemon) writeInfo() {
	info := Info{
		Version:   InfoVersion,
		PID:       os.Getpid(),
		RunID:     d.opts.RunID,
		Build:     d.opts.Build,
		Socket:    d.paths.Socket,
		Lock:      d.paths.Lock,
		State:     d.paths.State,
		Config:    d.opts.ConfigPath,
		LogPath:   d.opts.LogPath,
		StartedAt: time.Now().UTC(),
	}
	if err := WriteInfo(d.cfg.DaemonInfoPath(), info); err != nil {
		logging.WarnWithContext(d.logger, "daemon info write failed", "daemon_info_failed",
			logging.String("path", d.cfg.DaemonInfoPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "pomo status cannot show daemon details"))
	}
}
