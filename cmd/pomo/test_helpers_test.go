package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pomo/internal/config"
	"pomo/internal/countdown"
	"pomo/internal/daemon"
	"pomo/internal/logging"
	"pomo/internal/statefile"
	"pomo/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	socketPath string
	lockPath   string
	statePath  string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("XDG_RUNTIME_DIR", base)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	socket, lock, state := testsupport.RuntimePaths(cfg)
	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		socketPath: socket,
		lockPath:   lock,
		statePath:  state,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// args prefixes the runtime flags pointing at this environment.
func (e *cliTestEnv) args(extra ...string) []string {
	return append([]string{
		"--config", e.configPath,
		"--socket", e.socketPath,
		"--lock", e.lockPath,
		"--state", e.statePath,
	}, extra...)
}

// startDaemon runs a daemon in-process with a fast clock and holds its lock
// the way the daemon command does.
func (e *cliTestEnv) startDaemon(t *testing.T) {
	t.Helper()

	guard, err := daemon.AcquireGuard(e.lockPath)
	if err != nil {
		t.Fatalf("AcquireGuard: %v", err)
	}
	d, err := daemon.New(e.cfg, daemon.Paths{Socket: e.socketPath, Lock: e.lockPath, State: e.statePath}, logging.NewNop(), daemon.Options{
		RunID:        "cli-test",
		TickInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = guard.Release()
	})

	e.waitForState(t, func(countdown.State) bool { return true })
}

func (e *cliTestEnv) waitForState(t *testing.T, match func(countdown.State) bool) countdown.State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap, err := statefile.Read(e.statePath); err == nil && match(snap.State) {
			return snap.State
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for daemon state")
	return nil
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
