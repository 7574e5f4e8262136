// Package daemonctl launches a detached daemon and inspects a running one.
package daemonctl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"pomo/internal/daemon"
)

const pollInterval = 50 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath string
	LockPath   string
	StatePath  string
	ConfigPath string
	LogLevel   string
}

// Args returns the daemon command line for opts.
func (opts LaunchOptions) Args() []string {
	args := []string{"daemon"}
	add := func(flag, value string) {
		if value = strings.TrimSpace(value); value != "" {
			args = append(args, flag, value)
		}
	}
	add("--socket", opts.SocketPath)
	add("--lock", opts.LockPath)
	add("--state", opts.StatePath)
	add("--config", opts.ConfigPath)
	add("--log-level", opts.LogLevel)
	return args
}

// Launch starts a detached pomo daemon process in its own session.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	proc := exec.Command(executablePath, opts.Args()...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitReady polls until a daemon holds the lock and its socket exists.
func WaitReady(socketPath, lockPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		running, err := daemon.Probe(lockPath)
		if err != nil {
			lastErr = err
		} else if !running {
			lastErr = errors.New("lock not held yet")
		} else if _, err := os.Stat(socketPath); err != nil {
			lastErr = err
		} else {
			return nil
		}
		time.Sleep(pollInterval)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return fmt.Errorf("daemon failed to start: %w", lastErr)
}

// ProcessInfo reports whether a daemon holds the lock and, when it does,
// the contents of its info file. A missing info file yields a nil Info.
func ProcessInfo(lockPath, infoPath string) (bool, *daemon.Info, error) {
	running, err := daemon.Probe(lockPath)
	if err != nil {
		return false, nil, err
	}
	if !running {
		return false, nil, nil
	}
	info, err := daemon.ReadInfo(infoPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return true, nil, err
	}
	return true, info, nil
}
