package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"pomo/internal/config"
	"pomo/internal/countdown"
	"pomo/internal/daemon"
	"pomo/internal/ipc"
)

const (
	socketFileName     = "pomo.sock"
	lockFileName       = "pomo.lock"
	stateFileName      = "pomo.state"
	fallbackRuntimeDir = "/tmp"
)

type commandContext struct {
	socketFlag *string
	lockFlag   *string
	stateFlag  *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, lockFlag, stateFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		lockFlag:   lockFlag,
		stateFlag:  stateFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) socketPath() string {
	return flagOrDefault(c.socketFlag, filepath.Join(defaultRuntimeDir(), socketFileName))
}

func (c *commandContext) lockPath() string {
	return flagOrDefault(c.lockFlag, filepath.Join(filepath.Dir(c.socketPath()), lockFileName))
}

func (c *commandContext) statePath() string {
	return flagOrDefault(c.stateFlag, filepath.Join(filepath.Dir(c.socketPath()), stateFileName))
}

func (c *commandContext) runtimePaths() daemon.Paths {
	return daemon.Paths{
		Socket: c.socketPath(),
		Lock:   c.lockPath(),
		State:  c.statePath(),
	}
}

// send delivers one control message to the daemon.
func (c *commandContext) send(ctx context.Context, msg countdown.Message) error {
	socket := c.socketPath()
	if err := ipc.Send(ctx, socket, msg); err != nil {
		return wrapDialError(err, socket)
	}
	return nil
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `pomo daemon`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func defaultRuntimeDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); dir != "" {
		return dir
	}
	return fallbackRuntimeDir
}

func flagOrDefault(flag *string, fallback string) string {
	if flag == nil {
		return fallback
	}
	if value := strings.TrimSpace(*flag); value != "" {
		expanded, err := config.ExpandPath(value)
		if err == nil {
			return expanded
		}
		return value
	}
	return fallback
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
