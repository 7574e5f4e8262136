package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pomo/internal/daemon"
	"pomo/internal/daemonctl"
	"pomo/internal/daemonrun"
)

const daemonReadyTimeout = 5 * time.Second

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var detach bool
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:         "daemon",
		Short:       "Run the pomo daemon",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths := ctx.runtimePaths()
			if detach {
				return launchDetached(cmd, ctx, paths, logLevel)
			}
			return daemonrun.Run(cmd.Context(), daemonrun.Options{
				ConfigPath:     ctx.configPath(),
				ConfigExplicit: ctx.configPath() != "",
				Paths:          paths,
				LogLevel:       logLevel,
				Development:    development,
				Build:          version,
			})
		},
	}
	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Start the daemon in the background and wait until it is ready")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "development", false, "Include source locations in log lines")
	return cmd
}

func launchDetached(cmd *cobra.Command, ctx *commandContext, paths daemon.Paths, logLevel string) error {
	running, err := daemon.Probe(paths.Lock)
	if err != nil {
		return err
	}
	if running {
		return daemon.ErrAlreadyRunning
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	err = daemonctl.Launch(executable, daemonctl.LaunchOptions{
		SocketPath: paths.Socket,
		LockPath:   paths.Lock,
		StatePath:  paths.State,
		ConfigPath: ctx.configPath(),
		LogLevel:   logLevel,
	})
	if err != nil {
		return err
	}
	if err := daemonctl.WaitReady(paths.Socket, paths.Lock, daemonReadyTimeout); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pomo daemon started (socket %s)\n", paths.Socket)
	return nil
}
