package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var socketFlag string
	var lockFlag string
	var stateFlag string
	var configFlag string

	ctx := newCommandContext(&socketFlag, &lockFlag, &stateFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:           "pomo",
		Short:         "Pomodoro timer daemon and client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&socketFlag, "socket", "", "Path to the pomo daemon socket (default $XDG_RUNTIME_DIR/pomo.sock)")
	flags.StringVar(&lockFlag, "lock", "", "Path to the daemon instance lock (default: beside the socket)")
	flags.StringVar(&stateFlag, "state", "", "Path to the daemon state file (default: beside the socket)")
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newDaemonCommand(ctx))
	for _, cmd := range newControlCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newNotifyCommand(ctx))

	return rootCmd
}
