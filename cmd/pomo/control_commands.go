package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pomo/internal/countdown"
)

const sendTimeout = 5 * time.Second

func newControlCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSendCommand(ctx, "start", "Start or resume the countdown", countdown.Start),
		newSendCommand(ctx, "stop", "Pause the running countdown", countdown.Stop),
	}
}

func newSendCommand(ctx *commandContext, use, short string, msg countdown.Message) *cobra.Command {
	return &cobra.Command{
		Use:         use,
		Short:       short,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			sendCtx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
			defer cancel()
			if err := ctx.send(sendCtx, msg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s request sent\n", msg)
			return nil
		},
	}
}
