package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pomo/internal/countdown"
	"pomo/internal/history"
)

const defaultHistoryLimit = 20

var titleCase = cases.Title(language.English)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished periods and today's totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			periods, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			now := time.Now()
			midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			summary, err := store.Summary(cmd.Context(), midnight)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(periods) == 0 {
				fmt.Fprintln(out, "No finished periods recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderHistory(periods, summary))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of periods to show")
	return cmd
}

func periodLabel(p history.Period) string {
	label := "focus"
	if p.Type == countdown.Rest {
		label = "short break"
		if p.LongBreak {
			label = "long break"
		}
	}
	return titleCase.String(label)
}

func renderHistory(periods []history.Period, summary history.Summary) string {
	rows := make([][]string, 0, len(periods))
	for _, p := range periods {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			periodLabel(p),
			strconv.FormatUint(p.Cycle, 10),
			p.Planned.String(),
			p.StartedAt.Local().Format("2006-01-02 15:04"),
			p.FinishedAt.Local().Format("15:04:05"),
		})
	}
	footer := []string{
		"",
		"Today",
		"",
		fmt.Sprintf("%d focus / %s", summary.FocusCount, summary.FocusTime),
		fmt.Sprintf("%d breaks / %s", summary.RestCount, summary.RestTime),
		"",
	}
	return renderTable(
		[]string{"#", "Period", "Cycle", "Planned", "Started", "Finished"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
		footer,
	)
}
