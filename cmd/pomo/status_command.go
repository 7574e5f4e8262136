package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pomo/internal/countdown"
	"pomo/internal/daemonctl"
	"pomo/internal/statefile"
)

type statusReport struct {
	Running          bool       `json:"running"`
	PID              int        `json:"pid,omitempty"`
	RunID            string     `json:"run_id,omitempty"`
	State            string     `json:"state,omitempty"`
	Type             string     `json:"type,omitempty"`
	Remaining        string     `json:"remaining,omitempty"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	Cycle            uint64     `json:"cycle,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	Summary          string     `json:"summary"`

	state countdown.State
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current countdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, err := buildStatusReport(ctx.statePath(), ctx.lockPath(), cfg.DaemonInfoPath())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderStatus(report, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func buildStatusReport(statePath, lockPath, infoPath string) (statusReport, error) {
	var report statusReport

	running, info, err := daemonctl.ProcessInfo(lockPath, infoPath)
	if err != nil {
		return report, err
	}
	report.Running = running
	if info != nil {
		report.PID = info.PID
		report.RunID = info.RunID
	}

	snap, err := statefile.Read(statePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		report.Summary = "Failed to read state from disk"
		return report, nil
	case err != nil:
		return report, err
	}

	report.state = snap.State
	report.State = countdown.Label(snap.State)
	report.Type = strings.ToLower(countdown.TypeOf(snap.State).String())
	remaining := countdown.RemainingOf(snap.State)
	report.RemainingSeconds = int64(remaining / time.Second)
	if _, finished := snap.State.(countdown.Finished); !finished {
		report.Remaining = formatClock(remaining)
	}
	report.Cycle = countdown.CycleOf(snap.State)
	if !snap.WrittenAt.IsZero() {
		written := snap.WrittenAt
		report.UpdatedAt = &written
	}
	report.Summary = formatState(snap.State)
	return report, nil
}

func renderStatus(report statusReport, color bool) string {
	var b strings.Builder
	b.WriteString(colorize(report.Summary, stateColor(report.state), color))
	b.WriteByte('\n')
	if report.state != nil {
		b.WriteString(renderDetail("Cycle", fmt.Sprintf("%d", report.Cycle)))
		b.WriteByte('\n')
	}

	daemonLine := "not running"
	daemonColor := ansiRed
	if report.Running {
		daemonLine = "running"
		daemonColor = ansiGreen
		if report.PID > 0 {
			daemonLine = fmt.Sprintf("running (pid %d)", report.PID)
		}
	} else if report.UpdatedAt != nil {
		daemonLine = fmt.Sprintf("not running (last update %s)", report.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	b.WriteString(renderDetail("Daemon", colorize(daemonLine, daemonColor, color)))
	b.WriteByte('\n')
	if !report.Running {
		b.WriteString("Start it with `pomo daemon --detach`\n")
	}
	return b.String()
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
