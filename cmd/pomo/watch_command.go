package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pomo/internal/countdown"
	"pomo/internal/statefile"
)

const (
	watchPollInterval = time.Second
	watchMaxWidth     = 60
	watchPadding      = 2
)

var (
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}

	watchTitleStyle  = lipgloss.NewStyle().Bold(true)
	watchHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	watchErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	watchNoticeStyle = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
)

type watchKeyMap struct {
	Start key.Binding
	Stop  key.Binding
	Quit  key.Binding
}

var watchKeys = watchKeyMap{
	Start: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Stop:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type (
	watchTickMsg     time.Time
	watchSnapshotMsg struct {
		snap statefile.Snapshot
		err  error
	}
	watchSentMsg struct {
		msg countdown.Message
		err error
	}
)

type watchModel struct {
	statePath string
	durations countdown.Durations
	send      func(countdown.Message) error

	bar    progress.Model
	snap   statefile.Snapshot
	loaded bool
	err    error
	notice string
}

func newWatchModel(statePath string, durations countdown.Durations, send func(countdown.Message) error) watchModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = watchMaxWidth
	return watchModel{statePath: statePath, durations: durations, send: send, bar: bar}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(readSnapshotCmd(m.statePath), watchTick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, watchKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, watchKeys.Start):
			return m, sendCmd(m.send, countdown.Start)
		case key.Matches(msg, watchKeys.Stop):
			return m, sendCmd(m.send, countdown.Stop)
		}
	case tea.WindowSizeMsg:
		m.bar.Width = max(min(msg.Width-watchPadding*2, watchMaxWidth), 10)
	case watchTickMsg:
		return m, tea.Batch(readSnapshotCmd(m.statePath), watchTick())
	case watchSnapshotMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.snap = msg.snap
		m.loaded = true
	case watchSentMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = fmt.Sprintf("%s sent", msg.msg)
		}
		return m, readSnapshotCmd(m.statePath)
	}
	return m, nil
}

func (m watchModel) View() string {
	pad := strings.Repeat(" ", watchPadding)
	var b strings.Builder
	b.WriteString("\n" + pad + watchTitleStyle.Render("pomo") + "\n\n")

	switch {
	case m.err != nil && errors.Is(m.err, fs.ErrNotExist):
		b.WriteString(pad + watchErrorStyle.Render("No state file yet; is `pomo daemon` running?") + "\n")
	case m.err != nil:
		b.WriteString(pad + watchErrorStyle.Render(m.err.Error()) + "\n")
	case !m.loaded:
		b.WriteString(pad + "Loading…\n")
	default:
		style := lipgloss.NewStyle().Foreground(watchStateColor(m.snap.State))
		b.WriteString(pad + style.Render(formatState(m.snap.State)) + "\n")
		b.WriteString(pad + watchHelpStyle.Render(fmt.Sprintf("cycle %d", countdown.CycleOf(m.snap.State))) + "\n\n")
		b.WriteString(pad + m.bar.ViewAs(periodProgress(m.snap.State, m.durations)) + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + pad + watchNoticeStyle.Render(m.notice) + "\n")
	}
	help := fmt.Sprintf("%s %s • %s %s • %s %s",
		watchKeys.Start.Help().Key, watchKeys.Start.Help().Desc,
		watchKeys.Stop.Help().Key, watchKeys.Stop.Help().Desc,
		watchKeys.Quit.Help().Key, watchKeys.Quit.Help().Desc)
	b.WriteString("\n" + pad + watchHelpStyle.Render(help) + "\n")
	return b.String()
}

// periodProgress returns the elapsed fraction of the current period.
func periodProgress(state countdown.State, d countdown.Durations) float64 {
	switch s := state.(type) {
	case countdown.Finished:
		return 1
	case countdown.Started, countdown.Stopped:
		remaining := countdown.RemainingOf(s)
		if remaining == 0 {
			return 0
		}
		total := d.For(countdown.TypeOf(s), countdown.CycleOf(s))
		if total <= 0 || remaining > total {
			return 0
		}
		return 1 - float64(remaining)/float64(total)
	default:
		return 0
	}
}

func watchStateColor(state countdown.State) lipgloss.AdaptiveColor {
	switch state.(type) {
	case countdown.Started:
		return colorGreen
	case countdown.Stopped:
		return colorYellow
	default:
		return colorCyan
	}
}

func readSnapshotCmd(path string) tea.Cmd {
	return func() tea.Msg {
		snap, err := statefile.Read(path)
		return watchSnapshotMsg{snap: snap, err: err}
	}
}

func sendCmd(send func(countdown.Message) error, msg countdown.Message) tea.Cmd {
	return func() tea.Msg {
		return watchSentMsg{msg: msg, err: send(msg)}
	}
}

func watchTick() tea.Cmd {
	return tea.Tick(watchPollInterval, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live countdown view (s start, p pause, q quit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			send := func(msg countdown.Message) error {
				sendCtx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
				defer cancel()
				return ctx.send(sendCtx, msg)
			}
			model := newWatchModel(ctx.statePath(), cfg.Durations(), send)
			program := tea.NewProgram(model,
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			_, err = program.Run()
			if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
}
