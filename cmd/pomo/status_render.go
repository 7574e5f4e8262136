package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"pomo/internal/countdown"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusLabelWidth = 8

// formatState renders the one-line countdown summary.
func formatState(state countdown.State) string {
	switch s := state.(type) {
	case countdown.Started:
		return fmt.Sprintf("🍅 %s %s", s.Type, formatClock(s.Remaining))
	case countdown.Stopped:
		return fmt.Sprintf("⏸  %s %s", s.Type, formatClock(s.Remaining))
	case countdown.Finished:
		return "🏁 Finished."
	default:
		return "?"
	}
}

// formatClock renders d as hh:mm:ss.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

func stateColor(state countdown.State) string {
	switch state.(type) {
	case countdown.Started:
		return ansiGreen
	case countdown.Stopped:
		return ansiYellow
	case countdown.Finished:
		return ansiBlue
	default:
		return ""
	}
}

func colorize(text, color string, enabled bool) string {
	if !enabled || color == "" {
		return text
	}
	return color + text + ansiReset
}

func renderDetail(label, value string) string {
	return fmt.Sprintf("%-*s %s", statusLabelWidth, label+":", strings.TrimSpace(value))
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
