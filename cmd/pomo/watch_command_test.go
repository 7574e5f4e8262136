package main

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pomo/internal/countdown"
	"pomo/internal/statefile"
)

var watchDurations = countdown.Durations{
	Focus:          10 * time.Minute,
	ShortBreak:     2 * time.Minute,
	LongBreak:      5 * time.Minute,
	LongBreakAfter: 4,
}

func TestPeriodProgress(t *testing.T) {
	tests := []struct {
		name  string
		state countdown.State
		want  float64
	}{
		{"not started", countdown.Initial(), 0},
		{"half focus", countdown.Started{Type: countdown.Focus, Remaining: 5 * time.Minute, Cycle: 1}, 0.5},
		{"paused short break", countdown.Stopped{Type: countdown.Rest, Remaining: 30 * time.Second, Cycle: 2}, 0.75},
		{"long break", countdown.Started{Type: countdown.Rest, Remaining: 4 * time.Minute, Cycle: 5}, 0.2},
		{"finished", countdown.Finished{Type: countdown.Focus, Cycle: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := periodProgress(tt.state, watchDurations)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("periodProgress = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatchModelRendersSnapshot(t *testing.T) {
	m := newWatchModel("unused", watchDurations, func(countdown.Message) error { return nil })
	if !strings.Contains(m.View(), "Loading") {
		t.Fatalf("expected loading view, got:\n%s", m.View())
	}

	snap := statefile.Snapshot{
		State:     countdown.Started{Type: countdown.Focus, Remaining: 9 * time.Minute, Cycle: 3},
		WrittenAt: time.Now(),
	}
	updated, _ := m.Update(watchSnapshotMsg{snap: snap})
	view := updated.View()
	for _, want := range []string{"Focus 00:09:00", "cycle 3", "s start", "q quit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	missing, _ := updated.Update(watchSnapshotMsg{err: &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}})
	if !strings.Contains(missing.View(), "pomo daemon") {
		t.Fatalf("expected missing state hint:\n%s", missing.View())
	}
}

func TestWatchModelKeys(t *testing.T) {
	var sent []countdown.Message
	m := newWatchModel("unused", watchDurations, func(msg countdown.Message) error {
		sent = append(sent, msg)
		return nil
	})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if cmd == nil {
		t.Fatal("expected a command for start")
	}
	result := cmd()
	sentMsg, ok := result.(watchSentMsg)
	if !ok || sentMsg.msg != countdown.Start || sentMsg.err != nil {
		t.Fatalf("unexpected start result %#v", result)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	cmd()
	if len(sent) != 2 || sent[0] != countdown.Start || sent[1] != countdown.Stop {
		t.Fatalf("unexpected sent messages %v", sent)
	}

	updated, _ := m.Update(watchSentMsg{msg: countdown.Stop, err: errors.New("connect to daemon: refused")})
	if !strings.Contains(updated.View(), "refused") {
		t.Fatalf("expected send error in view:\n%s", updated.View())
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestWatchModelClampsBarWidth(t *testing.T) {
	m := newWatchModel("unused", watchDurations, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	if got := updated.(watchModel).bar.Width; got != watchMaxWidth {
		t.Fatalf("bar width = %d, want %d", got, watchMaxWidth)
	}
	updated, _ = m.Update(tea.WindowSizeMsg{Width: 8, Height: 40})
	if got := updated.(watchModel).bar.Width; got != 10 {
		t.Fatalf("bar width = %d, want 10", got)
	}
}
