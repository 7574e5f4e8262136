// Package logging assembles the structured slog loggers used by the pomo
// daemon and CLI.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field keys, and helpers such as WarnWithContext that keep warning
// lines shaped as cause + impact + next step. A no-op logger is provided for
// tests and wiring code that has nothing to log to.
package logging
