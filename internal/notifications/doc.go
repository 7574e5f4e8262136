// Package notifications pushes period completions to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// the daemon wires the Notifier unconditionally.
package notifications
