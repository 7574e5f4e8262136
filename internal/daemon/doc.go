// Package daemon coordinates the long-running pomo process.
//
// It owns the single-instance guard, binds the control socket, drives the
// tick loop, and fans tick events out to the state file writer, history
// recorder, notifier and metrics collector. A gocron scheduler handles
// housekeeping and an fsnotify watcher reloads timer settings when the
// config file changes.
package daemon
