// Package logs reads the daemon's log file for `pomo logs`.
//
// Tail returns the last N lines together with the byte offset where reading
// stopped, and Follow polls from that offset until the context ends. A log
// that shrinks (a new daemon run re-pointing pomo.log) restarts from the top.
package logs
