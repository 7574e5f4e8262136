// Command pomo runs a Pomodoro countdown daemon and talks to it over a Unix
// socket.
//
// `pomo daemon` owns the timer. `pomo start` and `pomo stop` send one control
// message each. `pomo status` and `pomo watch` read the state file the
// daemon rewrites on every tick, so they work without a socket round trip.
package main
