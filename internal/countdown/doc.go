// Package countdown implements the Pomodoro countdown state machine.
//
// State is a closed sum type: Stopped, Started and Finished are the only
// implementations of the State interface, so a finished timer never carries
// a remaining time. Advance moves a state one tick forward and Apply reacts to
// a control Message. Neither performs I/O.
//
// Callers that need a single field regardless of variant should use TypeOf,
// CycleOf and RemainingOf.
package countdown
