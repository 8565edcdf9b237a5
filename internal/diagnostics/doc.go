// Package diagnostics accumulates per-phase timing and contact activity for
// an explicit run and emits the end-of-run summary.
//
// Phase timing uses scoped timers: [Timers.Start] returns a [PhaseTimer]
// whose Stop records the elapsed time (and ends the matching trace span), and
// [Timers.Measure] wraps a function so the time is recorded on every exit
// path. The optional [TimingRecord] is a fixed little-endian binary layout
// written once per run.
package diagnostics
