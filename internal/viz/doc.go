// Package viz renders run results in the terminal.
//
// Styles come from the active [Theme] and are rebuilt by [SetTheme]:
//
//   - [EnergyChart]: asciigraph plot of the kinetic energy history
//   - [WriteRuns]: aligned table of stored runs
//   - [ProgressBar], [Sparkline]: compact single-line gauges
package viz
