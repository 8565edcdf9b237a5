// Package analysis post-processes stored runs.
//
//   - [PowerSpectrum]: magnitude spectrum of an evenly sampled signal
//   - [DominantFrequency]: strongest oscillation of a signal
//   - [Summarize]: peak energy, displacement and frequency of a run history
package analysis
