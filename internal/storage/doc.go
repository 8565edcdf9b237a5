// Package storage keeps simulation runs on disk.
//
// Every run lives in <base>/<name>_<id>/ with a metadata.json describing it
// and the output of each participant, either as CSV files (nodes.csv,
// history.csv) or as one SQLite database (output.db). Multi-participant runs
// suffix every file with ".<size>.<rank>", see IOFileName.
package storage
