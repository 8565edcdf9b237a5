// Package comm connects the participants of a run.
//
// A single-process run uses [Serial]. A partitioned run creates a [Group]
// and hands one member to each participant goroutine; members synchronize
// through [Communicator.Barrier] and sum interface-node values with
// [Communicator.SumShared]. [InTurn] passes a token in rank order so
// per-participant reports come out deterministically.
package comm
