// Package dynamo provides the primitives shared by the explicit dynamics
// packages:
//
//   - [Schedule]: uniform step count, output cadence and progress deciles
//   - [TimeState]: running time pair advanced once per step
//   - [ParallelFor]: chunked data-parallel loop used by field kernels
//   - domain errors such as [ErrZeroMass] and [ErrIncompatibleModel]
//
// # Time accumulation
//
// [TimeState.Advance] adds final_time/num_load_steps to the running time and
// derives the step size from the difference, so the floating point drift of
// the running sum is visible in delta_time exactly as the integrator sees it.
package dynamo
