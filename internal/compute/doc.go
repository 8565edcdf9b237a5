// Package compute provides the backends that run element loops.
//
// A backend assembles a global vector from per-element contributions:
//
//	backend := compute.NewCPUBackend()
//	backend.Assemble(numElements, force, func(e int, out []float64) {
//		// add the contribution of element e into out
//	})
//
// The CPU backend splits the element range across workers, each writing to
// a private buffer, and sums the buffers at the end, so kernels never need
// to synchronize on shared nodes.
package compute
