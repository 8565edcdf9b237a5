package compute

import (
	"runtime"
	"sync"
)

const serialThreshold = 64

// CPUBackend assembles on goroutines, one private buffer per worker. A
// backend reuses its buffers between calls, so it must not be shared by
// concurrent callers.
type CPUBackend struct {
	workers int
	local   [][]float64
}

func NewCPUBackend() *CPUBackend {
	return NewCPUBackendWorkers(runtime.NumCPU())
}

// NewCPUBackendWorkers uses n workers; n < 1 means one.
func NewCPUBackendWorkers(n int) *CPUBackend {
	if n < 1 {
		n = 1
	}
	return &CPUBackend{workers: n}
}

func (c *CPUBackend) Name() string { return "cpu" }
func (c *CPUBackend) Workers() int { return c.workers }
func (c *CPUBackend) Cleanup()     { c.local = nil }

func (c *CPUBackend) Assemble(numElements int, out []float64, kernel Kernel) {
	for i := range out {
		out[i] = 0
	}
	if numElements < serialThreshold || c.workers == 1 {
		for e := 0; e < numElements; e++ {
			kernel(e, out)
		}
		return
	}

	c.ensureBuffers(len(out))

	var wg sync.WaitGroup
	chunkSize := (numElements + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, numElements)
		buf := c.local[w]
		for i := range buf {
			buf[i] = 0
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int, buf []float64) {
			defer wg.Done()
			for e := start; e < end; e++ {
				kernel(e, buf)
			}
		}(start, end, buf)
	}

	wg.Wait()

	for w := 0; w < c.workers; w++ {
		buf := c.local[w]
		for i := range out {
			out[i] += buf[i]
		}
	}
}

func (c *CPUBackend) ensureBuffers(n int) {
	if len(c.local) == c.workers && len(c.local[0]) == n {
		return
	}
	c.local = make([][]float64, c.workers)
	for w := range c.local {
		c.local[w] = make([]float64, n)
	}
}

func (c *CPUBackend) Max(n int, fn func(i int) float64) float64 {
	if n == 0 {
		return 0
	}
	if n < serialThreshold || c.workers == 1 {
		best := fn(0)
		for i := 1; i < n; i++ {
			best = max(best, fn(i))
		}
		return best
	}

	partial := make([]float64, c.workers)
	used := make([]bool, c.workers)
	var wg sync.WaitGroup
	chunkSize := (n + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		used[w] = true

		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			best := fn(start)
			for i := start + 1; i < end; i++ {
				best = max(best, fn(i))
			}
			partial[worker] = best
		}(w, start, end)
	}

	wg.Wait()

	best := partial[0]
	for w := 1; w < c.workers; w++ {
		if used[w] {
			best = max(best, partial[w])
		}
	}
	return best
}
