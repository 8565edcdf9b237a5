package dynamo

import (
	"runtime"
	"sync"
)

// Workers is the number of goroutines ParallelFor fans out to. Zero means
// runtime.NumCPU().
var Workers = 0

func workerCount() int {
	if Workers > 0 {
		return Workers
	}
	return runtime.NumCPU()
}

// ParallelFor executes fn over [0, n) split into contiguous chunks. Ranges
// shorter than minChunk run on the calling goroutine.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	numWorkers := workerCount()
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
