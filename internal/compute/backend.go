package compute

// Kernel computes the contribution of element e and adds it into out, a
// buffer the length of the assembled vector.
type Kernel func(e int, out []float64)

type Backend interface {
	Name() string
	Workers() int
	// Assemble zeroes out and sums the kernel contributions of every
	// element into it.
	Assemble(numElements int, out []float64, kernel Kernel)
	// Max returns the largest fn(i) over [0, n), or zero when n is zero.
	Max(n int, fn func(i int) float64) float64
	Cleanup()
}

var activeBackend Backend = NewCPUBackend()

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}
