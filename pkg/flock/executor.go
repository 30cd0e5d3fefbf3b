package flock

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Executor runs a per-agent computation over contiguous batches of agent
// indices in parallel and blocks until all of them are done.
//
// The function given to Run must only read shared state and write to the
// slots of its own batch; there is no locking inside the parallel phase.
type Executor struct {
	workers int
}

// NewExecutor creates an executor running at most workers batches at once.
// workers <= 0 uses GOMAXPROCS.
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{workers: workers}
}

// Workers returns the concurrency limit.
func (e *Executor) Workers() int {
	return e.workers
}

// Batches returns how many batches Run uses for n agents and batchSize.
func (e *Executor) Batches(n, batchSize int) int {
	size := e.batchSize(n, batchSize)
	return (n + size - 1) / size
}

func (e *Executor) batchSize(n, batchSize int) int {
	if batchSize > 0 {
		return batchSize
	}
	// split evenly, one batch per worker
	return max(1, (n+e.workers-1)/e.workers)
}

// Run calls fn(lo, hi) for every batch [lo, hi) covering [0, n).
// A single batch runs on the calling goroutine.
func (e *Executor) Run(n, batchSize int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	size := e.batchSize(n, batchSize)
	if size >= n || e.workers == 1 {
		for lo := 0; lo < n; lo += size {
			fn(lo, min(lo+size, n))
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	// batches never fail, Wait is the barrier
	_ = g.Wait()
}
