// Package parallel partitions batch work over a bounded set of workers.
// Callers hand in the batch size and a function over a half-open index
// range; partitions are contiguous so workers touch disjoint slices of
// any shared output buffer and need no synchronization of their own.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a thread-count hint: 0 means all available hardware
// concurrency, anything else is used as given (1 = sequential).
func Workers(hint int) int {
	if hint <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return hint
}

// Dispatch splits [0, n) into at most `workers` contiguous chunks and runs
// fn on each, blocking until every chunk is done. A hint of 1 runs fn
// inline on the calling goroutine.
func Dispatch(hint, n int, fn func(lo, hi int)) {
	_ = Try(hint, n, func(lo, hi int) error {
		fn(lo, hi)
		return nil
	})
}

// Try is Dispatch for work that can fail. The first error is returned
// after all workers have joined; the output ranges of failed chunks are
// unspecified.
func Try(hint, n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	workers := Workers(hint)
	if workers == 1 || n == 1 {
		return fn(0, n)
	}
	if workers > n {
		workers = n
	}

	chunk := n / workers
	rem := n % workers

	g := errgroup.Group{}
	g.SetLimit(workers)
	lo := 0
	for w := 0; w < workers; w++ {
		hi := lo + chunk
		if w < rem {
			hi++
		}
		start, end := lo, hi
		g.Go(func() error {
			return fn(start, end)
		})
		lo = hi
	}
	return g.Wait()
}
