package dynamo

import "sync"

// DefaultWorkers bounds the number of chunks ParallelFor splits work into.
const DefaultWorkers = 4

// Chunks reports how many chunks ParallelFor uses for n items.
func Chunks(n, minChunk int) int {
	minChunk = max(minChunk, 1)
	return min(max(n/minChunk, 1), DefaultWorkers)
}

// ParallelFor executes fn over [0, n) split into Chunks(n, minChunk)
// contiguous ranges. The chunk index is stable for a given (n, minChunk),
// so callers reducing per-chunk partials in chunk order get the same
// result on every call.
func ParallelFor(n, minChunk int, fn func(chunk, start, end int)) {
	workers := Chunks(n, minChunk)
	if workers == 1 {
		fn(0, 0, n)
		return
	}

	size := (n + workers - 1) / workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for c := range workers {
		start := min(c*size, n)
		go func() {
			defer wg.Done()
			fn(c, start, min(start+size, n))
		}()
	}
	wg.Wait()
}
