// Package parallel contains bounded fan-out helpers used to split per-row work
// of one training step across CPU cores.
package parallel

import "sync"

// ForEach calls body for every i in [0, length) using at most limit
// goroutines. Each goroutine handles one contiguous range of indices.
func ForEach(length, limit int, body func(i int)) {
	ForRange(length, limit, func(from, to int) {
		for i := from; i < to; i++ {
			body(i)
		}
	})
}

// ForRange splits [0, length) into at most limit contiguous ranges and calls
// body once per range, concurrently. It returns when every range is done.
func ForRange(length, limit int, body func(from, to int)) {
	if length <= 0 {
		return
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > length {
		limit = length
	}
	if limit == 1 {
		body(0, length)
		return
	}

	var wg sync.WaitGroup
	chunk := (length + limit - 1) / limit
	for from := 0; from < length; from += chunk {
		to := from + chunk
		if to > length {
			to = length
		}
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			body(from, to)
		}(from, to)
	}
	wg.Wait()
}
