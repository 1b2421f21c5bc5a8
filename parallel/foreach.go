// Package parallel contains bounded parallel loops and an ordered fingerprint of parallel results.
package parallel

import "sync"
import "sync/atomic"

// ForEach calls body for every index in [0, length) on at most limit goroutines.
// Bodies must write their results by index; completion order is unspecified.
func ForEach(length, limit int, body func(i int)) {
	ForEachErr(length, limit, func(i int) error {
		body(i)
		return nil
	})
}

// ForEachErr is ForEach for bodies that can fail. After the first failure no new
// indexes are started, and the error of the lowest failing index seen is returned.
func ForEachErr(length, limit int, body func(i int) error) error {
	if length <= 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > length {
		limit = length
	}
	if limit == 1 {
		for i := 0; i < length; i++ {
			if err := body(i); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		next   int64 = -1
		failed atomic.Bool
		wg     sync.WaitGroup
		mut    sync.Mutex
		first  = length
		ferr   error
	)
	wg.Add(limit)
	for n := 0; n < limit; n++ {
		go func() {
			defer wg.Done()
			for !failed.Load() {
				i := int(atomic.AddInt64(&next, 1))
				if i >= length {
					return
				}
				if err := body(i); err != nil {
					mut.Lock()
					if i < first {
						first, ferr = i, err
					}
					mut.Unlock()
					failed.Store(true)
				}
			}
		}()
	}
	wg.Wait()
	return ferr
}
