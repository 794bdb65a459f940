package ident

import (
	"sync"
	"testing"
)

func TestNextIsStrictlyIncreasing(t *testing.T) {
	prev := Next()
	for i := 0; i < 1000; i++ {
		id := Next()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestNextIsUniqueUnderConcurrency(t *testing.T) {
	const workers = 8
	const perWorker = 500

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("id %d assigned twice", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}
