package parallel

import "sync/atomic"
import "testing"

func TestForEachVisitsOnce(t *testing.T) {
	for _, limit := range []int{-1, 0, 1, 3, 8, 100} {
		var hits = make([]int32, 37)
		ForEach(len(hits), limit, func(i int) {
			atomic.AddInt32(&hits[i], 1)
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("limit %d: index %d visited %d times", limit, i, h)
			}
		}
	}
}

func TestForRangeBounded(t *testing.T) {
	var calls int32
	ForRange(10, 4, func(from, to int) {
		atomic.AddInt32(&calls, 1)
		if from >= to || to > 10 {
			t.Errorf("bad range %d..%d", from, to)
		}
	})
	if calls > 4 {
		t.Fatalf("%d ranges for limit 4", calls)
	}
	ForRange(0, 4, func(from, to int) {
		t.Fatal("called for empty length")
	})
}
