package pools

import (
	"sync"
	"testing"
)

func TestBytePool_Get(t *testing.T) {
	pool := NewBytePool()

	tests := []struct {
		size   int
		minCap int
	}{
		{1, SmallSize},
		{SmallSize, SmallSize},
		{SmallSize + 1, MediumSize},
		{5000, LargeSize},
		{MaxPool, MaxPool},
		{MaxPool + 1, MaxPool + 1},
	}

	for _, tt := range tests {
		b := pool.Get(tt.size)
		if len(b) != 0 {
			t.Errorf("Get(%d) len = %d, want 0", tt.size, len(b))
		}
		if cap(b) < tt.minCap {
			t.Errorf("Get(%d) cap = %d, want >= %d", tt.size, cap(b), tt.minCap)
		}
	}
}

func TestBytePool_GetSized(t *testing.T) {
	b := GetBytesSized(100)
	if len(b) != 100 {
		t.Errorf("GetBytesSized(100) len = %d", len(b))
	}
	PutBytes(b)
}

func TestBytePool_PutIgnoresForeignSlices(t *testing.T) {
	pool := NewBytePool()
	// Odd capacities and oversized slices must not panic or be handed out.
	pool.Put(make([]byte, 10, 300))
	pool.Put(make([]byte, 0, MaxPool*2))

	b := pool.Get(SmallSize)
	if cap(b) != SmallSize {
		t.Errorf("cap = %d, want %d", cap(b), SmallSize)
	}
}

func TestBytePool_Concurrent(t *testing.T) {
	pool := NewBytePool()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b := pool.GetSized((n*j)%(LargeSize) + 1)
				b[0] = byte(j)
				pool.Put(b)
			}
		}(i)
	}
	wg.Wait()
}
