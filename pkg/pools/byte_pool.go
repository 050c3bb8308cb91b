// Package pools provides size-class byte slice pooling for the container
// read path.
package pools

import (
	"sync"
)

// Size classes. Container values are usually small records, with the
// occasional large blob; anything above MaxPool is allocated directly.
const (
	SmallSize  = 256
	MediumSize = 4 << 10
	LargeSize  = 64 << 10
	MaxPool    = 1 << 20
)

var classSizes = [...]int{SmallSize, MediumSize, LargeSize, MaxPool}

// BytePool hands out byte slices from one sync.Pool per size class.
type BytePool struct {
	classes [len(classSizes)]sync.Pool
}

// NewBytePool creates a new byte pool.
func NewBytePool() *BytePool {
	p := &BytePool{}
	for i, size := range classSizes {
		size := size
		p.classes[i].New = func() any {
			b := make([]byte, 0, size)
			return &b
		}
	}
	return p
}

// classFor returns the index of the smallest class holding size bytes, or -1.
func classFor(size int) int {
	for i, c := range classSizes {
		if size <= c {
			return i
		}
	}
	return -1
}

// Get returns a zero-length slice with capacity of at least size.
func (p *BytePool) Get(size int) []byte {
	idx := classFor(size)
	if idx < 0 {
		return make([]byte, 0, size)
	}

	bp, ok := p.classes[idx].Get().(*[]byte)
	if !ok || cap(*bp) < size {
		return make([]byte, 0, size)
	}
	return (*bp)[:0]
}

// GetSized returns a slice of exactly size bytes.
func (p *BytePool) GetSized(size int) []byte {
	return p.Get(size)[:size]
}

// Put returns b to the pool. Slices whose capacity does not match a class
// exactly, or that exceed MaxPool, are dropped.
func (p *BytePool) Put(b []byte) {
	c := cap(b)
	idx := classFor(c)
	if idx < 0 || classSizes[idx] != c {
		return
	}
	b = b[:0]
	p.classes[idx].Put(&b)
}

var defaultBytePool = NewBytePool()

// GetBytesSized returns a slice with exact length from the default pool.
func GetBytesSized(size int) []byte {
	return defaultBytePool.GetSized(size)
}

// PutBytes returns a slice to the default pool.
func PutBytes(b []byte) {
	defaultBytePool.Put(b)
}
