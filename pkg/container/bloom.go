package container

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math"
)

var errBloomSize = errors.New("bloom filter data does not match its size")

// bloomFilter answers "definitely not in this file" for keys never written
// there, so misses skip the index walk and the value read.
type bloomFilter struct {
	words     []uint64
	size      uint64 // bits
	hashCount uint32
}

// newBloomFilter sizes a filter for expectedItems at falsePositiveRate.
// m = -(n * ln(p)) / (ln(2)^2), k = (m/n) * ln(2)
func newBloomFilter(expectedItems int, falsePositiveRate float64) *bloomFilter {
	if expectedItems <= 0 {
		expectedItems = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	size := uint64(math.Ceil(-float64(expectedItems) * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2)))
	if size < 64 {
		size = 64
	}
	const maxSize = 1 << 30
	if size > maxSize {
		size = maxSize
	}

	hashCount := uint32(math.Ceil(float64(size) / float64(expectedItems) * math.Ln2))
	if hashCount < 1 {
		hashCount = 1
	}
	if hashCount > 30 {
		hashCount = 30
	}

	return &bloomFilter{
		words:     make([]uint64, (size+63)/64),
		size:      size,
		hashCount: hashCount,
	}
}

// loadBloomFilter rebuilds a filter from its persisted parameters and bits.
func loadBloomFilter(size uint64, hashCount uint32, data []byte) (*bloomFilter, error) {
	nwords := (size + 63) / 64
	if size == 0 || hashCount == 0 || uint64(len(data)) != nwords*8 {
		return nil, errBloomSize
	}
	bf := &bloomFilter{
		words:     make([]uint64, nwords),
		size:      size,
		hashCount: hashCount,
	}
	for i := range bf.words {
		bf.words[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return bf, nil
}

func (bf *bloomFilter) add(key string) {
	h1, h2 := bloomHashes(key)
	for i := uint32(0); i < bf.hashCount; i++ {
		bit := (h1 + uint64(i)*h2) % bf.size
		bf.words[bit/64] |= 1 << (bit % 64)
	}
}

func (bf *bloomFilter) mayContain(key string) bool {
	h1, h2 := bloomHashes(key)
	for i := uint32(0); i < bf.hashCount; i++ {
		bit := (h1 + uint64(i)*h2) % bf.size
		if bf.words[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

func (bf *bloomFilter) marshal() []byte {
	data := make([]byte, len(bf.words)*8)
	for i, w := range bf.words {
		binary.LittleEndian.PutUint64(data[i*8:], w)
	}
	return data
}

// bloomHashes returns the two base hashes for double hashing. h2 is forced
// odd so successive probes do not cycle early.
func bloomHashes(key string) (uint64, uint64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	h1 := h.Sum64()

	_, _ = h.Write([]byte{0xFF})
	h2 := h.Sum64() | 1
	return h1, h2
}
