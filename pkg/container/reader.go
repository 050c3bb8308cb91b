package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/shardkv/pkg/pools"
)

// Reader is a read-only, memory-mapped view of one container file.
type Reader struct {
	path   string
	mmap   *mmap.ReaderAt
	header fileHeader
	groups groupTable
	bloom  *bloomFilter
}

// Open maps the container at path and loads its index and bloom filter.
func Open(path string) (*Reader, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	r := &Reader{path: path, mmap: ra}
	if err := r.load(); err != nil {
		_ = ra.Close()
		return nil, fmt.Errorf("open container %s: %w", path, err)
	}
	return r, nil
}

func (r *Reader) load() error {
	size := int64(r.mmap.Len())
	if size < int64(headerSize) {
		return ErrCorrupt
	}

	buf := make([]byte, headerSize)
	if _, err := r.mmap.ReadAt(buf, 0); err != nil {
		return err
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &r.header); err != nil {
		return err
	}

	h := r.header
	if h.Magic != Magic {
		return fmt.Errorf("%w: magic %x", ErrBadMagic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	bloomEnd := h.BloomOffset + uint64(h.BloomSize)
	if h.IndexOffset < uint64(headerSize) || h.BloomOffset < h.IndexOffset || bloomEnd > uint64(size) {
		return ErrCorrupt
	}

	indexData := make([]byte, h.BloomOffset-h.IndexOffset)
	if _, err := r.mmap.ReadAt(indexData, int64(h.IndexOffset)); err != nil {
		return err
	}
	if err := msgpack.Unmarshal(indexData, &r.groups); err != nil {
		return fmt.Errorf("%w: index: %v", ErrCorrupt, err)
	}
	if r.groups == nil {
		r.groups = groupTable{}
	}

	bloomData := make([]byte, h.BloomSize)
	if _, err := r.mmap.ReadAt(bloomData, int64(h.BloomOffset)); err != nil {
		return err
	}
	bloom, err := loadBloomFilter(h.BloomBits, h.BloomHashes, bloomData)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	r.bloom = bloom
	return nil
}

// Path returns the file the reader maps
func (r *Reader) Path() string {
	return r.path
}

// Compressed reports whether records are snappy-compressed
func (r *Reader) Compressed() bool {
	return r.header.Flags&FlagSnappy != 0
}

// Len returns the number of entries across all groups
func (r *Reader) Len() int {
	return int(r.header.EntryCount)
}

// Groups returns the group names in sorted order
func (r *Reader) Groups() []string {
	names := make([]string, 0, len(r.groups))
	for g := range r.groups {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

// Keys returns the keys stored in group, sorted.
func (r *Reader) Keys(group string) []string {
	entries := r.groups[group]
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a copy of the record for key in group. found is false when the
// group or the key is absent.
func (r *Reader) Get(group, key string) (value []byte, found bool, err error) {
	if !r.bloom.mayContain(key) {
		return nil, false, nil
	}
	entries, ok := r.groups[group]
	if !ok {
		return nil, false, nil
	}
	ref, ok := entries[key]
	if !ok {
		return nil, false, nil
	}

	value, err = r.read(ref)
	if err != nil {
		return nil, false, fmt.Errorf("read %q from %s: %w", key, r.path, err)
	}
	return value, true, nil
}

func (r *Reader) read(ref entryRef) ([]byte, error) {
	if ref.Offset+uint64(ref.Length) > r.header.IndexOffset {
		return nil, ErrCorrupt
	}

	buf := pools.GetBytesSized(int(ref.Length))
	defer pools.PutBytes(buf)

	if _, err := r.mmap.ReadAt(buf, int64(ref.Offset)); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(buf) != ref.CRC {
		return nil, ErrChecksumMismatch
	}

	if r.Compressed() {
		return snappy.Decode(nil, buf)
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// Close unmaps the file
func (r *Reader) Close() error {
	if r.mmap != nil {
		return r.mmap.Close()
	}
	return nil
}
