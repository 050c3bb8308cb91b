package container

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultBloomFPRate is the bloom filter false positive rate used when
// WriteOptions leaves it unset.
const DefaultBloomFPRate = 0.01

// WriteOptions controls how a container file is rewritten.
type WriteOptions struct {
	// Compress stores records snappy-compressed
	Compress bool
	// BloomFPRate is the target false positive rate of the per-file filter
	BloomFPRate float64
	// NoSync skips fsync of the file and its directory (tests only)
	NoSync bool
}

// contents is the in-memory form of a container while it is being rebuilt.
type contents map[string]map[string][]byte

func (c contents) count() int {
	n := 0
	for _, entries := range c {
		n += len(entries)
	}
	return n
}

// readAll loads every record of an existing container. A missing file
// yields empty contents.
func readAll(path string) (contents, error) {
	c := contents{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, nil
	}

	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, group := range r.Groups() {
		entries := make(map[string][]byte, len(r.groups[group]))
		for key, ref := range r.groups[group] {
			value, err := r.read(ref)
			if err != nil {
				return nil, fmt.Errorf("read %q from %s: %w", key, path, err)
			}
			entries[key] = value
		}
		c[group] = entries
	}
	return c, nil
}

// writeFile writes c as a complete container to a temp file in the same
// directory and renames it over path.
func writeFile(path string, c contents, opts WriteOptions) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp container: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	var flags uint16
	if opts.Compress {
		flags |= FlagSnappy
	}
	fpRate := opts.BloomFPRate
	if fpRate == 0 {
		fpRate = DefaultBloomFPRate
	}

	w := bufio.NewWriter(tmp)

	// Header placeholder; the real one is written once offsets are known.
	if _, err := w.Write(make([]byte, headerSize)); err != nil {
		return err
	}

	total := c.count()
	bloom := newBloomFilter(total, fpRate)
	table := make(groupTable, len(c))
	offset := uint64(headerSize)

	for _, group := range sortedKeys(c) {
		entries := c[group]
		refs := make(map[string]entryRef, len(entries))
		for _, key := range sortedKeys(entries) {
			data := entries[key]
			if opts.Compress {
				data = snappy.Encode(nil, data)
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
			refs[key] = entryRef{
				Offset: offset,
				Length: uint32(len(data)),
				CRC:    crc32.ChecksumIEEE(data),
			}
			offset += uint64(len(data))
			bloom.add(key)
		}
		table[group] = refs
	}

	indexData, err := msgpack.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode container index: %w", err)
	}
	if _, err := w.Write(indexData); err != nil {
		return err
	}
	bloomData := bloom.marshal()
	if _, err := w.Write(bloomData); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	header := fileHeader{
		Magic:       Magic,
		Version:     Version,
		Flags:       flags,
		EntryCount:  uint32(total),
		GroupCount:  uint32(len(c)),
		IndexOffset: offset,
		BloomOffset: offset + uint64(len(indexData)),
		BloomBits:   bloom.size,
		BloomHashes: bloom.hashCount,
		BloomSize:   uint32(len(bloomData)),
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return err
	}
	if err := binary.Write(tmp, binary.LittleEndian, &header); err != nil {
		return err
	}

	if !opts.NoSync {
		if err := tmp.Sync(); err != nil {
			return fmt.Errorf("sync container: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("publish container: %w", err)
	}
	if !opts.NoSync {
		syncDir(dir)
	}
	return nil
}

// syncDir makes the rename durable. Errors are ignored since some
// platforms cannot fsync a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
