// Package index persists the set of every key the store has accepted.
//
// The set only decides whether an insert is new or a duplicate; lookups
// never consult it.
package index

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// FileName is the index file inside the storage directory.
const FileName = "idx.bin"

// magic prefixes every index file ("SKVI" + format 1).
var magic = []byte{'S', 'K', 'V', 'I', 0, 1}

// ErrCorruptIndex is returned when an index file cannot be decoded.
var ErrCorruptIndex = errors.New("corrupt key index")

// KeySet is an in-memory set of keys. It is not safe for concurrent use.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet creates a set holding keys.
func NewKeySet(keys ...string) *KeySet {
	s := &KeySet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

// Add inserts key and reports whether it was new.
func (s *KeySet) Add(key string) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Has reports whether key is in the set.
func (s *KeySet) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	return len(s.keys)
}

// Keys returns the keys in sorted order.
func (s *KeySet) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ContainsNew reports whether key is not yet in set.
func ContainsNew(set *KeySet, key string) bool {
	return !set.Has(key)
}

// Path returns the index file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the index at path. A missing file is an empty set.
func Load(path string) (*KeySet, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewKeySet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return decode(data)
}

// Save writes set to path, replacing any previous index atomically.
func Save(path string, set *KeySet) (err error) {
	data, err := encode(set)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func encode(set *KeySet) ([]byte, error) {
	raw, err := msgpack.Marshal(set.Keys())
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	out := make([]byte, 0, len(magic)+snappy.MaxEncodedLen(len(raw)))
	out = append(out, magic...)
	return append(out, snappy.Encode(nil, raw)...), nil
}

func decode(data []byte) (*KeySet, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptIndex)
	}
	raw, err := snappy.Decode(nil, data[len(magic):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	var keys []string
	if err := msgpack.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	return NewKeySet(keys...), nil
}
