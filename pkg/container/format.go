// Package container implements the on-disk container file: a single file
// holding named groups of key to record entries.
//
// Layout:
//
//	[header]
//	[data region: record bytes, snappy-compressed when FlagSnappy is set]
//	[index: msgpack map[group]map[key]entryRef]
//	[bloom filter bits over every key in the file]
//
// Files are never modified in place. A write produces a complete new file
// next to the old one and renames it over, so readers holding a mapping of
// the old file keep a consistent view.
package container

import (
	"encoding/binary"
	"errors"
)

const (
	// Magic identifies container files ("SKVC")
	Magic uint32 = 0x534B5643
	// Version is the current on-disk format version
	Version uint16 = 1
)

// Header flags
const (
	FlagSnappy uint16 = 1 << iota
)

var (
	ErrBadMagic           = errors.New("not a container file")
	ErrUnsupportedVersion = errors.New("unsupported container version")
	ErrCorrupt            = errors.New("container file is corrupt")
	ErrChecksumMismatch   = errors.New("record checksum mismatch")
)

// fileHeader is written little-endian at offset 0.
type fileHeader struct {
	Magic       uint32
	Version     uint16
	Flags       uint16
	EntryCount  uint32
	GroupCount  uint32
	IndexOffset uint64
	BloomOffset uint64
	BloomBits   uint64
	BloomHashes uint32
	BloomSize   uint32
}

var headerSize = binary.Size(fileHeader{})

// entryRef locates one record inside the data region.
type entryRef struct {
	Offset uint64 `msgpack:"o"`
	Length uint32 `msgpack:"l"`
	CRC    uint32 `msgpack:"c"`
}

// groupTable is the persisted index: group name -> key -> record location.
type groupTable map[string]map[string]entryRef

// Result is the outcome of looking up one key. Found is false when the
// container, the group or the key inside it does not exist.
type Result struct {
	Key   string
	Value []byte
	Found bool
}

// ResultSink receives search results. Implementations must be safe for
// concurrent use since several searches may feed one sink.
type ResultSink interface {
	Put(Result)
}

// ResultSinkFunc adapts a function to ResultSink.
type ResultSinkFunc func(Result)

// Put calls f(r).
func (f ResultSinkFunc) Put(r Result) { f(r) }
