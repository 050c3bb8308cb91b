// Package sharding maps keys onto container files and the groups inside them.
package sharding

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
)

// Defaults used when a count is left at zero.
const (
	DefaultFileShards  = 100
	DefaultGroupShards = 100
	DefaultGroupShift  = 2000
)

// ErrInvalidKey is returned for keys that cannot be placed on a shard.
var ErrInvalidKey = errors.New("invalid key")

// KeyShardingStrategy decides where a key lives. Both methods must be pure
// functions of the key and the strategy's own configuration.
type KeyShardingStrategy interface {
	// FileShard returns the container file shard in [0, FileShardCount()).
	FileShard(key string) (int, error)
	// GroupShard returns the group inside the container in [0, GroupShardCount()).
	GroupShard(key string) (int, error)
	FileShardCount() int
	GroupShardCount() int
}

// HashStrategy is the default strategy. Decimal integer keys are sharded by
// their numeric value, everything else by the SHA-256 digest of the key read
// as an unsigned big-endian integer.
type HashStrategy struct {
	fileShards  *big.Int
	groupShards *big.Int
	groupShift  *big.Int
}

// NewHashStrategy creates a hash strategy. Non-positive arguments fall back
// to the package defaults.
func NewHashStrategy(fileShards, groupShards, groupShift int) *HashStrategy {
	if fileShards <= 0 {
		fileShards = DefaultFileShards
	}
	if groupShards <= 0 {
		groupShards = DefaultGroupShards
	}
	if groupShift <= 0 {
		groupShift = DefaultGroupShift
	}
	return &HashStrategy{
		fileShards:  big.NewInt(int64(fileShards)),
		groupShards: big.NewInt(int64(groupShards)),
		groupShift:  big.NewInt(int64(groupShift)),
	}
}

// FileShard returns key mod N1.
func (hs *HashStrategy) FileShard(key string) (int, error) {
	n, err := keyValue(key)
	if err != nil {
		return 0, err
	}
	// big.Int.Mod is Euclidean, so negative keys still land in [0, N1).
	return int(new(big.Int).Mod(n, hs.fileShards).Int64()), nil
}

// GroupShard returns (key div shift) mod N2.
func (hs *HashStrategy) GroupShard(key string) (int, error) {
	n, err := keyValue(key)
	if err != nil {
		return 0, err
	}
	block := new(big.Int).Div(n, hs.groupShift)
	return int(block.Mod(block, hs.groupShards).Int64()), nil
}

// FileShardCount returns N1
func (hs *HashStrategy) FileShardCount() int {
	return int(hs.fileShards.Int64())
}

// GroupShardCount returns N2
func (hs *HashStrategy) GroupShardCount() int {
	return int(hs.groupShards.Int64())
}

// GroupShift returns the block size applied before the group modulo
func (hs *HashStrategy) GroupShift() int {
	return int(hs.groupShift.Int64())
}

// keyValue turns a key into the integer both hash levels operate on.
func keyValue(key string) (*big.Int, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if isDecimal(key) {
		if n, ok := new(big.Int).SetString(key, 10); ok {
			return n, nil
		}
	}
	sum := sha256.Sum256([]byte(key))
	return new(big.Int).SetBytes(sum[:]), nil
}

// isDecimal reports whether s is an optionally signed run of ASCII digits.
// SetString alone would also accept underscores in some bases.
func isDecimal(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Location is the (file, group) pair a key is stored under.
type Location struct {
	File  int
	Group int
}

// Locate computes both shard levels for key.
func Locate(strategy KeyShardingStrategy, key string) (Location, error) {
	file, err := strategy.FileShard(key)
	if err != nil {
		return Location{}, err
	}
	group, err := strategy.GroupShard(key)
	if err != nil {
		return Location{}, err
	}
	return Location{File: file, Group: group}, nil
}
