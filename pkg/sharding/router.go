package sharding

import (
	"fmt"
	"sort"
	"strconv"
)

const (
	DefaultPrefix    = "part."
	DefaultExtension = "shard"
)

// Pair is a key with the record to store under it.
type Pair struct {
	Key   string
	Value []byte
}

// Router partitions batches by container file. All items bound for one file
// end up in one bucket, so a single worker can own that file.
type Router struct {
	strategy  KeyShardingStrategy
	prefix    string
	extension string
}

// NewRouter creates a router. Empty prefix or extension fall back to the
// defaults.
func NewRouter(strategy KeyShardingStrategy, prefix, extension string) *Router {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if extension == "" {
		extension = DefaultExtension
	}
	return &Router{
		strategy:  strategy,
		prefix:    prefix,
		extension: extension,
	}
}

// Strategy returns the sharding strategy in use
func (r *Router) Strategy() KeyShardingStrategy {
	return r.strategy
}

// FileName returns the container file name for a first-level shard,
// e.g. "part.7.shard".
func (r *Router) FileName(shard int) string {
	return r.prefix + strconv.Itoa(shard) + "." + r.extension
}

// FileFor returns the container file name key belongs to.
func (r *Router) FileFor(key string) (string, error) {
	shard, err := r.strategy.FileShard(key)
	if err != nil {
		return "", fmt.Errorf("route %q: %w", key, err)
	}
	return r.FileName(shard), nil
}

// RoutePairs buckets pairs by container file, preserving input order inside
// each bucket. One bad key fails the whole batch.
func (r *Router) RoutePairs(pairs []Pair) (map[string][]Pair, error) {
	routed := make(map[string][]Pair)
	for _, p := range pairs {
		file, err := r.FileFor(p.Key)
		if err != nil {
			return nil, err
		}
		routed[file] = append(routed[file], p)
	}
	return routed, nil
}

// RouteKeys buckets keys by container file, preserving input order.
func (r *Router) RouteKeys(keys []string) (map[string][]string, error) {
	routed := make(map[string][]string)
	for _, k := range keys {
		file, err := r.FileFor(k)
		if err != nil {
			return nil, err
		}
		routed[file] = append(routed[file], k)
	}
	return routed, nil
}

// SortedFiles returns the bucket names of a routing result in a stable order.
func SortedFiles[T any](routed map[string][]T) []string {
	files := make([]string, 0, len(routed))
	for f := range routed {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Chunk splits keys into consecutive slices of at most size elements.
// size <= 0 returns keys as a single chunk.
func Chunk(keys []string, size int) [][]string {
	if len(keys) == 0 {
		return nil
	}
	if size <= 0 || size >= len(keys) {
		return [][]string{keys}
	}
	chunks := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}
