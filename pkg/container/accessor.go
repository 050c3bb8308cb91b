package container

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dd0wney/shardkv/pkg/sharding"
)

// GroupName is the name under which group shard id g is stored.
func GroupName(g int) string {
	return strconv.Itoa(g)
}

// AddBatch writes pairs into the container at path, creating it if absent.
// Each pair goes to the group given by strategy.GroupShard; an existing
// entry for the same key in that group is replaced, and later pairs in the
// batch win over earlier ones.
//
// The caller must ensure no other AddBatch runs on the same path at the
// same time.
func AddBatch(path string, pairs []sharding.Pair, strategy sharding.KeyShardingStrategy, opts WriteOptions) error {
	if len(pairs) == 0 {
		return nil
	}

	groupOf := make([]string, len(pairs))
	for i, p := range pairs {
		g, err := strategy.GroupShard(p.Key)
		if err != nil {
			return fmt.Errorf("add %q: %w", p.Key, err)
		}
		groupOf[i] = GroupName(g)
	}

	c, err := readAll(path)
	if err != nil {
		return err
	}

	for i, p := range pairs {
		entries, ok := c[groupOf[i]]
		if !ok {
			entries = make(map[string][]byte)
			c[groupOf[i]] = entries
		}
		value := make([]byte, len(p.Value))
		copy(value, p.Value)
		entries[p.Key] = value
	}

	return writeFile(path, c, opts)
}

// SearchBatch looks up keys in the container at path and reports one
// Result per key to sink. A missing container reports every key as not
// found; that is not an error.
func SearchBatch(path string, keys []string, strategy sharding.KeyShardingStrategy, sink ResultSink) error {
	groups := make([]string, len(keys))
	for i, key := range keys {
		g, err := strategy.GroupShard(key)
		if err != nil {
			return fmt.Errorf("search %q: %w", key, err)
		}
		groups[i] = GroupName(g)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		for _, key := range keys {
			sink.Put(Result{Key: key})
		}
		return nil
	}

	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for i, key := range keys {
		value, found, err := r.Get(groups[i], key)
		if err != nil {
			return err
		}
		sink.Put(Result{Key: key, Value: value, Found: found})
	}
	return nil
}

// Info summarises a container file.
type Info struct {
	Path       string
	Entries    int
	Groups     int
	Size       int64
	Compressed bool
}

// Stat opens the container at path and reports its counts.
func Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	r, err := Open(path)
	if err != nil {
		return Info{}, err
	}
	defer r.Close()

	return Info{
		Path:       path,
		Entries:    r.Len(),
		Groups:     len(r.groups),
		Size:       fi.Size(),
		Compressed: r.Compressed(),
	}, nil
}
