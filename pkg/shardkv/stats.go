package shardkv

import (
	"os"
	"path/filepath"

	"github.com/dd0wney/shardkv/pkg/container"
	"github.com/dd0wney/shardkv/pkg/index"
	"github.com/dd0wney/shardkv/pkg/sharding"
)

// Stats describes what a store currently holds on disk.
type Stats struct {
	IndexedKeys    int   `json:"indexed_keys"`
	ContainerFiles int   `json:"container_files"`
	ContainerBytes int64 `json:"container_bytes"`
	StoredEntries  int   `json:"stored_entries"`
	FileShards     int   `json:"file_shards"`
	GroupShards    int   `json:"group_shards"`
}

// Stats loads the index and scans the storage directory for container files.
func (s *Store) Stats() (Stats, error) {
	strategy := s.router.Strategy()
	st := Stats{
		FileShards:  strategy.FileShardCount(),
		GroupShards: strategy.GroupShardCount(),
	}

	keys, err := index.Load(s.IndexPath())
	if err != nil {
		return st, NewError("stats").Index(s.IndexPath()).Cause(err).Err()
	}
	st.IndexedKeys = keys.Len()

	paths, err := s.ContainerPaths()
	if err != nil {
		return st, NewError("stats").Dir(s.dir).Cause(err).Err()
	}
	for _, p := range paths {
		info, err := container.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return st, NewError("stats").Container(p).Cause(err).Err()
		}
		st.ContainerFiles++
		st.ContainerBytes += info.Size
		st.StoredEntries += info.Entries
	}
	return st, nil
}

// Placement says where a key lives.
type Placement struct {
	Key        string `json:"key"`
	File       string `json:"file"`
	FileShard  int    `json:"file_shard"`
	GroupShard int    `json:"group_shard"`
}

// Locate reports the container file and group a key routes to. The key
// does not need to be stored.
func (s *Store) Locate(key string) (Placement, error) {
	loc, err := sharding.Locate(s.router.Strategy(), key)
	if err != nil {
		return Placement{}, NewError("locate").Key(key).Cause(err).Err()
	}
	return Placement{
		Key:        key,
		File:       s.router.FileName(loc.File),
		FileShard:  loc.File,
		GroupShard: loc.Group,
	}, nil
}

// ContainerPaths returns the container files present on disk. Temp files
// of an in-flight write are not included.
func (s *Store) ContainerPaths() ([]string, error) {
	names := make(map[string]bool, s.router.Strategy().FileShardCount())
	for shard := 0; shard < s.router.Strategy().FileShardCount(); shard++ {
		names[s.router.FileName(shard)] = true
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && names[e.Name()] {
			paths = append(paths, filepath.Join(s.dir, e.Name()))
		}
	}
	return paths, nil
}
