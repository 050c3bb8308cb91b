// Package shardkv is the store facade: a two-level hash-sharded, file-backed
// map from string keys to byte records.
//
// Keys are routed to a container file by the first-level hash and to a
// group inside that file by the second-level hash. Inserts and searches fan
// out across container files on a bounded worker pool; every container file
// is written by exactly one task per Insert call.
//
// A Store keeps no data in memory between calls. The key index is loaded at
// the start of every Insert and saved at its end, so a Store can be cheaply
// re-created per process.
package shardkv

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/dd0wney/shardkv/pkg/container"
	"github.com/dd0wney/shardkv/pkg/index"
	"github.com/dd0wney/shardkv/pkg/logging"
	"github.com/dd0wney/shardkv/pkg/metrics"
	"github.com/dd0wney/shardkv/pkg/parallel"
	"github.com/dd0wney/shardkv/pkg/sharding"
)

// Pair is a key and the record to store under it.
type Pair = sharding.Pair

// Result is the outcome of a lookup; Found is false for unknown keys.
type Result = container.Result

// Store coordinates the index, the router and the worker pool.
type Store struct {
	opts    Options
	dir     string
	router  *sharding.Router
	log     logging.Logger
	metrics *metrics.Registry

	// writeMu serializes Insert calls on this Store so that no two tasks
	// ever rewrite the same container file at once.
	writeMu sync.Mutex
}

// Open creates a Store over an existing storage directory.
func Open(opts Options) (*Store, error) {
	opts = opts.withDefaults()

	info, err := os.Stat(opts.Dir)
	if opts.Dir == "" || os.IsNotExist(err) {
		return nil, NewError("open").Dir(opts.Dir).Cause(ErrDirNotFound).Err()
	}
	if err != nil {
		return nil, NewError("open").Dir(opts.Dir).Cause(err).Err()
	}
	if !info.IsDir() {
		return nil, NewError("open").Dir(opts.Dir).Cause(ErrNotDir).Err()
	}

	s := &Store{
		opts:    opts,
		dir:     opts.Dir,
		router:  sharding.NewRouter(opts.Strategy, opts.FilePrefix, opts.Extension),
		log:     opts.Logger.With(logging.Component("shardkv"), logging.Path(opts.Dir)),
		metrics: opts.Metrics,
	}

	s.log.Debug("store opened",
		logging.Int("file_shards", opts.Strategy.FileShardCount()),
		logging.Int("group_shards", opts.Strategy.GroupShardCount()),
		logging.Int("max_workers", opts.MaxWorkers),
	)
	return s, nil
}

// Dir returns the storage directory
func (s *Store) Dir() string {
	return s.dir
}

// Router returns the router used to place keys
func (s *Store) Router() *sharding.Router {
	return s.router
}

// IndexPath returns the location of the key index
func (s *Store) IndexPath() string {
	return index.Path(s.dir)
}

func (s *Store) containerPath(file string) string {
	return filepath.Join(s.dir, file)
}

// Insert stores pairs. Keys already present in the index are skipped unless
// replace is true; within one call a later pair for the same key wins.
//
// Container files are written in parallel, one task per file. If some
// files fail, the others keep their writes, their keys are still added to
// the index, and the joined errors are returned. Retrying the whole call is
// safe because a re-insert overwrites.
func (s *Store) Insert(pairs []Pair, replace bool) (err error) {
	timer := logging.StartTimer(s.log, "insert", logging.Operation("insert"), logging.Bool("replace", replace))
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordStoreOperation("insert", err, timer.Elapsed())
		}
	}()

	if len(pairs) == 0 {
		return nil
	}

	routed, err := s.router.RoutePairs(pairs)
	if err != nil {
		return NewError("insert").Batch().Cause(err).Err()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	idxPath := s.IndexPath()
	keys, err := index.Load(idxPath)
	if err != nil {
		return NewError("insert").Index(idxPath).Cause(err).Err()
	}

	var missing map[string]bool
	if !replace && s.opts.VerifyIndex {
		if missing, err = s.missingIndexedKeys(pairs, keys); err != nil {
			return err
		}
	}

	accepted := make(map[string][]Pair, len(routed))
	skipped := 0
	for file, items := range routed {
		for _, p := range items {
			if replace || index.ContainsNew(keys, p.Key) || missing[p.Key] {
				accepted[file] = append(accepted[file], p)
				continue
			}
			skipped++
		}
	}

	files := sharding.SortedFiles(accepted)
	written := make([]bool, len(files))
	tasks := make([]parallel.Task, len(files))
	for i, file := range files {
		i, path, items := i, s.containerPath(file), accepted[file]
		tasks[i] = func() error {
			werr := container.AddBatch(path, items, s.router.Strategy(), s.opts.writeOptions())
			if s.metrics != nil {
				s.metrics.RecordContainerWrite(werr)
			}
			if werr != nil {
				s.log.Error("container write failed", logging.Path(path), logging.Error(werr))
				return NewError("insert").Container(path).Cause(werr).Err()
			}
			written[i] = true
			return nil
		}
	}
	if s.metrics != nil {
		s.metrics.RecordTasks("insert", len(tasks))
	}

	workErr := parallel.Run(s.opts.MaxWorkers, tasks)

	inserted := 0
	for i, file := range files {
		if !written[i] {
			continue
		}
		for _, p := range accepted[file] {
			keys.Add(p.Key)
			inserted++
		}
	}

	var saveErr error
	if inserted > 0 {
		if serr := index.Save(idxPath, keys); serr != nil {
			saveErr = NewError("insert").Index(idxPath).Cause(serr).Err()
		}
	}

	if s.metrics != nil {
		s.metrics.RecordInsert(inserted, skipped, keys.Len())
	}

	err = errors.Join(workErr, saveErr)
	if err != nil {
		timer.EndError(err, logging.Count(inserted))
		return err
	}
	timer.EndDebug(
		logging.Count(inserted),
		logging.Int("skipped", skipped),
		logging.Int("files", len(files)),
	)
	return nil
}

// missingIndexedKeys returns the keys of pairs that the index claims but no
// container actually holds.
func (s *Store) missingIndexedKeys(pairs []Pair, keys *index.KeySet) (map[string]bool, error) {
	seen := make(map[string]bool)
	var claimed []string
	for _, p := range pairs {
		if keys.Has(p.Key) && !seen[p.Key] {
			seen[p.Key] = true
			claimed = append(claimed, p.Key)
		}
	}
	if len(claimed) == 0 {
		return nil, nil
	}

	results, err := s.search(claimed, 0)
	if err != nil {
		return nil, err
	}

	missing := make(map[string]bool)
	for _, r := range results {
		if !r.Found {
			missing[r.Key] = true
		}
	}
	if len(missing) > 0 {
		s.log.Warn("index lists keys absent from storage", logging.Count(len(missing)))
	}
	return missing, nil
}
