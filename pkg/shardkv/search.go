package shardkv

import (
	"github.com/dd0wney/shardkv/pkg/container"
	"github.com/dd0wney/shardkv/pkg/logging"
	"github.com/dd0wney/shardkv/pkg/parallel"
	"github.com/dd0wney/shardkv/pkg/sharding"
)

// Search looks up keys and returns one Result per requested key, in the
// order the workers produced them. Unknown keys, including keys whose
// container file does not exist, come back with Found false.
//
// maxParallel > 0 caps how many keys a single task handles, splitting one
// container file's keys across several concurrent readers. maxParallel <= 0
// uses one task per container file.
func (s *Store) Search(keys []string, maxParallel int) (results []Result, err error) {
	timer := logging.StartTimer(s.log, "search", logging.Operation("search"))
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordStoreOperation("search", err, timer.Elapsed())
		}
	}()

	results, err = s.search(keys, maxParallel)
	if err != nil {
		timer.EndError(err, logging.Count(len(keys)))
		return nil, err
	}

	hits := 0
	for _, r := range results {
		if r.Found {
			hits++
		}
	}
	if s.metrics != nil {
		s.metrics.RecordSearch(hits, len(results)-hits)
	}
	timer.EndDebug(logging.Count(len(keys)), logging.Int("hits", hits))
	return results, nil
}

// SearchOne looks up a single key.
func (s *Store) SearchOne(key string) ([]byte, bool, error) {
	results, err := s.Search([]string{key}, 0)
	if err != nil {
		return nil, false, err
	}
	if len(results) != 1 {
		return nil, false, nil
	}
	return results[0].Value, results[0].Found, nil
}

// Get is SearchOne for callers that prefer an error for absent keys.
func (s *Store) Get(key string) ([]byte, error) {
	value, found, err := s.SearchOne(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NewError("get").Key(key).Cause(ErrNotFound).Err()
	}
	return value, nil
}

func (s *Store) search(keys []string, maxParallel int) ([]Result, error) {
	if len(keys) == 0 {
		return []Result{}, nil
	}

	routed, err := s.router.RouteKeys(keys)
	if err != nil {
		return nil, NewError("search").Batch().Cause(err).Err()
	}

	// Every requested key yields exactly one result, so a channel sized to
	// the request never blocks a worker.
	collected := make(chan Result, len(keys))
	sink := container.ResultSinkFunc(func(r Result) {
		collected <- r
	})

	var tasks []parallel.Task
	for _, file := range sharding.SortedFiles(routed) {
		path := s.containerPath(file)
		for _, chunk := range sharding.Chunk(routed[file], maxParallel) {
			chunk := chunk
			tasks = append(tasks, func() error {
				if serr := container.SearchBatch(path, chunk, s.router.Strategy(), sink); serr != nil {
					return NewError("search").Container(path).Cause(serr).Err()
				}
				return nil
			})
		}
	}
	if s.metrics != nil {
		s.metrics.RecordTasks("search", len(tasks))
	}

	workErr := parallel.Run(s.opts.MaxWorkers, tasks)
	close(collected)
	if workErr != nil {
		return nil, workErr
	}

	results := make([]Result, 0, len(keys))
	for r := range collected {
		results = append(results, r)
	}
	return results, nil
}
