package shardkv

import (
	"runtime"

	"github.com/dd0wney/shardkv/pkg/container"
	"github.com/dd0wney/shardkv/pkg/logging"
	"github.com/dd0wney/shardkv/pkg/metrics"
	"github.com/dd0wney/shardkv/pkg/sharding"
)

// Options configures a Store. Zero values select the defaults.
type Options struct {
	// Dir is the storage directory. It must already exist.
	Dir string

	// Strategy overrides the sharding strategy. When nil a HashStrategy is
	// built from FileShards, GroupShards and GroupShift.
	Strategy    sharding.KeyShardingStrategy
	FileShards  int
	GroupShards int
	GroupShift  int

	// FilePrefix and Extension name container files: <prefix><shard>.<ext>
	FilePrefix string
	Extension  string

	// MaxWorkers bounds the worker pool. Defaults to GOMAXPROCS.
	MaxWorkers int

	// Compress stores records snappy-compressed
	Compress bool
	// BloomFPRate is the per-container bloom filter false positive rate
	BloomFPRate float64
	// NoSync skips fsync on container writes. Only for tests and bulk loads
	// that can be redone.
	NoSync bool

	// VerifyIndex makes Insert without replace check indexed keys against
	// the containers and re-insert those that are missing on disk.
	VerifyIndex bool

	Logger  logging.Logger
	Metrics *metrics.Registry
}

func (o Options) withDefaults() Options {
	if o.Strategy == nil {
		o.Strategy = sharding.NewHashStrategy(o.FileShards, o.GroupShards, o.GroupShift)
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	o.Logger = logging.OrNop(o.Logger)
	return o
}

func (o Options) writeOptions() container.WriteOptions {
	return container.WriteOptions{
		Compress:    o.Compress,
		BloomFPRate: o.BloomFPRate,
		NoSync:      o.NoSync,
	}
}
