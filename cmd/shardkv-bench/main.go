package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/dd0wney/shardkv/pkg/shardkv"
)

type benchStats struct {
	Keys       int
	Duration   time.Duration
	Throughput float64
}

func main() {
	numKeys := flag.Int("keys", 100000, "Number of keys to insert")
	valueSize := flag.Int("value-size", 128, "Bytes per record")
	fileShards := flag.Int("files", 100, "First-level (file) shards")
	groupShards := flag.Int("groups", 100, "Second-level (group) shards")
	numWorkers := flag.Int("workers", 0, "Worker goroutines (0 = CPU count)")
	compress := flag.Bool("compress", false, "Snappy-compress records")
	flag.Parse()

	if *numWorkers == 0 {
		*numWorkers = runtime.NumCPU()
	}

	fmt.Printf("shardkv insert/search benchmark\n")
	fmt.Printf("===============================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Keys:        %d\n", *numKeys)
	fmt.Printf("  Value size:  %d\n", *valueSize)
	fmt.Printf("  Shards:      %d files x %d groups\n", *fileShards, *groupShards)
	fmt.Printf("  CPU Cores:   %d\n", runtime.NumCPU())
	fmt.Printf("  Workers:     %d\n\n", *numWorkers)

	pairs := makePairs(*numKeys, *valueSize)
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}

	var baseline time.Duration
	for _, workers := range uniq(1, 4, *numWorkers) {
		dir, err := os.MkdirTemp("", "shardkv-bench-*")
		if err != nil {
			log.Fatalf("temp dir: %v", err)
		}

		store, err := shardkv.Open(shardkv.Options{
			Dir:         dir,
			FileShards:  *fileShards,
			GroupShards: *groupShards,
			MaxWorkers:  workers,
			Compress:    *compress,
		})
		if err != nil {
			log.Fatalf("open store: %v", err)
		}

		ins := timeIt(len(pairs), func() error { return store.Insert(pairs, false) })
		fmt.Printf("Insert (%d workers)\n", workers)
		printStats(ins, baseline)
		if baseline == 0 {
			baseline = ins.Duration
		}

		rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		for _, chunk := range []int{0, 1000} {
			var missing int
			s := timeIt(len(keys), func() error {
				results, err := store.Search(keys, chunk)
				for _, r := range results {
					if !r.Found {
						missing++
					}
				}
				return err
			})
			fmt.Printf("Search (%d workers, chunk %d)\n", workers, chunk)
			printStats(s, 0)
			if missing > 0 {
				log.Fatalf("%d keys missing after insert", missing)
			}
		}

		os.RemoveAll(dir)
	}
}

func makePairs(n, size int) []shardkv.Pair {
	pairs := make([]shardkv.Pair, n)
	for i := range pairs {
		value := make([]byte, size)
		rand.Read(value)
		pairs[i] = shardkv.Pair{Key: strconv.Itoa(i), Value: value}
	}
	return pairs
}

func timeIt(n int, fn func() error) benchStats {
	start := time.Now()
	if err := fn(); err != nil {
		log.Fatalf("benchmark step failed: %v", err)
	}
	d := time.Since(start)
	return benchStats{Keys: n, Duration: d, Throughput: float64(n) / d.Seconds()}
}

func printStats(s benchStats, baseline time.Duration) {
	fmt.Printf("   Keys:          %d\n", s.Keys)
	fmt.Printf("   Duration:      %s\n", s.Duration)
	fmt.Printf("   Throughput:    %.0f keys/sec\n", s.Throughput)
	if baseline > 0 {
		fmt.Printf("   Speedup:       %.2fx\n", baseline.Seconds()/s.Duration.Seconds())
	}
	fmt.Println()
}

func uniq(ns ...int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, n := range ns {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
