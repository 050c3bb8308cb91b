package sharding

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestRouter_FileName(t *testing.T) {
	r := NewRouter(NewHashStrategy(10, 10, 10), "", "")
	if got := r.FileName(7); got != "part.7.shard" {
		t.Errorf("FileName(7) = %q, want part.7.shard", got)
	}

	custom := NewRouter(NewHashStrategy(10, 10, 10), "blk-", "h5")
	if got := custom.FileName(0); got != "blk-0.h5" {
		t.Errorf("FileName(0) = %q, want blk-0.h5", got)
	}
}

func TestRouter_RoutePairs(t *testing.T) {
	r := NewRouter(NewHashStrategy(2, 2, 1), "part.", "shard")

	pairs := []Pair{
		{Key: "0", Value: []byte("a")},
		{Key: "1", Value: []byte("b")},
		{Key: "2", Value: []byte("c")},
		{Key: "3", Value: []byte("d")},
	}

	routed, err := r.RoutePairs(pairs)
	if err != nil {
		t.Fatalf("RoutePairs error: %v", err)
	}

	if len(routed) != 2 {
		t.Fatalf("expected 2 files, got %d", len(routed))
	}
	even := routed["part.0.shard"]
	odd := routed["part.1.shard"]
	if len(even) != 2 || even[0].Key != "0" || even[1].Key != "2" {
		t.Errorf("part.0.shard = %+v", even)
	}
	if len(odd) != 2 || odd[0].Key != "1" || odd[1].Key != "3" {
		t.Errorf("part.1.shard = %+v", odd)
	}
}

func TestRouter_RouteKeysRejectsBadKey(t *testing.T) {
	r := NewRouter(NewHashStrategy(4, 4, 4), "", "")
	_, err := r.RouteKeys([]string{"1", "", "2"})
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("RouteKeys error = %v, want ErrInvalidKey", err)
	}
}

func TestSortedFiles(t *testing.T) {
	routed := map[string][]string{"part.2.shard": nil, "part.10.shard": nil, "part.1.shard": nil}
	got := SortedFiles(routed)
	want := []string{"part.1.shard", "part.10.shard", "part.2.shard"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedFiles = %v, want %v", got, want)
	}
}

func TestChunk(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name string
		size int
		want [][]string
	}{
		{"no limit", 0, [][]string{keys}},
		{"larger than input", 10, [][]string{keys}},
		{"exact", 5, [][]string{keys}},
		{"twos", 2, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}},
		{"ones", 1, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Chunk(keys, tt.size); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Chunk(size=%d) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}

	if Chunk(nil, 3) != nil {
		t.Error("Chunk(nil) should be nil")
	}
}
