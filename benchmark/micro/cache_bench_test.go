// Package micro contains microbenchmarks for the cache hot paths.
package micro

import (
	"context"
	"fmt"
	"testing"
	"time"

	ajo "github.com/soma-enyi/soroban-ajo"
)

func newBenchCache(b *testing.B) *ajo.Cache {
	b.Helper()

	cfg := ajo.TestConfig()
	cfg.DefaultTTL = time.Hour
	cfg.MaxEntries = 4096
	cfg.WriteLimit = 1 << 30

	cache, err := ajo.New(ajo.WithConfig(cfg))
	if err != nil {
		b.Fatalf("creating cache: %v", err)
	}
	b.Cleanup(func() { cache.Close() })
	return cache
}

// BenchmarkFetch_Hit measures the fully cached fetch path.
func BenchmarkFetch_Hit(b *testing.B) {
	cache := newBenchCache(b)
	ctx := context.Background()
	key := ajo.GroupKey(1)

	fetcher := func(ctx context.Context) (any, error) {
		return map[string]any{"id": 1, "name": "community savings"}, nil
	}

	if _, err := cache.Fetch(ctx, key, fetcher); err != nil {
		b.Fatalf("warmup fetch: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cache.Fetch(ctx, key, fetcher); err != nil {
			b.Fatalf("fetch error: %v", err)
		}
	}
}

// BenchmarkFetch_Miss measures the miss path including the store write.
func BenchmarkFetch_Miss(b *testing.B) {
	cache := newBenchCache(b)
	ctx := context.Background()

	fetcher := func(ctx context.Context) (any, error) {
		return "payload", nil
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("group:%d:status", i)
		if _, err := cache.Fetch(ctx, key, fetcher); err != nil {
			b.Fatalf("fetch error: %v", err)
		}
	}
}

// BenchmarkFetch_HitParallel measures hit throughput under contention.
func BenchmarkFetch_HitParallel(b *testing.B) {
	cache := newBenchCache(b)
	ctx := context.Background()
	key := ajo.GroupKey(1)

	fetcher := func(ctx context.Context) (any, error) {
		return "payload", nil
	}
	if _, err := cache.Fetch(ctx, key, fetcher); err != nil {
		b.Fatalf("warmup fetch: %v", err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := cache.Fetch(ctx, key, fetcher); err != nil {
				b.Errorf("fetch error: %v", err)
				return
			}
		}
	})
}

// BenchmarkGet measures a bare cache read.
func BenchmarkGet(b *testing.B) {
	cache := newBenchCache(b)
	key := ajo.GroupKey(1)

	if err := cache.Set(key, "payload"); err != nil {
		b.Fatalf("set error: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := cache.Get(key); !ok {
			b.Fatal("unexpected miss")
		}
	}
}

// BenchmarkSet measures a bare cache write, including key sanitization
// and payload guards.
func BenchmarkSet(b *testing.B) {
	cache := newBenchCache(b)
	key := ajo.GroupKey(1)
	payload := map[string]any{"id": 1, "members": []string{"GAAA", "GBBB", "GCCC"}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := cache.Set(key, payload); err != nil {
			b.Fatalf("set error: %v", err)
		}
	}
}

// BenchmarkHealth measures the cost of a full health snapshot with a
// populated cache.
func BenchmarkHealth(b *testing.B) {
	cache := newBenchCache(b)

	for i := 0; i < 100; i++ {
		key := ajo.GroupKey(uint64(i))
		if err := cache.Set(key, "payload", ajo.WithTags(ajo.TagGroups)); err != nil {
			b.Fatalf("set error: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := cache.Health()
		if h.Size != 100 {
			b.Fatalf("Size = %d, want 100", h.Size)
		}
	}
}
