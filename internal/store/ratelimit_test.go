package store

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWriteLimiter_Budget(t *testing.T) {
	l := newWriteLimiter(3, time.Minute)
	now := time.Unix(1700000000, 0)

	for i := 0; i < 3; i++ {
		if !l.allow("group:1", now) {
			t.Fatalf("allow() call %d = false, want true", i+1)
		}
	}
	if l.allow("group:1", now) {
		t.Error("allow() over budget = true, want false")
	}

	// Budgets are per key.
	if !l.allow("group:2", now) {
		t.Error("allow(group:2) = false, want independent budget")
	}
}

func TestWriteLimiter_SlidingWindow(t *testing.T) {
	l := newWriteLimiter(2, time.Minute)
	now := time.Unix(1700000000, 0)

	if !l.allow("k", now) {
		t.Fatal("first allow() = false")
	}
	if !l.allow("k", now.Add(30*time.Second)) {
		t.Fatal("second allow() = false")
	}
	if l.allow("k", now.Add(45*time.Second)) {
		t.Error("allow() inside window = true, want false")
	}

	// The first stamp ages out, freeing one slot.
	if !l.allow("k", now.Add(61*time.Second)) {
		t.Error("allow() after first stamp expired = false, want true")
	}
	if l.allow("k", now.Add(62*time.Second)) {
		t.Error("allow() = true, want false; window still holds two stamps")
	}
}

func TestWriteLimiter_Prune(t *testing.T) {
	l := newWriteLimiter(5, time.Minute)
	now := time.Unix(1700000000, 0)

	l.allow("a", now)
	l.allow("b", now)
	l.prune(now.Add(2 * time.Minute))

	if len(l.stamps) != 0 {
		t.Errorf("stamps after prune = %d keys, want 0", len(l.stamps))
	}
}

func TestStore_WriteRateLimit(t *testing.T) {
	s, _ := newTestStore(t, Config{})

	for i := 0; i < 100; i++ {
		if err := s.Set("group:1", i, SetOptions{}); err != nil {
			t.Fatalf("Set() %d error = %v, want nil within budget", i+1, err)
		}
	}
	err := s.Set("group:1", 101, SetOptions{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("101st Set() error = %v, want ErrRateLimited", err)
	}
	if got := s.Counters().RateLimited; got != 1 {
		t.Errorf("RateLimited = %d, want 1", got)
	}

	// Other keys stay writable.
	if err := s.Set("group:2", 1, SetOptions{}); err != nil {
		t.Errorf("Set(group:2) error = %v, want nil", err)
	}
}

func TestStore_WriteRateLimitRecovers(t *testing.T) {
	s, cur := newTestStore(t, Config{WriteLimit: 2, WriteWindow: time.Minute})

	mustSet(t, s, "group:1", 1, SetOptions{})
	mustSet(t, s, "group:1", 2, SetOptions{})
	if err := s.Set("group:1", 3, SetOptions{}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Set() error = %v, want ErrRateLimited", err)
	}

	*cur = cur.Add(61 * time.Second)
	if err := s.Set("group:1", 4, SetOptions{}); err != nil {
		t.Errorf("Set() after window error = %v, want nil", err)
	}
}

func TestStore_RateLimitedWriteKeepsOldValue(t *testing.T) {
	s, _ := newTestStore(t, Config{WriteLimit: 1})

	mustSet(t, s, "group:1", "original", SetOptions{})
	if err := s.Set("group:1", "replacement", SetOptions{}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Set() error = %v, want ErrRateLimited", err)
	}

	v, ok := s.Get("group:1")
	if !ok || v != "original" {
		t.Errorf("Get() = %v, %v; want the original value intact", v, ok)
	}
}

func TestRateWindow(t *testing.T) {
	w := rateWindow{window: time.Minute}
	now := time.Unix(1700000000, 0)

	for i := 0; i < 4; i++ {
		w.add(now.Add(time.Duration(i) * 10 * time.Second))
	}
	if got := w.count(now.Add(30 * time.Second)); got != 4 {
		t.Errorf("count() = %d, want 4", got)
	}
	// Stamps older than the window fall out.
	if got := w.count(now.Add(70 * time.Second)); got != 3 {
		t.Errorf("count() at 70s = %d, want 3", got)
	}
	w.reset()
	if got := w.count(now); got != 0 {
		t.Errorf("count() after reset = %d, want 0", got)
	}
}

func BenchmarkStore_Set(b *testing.B) {
	s, err := New(Config{MaxEntries: 10000, WriteLimit: 1 << 30}, nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Set(fmt.Sprintf("group:%d", i%5000), i, SetOptions{})
	}
}

func BenchmarkStore_Get(b *testing.B) {
	s, err := New(Config{MaxEntries: 10000, WriteLimit: 1 << 30}, nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 5000; i++ {
		s.Set(fmt.Sprintf("group:%d", i), i, SetOptions{})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Get(fmt.Sprintf("group:%d", i%5000))
	}
}
