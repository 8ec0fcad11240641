// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable time source for driving TTL expiry.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (fc *fakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

func (fc *fakeClock) Advance(d time.Duration) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.now = fc.now.Add(d)
}

func TestGetPutRoundTrip(t *testing.T) {
	c := New(4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get() on empty cache should miss")
	}

	c.Put("a", "payload")
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("Get() after Put() should hit")
	}
	if got.(string) != "payload" {
		t.Errorf("Get() = %v, want %q", got, "payload")
	}
}

func TestTTLExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New(4, time.Minute, WithClock(clock.Now))

	c.Put("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry should be live before TTL")
	}

	clock.Advance(61 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry should expire after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after lazy expiry, want 0", c.Len())
	}
}

func TestPutWithTTLOverridesDefault(t *testing.T) {
	clock := newFakeClock()
	c := New(4, time.Minute, WithClock(clock.Now))

	c.PutWithTTL("long", 1, time.Hour)
	clock.Advance(30 * time.Minute)
	if _, ok := c.Get("long"); !ok {
		t.Fatal("entry with explicit TTL should outlive the default")
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(2, time.Minute)

	c.Put("a", 1)
	c.Put("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit on a")
	}

	c.Put("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be evicted at capacity")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry should be present")
	}
}

func TestUpdateExistingKeyDoesNotGrow(t *testing.T) {
	c := New(2, time.Minute)

	c.Put("a", 1)
	c.Put("a", 2)
	if c.Len() != 1 {
		t.Fatalf("Len() = %d after updating one key, want 1", c.Len())
	}
	got, _ := c.Get("a")
	if got.(int) != 2 {
		t.Errorf("Get() = %v after update, want 2", got)
	}
}

func TestKeysRecencyOrder(t *testing.T) {
	c := New(4, time.Minute)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Get("a")

	keys := c.Keys()
	want := []string{"a", "c", "b"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestStatsCounters(t *testing.T) {
	c := New(1, time.Minute)

	c.Put("a", 1)
	c.Get("a")
	c.Get("nope")
	c.Put("b", 2) // evicts a

	hits, misses, evictions, size := c.Stats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
	if evictions != 1 {
		t.Errorf("evictions = %d, want 1", evictions)
	}
	if size != 1 {
		t.Errorf("size = %d, want 1", size)
	}
}

func TestClear(t *testing.T) {
	c := New(4, time.Minute)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Clear, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared entry should miss")
	}
}

func TestCleanupExpired(t *testing.T) {
	clock := newFakeClock()
	c := New(8, time.Minute, WithClock(clock.Now))

	c.Put("old1", 1)
	c.Put("old2", 2)
	clock.Advance(2 * time.Minute)
	c.Put("fresh", 3)

	removed := c.CleanupExpired()
	if removed != 2 {
		t.Fatalf("CleanupExpired() = %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestGenerateKeyDeterministic(t *testing.T) {
	type params struct {
		Flow string
		From string
		To   string
	}

	a := GenerateKey("ranking", params{Flow: "export", From: "2024-01", To: "2024-12"})
	b := GenerateKey("ranking", params{Flow: "export", From: "2024-01", To: "2024-12"})
	if a != b {
		t.Errorf("identical params should produce identical keys: %q vs %q", a, b)
	}

	other := GenerateKey("ranking", params{Flow: "import", From: "2024-01", To: "2024-12"})
	if a == other {
		t.Error("different params should produce different keys")
	}

	otherOp := GenerateKey("time_series", params{Flow: "export", From: "2024-01", To: "2024-12"})
	if a == otherOp {
		t.Error("different operations should produce different keys")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(32, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n))
			for j := 0; j < 200; j++ {
				c.Put(key, j)
				c.Get(key)
				c.Keys()
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > c.Capacity() {
		t.Errorf("Len() = %d exceeds capacity %d", c.Len(), c.Capacity())
	}
}
