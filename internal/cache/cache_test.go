package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dayspark/core/internal/brief"
)

// memStore is an in-memory Store with optional injected failures
type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	failing bool
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return "", false, errors.New("store unavailable")
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store unavailable")
	}
	s.values[key] = value
	return nil
}

func (s *memStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store unavailable")
	}
	delete(s.values, key)
	return nil
}

func (s *memStore) drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *memStore) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = v
}

func testBrief(id string) *brief.BriefData {
	return &brief.BriefData{
		ID:          id,
		GeneratedAt: time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC),
	}
}

// withClock pins the cache clock to a mutable instant
func withClock(c *Cache, at *time.Time, mu *sync.Mutex) {
	c.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return *at
	}
}

func TestCache_TTL(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	c := New(nil, 5*time.Minute)
	withClock(c, &now, &mu)

	c.Put("k", testBrief("b1"))

	if data, ok := c.Get("k"); !ok || data.ID != "b1" {
		t.Fatal("fresh entry should be a hit")
	}

	mu.Lock()
	now = now.Add(4 * time.Minute)
	mu.Unlock()
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry within TTL should still be a hit")
	}

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry past TTL should be a miss")
	}
}

func TestCache_StaleIgnoresTTL(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	c := New(nil, time.Minute)
	withClock(c, &now, &mu)

	putAt := now
	c.Put("k", testBrief("b1"))

	mu.Lock()
	now = now.Add(3 * time.Hour)
	mu.Unlock()

	if _, ok := c.Get("k"); ok {
		t.Fatal("Get should report a miss after TTL")
	}
	data, ts, ok := c.Stale("k")
	if !ok || data.ID != "b1" {
		t.Fatal("Stale should still return the expired entry")
	}
	if !ts.Equal(putAt) {
		t.Errorf("Stale timestamp = %v, want %v", ts, putAt)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New(nil, time.Minute)
	c.Put("k", testBrief("b1"))
	c.Invalidate("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("invalidated entry should be gone")
	}
	if _, _, ok := c.Stale("k"); ok {
		t.Fatal("invalidated entry should not be served stale either")
	}
}

func TestCache_SingleFlight(t *testing.T) {
	c := New(nil, time.Minute)

	var generations int32
	release := make(chan struct{})
	generate := func(ctx context.Context) (*brief.BriefData, error) {
		atomic.AddInt32(&generations, 1)
		<-release
		return testBrief("generated"), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*brief.BriefData, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = c.GetOrGenerate(context.Background(), "k", generate)
		}(i)
	}

	// Give all callers time to join the flight before releasing it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&generations); n != 1 {
		t.Fatalf("expected exactly 1 generation, got %d", n)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if results[i].ID != "generated" {
			t.Fatalf("caller %d got brief %q", i, results[i].ID)
		}
	}
}

func TestCache_GetOrGenerate(t *testing.T) {
	t.Run("hit skips generation", func(t *testing.T) {
		c := New(nil, time.Minute)
		c.Put("k", testBrief("cached"))

		data, fromCache, err := c.GetOrGenerate(context.Background(), "k", func(ctx context.Context) (*brief.BriefData, error) {
			t.Error("generator should not run on a hit")
			return nil, nil
		})
		if err != nil || !fromCache || data.ID != "cached" {
			t.Fatalf("got (%v, %v, %v)", data, fromCache, err)
		}
	})

	t.Run("miss generates and caches", func(t *testing.T) {
		c := New(nil, time.Minute)

		data, fromCache, err := c.GetOrGenerate(context.Background(), "k", func(ctx context.Context) (*brief.BriefData, error) {
			return testBrief("fresh"), nil
		})
		if err != nil || fromCache || data.ID != "fresh" {
			t.Fatalf("got (%v, %v, %v)", data, fromCache, err)
		}
		if cached, ok := c.Get("k"); !ok || cached.ID != "fresh" {
			t.Fatal("generated brief should be cached")
		}
	})

	t.Run("generator error propagates and nothing is cached", func(t *testing.T) {
		c := New(nil, time.Minute)
		wantErr := errors.New("sources down")

		_, _, err := c.GetOrGenerate(context.Background(), "k", func(ctx context.Context) (*brief.BriefData, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("error = %v, want %v", err, wantErr)
		}
		if _, ok := c.Get("k"); ok {
			t.Fatal("failed generation must not populate the cache")
		}
	})
}

func TestCache_Persistence(t *testing.T) {
	t.Run("entry survives a restart", func(t *testing.T) {
		store := newMemStore()

		c1 := New(store, time.Minute)
		c1.Put("k", testBrief("persisted"))

		// Fresh cache on the same store simulates a process restart
		c2 := New(store, time.Minute)
		data, ok := c2.Get("k")
		if !ok || data.ID != "persisted" {
			t.Fatal("entry should be readable from the store after restart")
		}
	})

	t.Run("partial row is a full miss", func(t *testing.T) {
		store := newMemStore()

		c1 := New(store, time.Minute)
		c1.Put("k", testBrief("persisted"))
		store.drop("k:ts")

		c2 := New(store, time.Minute)
		if _, ok := c2.Get("k"); ok {
			t.Fatal("entry missing its timestamp row must be a miss")
		}
	})

	t.Run("store failure degrades to memory only", func(t *testing.T) {
		store := newMemStore()
		store.setFailing(true)

		c := New(store, time.Minute)
		c.Put("k", testBrief("b1"))

		// The entry is still served from memory despite the broken store
		if data, ok := c.Get("k"); !ok || data.ID != "b1" {
			t.Fatal("cache should keep working in memory when the store fails")
		}

		// Recovered store is not retried within the same process
		store.setFailing(false)
		c.Put("k2", testBrief("b2"))
		if _, _, err := store.Get("k2"); err != nil {
			t.Fatal(err)
		}
		if _, ok := store.values["k2"]; ok {
			t.Fatal("degraded cache must not resume writing to the store")
		}
	})
}

func TestProperty_CachePutGet(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("put_then_get_within_ttl", prop.ForAll(
		func(key, id string) bool {
			if key == "" {
				return true
			}
			c := New(nil, time.Minute)
			c.Put(key, testBrief(id))
			data, ok := c.Get(key)
			return ok && data.ID == id
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.Property("distinct_keys_do_not_collide", prop.ForAll(
		func(key string) bool {
			if key == "" {
				return true
			}
			c := New(nil, time.Minute)
			c.Put(key, testBrief("x"))
			_, ok := c.Get(key + "-other")
			return !ok
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
