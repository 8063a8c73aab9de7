package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dayspark/core/internal/brief"
)

// DefaultTTL is how long a generated brief may be served without
// regeneration
const DefaultTTL = 5 * time.Minute

// Entry is one cached brief with its generation timestamp. Entries are
// owned by the cache; nothing mutates them after creation.
type Entry struct {
	Data      *brief.BriefData
	Timestamp time.Time
}

// Cache is a TTL-bounded, single-flight cache of generated briefs.
// Fresh entries are served without any source I/O. Concurrent callers
// racing on a cold key share one in-flight generation instead of
// issuing duplicate fetches.
type Cache struct {
	ttl   time.Duration
	store Store // optional persistence; nil means memory-only
	now   func() time.Time

	mu          sync.Mutex
	entries     map[string]Entry
	storeBroken bool

	flight singleflight.Group
}

// New creates a Cache. A nil store disables persistence.
func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		store:   store,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
}

// Get returns the cached brief for key if it is still within TTL.
// An expired entry counts as a miss but is retained so Stale can still
// serve it when regeneration fails.
func (c *Cache) Get(key string) (*brief.BriefData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.Timestamp) > c.ttl {
		return nil, false
	}
	return entry.Data, true
}

// Stale returns the cached brief for key regardless of TTL. Used as the
// fallback when the sources are unreachable: a stale brief beats no
// brief.
func (c *Cache) Stale(key string) (*brief.BriefData, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		return nil, time.Time{}, false
	}
	return entry.Data, entry.Timestamp, true
}

// Put stores a brief under key with the current time
func (c *Cache) Put(key string, data *brief.BriefData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, data)
}

func (c *Cache) put(key string, data *brief.BriefData) {
	entry := Entry{Data: data, Timestamp: c.now()}
	c.entries[key] = entry
	c.writeToStore(key, entry)
}

// Invalidate discards the entry for key, if any
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.removeFromStore(key)
	c.flight.Forget(key)
}

// Generator produces a fresh brief on a cache miss
type Generator func(ctx context.Context) (*brief.BriefData, error)

// GetOrGenerate is the primary entry point. On a hit it returns the
// cached brief with no I/O. On a miss it runs generate, guaranteeing at
// most one concurrent generation per key: callers racing on the same
// cold key wait on the shared flight. A caller whose ctx is cancelled
// stops waiting, but the shared generation keeps running for the
// others; the generator therefore receives a context detached from any
// single caller.
//
// The second return reports whether the brief came from cache.
func (c *Cache) GetOrGenerate(ctx context.Context, key string, generate Generator) (*brief.BriefData, bool, error) {
	if data, ok := c.Get(key); ok {
		return data, true, nil
	}

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		// Double-check under the flight: a racing caller may have just
		// finished a generation for this key.
		if data, ok := c.Get(key); ok {
			return data, nil
		}
		data, err := generate(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Put(key, data)
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*brief.BriefData), false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// lookup finds an entry in memory, falling back to the persistent
// store. Caller must hold c.mu.
func (c *Cache) lookup(key string) (Entry, bool) {
	if entry, ok := c.entries[key]; ok {
		return entry, true
	}
	entry, ok := c.readFromStore(key)
	if ok {
		c.entries[key] = entry
	}
	return entry, ok
}

// Persistence layout: two keyed rows per entry, the brief JSON and its
// generation timestamp. Both must be present; a partial read is a full
// miss.

func storeKeys(key string) (dataKey, tsKey string) {
	return key, key + ":ts"
}

func (c *Cache) readFromStore(key string) (Entry, bool) {
	if c.store == nil || c.storeBroken {
		return Entry{}, false
	}
	dataKey, tsKey := storeKeys(key)

	raw, found, err := c.store.Get(dataKey)
	if err != nil {
		c.degradeStore(err)
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}

	tsRaw, found, err := c.store.Get(tsKey)
	if err != nil {
		c.degradeStore(err)
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}

	var data brief.BriefData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Entry{}, false
	}
	ts, err := time.Parse(time.RFC3339, tsRaw)
	if err != nil {
		return Entry{}, false
	}

	return Entry{Data: &data, Timestamp: ts}, true
}

func (c *Cache) writeToStore(key string, entry Entry) {
	if c.store == nil || c.storeBroken {
		return
	}
	raw, err := json.Marshal(entry.Data)
	if err != nil {
		return
	}
	dataKey, tsKey := storeKeys(key)
	if err := c.store.Set(dataKey, string(raw)); err != nil {
		c.degradeStore(err)
		return
	}
	if err := c.store.Set(tsKey, entry.Timestamp.Format(time.RFC3339)); err != nil {
		c.degradeStore(err)
	}
}

func (c *Cache) removeFromStore(key string) {
	if c.store == nil || c.storeBroken {
		return
	}
	dataKey, tsKey := storeKeys(key)
	if err := c.store.Remove(dataKey); err != nil {
		c.degradeStore(err)
		return
	}
	if err := c.store.Remove(tsKey); err != nil {
		c.degradeStore(err)
	}
}

// degradeStore switches the cache to memory-only for the rest of the
// process after a storage failure. Generation keeps working; only
// persistence across restarts is lost.
func (c *Cache) degradeStore(err error) {
	if !c.storeBroken {
		log.Printf("[BriefCache] persistent store failed, continuing in memory only: %v", err)
	}
	c.storeBroken = true
}
