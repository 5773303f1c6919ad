package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/captrades/internal/resilience"
)

// Config sizes and locates the cache.
type Config struct {
	Root             string
	MemoryMaxEntries int   // default 10000
	DiskMaxBytes     int64 // default 2 GiB, LRU by fetched_at
	// Now overrides the clock for tests.
	Now func() time.Time
}

const (
	defaultMemoryMaxEntries = 10_000
	defaultDiskMaxBytes     = 2 << 30
)

type memEntry struct {
	entry Entry
}

// Cache is the process-wide response cache: an in-memory map in front of
// the content-addressed disk store, with single-flight miss coalescing.
// The mutex guards only map operations, never I/O.
type Cache struct {
	mu   sync.Mutex
	mem  map[string]memEntry
	cfg  Config
	disk *diskStore
	idx  *index
	fg   *flightGroup
	now  func() time.Time

	ttlOverrides map[string]time.Duration
}

// New opens the cache at cfg.Root, creating it if needed. A manifest
// schema mismatch invalidates the whole store before returning.
func New(cfg Config) (*Cache, error) {
	if cfg.MemoryMaxEntries <= 0 {
		cfg.MemoryMaxEntries = defaultMemoryMaxEntries
	}
	if cfg.DiskMaxBytes <= 0 {
		cfg.DiskMaxBytes = defaultDiskMaxBytes
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	disk, err := newDiskStore(cfg.Root)
	if err != nil {
		return nil, err
	}
	m, wiped, err := loadManifest(cfg.Root)
	if err != nil {
		return nil, err
	}
	idx, err := openIndex(cfg.Root)
	if err != nil {
		return nil, err
	}
	if wiped {
		if err := idx.clear(); err != nil {
			idx.close()
			return nil, err
		}
	}

	overrides := make(map[string]time.Duration, len(m.TTLOverrides))
	for tag, raw := range m.TTLOverrides {
		d, parseErr := time.ParseDuration(raw)
		if parseErr != nil {
			zap.L().Warn("cache: bad ttl override, ignoring",
				zap.String("tag", tag),
				zap.String("value", raw),
			)
			continue
		}
		overrides[tag] = d
	}

	return &Cache{
		mem:          make(map[string]memEntry),
		cfg:          cfg,
		disk:         disk,
		idx:          idx,
		fg:           newFlightGroup(),
		now:          now,
		ttlOverrides: overrides,
	}, nil
}

// Close releases the index database.
func (c *Cache) Close() error { return c.idx.close() }

// freshnessFor applies any manifest TTL override for the key's adapter.
// Infinite policies are never overridden.
func (c *Cache) freshnessFor(key Key, f Freshness) Freshness {
	if f.TTL == Infinite {
		return f
	}
	if d, ok := c.ttlOverrides[key.Tag]; ok {
		return Freshness{TTL: d}
	}
	return f
}

// Get returns the entry for key if present and fresh under the policy.
// Stale entries stay on disk; the next GetOrFetch refreshes them.
func (c *Cache) Get(key Key, f Freshness) (Entry, bool) {
	f = c.freshnessFor(key, f)
	hash := key.Hash()

	c.mu.Lock()
	me, ok := c.mem[hash]
	c.mu.Unlock()
	if ok && f.Fresh(me.entry.Meta.FetchedAt, c.now()) {
		return me.entry, true
	}

	entry, ok, corrupt := c.disk.read(key)
	if corrupt {
		zap.L().Warn("cache: corrupt entry, purging",
			zap.Error(&resilience.CacheCorruptError{Key: key.String()}),
		)
		c.disk.purge(key)
		if err := c.idx.delete(hash); err != nil {
			zap.L().Warn("cache: index delete after purge", zap.Error(err))
		}
		return Entry{}, false
	}
	if !ok || !f.Fresh(entry.Meta.FetchedAt, c.now()) {
		return Entry{}, false
	}

	c.admit(hash, entry)
	return entry, true
}

// Put inserts an entry, stamping FetchedAt if unset. Used by the client
// for negative markers; regular inserts happen inside GetOrFetch.
func (c *Cache) Put(key Key, e Entry) error {
	if e.Meta.FetchedAt.IsZero() {
		e.Meta.FetchedAt = c.now()
	}
	if err := c.disk.write(key, e); err != nil {
		return err
	}
	if err := c.idx.upsert(key, len(e.Payload), e.Meta.Source, e.Meta.FetchedAt); err != nil {
		return err
	}
	c.admit(key.Hash(), e)
	c.evictDisk()
	return nil
}

// GetOrFetch returns the cached entry when fresh; otherwise it runs
// loader under single-flight coalescing, caches a successful result, and
// hands every concurrent caller the same outcome. Failed loads are never
// cached.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, f Freshness, loader Loader) (Entry, error) {
	if entry, ok := c.Get(key, f); ok {
		zap.L().Debug("cache hit", zap.String("key", key.String()))
		return entry, nil
	}

	return c.fg.do(ctx, key.Hash(), func(loadCtx context.Context) (Entry, error) {
		// A racing flight may have already resolved this key.
		if entry, ok := c.Get(key, f); ok {
			return entry, nil
		}

		entry, err := loader(loadCtx)
		if err != nil {
			return Entry{}, err
		}
		if entry.Meta.FetchedAt.IsZero() {
			entry.Meta.FetchedAt = c.now()
		}
		if err := c.Put(key, entry); err != nil {
			// A write failure degrades to pass-through, not a fetch failure.
			zap.L().Warn("cache: store entry", zap.String("key", key.String()), zap.Error(err))
		}
		return entry, nil
	})
}

// Invalidate removes one entry everywhere.
func (c *Cache) Invalidate(key Key) error {
	hash := key.Hash()
	c.mu.Lock()
	delete(c.mem, hash)
	c.mu.Unlock()
	c.disk.purge(key)
	return c.idx.delete(hash)
}

// InvalidatePrefix removes every entry under an adapter tag whose
// canonical form contains partial (empty partial flushes the tag).
func (c *Cache) InvalidatePrefix(tag, partial string) error {
	victims, err := c.idx.byPrefix(tag, partial)
	if err != nil {
		return err
	}
	for _, v := range victims {
		c.mu.Lock()
		delete(c.mem, v.Hash)
		c.mu.Unlock()
		c.disk.purgeHash(v.Tag, v.Hash)
		if err := c.idx.delete(v.Hash); err != nil {
			return err
		}
	}
	zap.L().Info("cache: prefix invalidated",
		zap.String("tag", tag),
		zap.String("partial", partial),
		zap.Int("entries", len(victims)),
	)
	return nil
}

// admit inserts into the memory map, evicting oldest entries past the
// configured cap.
func (c *Cache) admit(hash string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[hash] = memEntry{entry: e}
	if len(c.mem) <= c.cfg.MemoryMaxEntries {
		return
	}
	var oldestHash string
	var oldest time.Time
	for h, me := range c.mem {
		if oldestHash == "" || me.entry.Meta.FetchedAt.Before(oldest) {
			oldestHash, oldest = h, me.entry.Meta.FetchedAt
		}
	}
	delete(c.mem, oldestHash)
}

// evictDisk enforces the disk byte budget, oldest entries first.
func (c *Cache) evictDisk() {
	victims, err := c.idx.overBudget(c.cfg.DiskMaxBytes)
	if err != nil {
		zap.L().Warn("cache: disk eviction query", zap.Error(err))
		return
	}
	for _, v := range victims {
		c.mu.Lock()
		delete(c.mem, v.Hash)
		c.mu.Unlock()
		c.disk.purgeHash(v.Tag, v.Hash)
		if err := c.idx.delete(v.Hash); err != nil {
			zap.L().Warn("cache: disk eviction delete", zap.Error(err))
		}
	}
	if len(victims) > 0 {
		zap.L().Debug("cache: evicted for disk budget", zap.Int("entries", len(victims)))
	}
}
