package resolve

import (
	"context"
	"strconv"
	"time"

	"github.com/matzehuels/tagresolver/pkg/cache"
	"github.com/matzehuels/tagresolver/pkg/observability"
)

// Default freshness windows.
const (
	DefaultLatestTTL = 5 * time.Minute
	DefaultPinnedTTL = 6 * time.Hour
)

const (
	valuePrefix = "ver/"
	timePrefix  = "ver-time/"
)

// TTLPolicy selects how long an entry stays fresh, by request kind.
// Negative entries follow the same policy as positive ones.
type TTLPolicy struct {
	Latest time.Duration // "latest" moves when upstream publishes
	Pinned time.Duration // prefix specs and "main"
}

// DefaultTTLPolicy returns the default windows: 5m for latest, 6h otherwise.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{Latest: DefaultLatestTTL, Pinned: DefaultPinnedTTL}
}

// For returns the freshness window for kind.
func (p TTLPolicy) For(kind SpecKind) time.Duration {
	if kind == KindLatest {
		return p.Latest
	}
	return p.Pinned
}

// Entry is a cached resolution.
type Entry struct {
	Value     string
	WrittenAt time.Time
}

// NotFound reports whether the entry records a negative resolution.
func (e Entry) NotFound() bool { return e.Value == NotFoundSentinel }

// ValueKey returns the store key holding the resolved tag.
func ValueKey(repo Repo, spec string) string {
	return valuePrefix + repo.Owner + "/" + repo.Name + "/" + spec
}

// TimeKey returns the store key holding the write time in Unix seconds.
func TimeKey(repo Repo, spec string) string {
	return timePrefix + repo.Owner + "/" + repo.Name + "/" + spec
}

// Cache layers expiry and negative caching over a plain string store.
// Each entry is a value key plus a timestamp key; the store itself never
// expires anything.
type Cache struct {
	store cache.Store
	ttl   TTLPolicy
	now   func() time.Time
}

// CacheOption configures a [Cache].
type CacheOption func(*Cache)

// WithTTL overrides the default [TTLPolicy].
func WithTTL(p TTLPolicy) CacheOption {
	return func(c *Cache) { c.ttl = p }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a Cache over store.
func NewCache(store cache.Store, opts ...CacheOption) *Cache {
	c := &Cache{store: store, ttl: DefaultTTLPolicy(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the fresh entry for repo and spec.
//
// The timestamp is read before the value. A missing or unparseable timestamp
// or a missing value is a miss. An entry older than its TTL is deleted and
// reported as a miss; an entry exactly TTL seconds old is still fresh.
func (c *Cache) Get(ctx context.Context, repo Repo, spec string) (Entry, bool, error) {
	kind := Kind(spec).String()
	hooks := observability.Cache()

	raw, ok, err := c.store.Get(ctx, TimeKey(repo, spec))
	if err != nil {
		hooks.OnCacheError(ctx, "get", err)
		return Entry{}, false, err
	}
	if !ok {
		hooks.OnCacheMiss(ctx, kind)
		return Entry{}, false, nil
	}
	written, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil {
		hooks.OnCacheMiss(ctx, kind)
		return Entry{}, false, nil
	}

	ttl := int64(c.ttl.For(Kind(spec)) / time.Second)
	if c.now().Unix()-written > ttl {
		hooks.OnCacheMiss(ctx, kind)
		if err := c.Invalidate(ctx, repo, spec); err != nil {
			return Entry{}, false, err
		}
		return Entry{}, false, nil
	}

	value, ok, err := c.store.Get(ctx, ValueKey(repo, spec))
	if err != nil {
		hooks.OnCacheError(ctx, "get", err)
		return Entry{}, false, err
	}
	if !ok {
		hooks.OnCacheMiss(ctx, kind)
		return Entry{}, false, nil
	}

	hooks.OnCacheHit(ctx, kind)
	return Entry{Value: value, WrittenAt: time.Unix(written, 0)}, true, nil
}

// Put stores value for repo and spec, stamped with the current time.
// The value is written before the timestamp, or both in one batch when the
// store supports it.
func (c *Cache) Put(ctx context.Context, repo Repo, spec, value string) error {
	stamp := strconv.FormatInt(c.now().Unix(), 10)
	err := cache.PutAll(ctx, c.store,
		cache.Pair{Key: ValueKey(repo, spec), Value: value},
		cache.Pair{Key: TimeKey(repo, spec), Value: stamp},
	)
	if err != nil {
		observability.Cache().OnCacheError(ctx, "put", err)
		return err
	}
	observability.Cache().OnCacheSet(ctx, Kind(spec).String(), len(value))
	return nil
}

// PutNotFound records a negative resolution for repo and spec.
func (c *Cache) PutNotFound(ctx context.Context, repo Repo, spec string) error {
	return c.Put(ctx, repo, spec, NotFoundSentinel)
}

// Invalidate removes the entry for repo and spec. The timestamp goes first so
// a concurrent reader never sees a stamp without its value.
func (c *Cache) Invalidate(ctx context.Context, repo Repo, spec string) error {
	if err := c.store.Delete(ctx, TimeKey(repo, spec)); err != nil {
		observability.Cache().OnCacheError(ctx, "delete", err)
		return err
	}
	if err := c.store.Delete(ctx, ValueKey(repo, spec)); err != nil {
		observability.Cache().OnCacheError(ctx, "delete", err)
		return err
	}
	return nil
}
