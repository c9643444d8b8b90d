package memcached

import (
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/vkoehler/memtrace/lib/cache"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultTimeout = 500 * time.Millisecond // Default per-request timeout
)

// --------------------------------------------------------------------------
// Core memcached cache structure
// --------------------------------------------------------------------------

// memcachedImpl implements cache.Cache on top of a memcached cluster.
// Atomicity of Add and Incr is provided by the memcached server itself
// and therefore holds across processes and machines.
type memcachedImpl struct {
	client    *memcache.Client
	endpoints []string
	ttl       time.Duration
}

// Options configures the memcached binding during initialization
type Options struct {
	Endpoints []string      // Server addresses, host:port
	Timeout   time.Duration // Per-request socket timeout (0 = use default)
	TTL       time.Duration // Entry lifetime hint passed to the server (0 = no expiry)
}

// New creates a cache backed by the given memcached endpoints.
//
// All blocking behavior is bounded by the configured timeout; callers
// inherit it on every operation.
func New(opts Options) (cache.Cache, error) {
	if len(opts.Endpoints) == 0 {
		return nil, cache.NewError(cache.RetCInternalError, "no memcached endpoints configured")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	client := memcache.New(opts.Endpoints...)
	client.Timeout = opts.Timeout

	return &memcachedImpl{
		client:    client,
		endpoints: opts.Endpoints,
		ttl:       opts.TTL,
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see cache.Cache)
// --------------------------------------------------------------------------

func (m *memcachedImpl) Add(key string, value []byte) (bool, error) {
	err := m.client.Add(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: m.expiration(),
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, memcache.ErrNotStored) {
		// the key is occupied, the existing value is untouched
		return false, nil
	}
	return false, unavailable("add", err)
}

func (m *memcachedImpl) Incr(key string) (uint64, error) {
	value, err := m.client.Increment(key, 1)
	if err == nil {
		return value, nil
	}
	if errors.Is(err, memcache.ErrCacheMiss) {
		return 0, cache.NewError(cache.RetCKeyNotFound, "cannot increment missing key "+key)
	}
	// the server rejects increments on non-numeric values with a
	// client error rather than a miss
	if errors.Is(err, memcache.ErrNoServers) {
		return 0, unavailable("incr", err)
	}
	return 0, cache.NewError(cache.RetCBadValue, fmt.Sprintf("increment of key %s rejected: %v", key, err))
}

func (m *memcachedImpl) Get(key string) ([]byte, bool, error) {
	item, err := m.client.Get(key)
	if err == nil {
		return item.Value, true, nil
	}
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	return nil, false, unavailable("get", err)
}

func (m *memcachedImpl) GetMulti(keys []string) (map[string][]byte, error) {
	items, err := m.client.GetMulti(keys)
	if err != nil {
		return nil, unavailable("getmulti", err)
	}

	values := make(map[string][]byte, len(items))
	for key, item := range items {
		values[key] = item.Value
	}
	return values, nil
}

func (m *memcachedImpl) Delete(key string) error {
	err := m.client.Delete(key)
	if err == nil || errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return unavailable("delete", err)
}

func (m *memcachedImpl) SupportsFeature(feature cache.Feature) bool {
	supportedFeatures := cache.FeatureAdd |
		cache.FeatureIncr |
		cache.FeatureGet |
		cache.FeatureGetMulti |
		cache.FeatureDelete |
		cache.FeatureEvict // memcached may drop any key under pressure
	return supportedFeatures&feature == feature
}

func (m *memcachedImpl) GetInfo() (cache.CacheInfo, error) {
	meta := &struct {
		Endpoints  []string `json:"endpoints"`
		TTLSeconds float64  `json:"ttl_seconds"`
	}{
		Endpoints:  m.endpoints,
		TTLSeconds: m.ttl.Seconds(),
	}

	return cache.CacheInfo{
		// entry counts live on the servers; not reported here
		Entries:   -1,
		CacheType: cache.ImplMemcached,
		SupportedFeatures: []cache.Feature{
			cache.FeatureAdd, cache.FeatureIncr,
			cache.FeatureGet, cache.FeatureGetMulti,
			cache.FeatureDelete, cache.FeatureEvict,
		},
		Metadata: meta,
	}, nil
}

func (m *memcachedImpl) Close() error {
	// the client holds no long-lived resources beyond pooled
	// connections, which close on idle timeout
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// expiration converts the configured TTL to memcached's second-based
// expiration format.
func (m *memcachedImpl) expiration() int32 {
	if m.ttl <= 0 {
		return 0
	}
	secs := int32(m.ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// unavailable wraps a transport-level failure into the shared error
// taxonomy.
func unavailable(op string, err error) *cache.Error {
	return cache.NewError(cache.RetCUnavailable, fmt.Sprintf("memcached %s failed: %v", op, err))
}
