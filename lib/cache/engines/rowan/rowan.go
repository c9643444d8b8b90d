package rowan

import (
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vkoehler/memtrace/lib/cache"
	"github.com/vkoehler/memtrace/lib/cache/engines/rowan/internal"
	"github.com/vkoehler/memtrace/lib/cache/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for cache behavior
const (
	defaultGCInterval = 100 * time.Millisecond // Default interval between eviction sweeps
)

// --------------------------------------------------------------------------
// Core rowan cache structure
// --------------------------------------------------------------------------

// rowanImpl implements an in-process evictable cache with sharded data
type rowanImpl struct {
	numShards int               // Number of shards
	seed      uint64            // Seed for hash function
	shards    []*internal.Shard // Array of shards
	ttl       time.Duration     // Entry lifetime (0 = keep forever)

	// eviction sweep
	gcInterval  time.Duration
	gcIsRunning atomic.Bool
	stopGCCh    chan struct{}
}

// Options configures the rowan cache during initialization
type Options struct {
	NumShards  int           // Number of shards (0 = one per CPU)
	TTL        time.Duration // Entry lifetime before eviction (0 = keep forever)
	GCInterval time.Duration // Time between eviction sweeps (0 = use default)
}

// DefaultOptions returns the default rowan options: one shard per CPU
// and no TTL, so nothing is ever evicted.
func DefaultOptions() *Options {
	return &Options{
		NumShards:  runtime.NumCPU(),
		TTL:        0,
		GCInterval: defaultGCInterval,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// New creates a new rowan cache instance with the specified options
// (optional).
//
// Thread-safety: This function is not thread-safe and should only be
// called once during initialization.
func New(opts *Options) cache.Cache {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaultGCInterval
	}

	// Generate a seed for this cache instance
	seed := util.GenerateSeed()
	hasher := createIdentityHasher()

	// Create shards
	shards := make([]*internal.Shard, opts.NumShards)
	for i := 0; i < opts.NumShards; i++ {
		shards[i] = internal.NewShard(hasher)
	}

	c := &rowanImpl{
		numShards:  opts.NumShards,
		seed:       seed,
		shards:     shards,
		ttl:        opts.TTL,
		gcInterval: opts.GCInterval,
		stopGCCh:   make(chan struct{}),
	}

	c.gcIsRunning.Store(false)

	// the eviction sweeper only runs if entries can actually expire
	if c.ttl > 0 {
		c.startGC()
	}

	return c
}

// --------------------------------------------------------------------------
// Hash Helper Functions
// --------------------------------------------------------------------------

// stringToUint64 converts a string to a util.UintKey with hashing
// and applies the cache seed to ensure uniqueness between instances
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *rowanImpl) stringToUint64(s string) util.UintKey {
	return util.HashString(s, c.seed)
}

// createIdentityHasher creates a hash function that combines a key with a seed
func createIdentityHasher() func(util.UintKey, uint64) uint64 {
	return func(key util.UintKey, mapSeed uint64) uint64 {
		return uint64(key) ^ mapSeed
	}
}

// --------------------------------------------------------------------------
// Cache Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Add inserts a key-value pair only if the key is absent (or already
// evicted). The existing value is never overwritten.
//
// Thread-safety: This method is thread-safe; the insert-if-absent
// decision is made atomically inside the shard map.
func (c *rowanImpl) Add(key string, value []byte) (bool, error) {
	intKey := c.stringToUint64(key)
	shard := internal.GetShard(intKey, c.shards)

	// Copy value to prevent aliasing with caller memory
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	now := time.Now().UnixNano()
	var evictAt int64
	if c.ttl > 0 {
		evictAt = now + c.ttl.Nanoseconds()
	}

	stored := false
	shard.Data.Compute(intKey, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		// an entry past its deadline counts as absent
		if loaded && !old.Evicted(now) {
			return old, false
		}

		stored = true
		return internal.Entry{
			Value:   valueCopy,
			EvictAt: evictAt,
		}, false
	})

	if stored && evictAt != 0 {
		shard.Schedule(intKey, evictAt)
	}

	return stored, nil
}

// Incr atomically increments the decimal counter stored under key.
// The eviction deadline of the entry is left untouched, matching
// memcached increment semantics.
//
// Thread-safety: This method is thread-safe; the read-modify-write
// happens atomically inside the shard map.
func (c *rowanImpl) Incr(key string) (uint64, error) {
	intKey := c.stringToUint64(key)
	shard := internal.GetShard(intKey, c.shards)

	now := time.Now().UnixNano()

	var (
		newValue uint64
		retErr   error
	)
	shard.Data.Compute(intKey, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded {
			retErr = cache.NewError(cache.RetCKeyNotFound, "cannot increment missing key "+key)
			return old, true // delete=true so no phantom entry is created
		}
		if old.Evicted(now) {
			retErr = cache.NewError(cache.RetCKeyNotFound, "cannot increment evicted key "+key)
			return old, true
		}

		current, err := strconv.ParseUint(string(old.Value), 10, 64)
		if err != nil {
			retErr = cache.NewError(cache.RetCBadValue, "value under key "+key+" is not a decimal counter")
			return old, false
		}

		newValue = current + 1
		return internal.Entry{
			Value:   []byte(strconv.FormatUint(newValue, 10)),
			EvictAt: old.EvictAt,
		}, false
	})

	if retErr != nil {
		return 0, retErr
	}
	return newValue, nil
}

// Delete removes a key-value pair. Deleting an absent key is a no-op.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *rowanImpl) Delete(key string) error {
	intKey := c.stringToUint64(key)
	shard := internal.GetShard(intKey, c.shards)

	shard.Data.Delete(intKey)
	shard.Unschedule(intKey)
	return nil
}

// --------------------------------------------------------------------------
// Cache Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves the value for a key. The boolean indicates whether a
// live (not yet evicted) value was found. The returned value is a copy
// of the stored data and therefore safe to use and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *rowanImpl) Get(key string) ([]byte, bool, error) {
	intKey := c.stringToUint64(key)
	shard := internal.GetShard(intKey, c.shards)

	entry, ok := shard.Data.Load(intKey)
	if !ok || entry.Evicted(time.Now().UnixNano()) {
		return nil, false, nil
	}

	data := make([]byte, len(entry.Value))
	copy(data, entry.Value)
	return data, true, nil
}

// GetMulti returns the values for all present keys; absent or evicted
// keys are omitted from the result map.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *rowanImpl) GetMulti(keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, loaded, err := c.Get(key)
		if err != nil {
			return nil, err
		}
		if loaded {
			result[key] = value
		}
	}
	return result, nil
}

// --------------------------------------------------------------------------
// Eviction Sweep
// --------------------------------------------------------------------------

// startGC starts the eviction sweeper.
// If the sweeper is already running, this function does nothing.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *rowanImpl) startGC() {
	if c.gcIsRunning.CompareAndSwap(false, true) {
		go c.sweeper()
	}
}

// stopGC stops the eviction sweeper.
// The sweeper cannot be restarted after it has been stopped.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *rowanImpl) stopGC() {
	if c.gcIsRunning.CompareAndSwap(true, false) {
		close(c.stopGCCh)
	}
}

// sweeper periodically removes entries past their eviction deadline.
// WARNING: this method should never be called directly, use startGC()
// and stopGC().
func (c *rowanImpl) sweeper() {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopGCCh:
			return
		case <-ticker.C:
			now := time.Now().UnixNano()

			for _, shard := range c.shards {
				for _, key := range shard.PopDue(now) {
					// double-check inside the map: the deadline cannot move
					// (Add never overwrites, Incr keeps EvictAt), but the key
					// may have been deleted and re-added since it was scheduled
					shard.Data.Compute(util.UintKey(key), func(e internal.Entry, loaded bool) (internal.Entry, bool) {
						if !loaded {
							return e, true
						}
						if !e.Evicted(now) {
							return e, false
						}
						return internal.Entry{}, true
					})
				}
			}
		}
	}
}

// --------------------------------------------------------------------------
// Cache Interface Methods - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the cache
func (c *rowanImpl) GetInfo() (cache.CacheInfo, error) {
	entries := 0
	shardSizes := make([]float64, len(c.shards))
	for i, shard := range c.shards {
		size := shard.Data.Size()
		entries += size
		shardSizes[i] = float64(size)
	}

	meta := &struct {
		ShardCount        int                    `json:"shard_count"`
		TTLSeconds        float64                `json:"ttl_seconds"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
	}{
		ShardCount:        c.numShards,
		TTLSeconds:        c.ttl.Seconds(),
		ShardDistribution: util.NewDistributionStats(shardSizes),
	}

	supportedFeatures := []cache.Feature{
		cache.FeatureAdd, cache.FeatureIncr,
		cache.FeatureGet, cache.FeatureGetMulti,
		cache.FeatureDelete,
	}
	if c.ttl > 0 {
		supportedFeatures = append(supportedFeatures, cache.FeatureEvict)
	}

	return cache.CacheInfo{
		Entries:           entries,
		CacheType:         cache.ImplRowan,
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
	}, nil
}

// SupportsFeature checks if this implementation supports a specific
// cache feature
func (c *rowanImpl) SupportsFeature(feature cache.Feature) bool {
	supportedFeatures := cache.FeatureAdd |
		cache.FeatureIncr |
		cache.FeatureGet |
		cache.FeatureGetMulti |
		cache.FeatureDelete
	if c.ttl > 0 {
		supportedFeatures |= cache.FeatureEvict
	}
	return supportedFeatures&feature == feature
}

// Close stops the eviction sweeper
func (c *rowanImpl) Close() error {
	if c.ttl > 0 {
		c.stopGC()
	}
	return nil
}
