// Package rowan implements an in-process evictable cache satisfying
// the cache.Cache interface. It provides the same primitive set and
// semantics as a memcached node, which makes it a drop-in backend for
// tests and single-node deployments.
//
// The package focuses on:
//   - Optimized concurrent access through sharding and lock-free maps
//   - Atomic Add (write-once) and Incr (counter) primitives via the
//     shard map's Compute operation, with no engine-level locking on
//     the data path
//   - Optional wall-clock TTL after which entries are evicted by a
//     background sweeper
//
// Key Components:
//
//   - rowanImpl: The central cache structure implementing cache.Cache.
//     Keys are hashed with a per-instance seed (FNV-1a) and distributed
//     across shards; each shard is an xsync.MapOf whose Compute method
//     carries the atomicity of Add and Incr.
//
//   - Shard: A partition of the key space with its own data map and a
//     mutex-guarded eviction heap. Writers with a TTL schedule an
//     eviction deadline at insert time; the sweeper drains due
//     deadlines on a fixed interval and removes the entries.
//
//   - Eviction Model: TTL only. An entry past its deadline is treated
//     as absent by all read and write operations even before the
//     sweeper has physically removed it, so external consistency does
//     not depend on sweep timing. With TTL 0 the cache keeps entries
//     forever and the sweeper never starts.
//
// The engine makes no retention promise beyond the configured TTL and
// is intentionally not persistent: it is a cache, not a store.
package rowan
