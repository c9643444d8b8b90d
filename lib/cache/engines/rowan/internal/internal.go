package internal

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vkoehler/memtrace/lib/cache/util"
)

// --------------------------------------------------------------------------
// Entry Type (value with eviction metadata)
// --------------------------------------------------------------------------

// Entry stores a cached value with its eviction deadline
type Entry struct {
	Value   []byte // The cached bytes
	EvictAt int64  // Eviction deadline, unix nanoseconds (0 = keep forever)
}

// Evicted returns whether the entry has passed its eviction deadline
// at the given wall-clock time.
func (e Entry) Evicted(now int64) bool {
	return e.EvictAt != 0 && now >= e.EvictAt
}

// --------------------------------------------------------------------------
// Shard Type (partition of the cache)
// --------------------------------------------------------------------------

// Shard represents a partition of the cache.
// Data access is lock-free through the xsync map; the eviction
// schedule is guarded by Mu.
type Shard struct {
	Data      *xsync.MapOf[util.UintKey, Entry] // Map of live entries
	Mu        sync.Mutex                        // Guards Evictions
	Evictions *util.EvictHeap                   // Scheduled TTL evictions
}

// NewShard creates a new shard with the provided hash function
func NewShard(hasher func(util.UintKey, uint64) uint64) *Shard {
	return &Shard{
		Data:      xsync.NewMapOfWithHasher[util.UintKey, Entry](hasher),
		Evictions: util.NewEvictHeap(),
	}
}

// Schedule registers an eviction deadline for a key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Shard) Schedule(key util.UintKey, deadline int64) {
	s.Mu.Lock()
	s.Evictions.Schedule(uint64(key), deadline)
	s.Mu.Unlock()
}

// Unschedule removes a pending eviction for a key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Shard) Unschedule(key util.UintKey) {
	s.Mu.Lock()
	s.Evictions.Unschedule(uint64(key))
	s.Mu.Unlock()
}

// PopDue drains all evictions due at the given time.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Shard) PopDue(now int64) []uint64 {
	s.Mu.Lock()
	due := s.Evictions.PopDue(now)
	s.Mu.Unlock()
	return due
}

// GetShard returns the appropriate shard for a given key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShard[T any](key util.UintKey, shards []*T) *T {
	// Shift right by 7 bits to use higher-quality bits for distribution
	shiftedKey := uint64(key) >> 7
	shardPos := shiftedKey % uint64(len(shards))
	return shards[shardPos]
}
