// Package util provides utility components for cache backends that
// satisfy the cache.Cache interface.
//
// The package contains:
//   - functions: Seeded hash functions and other small helpers
//   - evictheap: A priority queue keyed by entry hash that also supports
//     key-based removal, used to schedule TTL evictions
//   - stats: Summary statistics for analyzing shard balance
//
// Each component is backend-agnostic; the engines/rowan package is the
// primary consumer.
package util
