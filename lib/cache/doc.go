// Package cache provides a standardized interface for evictable
// key-value cache backends. It defines the small Cache contract the
// rest of the module builds on while abstracting implementation
// details.
//
// The package focuses on:
//   - A unified interface for the four cache primitives (Add, Incr,
//     Get, GetMulti) plus housekeeping operations
//   - Feature discovery through capability flags
//   - A shared error taxonomy with explicit return codes
//
// Key Components:
//
//   - Cache Interface: The core interface all backends must satisfy.
//     Add is write-once (it never overwrites an existing value) and
//     Incr is an atomic counter increment; both must be atomic across
//     every concurrent caller of the same backend, in-process or not.
//     This atomicity is the only correctness anchor for callers that
//     allocate monotonically increasing indices; the callers
//     themselves perform no locking.
//
//   - Feature Flags: The Feature type defines capability flags that
//     implementations advertise through SupportsFeature, so clients
//     can discover supported operations at runtime.
//
//   - Error/RetCode: All backend failures are reported as *Error with
//     a return code. RetCUnavailable marks transport failures that
//     callers must treat as fatal (this module never retries them).
//
// Note on Retention:
//
// A Cache makes no retention promise. Backends are free to evict any
// key at any moment (TTL, memory pressure, restart). Callers must
// treat key absence as a normal outcome, never as corruption. There is
// deliberately no way to distinguish "evicted" from "never written"
// through this interface, matching the semantics of memcached-style
// backends.
//
// Related Packages:
//
// The engines/rowan package provides a sharded in-process
// implementation with optional TTL eviction, suitable for tests and
// single-node deployments. The engines/memcached package binds a real
// memcached cluster. The testing package provides a generic contract
// test suite that every engine is expected to pass.
package cache
