// Package testing provides a standardised contract test suite for
// cache backends that satisfy the cache.Cache interface.
//
// The suite validates the semantics the rest of the module relies on:
// write-once Add, atomic Incr, omission of absent keys in GetMulti,
// value isolation, and distinct index allocation under contention.
// Feature-gated tests are skipped for backends that do not advertise
// the corresponding capability.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() cache.Cache {
//		return NewMyCache()
//	}
//
//	// Running the standard test suite
//	cachetesting.RunCacheTests(t, "MyCache", factory)
package testing
