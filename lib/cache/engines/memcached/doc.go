// Package memcached binds a memcached cluster to the cache.Cache
// interface via github.com/bradfitz/gomemcache.
//
// The memcached server provides exactly the primitive set the contract
// requires: add (write-once), incr (atomic decimal counter), get and
// get-multi. Atomicity holds across all clients of the same cluster,
// which makes this the backend of choice when multiple processes or
// machines record into a shared index.
//
// Error mapping: a cache miss is never an error for Get/GetMulti/Delete;
// Incr on a missing key maps to RetCKeyNotFound and on a non-numeric
// value to RetCBadValue; transport failures map to RetCUnavailable and
// are never retried here.
//
// The per-request timeout is configurable through Options.Timeout and
// bounds every blocking call.
package memcached
