// Package recorder captures memory snapshots of an application's
// registered modules and stores them in a shared cache.
//
// A snapshot measures the memory dominated by every named top-level
// attribute of the configured modules and is serialized as a JSON
// document (see package record). Snapshots are stored under strictly
// increasing indices allocated through an atomic counter in the same
// cache; the most recent snapshots can be retrieved newest first.
//
// The cache is the sole source of truth. Since caches evict, any
// snapshot and the counter itself may vanish at any time: retrieval
// reports evicted snapshots per position, and a counter reset makes
// later writes collide with surviving older snapshots, in which case
// the new snapshot is dropped silently.
package recorder
