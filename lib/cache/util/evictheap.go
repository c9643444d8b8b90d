// Package util
//
// This file provides a specialized priority queue for scheduling cache
// evictions.
//
// The implementation combines a binary min-heap ordered by eviction
// deadline with a hash map for key-based access. Writers schedule an
// entry for eviction (or push its deadline back on overwrite), the
// collector pops everything whose deadline has passed, and deletions
// can unschedule an entry directly.
//
// Complexity: O(log n) for Add/PopDue, O(1) for Contains, O(log n) for
// key-based removal.
//
// Concurrency: the heap is not thread-safe. Callers synchronize
// externally (rowan holds a per-shard mutex around every access).
package util

import (
	"container/heap"
)

// EvictItem is one scheduled eviction: the hashed entry key and the
// deadline (unix nanoseconds) after which the entry may be removed.
type EvictItem struct {
	Key      uint64 // Hashed entry key
	Deadline int64  // Eviction deadline, unix nanoseconds
	index    int    // Index in the heap, maintained by the heap package
}

// EvictHeap is a min-heap of scheduled evictions with key-based access.
type EvictHeap struct {
	items    []*EvictItem
	itemsMap map[uint64]*EvictItem
}

// NewEvictHeap creates an empty eviction schedule.
func NewEvictHeap() *EvictHeap {
	return &EvictHeap{
		items:    make([]*EvictItem, 0),
		itemsMap: make(map[uint64]*EvictItem),
	}
}

// Len returns the number of scheduled evictions (part of heap.Interface)
func (eh *EvictHeap) Len() int { return len(eh.items) }

// Less orders by deadline, earliest first (part of heap.Interface)
func (eh *EvictHeap) Less(i, j int) bool {
	return eh.items[i].Deadline < eh.items[j].Deadline
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (eh *EvictHeap) Swap(i, j int) {
	eh.items[i], eh.items[j] = eh.items[j], eh.items[i]
	eh.items[i].index = i
	eh.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface)
func (eh *EvictHeap) Push(x interface{}) {
	n := len(eh.items)
	item := x.(*EvictItem)
	item.index = n
	eh.items = append(eh.items, item)
	eh.itemsMap[item.Key] = item
}

// Pop removes and returns the earliest deadline (part of heap.Interface)
func (eh *EvictHeap) Pop() interface{} {
	old := eh.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	eh.items = old[:n-1]
	delete(eh.itemsMap, item.Key)
	return item
}

// Schedule adds a new eviction or moves an existing one to the given
// deadline.
func (eh *EvictHeap) Schedule(key uint64, deadline int64) {
	if item, exists := eh.itemsMap[key]; exists {
		item.Deadline = deadline
		heap.Fix(eh, item.index)
		return
	}

	heap.Push(eh, &EvictItem{
		Key:      key,
		Deadline: deadline,
	})
}

// Unschedule removes a scheduled eviction by key. The boolean reports
// whether the key was scheduled.
func (eh *EvictHeap) Unschedule(key uint64) bool {
	item, exists := eh.itemsMap[key]
	if !exists {
		return false
	}

	heap.Remove(eh, item.index)
	return true
}

// PopDue removes and returns the keys of all entries whose deadline is
// at or before now. The returned slice is nil when nothing is due.
func (eh *EvictHeap) PopDue(now int64) []uint64 {
	var due []uint64
	for len(eh.items) > 0 && eh.items[0].Deadline <= now {
		item := heap.Pop(eh).(*EvictItem)
		due = append(due, item.Key)
	}
	return due
}

// Peek returns the earliest scheduled eviction without removing it.
func (eh *EvictHeap) Peek() (*EvictItem, bool) {
	if len(eh.items) == 0 {
		return nil, false
	}
	return eh.items[0], true
}

// Contains checks if a key is scheduled for eviction.
func (eh *EvictHeap) Contains(key uint64) bool {
	_, exists := eh.itemsMap[key]
	return exists
}
