package util

import (
	"sort"
	"testing"
)

// TestNewEvictHeap tests the creation of a new EvictHeap
func TestNewEvictHeap(t *testing.T) {
	eh := NewEvictHeap()

	if eh == nil {
		t.Fatal("NewEvictHeap() returned nil")
	}

	if eh.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", eh.Len())
	}
}

// TestSchedule tests scheduling evictions
func TestSchedule(t *testing.T) {
	eh := NewEvictHeap()

	eh.Schedule(1, 100)
	eh.Schedule(2, 200)
	eh.Schedule(3, 50)

	if eh.Len() != 3 {
		t.Errorf("Heap should have 3 items, but has %d", eh.Len())
	}

	for _, key := range []uint64{1, 2, 3} {
		if !eh.Contains(key) {
			t.Errorf("Heap should contain key %d", key)
		}
	}

	// min heap: the earliest deadline should be first
	item, exists := eh.Peek()
	if !exists {
		t.Fatal("Peek() should return an item")
	}
	if item.Key != 3 || item.Deadline != 50 {
		t.Errorf("Expected earliest item to be (3,50), got (%d,%d)", item.Key, item.Deadline)
	}

	// rescheduling an existing key must move it, not duplicate it
	eh.Schedule(3, 500)
	if eh.Len() != 3 {
		t.Errorf("Heap should still have 3 items after reschedule, but has %d", eh.Len())
	}
	item, _ = eh.Peek()
	if item.Key != 1 || item.Deadline != 100 {
		t.Errorf("Expected earliest item to be (1,100) after reschedule, got (%d,%d)", item.Key, item.Deadline)
	}
}

// TestUnschedule tests removing scheduled evictions by key
func TestUnschedule(t *testing.T) {
	eh := NewEvictHeap()

	eh.Schedule(1, 100)
	eh.Schedule(2, 200)

	if !eh.Unschedule(1) {
		t.Error("Unschedule(1) should report true for a scheduled key")
	}
	if eh.Contains(1) {
		t.Error("Heap should not contain key 1 after Unschedule")
	}
	if eh.Unschedule(42) {
		t.Error("Unschedule(42) should report false for an unknown key")
	}
	if eh.Len() != 1 {
		t.Errorf("Heap should have 1 item, but has %d", eh.Len())
	}
}

// TestPopDue tests draining all due evictions
func TestPopDue(t *testing.T) {
	eh := NewEvictHeap()

	eh.Schedule(1, 100)
	eh.Schedule(2, 200)
	eh.Schedule(3, 50)
	eh.Schedule(4, 300)

	due := eh.PopDue(200)
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })

	if len(due) != 3 {
		t.Fatalf("Expected 3 due keys, got %d", len(due))
	}
	for i, want := range []uint64{1, 2, 3} {
		if due[i] != want {
			t.Errorf("Expected due key %d, got %d", want, due[i])
		}
	}

	if eh.Len() != 1 {
		t.Errorf("Heap should have 1 remaining item, but has %d", eh.Len())
	}

	if due := eh.PopDue(200); due != nil {
		t.Errorf("Expected no due keys, got %v", due)
	}
}
