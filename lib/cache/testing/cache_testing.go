package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vkoehler/memtrace/lib/cache"
)

// CacheFactory is a function that creates a new instance of a Cache
// implementation
type CacheFactory func() cache.Cache

// RunCacheTests runs a comprehensive contract test suite for a Cache
// implementation.
func RunCacheTests(t *testing.T, name string, factory CacheFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Add&Get", func(t *testing.T) {
			testAddGet(t, factory())
		})

		t.Run("WriteOnce", func(t *testing.T) {
			testWriteOnce(t, factory())
		})

		t.Run("Incr", func(t *testing.T) {
			testIncr(t, factory())
		})

		t.Run("IncrMissingKey", func(t *testing.T) {
			testIncrMissingKey(t, factory())
		})

		t.Run("IncrBadValue", func(t *testing.T) {
			testIncrBadValue(t, factory())
		})

		t.Run("GetMulti", func(t *testing.T) {
			testGetMulti(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("ValueIsolation", func(t *testing.T) {
			testValueIsolation(t, factory())
		})

		t.Run("ConcurrentIncr", func(t *testing.T) {
			testConcurrentIncr(t, factory())
		})

		t.Run("ConcurrentIndexAllocation", func(t *testing.T) {
			testConcurrentIndexAllocation(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the cache supports the specified feature.
// Skip the test if it is not supported.
func requireFeature(t testing.TB, c cache.Cache, feature cache.Feature) {
	if !c.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testAddGet(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureGet)

	testKey := "test-key"
	testValue := []byte("test-value")

	stored, err := c.Add(testKey, testValue)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !stored {
		t.Errorf("Expected Add of a fresh key to report stored=true")
	}

	result, loaded, err := c.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !loaded {
		t.Errorf("Expected key %s to exist after Add", testKey)
	}
	if !bytes.Equal(result, testValue) {
		t.Errorf("Expected value %s, got %s", testValue, result)
	}

	_, loaded, err = c.Get("nonexistent-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded {
		t.Errorf("Expected nonexistent key to return loaded=false")
	}
}

func testWriteOnce(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureGet)

	testKey := "write-once-key"
	first := []byte("first-value")
	second := []byte("second-value")

	if stored, err := c.Add(testKey, first); err != nil || !stored {
		t.Fatalf("Expected first Add to store (stored=%v, err=%v)", stored, err)
	}

	stored, err := c.Add(testKey, second)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if stored {
		t.Errorf("Expected Add of an occupied key to report stored=false")
	}

	// the losing write must leave the original bytes untouched
	result, loaded, err := c.Get(testKey)
	if err != nil || !loaded {
		t.Fatalf("Get failed after second Add (loaded=%v, err=%v)", loaded, err)
	}
	if !bytes.Equal(result, first) {
		t.Errorf("Expected original value %s to survive, got %s", first, result)
	}
}

func testIncr(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureIncr)

	testKey := "counter"

	if stored, err := c.Add(testKey, []byte("1")); err != nil || !stored {
		t.Fatalf("Expected Add to store counter (stored=%v, err=%v)", stored, err)
	}

	for want := uint64(2); want <= 10; want++ {
		got, err := c.Incr(testKey)
		if err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected counter value %d, got %d", want, got)
		}
	}
}

func testIncrMissingKey(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureIncr)

	_, err := c.Incr("missing-counter")
	if err == nil {
		t.Fatal("Expected Incr of a missing key to fail")
	}

	var cErr *cache.Error
	if !errors.As(err, &cErr) || cErr.Code != cache.RetCKeyNotFound {
		t.Errorf("Expected RetCKeyNotFound, got %v", err)
	}
}

func testIncrBadValue(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureIncr)

	testKey := "not-a-counter"
	if stored, err := c.Add(testKey, []byte("hello")); err != nil || !stored {
		t.Fatalf("Expected Add to store (stored=%v, err=%v)", stored, err)
	}

	_, err := c.Incr(testKey)
	if err == nil {
		t.Fatal("Expected Incr of a non-numeric value to fail")
	}

	var cErr *cache.Error
	if !errors.As(err, &cErr) || cErr.Code != cache.RetCBadValue {
		t.Errorf("Expected RetCBadValue, got %v", err)
	}
}

func testGetMulti(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureGetMulti)

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("multi-%d", i)
		if stored, err := c.Add(key, []byte(fmt.Sprintf("value-%d", i))); err != nil || !stored {
			t.Fatalf("Expected Add to store %s (stored=%v, err=%v)", key, stored, err)
		}
	}

	keys := []string{"multi-0", "multi-2", "multi-4", "multi-missing"}
	values, err := c.GetMulti(keys)
	if err != nil {
		t.Fatalf("GetMulti failed: %v", err)
	}

	if len(values) != 3 {
		t.Errorf("Expected 3 present keys, got %d", len(values))
	}
	for _, key := range []string{"multi-0", "multi-2", "multi-4"} {
		if _, ok := values[key]; !ok {
			t.Errorf("Expected key %s in GetMulti result", key)
		}
	}
	// absent keys are omitted, never an error
	if _, ok := values["multi-missing"]; ok {
		t.Error("Expected absent key to be omitted from GetMulti result")
	}
}

func testDelete(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureDelete)
	requireFeature(t, c, cache.FeatureGet)

	testKey := "delete-me"
	if stored, err := c.Add(testKey, []byte("v")); err != nil || !stored {
		t.Fatalf("Expected Add to store (stored=%v, err=%v)", stored, err)
	}

	if err := c.Delete(testKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, loaded, err := c.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded {
		t.Error("Expected key to be gone after Delete")
	}

	// deleting an absent key is a no-op
	if err := c.Delete("never-existed"); err != nil {
		t.Errorf("Expected Delete of absent key to succeed, got %v", err)
	}

	// a deleted key is free for a new Add
	if stored, err := c.Add(testKey, []byte("v2")); err != nil || !stored {
		t.Errorf("Expected Add after Delete to store (stored=%v, err=%v)", stored, err)
	}
}

func testValueIsolation(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureGet)

	testKey := "isolated"
	original := []byte("fragile")

	if stored, err := c.Add(testKey, original); err != nil || !stored {
		t.Fatalf("Expected Add to store (stored=%v, err=%v)", stored, err)
	}

	// mutating the caller's slice must not change the stored bytes
	original[0] = 'X'

	result, _, err := c.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(result, []byte("fragile")) {
		t.Errorf("Stored value was corrupted by caller mutation: %s", result)
	}

	// mutating a returned slice must not change the stored bytes either
	result[0] = 'Y'
	again, _, err := c.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(again, []byte("fragile")) {
		t.Errorf("Stored value was corrupted by result mutation: %s", again)
	}
}

func testConcurrentIncr(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureIncr)

	const (
		goroutines = 8
		increments = 200
	)

	testKey := "concurrent-counter"
	if stored, err := c.Add(testKey, []byte("0")); err != nil || !stored {
		t.Fatalf("Expected Add to store (stored=%v, err=%v)", stored, err)
	}

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				if _, err := c.Incr(testKey); err != nil {
					t.Errorf("Incr failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	value, loaded, err := c.Get(testKey)
	if err != nil || !loaded {
		t.Fatalf("Get failed after concurrent increments (loaded=%v, err=%v)", loaded, err)
	}
	if want := fmt.Sprintf("%d", goroutines*increments); string(value) != want {
		t.Errorf("Expected final counter %s, got %s", want, value)
	}
}

// testConcurrentIndexAllocation exercises the add-then-increment
// allocation pattern under contention: every caller must end up with a
// distinct index.
func testConcurrentIndexAllocation(t *testing.T, c cache.Cache) {
	defer c.Close()

	requireFeature(t, c, cache.FeatureAdd)
	requireFeature(t, c, cache.FeatureIncr)

	const goroutines = 16

	testKey := "index-counter"

	indices := make(chan uint64, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()

			stored, err := c.Add(testKey, []byte("1"))
			if err != nil {
				t.Errorf("Add failed: %v", err)
				return
			}
			if stored {
				indices <- 1
				return
			}
			index, err := c.Incr(testKey)
			if err != nil {
				t.Errorf("Incr failed: %v", err)
				return
			}
			indices <- index
		}()
	}
	wg.Wait()
	close(indices)

	seen := make(map[uint64]bool)
	for index := range indices {
		if seen[index] {
			t.Errorf("Index %d allocated twice", index)
		}
		seen[index] = true
	}
	if len(seen) != goroutines {
		t.Errorf("Expected %d distinct indices, got %d", goroutines, len(seen))
	}
}
