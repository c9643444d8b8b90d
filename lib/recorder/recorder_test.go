package recorder

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vkoehler/memtrace/lib/cache"
	"github.com/vkoehler/memtrace/lib/cache/engines/rowan"
	"github.com/vkoehler/memtrace/lib/inspect"
	"github.com/vkoehler/memtrace/lib/record"
	"github.com/vkoehler/memtrace/lib/registry"
)

// fixedSizes measures string values by their length so tests are
// deterministic and independent of the reflect-based sizer
var fixedSizes = inspect.InspectorFunc(func(v interface{}) uint64 {
	if s, ok := v.(string); ok {
		return uint64(len(s))
	}
	return 1
})

// newTestRecorder builds a recorder backed by a fresh in-process cache
// and an isolated registry
func newTestRecorder(t *testing.T, cfg Config) (*Recorder, cache.Cache, *registry.Registry) {
	t.Helper()

	backend := rowan.New(nil)
	t.Cleanup(func() { _ = backend.Close() })

	reg := registry.New()

	rec, err := New(Options{
		Cache:     backend,
		Inspector: fixedSizes,
		Registry:  reg,
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("Failed to create recorder: %v", err)
	}

	return rec, backend, reg
}

// TestNewRequiresCache tests that a recorder cannot be built without a backend
func TestNewRequiresCache(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("Expected error for missing cache backend")
	}
}

// TestFirstIndexIsOne tests that the very first trace claims index 1
func TestFirstIndexIsOne(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{})

	index, err := rec.Trace()
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if index != 1 {
		t.Errorf("Expected first index 1, got %d", index)
	}
}

// TestIndicesIncreaseWithoutGaps tests sequential index allocation
func TestIndicesIncreaseWithoutGaps(t *testing.T) {
	rec, backend, _ := newTestRecorder(t, Config{})

	for want := uint64(1); want <= 5; want++ {
		index, err := rec.Trace()
		if err != nil {
			t.Fatalf("Trace %d failed: %v", want, err)
		}
		if index != want {
			t.Errorf("Expected index %d, got %d", want, index)
		}
	}

	raw, loaded, err := backend.Get(DefaultIndexKey)
	if err != nil || !loaded {
		t.Fatalf("Failed to read counter key: loaded=%v err=%v", loaded, err)
	}
	if string(raw) != "5" {
		t.Errorf("Expected counter value 5, got %q", raw)
	}
}

// TestConcurrentTracesAllocateDistinctIndices tests trace atomicity
func TestConcurrentTracesAllocateDistinctIndices(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{})

	const goroutines = 16

	var wg sync.WaitGroup
	indices := make([]uint64, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			index, err := rec.Trace()
			if err != nil {
				t.Errorf("Trace failed: %v", err)
				return
			}
			indices[slot] = index
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, goroutines)
	for _, index := range indices {
		if seen[index] {
			t.Errorf("Index %d was allocated twice", index)
		}
		seen[index] = true
	}
}

// TestEmptyStoreYieldsEmptyRetrieval tests retrieval before any trace
func TestEmptyStoreYieldsEmptyRetrieval(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{})

	raw, err := rec.GetRawRecords(10, 0)
	if err != nil {
		t.Fatalf("GetRawRecords failed: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("Expected empty result, got %d positions", len(raw))
	}

	decoded, err := rec.GetRecords(10, 0)
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("Expected empty result, got %d positions", len(decoded))
	}
}

// TestRetrievalOrderNewestFirst tests that K snapshots come back K..1
func TestRetrievalOrderNewestFirst(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{})

	const count = 4
	for i := 0; i < count; i++ {
		if _, err := rec.Trace(); err != nil {
			t.Fatalf("Trace failed: %v", err)
		}
	}

	raw, err := rec.GetRawRecords(10, 0)
	if err != nil {
		t.Fatalf("GetRawRecords failed: %v", err)
	}
	if len(raw) != count {
		t.Fatalf("Expected %d positions, got %d", count, len(raw))
	}
	for pos, snap := range raw {
		want := uint64(count - pos)
		if snap.Index != want {
			t.Errorf("Position %d: expected index %d, got %d", pos, want, snap.Index)
		}
		if snap.Err != nil {
			t.Errorf("Position %d: unexpected error: %v", pos, snap.Err)
		}
	}
}

// TestRetrievalOffsetArithmetic tests the candidate range with offset
func TestRetrievalOffsetArithmetic(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{})

	for i := 0; i < 6; i++ {
		if _, err := rec.Trace(); err != nil {
			t.Fatalf("Trace failed: %v", err)
		}
	}

	// limit 5 and offset 2 yields indices 4 and 3: three positions
	// fewer than the limit, two skipped from the front
	raw, err := rec.GetRawRecords(5, 2)
	if err != nil {
		t.Fatalf("GetRawRecords failed: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(raw))
	}
	for pos, want := range []uint64{4, 3, 2} {
		if raw[pos].Index != want {
			t.Errorf("Position %d: expected index %d, got %d", pos, want, raw[pos].Index)
		}
	}

	// offset at or beyond the effective limit yields nothing
	raw, err = rec.GetRawRecords(5, 5)
	if err != nil {
		t.Fatalf("GetRawRecords failed: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("Expected empty result, got %d positions", len(raw))
	}
}

// TestMissingSnapshotIsPerPosition tests that eviction of one snapshot
// does not abort retrieval of its neighbours
func TestMissingSnapshotIsPerPosition(t *testing.T) {
	rec, backend, _ := newTestRecorder(t, Config{})

	for i := 0; i < 3; i++ {
		if _, err := rec.Trace(); err != nil {
			t.Fatalf("Trace failed: %v", err)
		}
	}

	// simulate eviction of the middle snapshot
	if err := backend.Delete(DefaultRecordPrefix + "2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	snapshots, err := rec.GetRecords(10, 0)
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(snapshots))
	}

	if snapshots[0].Err != nil || snapshots[2].Err != nil {
		t.Errorf("Neighbour positions must stay usable: %v / %v", snapshots[0].Err, snapshots[2].Err)
	}

	var missing *MissingSnapshotError
	if !errors.As(snapshots[1].Err, &missing) {
		t.Fatalf("Expected *MissingSnapshotError at position 1, got %v", snapshots[1].Err)
	}
	if missing.Index != 2 {
		t.Errorf("Expected missing index 2, got %d", missing.Index)
	}
}

// TestCollisionAfterCounterResetIsDropped tests the write-once guarantee
func TestCollisionAfterCounterResetIsDropped(t *testing.T) {
	cfg := Config{Modules: []string{"app"}}
	rec, backend, reg := newTestRecorder(t, cfg)

	reg.Register("app", registry.AttrMap{"payload": "first"})
	if _, err := rec.Trace(); err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	// simulate counter eviction, then trace with different content
	if err := backend.Delete(DefaultIndexKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	reg.Register("app", registry.AttrMap{"payload": "second value"})

	index, err := rec.Trace()
	if err != nil {
		t.Fatalf("Trace after reset failed: %v", err)
	}
	if index != 1 {
		t.Fatalf("Expected re-allocated index 1, got %d", index)
	}

	// the surviving first snapshot must be untouched
	snapshots, err := rec.GetRecords(10, 0)
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("Expected 1 position, got %d", len(snapshots))
	}
	entries := snapshots[0].Record.Entries
	if len(entries) != 1 || entries[0].DominatedSize != uint64(len("first")) {
		t.Errorf("First snapshot was overwritten: %+v", entries)
	}
}

// TestScanFiltersAndSortsAttributes tests ignore set and name ordering
func TestScanFiltersAndSortsAttributes(t *testing.T) {
	cfg := Config{
		Modules:     []string{"alpha", "beta"},
		IgnoreNames: []string{"secret", "tmp"},
	}
	rec, _, reg := newTestRecorder(t, cfg)

	reg.Register("alpha", registry.AttrMap{
		"zebra":  "zz",
		"apple":  "a",
		"secret": "hidden",
	})
	reg.Register("beta", registry.AttrMap{
		"tmp":    "scratch",
		"middle": "mmm",
	})

	if _, err := rec.Trace(); err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	snapshots, err := rec.GetRecords(1, 0)
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].Err != nil {
		t.Fatalf("Expected one decoded snapshot, got %+v", snapshots)
	}

	want := []record.Entry{
		{ModuleName: "alpha", Name: "apple", ObjType: "string", DominatedSize: 1},
		{ModuleName: "alpha", Name: "zebra", ObjType: "string", DominatedSize: 2},
		{ModuleName: "beta", Name: "middle", ObjType: "string", DominatedSize: 3},
	}
	got := snapshots[0].Record.Entries
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

// TestUnregisteredModuleIsSkipped tests that unknown names contribute nothing
func TestUnregisteredModuleIsSkipped(t *testing.T) {
	cfg := Config{Modules: []string{"ghost", "real"}}
	rec, _, reg := newTestRecorder(t, cfg)

	reg.Register("real", registry.AttrMap{"data": "xyz"})

	if _, err := rec.Trace(); err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	snapshots, err := rec.GetRecords(1, 0)
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	entries := snapshots[0].Record.Entries
	if len(entries) != 1 || entries[0].ModuleName != "real" {
		t.Errorf("Expected only the registered module, got %+v", entries)
	}
}

// TestCustomKeyNames tests that configured key names are honoured
func TestCustomKeyNames(t *testing.T) {
	cfg := Config{IndexKey: "my_counter", RecordPrefix: "my_snap_"}
	rec, backend, _ := newTestRecorder(t, cfg)

	if _, err := rec.Trace(); err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	if _, loaded, _ := backend.Get("my_counter"); !loaded {
		t.Error("Expected counter under the configured key")
	}
	if _, loaded, _ := backend.Get("my_snap_1"); !loaded {
		t.Error("Expected snapshot under the configured prefix")
	}
	if _, loaded, _ := backend.Get(DefaultIndexKey); loaded {
		t.Error("Default counter key must be untouched")
	}
}

// TestLimitCapsResult tests that limit bounds the retrieval window
func TestLimitCapsResult(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{})

	for i := 0; i < 8; i++ {
		if _, err := rec.Trace(); err != nil {
			t.Fatalf("Trace failed: %v", err)
		}
	}

	raw, err := rec.GetRawRecords(3, 0)
	if err != nil {
		t.Fatalf("GetRawRecords failed: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(raw))
	}
	for pos, want := range []uint64{8, 7, 6} {
		if raw[pos].Index != want {
			t.Errorf("Position %d: expected index %d, got %d", pos, want, raw[pos].Index)
		}
	}
}

// TestUndecodableSnapshotKeepsPosition tests decode errors stay per position
func TestUndecodableSnapshotKeepsPosition(t *testing.T) {
	rec, backend, _ := newTestRecorder(t, Config{})

	if _, err := rec.Trace(); err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if _, err := rec.Trace(); err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	// corrupt the older snapshot
	if err := backend.Delete(DefaultRecordPrefix + "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if stored, err := backend.Add(DefaultRecordPrefix+"1", []byte("not json")); err != nil || !stored {
		t.Fatalf("Failed to plant corrupt snapshot: stored=%v err=%v", stored, err)
	}

	snapshots, err := rec.GetRecords(10, 0)
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(snapshots))
	}
	if snapshots[0].Err != nil {
		t.Errorf("Newest snapshot must decode: %v", snapshots[0].Err)
	}

	var parseErr *record.ParseError
	if !errors.As(snapshots[1].Err, &parseErr) {
		t.Errorf("Expected *record.ParseError at position 1, got %v", snapshots[1].Err)
	}
}

// TestTypeName tests the runtime type display names in entries
func TestTypeName(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{nil, "nil"},
		{"text", "string"},
		{42, "int"},
		{[]byte("b"), "[]uint8"},
		{map[string]int{}, "map[string]int"},
	}
	for _, tt := range tests {
		if got := typeName(tt.value); got != tt.want {
			t.Errorf("typeName(%v): expected %q, got %q", tt.value, tt.want, got)
		}
	}
}

// TestMissingSnapshotErrorMessage pins the error string format
func TestMissingSnapshotErrorMessage(t *testing.T) {
	err := &MissingSnapshotError{Index: 7}
	want := fmt.Sprintf("snapshot %d is no longer in the cache", 7)
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
