package inspect

import (
	"testing"
	"unsafe"
)

// TestNilValue tests that nil measures as zero
func TestNilValue(t *testing.T) {
	s := NewSizer()
	if got := s.DominatedSize(nil); got != 0 {
		t.Errorf("Expected 0 for nil, got %d", got)
	}
}

// TestScalarSizes tests direct representation sizes
func TestScalarSizes(t *testing.T) {
	s := NewSizer()

	if got := s.DominatedSize(int64(7)); got != 8 {
		t.Errorf("Expected 8 bytes for int64, got %d", got)
	}
	if got := s.DominatedSize(true); got != 1 {
		t.Errorf("Expected 1 byte for bool, got %d", got)
	}
}

// TestStringIncludesPayload tests that string bytes are counted
func TestStringIncludesPayload(t *testing.T) {
	s := NewSizer()

	header := uint64(unsafe.Sizeof(""))
	if got := s.DominatedSize("hello"); got != header+5 {
		t.Errorf("Expected %d bytes for 5-byte string, got %d", header+5, got)
	}

	// a longer string must measure strictly larger
	short := s.DominatedSize("ab")
	long := s.DominatedSize("abcdefghij")
	if long <= short {
		t.Errorf("Expected longer string to measure larger: %d vs %d", long, short)
	}
}

// TestSliceIncludesBackingArray tests that slice capacity is counted
func TestSliceIncludesBackingArray(t *testing.T) {
	s := NewSizer()

	small := s.DominatedSize(make([]int64, 10))
	big := s.DominatedSize(make([]int64, 1000))

	if big <= small {
		t.Errorf("Expected larger slice to measure larger: %d vs %d", big, small)
	}
	// 1000 int64s are at least 8000 bytes
	if big < 8000 {
		t.Errorf("Expected at least 8000 bytes for 1000 int64s, got %d", big)
	}
}

// TestPointerFollowedOnce tests cycle termination
func TestPointerFollowedOnce(t *testing.T) {
	type node struct {
		next *node
		data [64]byte
	}

	// self-cycle must terminate and count the node once
	n := &node{}
	n.next = n

	s := NewSizer()
	got := s.DominatedSize(n)
	if got == 0 {
		t.Fatal("Expected non-zero size for cyclic structure")
	}
	// pointer + one node, not two
	if got > 2*uint64(unsafe.Sizeof(node{})) {
		t.Errorf("Cycle was double counted: %d bytes", got)
	}
}

// TestSharedPointerCountedOnce tests aliasing protection
func TestSharedPointerCountedOnce(t *testing.T) {
	type big struct{ data [1024]byte }
	type holder struct{ a, b *big }

	shared := &big{}
	h := holder{a: shared, b: shared}

	s := NewSizer()
	got := s.DominatedSize(h)

	// one copy of big plus the holder, far below two copies
	if got >= 2*1024 {
		t.Errorf("Shared target was double counted: %d bytes", got)
	}
	if got < 1024 {
		t.Errorf("Shared target was not counted at all: %d bytes", got)
	}
}

// TestMapIncludesEntries tests map content estimation
func TestMapIncludesEntries(t *testing.T) {
	s := NewSizer()

	empty := s.DominatedSize(map[string]int64{})
	filled := s.DominatedSize(map[string]int64{
		"alpha": 1, "beta": 2, "gamma": 3,
	})

	if filled <= empty {
		t.Errorf("Expected filled map to measure larger: %d vs %d", filled, empty)
	}
}

// TestStructWalksFields tests that nested indirect content is found
func TestStructWalksFields(t *testing.T) {
	type inner struct{ payload []byte }
	type outer struct{ in inner }

	s := NewSizer()

	lean := s.DominatedSize(outer{})
	fat := s.DominatedSize(outer{in: inner{payload: make([]byte, 4096)}})

	if fat < lean+4096 {
		t.Errorf("Expected nested payload to be counted: lean=%d fat=%d", lean, fat)
	}
}
