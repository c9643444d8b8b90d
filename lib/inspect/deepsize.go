package inspect

import (
	"reflect"
)

// --------------------------------------------------------------------------
// Reflect-Based Sizer
// --------------------------------------------------------------------------

// Sizer is the default Inspector: a reflection walk over the value
// graph reachable from v. Pointers, maps, slices and channels are
// followed at most once (a visited set keyed by their addresses keeps
// cycles and aliasing from inflating the result), string and slice
// payloads are counted at their full backing size, and map storage is
// estimated from entry sizes.
//
// The result is the reachable-subgraph size, which over-counts
// subgraphs also reachable from elsewhere (a true dominated size
// would exclude them). For the typical use (tracking growth of a
// module attribute over time) the approximation is the right
// trade-off; callers needing exact numbers can plug in their own
// Inspector.
type Sizer struct{}

// NewSizer creates the default reflect-based inspector.
func NewSizer() *Sizer {
	return &Sizer{}
}

// DominatedSize returns the approximate number of bytes retained by v.
//
// Thread-safety: This method is thread-safe as long as the inspected
// value is not mutated concurrently.
func (s *Sizer) DominatedSize(v interface{}) uint64 {
	if v == nil {
		return 0
	}
	seen := make(map[uintptr]struct{})
	return valueSize(reflect.ValueOf(v), seen)
}

// valueSize returns the full size of rv: its direct representation
// plus everything reachable behind it.
func valueSize(rv reflect.Value, seen map[uintptr]struct{}) uint64 {
	if !rv.IsValid() {
		return 0
	}
	return uint64(rv.Type().Size()) + indirectSize(rv, seen)
}

// indirectSize returns only the bytes behind rv's direct
// representation: pointed-to values, backing arrays, string bytes,
// map storage. The direct representation itself is counted by the
// caller (it already lives inside an enclosing struct, array or
// variable).
func indirectSize(rv reflect.Value, seen map[uintptr]struct{}) uint64 {
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() || !visit(rv.Pointer(), seen) {
			return 0
		}
		return valueSize(rv.Elem(), seen)

	case reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return valueSize(rv.Elem(), seen)

	case reflect.String:
		return uint64(rv.Len())

	case reflect.Slice:
		if rv.IsNil() || rv.Cap() == 0 || !visit(rv.Pointer(), seen) {
			return 0
		}
		elemSize := uint64(rv.Type().Elem().Size())
		total := uint64(rv.Cap()) * elemSize
		for i := 0; i < rv.Len(); i++ {
			total += indirectSize(rv.Index(i), seen)
		}
		return total

	case reflect.Array:
		var total uint64
		for i := 0; i < rv.Len(); i++ {
			total += indirectSize(rv.Index(i), seen)
		}
		return total

	case reflect.Struct:
		var total uint64
		for i := 0; i < rv.NumField(); i++ {
			total += indirectSize(rv.Field(i), seen)
		}
		return total

	case reflect.Map:
		if rv.IsNil() || !visit(rv.Pointer(), seen) {
			return 0
		}
		keySize := uint64(rv.Type().Key().Size())
		elemSize := uint64(rv.Type().Elem().Size())
		var total uint64
		iter := rv.MapRange()
		for iter.Next() {
			total += keySize + elemSize
			total += indirectSize(iter.Key(), seen)
			total += indirectSize(iter.Value(), seen)
		}
		return total

	default:
		// chan, func, unsafe pointer, numeric kinds: the direct
		// representation is all we can account for
		return 0
	}
}

// visit marks an address as seen and reports whether it was new.
func visit(addr uintptr, seen map[uintptr]struct{}) bool {
	if addr == 0 {
		return false
	}
	if _, ok := seen[addr]; ok {
		return false
	}
	seen[addr] = struct{}{}
	return true
}
