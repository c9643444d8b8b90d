package registry

import (
	"sort"
	"testing"
)

// TestRegisterLookup tests basic registration and lookup
func TestRegisterLookup(t *testing.T) {
	r := New()

	if _, ok := r.Lookup("app.core"); ok {
		t.Error("Expected lookup of unknown module to fail")
	}

	r.Register("app.core", AttrMap{"X": 1})

	provider, ok := r.Lookup("app.core")
	if !ok {
		t.Fatal("Expected lookup of registered module to succeed")
	}
	attrs := provider.Attributes()
	if len(attrs) != 1 || attrs["X"] != 1 {
		t.Errorf("Unexpected attributes: %v", attrs)
	}
}

// TestRegisterReplaces tests that re-registration replaces the provider
func TestRegisterReplaces(t *testing.T) {
	r := New()
	r.Register("m", AttrMap{"old": true})
	r.Register("m", AttrMap{"new": true})

	provider, _ := r.Lookup("m")
	if _, ok := provider.Attributes()["new"]; !ok {
		t.Error("Expected second registration to replace the first")
	}
}

// TestUnregister tests module removal
func TestUnregister(t *testing.T) {
	r := New()
	r.Register("m", AttrMap{})
	r.Unregister("m")

	if _, ok := r.Lookup("m"); ok {
		t.Error("Expected module to be gone after Unregister")
	}

	// unknown names are a no-op
	r.Unregister("never-registered")
}

// TestAttrFunc tests the on-demand provider adapter
func TestAttrFunc(t *testing.T) {
	calls := 0
	r := New()
	r.Register("dynamic", AttrFunc(func() map[string]interface{} {
		calls++
		return map[string]interface{}{"n": calls}
	}))

	provider, _ := r.Lookup("dynamic")
	provider.Attributes()
	attrs := provider.Attributes()

	if calls != 2 {
		t.Errorf("Expected provider to be called per scan, got %d calls", calls)
	}
	if attrs["n"] != 2 {
		t.Errorf("Expected live attribute value 2, got %v", attrs["n"])
	}
}

// TestNames tests enumeration of registered modules
func TestNames(t *testing.T) {
	r := New()
	for _, name := range []string{"b", "a", "c"} {
		r.Register(name, AttrMap{})
	}

	names := r.Names()
	sort.Strings(names)
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Expected name %q, got %q", want[i], names[i])
		}
	}
}
