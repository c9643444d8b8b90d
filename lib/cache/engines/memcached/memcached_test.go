package memcached

import (
	"os"
	"testing"
	"time"

	"github.com/vkoehler/memtrace/lib/cache"
	cachetesting "github.com/vkoehler/memtrace/lib/cache/testing"
)

// The contract suite needs a reachable server. Point
// MEMTRACE_TEST_MEMCACHED at one (e.g. localhost:11211) to enable it.
func Test(t *testing.T) {
	endpoint := os.Getenv("MEMTRACE_TEST_MEMCACHED")
	if endpoint == "" {
		t.Skip("MEMTRACE_TEST_MEMCACHED not set")
	}

	cachetesting.RunCacheTests(t, "Memcached", func() cache.Cache {
		c, err := New(Options{
			Endpoints: []string{endpoint},
			Timeout:   time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create memcached cache: %v", err)
		}
		return c
	})
}

// TestNewRequiresEndpoints verifies construction fails without servers.
func TestNewRequiresEndpoints(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("Expected New without endpoints to fail")
	}
}
