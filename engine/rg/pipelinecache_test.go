package rg

import (
	"testing"

	"github.com/felipeagc/rgrender/engine/containers"
)

// TestPipelineInstanceCacheReusesIdenticalHash exercises the cache-hit path
// a Pipeline's instanceFor uses internally: two render passes sharing a
// hash must resolve to the same cached instance, built only once, while a
// distinct hash gets its own instance.
func TestPipelineInstanceCacheReusesIdenticalHash(t *testing.T) {
	instances := containers.NewHashmap[int]()

	builds := 0
	lookup := func(hash uint64) int {
		if cached, ok := instances.Get(hash); ok {
			return cached
		}
		builds++
		instances.Set(hash, builds)
		return builds
	}

	const (
		hashA = 0xC0FFEE
		hashB = 0xDEADBEEF
	)

	first := lookup(hashA)
	second := lookup(hashA) // identical render pass hash, must be a cache hit
	third := lookup(hashB)  // distinct hash, must build a new instance

	if first != second {
		t.Fatalf("identical render pass hashes must resolve to the same pipeline instance")
	}
	if first == third {
		t.Fatalf("distinct render pass hashes must not share a pipeline instance")
	}
	if builds != 2 {
		t.Fatalf("expected exactly 2 builds for 2 distinct hashes across 3 lookups, got %d", builds)
	}
}
