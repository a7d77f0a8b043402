package bindless

import (
	"testing"

	"github.com/felipeagc/rgrender/engine/containers"
)

// These exercise the slot-allocation semantics AllocateX/FreeX build on,
// without a real Vulkan device: LIFO reuse and exhaustion returning
// containers.InvalidSlot, per §4.11's "slot reuse is immediate".
func TestSlotPoolReuseIsImmediate(t *testing.T) {
	pool := containers.NewSlotPool(4)

	a := pool.Allocate()
	b := pool.Allocate()
	if a == containers.InvalidSlot || b == containers.InvalidSlot {
		t.Fatalf("expected valid slots, got a=%d b=%d", a, b)
	}

	pool.Free(a)
	c := pool.Allocate()
	if c != a {
		t.Fatalf("expected freed slot %d to be reused immediately, got %d", a, c)
	}
}

func TestSlotPoolExhaustionReturnsInvalidSlot(t *testing.T) {
	pool := containers.NewSlotPool(2)
	pool.Allocate()
	pool.Allocate()

	if got := pool.Allocate(); got != containers.InvalidSlot {
		t.Fatalf("expected InvalidSlot once pool is exhausted, got %d", got)
	}
}

func TestBindingConstantsMatchGlobalSetLayout(t *testing.T) {
	// binding 0 = storage buffers, 1 = images, 2 = samplers, per §4.11.
	if storageBufferBinding != 0 || sampledImageBinding != 1 || samplerBinding != 2 {
		t.Fatalf("unexpected binding indices: %d %d %d", storageBufferBinding, sampledImageBinding, samplerBinding)
	}
}
