package framepool

import "testing"

// frameCycle reproduces Pool.Reset/AllocateItem's bookkeeping in
// isolation (no bindless/device dependency) to verify the two-frames-of-
// capacity wraparound behavior against original_source/renderer/
// buffer_pool.c's BufferPoolReset/BufferPoolAllocateItem.
type frameCycle struct {
	frameIndex uint32
	allocated  uint64
}

func (c *frameCycle) reset() {
	c.frameIndex = (c.frameIndex + 1) % 2
	if c.frameIndex == 0 {
		c.allocated = 0
	}
}

func (c *frameCycle) allocate() uint64 {
	idx := c.allocated
	c.allocated++
	return idx
}

func TestFrameCycleTwoFramesOfCapacityBeforeWraparound(t *testing.T) {
	c := &frameCycle{}

	c.reset() // frame_index -> 1, no reset (odd)
	first := c.allocate()
	second := c.allocate()
	if first != 0 || second != 1 {
		t.Fatalf("expected sequential indices 0,1 on first frame, got %d,%d", first, second)
	}

	c.reset() // frame_index -> 0, resets allocated_items
	third := c.allocate()
	if third != 0 {
		t.Fatalf("expected allocated_items to reset to 0 on even toggle, got %d", third)
	}
}

func TestFrameCycleOddFrameContinuesIntoSecondHalf(t *testing.T) {
	c := &frameCycle{}
	c.reset() // -> 1
	c.allocate()
	c.allocate()

	c.reset() // -> 0, reset
	c.allocate()

	c.reset() // -> 1, no reset: continues from where frame 0 left off
	next := c.allocate()
	if next != 1 {
		t.Fatalf("expected allocation to continue at index 1 into the buffer's second half, got %d", next)
	}
}
