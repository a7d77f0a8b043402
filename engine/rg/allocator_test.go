package rg

import "testing"

// newTestBlock builds a MemoryBlock with no real Vulkan memory behind it;
// the chunk-tree algorithms under test never touch block.memory.
func newTestBlock(size uint64) *MemoryBlock {
	return &MemoryBlock{
		size:   size,
		chunks: make([]chunk, chunkCountForBlock()),
	}
}

func TestBuddyTwoHalves(t *testing.T) {
	b := newTestBlock(64)

	i1, ok := b.tryAllocate(0, 32, 1)
	if !ok {
		t.Fatal("first alloc(32) should succeed")
	}
	i2, ok := b.tryAllocate(0, 32, 1)
	if !ok {
		t.Fatal("second alloc(32) should succeed")
	}
	if _, ok := b.tryAllocate(0, 1, 1); ok {
		t.Fatal("third alloc(1) should fail, block is full")
	}

	b.free(i1)
	if b.chunks[0].used != 32 {
		t.Fatalf("root.used after one free = %d, want 32", b.chunks[0].used)
	}

	if _, ok := b.tryAllocate(0, 32, 1); !ok {
		t.Fatal("alloc(32) should succeed again after free")
	}
	if b.chunks[0].used != 64 {
		t.Fatalf("root.used after realloc = %d, want 64", b.chunks[0].used)
	}

	b.free(i2)
	// Frees i2's chunk (unchanged by the realloc into i1's slot); nothing
	// is asserted after this call.
}

func TestBuddyFreeReturnsToInitialState(t *testing.T) {
	b := newTestBlock(256)
	var allocated []int
	for i := 0; i < 4; i++ {
		idx, ok := b.tryAllocate(0, 64, 1)
		if !ok {
			t.Fatalf("alloc %d should succeed", i)
		}
		allocated = append(allocated, idx)
	}
	for _, idx := range allocated {
		b.free(idx)
	}
	if b.chunks[0].used != 0 {
		t.Fatalf("root.used = %d, want 0 after freeing everything", b.chunks[0].used)
	}
	for i, c := range b.chunks {
		if c.split {
			t.Fatalf("chunk %d still split after full free", i)
		}
	}
}

func TestChunkOffsetDerivation(t *testing.T) {
	blockSize := uint64(64)
	// Root spans the whole block.
	if off := chunkOffset(blockSize, 0); off != 0 {
		t.Fatalf("root offset = %d, want 0", off)
	}
	// Left child of root starts at 0, right child at half the block.
	if off := chunkOffset(blockSize, chunkLeft(0)); off != 0 {
		t.Fatalf("left child offset = %d, want 0", off)
	}
	if off := chunkOffset(blockSize, chunkRight(0)); off != blockSize/2 {
		t.Fatalf("right child offset = %d, want %d", off, blockSize/2)
	}
}
