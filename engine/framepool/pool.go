// Package framepool implements the per-frame uniform/storage staging
// scheme: a host-visible storage buffer double-buffered in place, written
// fresh every frame and indexed by shaders via a bindless buffer slot plus
// a per-item offset.
package framepool

import (
	"fmt"

	"github.com/felipeagc/rgrender/engine/bindless"
	"github.com/felipeagc/rgrender/engine/rg"
)

// Pool owns one host-visible storage buffer of size 2*itemSize*itemCount,
// registered as a single bindless storage-buffer slot. Two frames of
// capacity are kept so the GPU can still be reading frame N-1's items
// while the CPU writes frame N's.
//
// Grounded on original_source/renderer/buffer_pool.c's BufferPool: same
// double-capacity buffer, same frame_index-toggles-every-reset /
// allocated_items-only-resets-on-the-even-toggle sequencing, and the same
// direct memcpy-at-allocated_items*item_size write with no other offset
// (the "two frames of capacity" comes entirely from allocated_items
// continuing to climb through the second item_count items during the odd
// frame, not from the caller ever offsetting the index itself).
type Pool struct {
	bindless   *bindless.Engine
	buffer     *rg.Buffer
	handle     bindless.Handle
	mapping    []byte
	itemSize   uint64
	itemCount  uint64
	frameIndex uint32
	allocated  uint64
}

// New allocates the pool's backing buffer and registers it as a bindless
// storage buffer.
func New(be *bindless.Engine, itemSize, itemCount uint64) (*Pool, error) {
	buf, handle, err := be.AllocateStorageBuffer(itemSize*itemCount*2, rg.BufferUsageTransferDst, rg.MemoryHost, false)
	if err != nil {
		return nil, err
	}

	return &Pool{
		bindless:  be,
		buffer:    buf,
		handle:    handle,
		mapping:   buf.Map(),
		itemSize:  itemSize,
		itemCount: itemCount,
	}, nil
}

// BufferIndex returns the bindless slot index shaders use to index into
// this pool's storage buffer.
func (p *Pool) BufferIndex() uint32 {
	return p.handle.Index
}

// Reset toggles the frame index modulo 2; when it wraps back to 0,
// allocated_items resets, reclaiming the buffer's first half for this
// frame's writes.
func (p *Pool) Reset() {
	p.frameIndex = (p.frameIndex + 1) % 2
	if p.frameIndex == 0 {
		p.allocated = 0
	}
}

// AllocateItem copies data (which must be exactly itemSize bytes) into the
// next free slot and returns that slot's index, the value shaders use to
// index the bound storage buffer array.
func (p *Pool) AllocateItem(data []byte) (uint32, error) {
	if uint64(len(data)) != p.itemSize {
		return 0, fmt.Errorf("framepool: AllocateItem got %d bytes, want item size %d", len(data), p.itemSize)
	}

	itemIndex := p.allocated
	p.allocated++

	offset := itemIndex * p.itemSize
	copy(p.mapping[offset:offset+p.itemSize], data)

	return uint32(itemIndex), nil
}

// Destroy frees the pool's bindless storage buffer slot and destroys the
// underlying buffer.
func (p *Pool) Destroy() {
	p.bindless.FreeStorageBuffer(p.handle)
}
