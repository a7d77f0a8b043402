package rg

import (
	"math/bits"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/core"
)

// chunk is one node of a MemoryBlock's binary buddy tree. The tree is kept
// as a flat array: left child of i is 2i+1, right is 2i+2, parent is
// (i-1)/2. Chunk size and offset are derived from the index rather than
// stored, following the teacher's array-of-structs-by-index convention
// used throughout engine/renderer/vulkan.
type chunk struct {
	used  uint64
	split bool
}

const chunkTreeLevels = 9 // supports blocks subdivided down to 1/256th

func treeLevel(i int) int {
	return bits.Len(uint(i+1)) - 1
}

func chunkSize(blockSize uint64, i int) uint64 {
	return blockSize >> uint(treeLevel(i))
}

func chunkParent(i int) int { return (i - 1) / 2 }
func chunkLeft(i int) int   { return 2*i + 1 }
func chunkRight(i int) int  { return 2*i + 2 }

func isRightChild(i int) bool {
	return i > 0 && i%2 == 0
}

// chunkOffset walks from the root down to i, accumulating chunkSize(parent)/2
// (the left sibling's size) whenever the path takes a right turn — exactly the offset derivation
// spec'd for the buddy allocator.
func chunkOffset(blockSize uint64, i int) uint64 {
	if i == 0 {
		return 0
	}
	parentOffset := chunkOffset(blockSize, chunkParent(i))
	if isRightChild(i) {
		return parentOffset + chunkSize(blockSize, chunkParent(i))/2
	}
	return parentOffset
}

// MemoryBlock owns a single VkDeviceMemory and its buddy chunk tree.
type MemoryBlock struct {
	device       vk.Device
	memory       vk.DeviceMemory
	size         uint64
	memoryTypeIx uint32
	class        MemoryClass
	mapping      uintptr // opaque; 0 if not host-visible
	mappedPtr    []byte
	chunks       []chunk
}

// Allocation is either an in-block suballocation or a dedicated allocation
// that bypasses the buddy tree entirely.
type Allocation struct {
	Dedicated bool

	Block      *MemoryBlock
	ChunkIndex int
	Offset     uint64
	Size       uint64

	DedicatedMemory  vk.DeviceMemory
	DedicatedMapping []byte
}

// Allocator owns an ordered sequence of MemoryBlocks per memory class and
// implements the buddy allocation algorithm over them, falling back to
// vkAllocateMemory directly for dedicated allocations.
//
// Grounded on original_source/thirdparty/rg/rg.c's memory-chunk machinery
// (RgMemoryChunk, rgMemoryBlockAllocate/Split/Join).
type Allocator struct {
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	memProps       vk.PhysicalDeviceMemoryProperties

	blocks map[uint32][]*MemoryBlock // keyed by memory type index
}

// NewAllocator queries the physical device's memory properties once and
// returns an allocator with no blocks yet created.
func NewAllocator(physicalDevice vk.PhysicalDevice, device vk.Device) *Allocator {
	a := &Allocator{
		physicalDevice: physicalDevice,
		device:         device,
		blocks:         make(map[uint32][]*MemoryBlock),
	}
	vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &a.memProps)
	a.memProps.Deref()
	return a
}

// findMemoryType scans the physical device's memory-type table for the
// first type matching both the requirement bitmask and the requested
// property flags.
func (a *Allocator) findMemoryType(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, bool) {
	for i := uint32(0); i < a.memProps.MemoryTypeCount; i++ {
		a.memProps.MemoryTypes[i].Deref()
		hasBit := typeBits&(1<<i) != 0
		hasProps := vk.MemoryPropertyFlags(a.memProps.MemoryTypes[i].PropertyFlags)&properties == properties
		if hasBit && hasProps {
			return i, true
		}
	}
	return 0, false
}

// findMemoryTypeForClass implements the candidate property-set fallback
// table from the spec: device-local has one candidate, upload and readback
// each have a strict and a relaxed candidate.
func (a *Allocator) findMemoryTypeForClass(typeBits uint32, class MemoryClass) (uint32, bool) {
	switch class {
	case MemoryDevice:
		return a.findMemoryType(typeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	case MemoryHost:
		strict := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit | vk.MemoryPropertyDeviceLocalBit)
		if ix, ok := a.findMemoryType(typeBits, strict); ok {
			return ix, true
		}
		relaxed := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
		return a.findMemoryType(typeBits, relaxed)
	case MemoryReadback:
		strict := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit | vk.MemoryPropertyHostCachedBit)
		if ix, ok := a.findMemoryType(typeBits, strict); ok {
			return ix, true
		}
		relaxed := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
		return a.findMemoryType(typeBits, relaxed)
	}
	return 0, false
}

func nextPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return v + 1
}

func defaultBlockSize(class MemoryClass) uint64 {
	if class == MemoryDevice {
		return DefaultDeviceLocalBlockSize
	}
	return DefaultHostVisibleBlockSize
}

func chunkCountForBlock() int {
	// A full binary tree of chunkTreeLevels levels: 2^levels - 1 nodes.
	return (1 << chunkTreeLevels) - 1
}

func (a *Allocator) newBlock(memoryTypeIx uint32, size uint64, class MemoryClass) (*MemoryBlock, error) {
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryTypeIx,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(a.device, &allocInfo, nil, &memory); res != vk.Success {
		return nil, WrapResult(res, "vkAllocateMemory (block)")
	}

	block := &MemoryBlock{
		device:       a.device,
		memory:       memory,
		size:         size,
		memoryTypeIx: memoryTypeIx,
		class:        class,
		chunks:       make([]chunk, chunkCountForBlock()),
	}

	if class != MemoryDevice {
		var data unsafePointer
		if res := vk.MapMemory(a.device, memory, 0, vk.DeviceSize(size), 0, &data.p); res != vk.Success {
			vk.FreeMemory(a.device, memory, nil)
			return nil, WrapResult(res, "vkMapMemory (block)")
		}
		block.mappedPtr = data.bytes(int(size))
	}

	core.LogDebug("rg: allocated memory block type=%d size=%d class=%v", memoryTypeIx, size, class)
	return block, nil
}

// splittable reports whether chunk i can be divided to satisfy a request
// of the given size/alignment, per the four conditions in the spec.
func (b *MemoryBlock) splittable(i int, size, alignment uint64) bool {
	cs := chunkSize(b.size, i)
	if chunkLeft(i) >= len(b.chunks) || chunkRight(i) >= len(b.chunks) {
		return false
	}
	if size > cs/2 {
		return false
	}
	if b.chunks[i].used > cs/2 {
		return false
	}
	leftOffset := chunkOffset(b.size, chunkLeft(i))
	rightOffset := chunkOffset(b.size, chunkRight(i))
	return leftOffset%alignment == 0 || rightOffset%alignment == 0
}

func (b *MemoryBlock) updateUsage(i int) {
	for i > 0 {
		parent := chunkParent(i)
		if !b.chunks[parent].split {
			return
		}
		b.chunks[parent].used = b.chunks[chunkLeft(parent)].used + b.chunks[chunkRight(parent)].used
		i = parent
	}
}

// tryAllocate implements the recursive split algorithm from the spec.
func (b *MemoryBlock) tryAllocate(i int, size, alignment uint64) (int, bool) {
	if i >= len(b.chunks) {
		return 0, false
	}
	cs := chunkSize(b.size, i)

	if b.chunks[i].split {
		if idx, ok := b.tryAllocate(chunkLeft(i), size, alignment); ok {
			return idx, true
		}
		if idx, ok := b.tryAllocate(chunkRight(i), size, alignment); ok {
			return idx, true
		}
		return 0, false
	}

	if b.chunks[i].used == 0 && size <= cs && chunkOffset(b.size, i)%alignment == 0 {
		// Prefer splitting further if a tighter fit is possible and legal;
		// otherwise claim this chunk outright.
		if b.splittable(i, size, alignment) {
			b.chunks[i].split = true
			left, right := chunkLeft(i), chunkRight(i)
			b.chunks[left].used = b.chunks[i].used
			b.chunks[right].used = 0
			b.chunks[i].used = 0
			if idx, ok := b.tryAllocate(left, size, alignment); ok {
				b.updateUsage(i)
				return idx, true
			}
			if idx, ok := b.tryAllocate(right, size, alignment); ok {
				b.updateUsage(i)
				return idx, true
			}
			// Should not happen given splittable's preconditions, but fall
			// through to claiming this node rather than leaving it split
			// with nothing allocated.
			b.chunks[i].split = false
		}
		b.chunks[i].used = size
		b.updateUsage(i)
		return i, true
	}

	if b.splittable(i, size, alignment) {
		b.chunks[i].split = true
		left, right := chunkLeft(i), chunkRight(i)
		b.chunks[left].used = b.chunks[i].used
		b.chunks[right].used = 0
		if idx, ok := b.tryAllocate(left, size, alignment); ok {
			b.updateUsage(i)
			return idx, true
		}
		if idx, ok := b.tryAllocate(right, size, alignment); ok {
			b.updateUsage(i)
			return idx, true
		}
	}
	return 0, false
}

// free zeroes chunk i's usage, propagates the sum upward, then joins any
// ancestor whose children are both unsplit and unused.
func (b *MemoryBlock) free(i int) {
	b.chunks[i].used = 0
	b.updateUsage(i)

	for i > 0 {
		parent := chunkParent(i)
		left, right := chunkLeft(parent), chunkRight(parent)
		if b.chunks[left].split || b.chunks[right].split {
			break
		}
		if b.chunks[left].used != 0 || b.chunks[right].used != 0 {
			break
		}
		b.chunks[parent].split = false
		b.chunks[parent].used = 0
		i = parent
	}
}

// Allocate satisfies a memory request either from an existing block, a
// freshly created block, or (when dedicated is requested) directly via
// vkAllocateMemory.
func (a *Allocator) Allocate(reqs vk.MemoryRequirements, class MemoryClass, dedicated bool) (Allocation, error) {
	reqs.Deref()
	size := uint64(reqs.Size)
	alignment := uint64(reqs.Alignment)
	if alignment == 0 {
		alignment = 1
	}

	memTypeIx, ok := a.findMemoryTypeForClass(reqs.MemoryTypeBits, class)
	if !ok {
		return Allocation{}, ErrAllocationFailed
	}

	if dedicated {
		return a.allocateDedicated(memTypeIx, size, class)
	}

	for _, block := range a.blocks[memTypeIx] {
		if idx, ok := block.tryAllocate(0, size, alignment); ok {
			return Allocation{
				Block:      block,
				ChunkIndex: idx,
				Offset:     chunkOffset(block.size, idx),
				Size:       size,
			}, nil
		}
	}

	blockSize := nextPowerOfTwo(max64(size, defaultBlockSize(class)))
	block, err := a.newBlock(memTypeIx, blockSize, class)
	if err != nil {
		return Allocation{}, err
	}
	a.blocks[memTypeIx] = append(a.blocks[memTypeIx], block)

	idx, ok := block.tryAllocate(0, size, alignment)
	if !ok {
		return Allocation{}, ErrAllocationFailed
	}
	return Allocation{
		Block:      block,
		ChunkIndex: idx,
		Offset:     chunkOffset(block.size, idx),
		Size:       size,
	}, nil
}

func (a *Allocator) allocateDedicated(memTypeIx uint32, size uint64, class MemoryClass) (Allocation, error) {
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memTypeIx,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(a.device, &allocInfo, nil, &memory); res != vk.Success {
		return Allocation{}, WrapResult(res, "vkAllocateMemory (dedicated)")
	}

	alloc := Allocation{
		Dedicated:       true,
		Size:            size,
		DedicatedMemory: memory,
	}
	if class != MemoryDevice {
		var data unsafePointer
		if res := vk.MapMemory(a.device, memory, 0, vk.DeviceSize(size), 0, &data.p); res != vk.Success {
			vk.FreeMemory(a.device, memory, nil)
			return Allocation{}, WrapResult(res, "vkMapMemory (dedicated)")
		}
		alloc.DedicatedMapping = data.bytes(int(size))
	}
	return alloc, nil
}

// Free returns an allocation to its owning block (or releases dedicated
// memory directly).
func (a *Allocator) Free(alloc Allocation) {
	if alloc.Dedicated {
		vk.FreeMemory(a.device, alloc.DedicatedMemory, nil)
		return
	}
	alloc.Block.free(alloc.ChunkIndex)
}

// Map returns the host-visible mapping for alloc, or nil for device-local
// memory. Mapping is persistent; Unmap is deliberately not provided.
func (a *Allocation) Map() []byte {
	if a.Dedicated {
		return a.DedicatedMapping
	}
	if a.Block == nil || a.Block.mappedPtr == nil {
		return nil
	}
	return a.Block.mappedPtr[a.Offset : a.Offset+a.Size]
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
