package rg

import (
	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/core"
)

// Buffer is an RG-owned VkBuffer plus the Allocation backing it.
type Buffer struct {
	Size    uint64
	Usage   BufferUsage
	Class   MemoryClass
	Handle  vk.Buffer
	Alloc   Allocation
}

func toVkBufferUsage(usage BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if usage&BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if usage&BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if usage&BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if usage&BufferUsageStorage != 0 {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if usage&BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if usage&BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	return vk.BufferUsageFlags(flags)
}

// CreateBuffer allocates a VkBuffer of the given size/usage, backed by
// memory of the requested class, dedicated when the caller asks for it
// (large render targets, or resources the driver prefers dedicated for).
func (d *Device) CreateBuffer(size uint64, usage BufferUsage, class MemoryClass, dedicated bool) (*Buffer, error) {
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       toVkBufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(d.Logical, &info, nil, &handle); res != vk.Success {
		return nil, WrapResult(res, "vkCreateBuffer")
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.Logical, handle, &reqs)

	alloc, err := d.Allocator.Allocate(reqs, class, dedicated)
	if err != nil {
		vk.DestroyBuffer(d.Logical, handle, nil)
		return nil, err
	}

	memory, offset := alloc.vkMemoryAndOffset()
	if res := vk.BindBufferMemory(d.Logical, handle, memory, vk.DeviceSize(offset)); res != vk.Success {
		d.Allocator.Free(alloc)
		vk.DestroyBuffer(d.Logical, handle, nil)
		return nil, WrapResult(res, "vkBindBufferMemory")
	}

	core.LogDebug("rg: created buffer size=%d usage=%v class=%v", size, usage, class)
	return &Buffer{Size: size, Usage: usage, Class: class, Handle: handle, Alloc: alloc}, nil
}

// Map returns the host-visible mapping for a host/readback buffer.
func (b *Buffer) Map() []byte { return b.Alloc.Map() }

// Destroy frees the buffer's backing memory and destroys the VkBuffer.
func (d *Device) DestroyBuffer(b *Buffer) {
	if b == nil {
		return
	}
	vk.DestroyBuffer(d.Logical, b.Handle, nil)
	d.Allocator.Free(b.Alloc)
}

func (a *Allocation) vkMemoryAndOffset() (vk.DeviceMemory, uint64) {
	if a.Dedicated {
		return a.DedicatedMemory, 0
	}
	return a.Block.memory, a.Offset
}
