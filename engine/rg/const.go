package rg

// Slot capacities for the bindless global descriptor set. Mirrored by
// engine/bindless, which owns the actual slot pools.
const (
	MaxStorageBuffers uint32 = 4096
	MaxSampledImages  uint32 = 4096
	MaxSamplers       uint32 = 4096
)

// VULKAN_SHADER_MAX_PUSH_CONST_RANGES caps the push constant ranges a
// single pipeline layout may declare.
const VULKAN_SHADER_MAX_PUSH_CONST_RANGES uint32 = 32

// Default memory-block sizes for the device allocator, before rounding up
// to the next power of two of the requested allocation.
const (
	DefaultDeviceLocalBlockSize uint64 = 256 * 1024 * 1024
	DefaultHostVisibleBlockSize uint64 = 64 * 1024 * 1024
)

// MemoryClass distinguishes device-local from host-visible buffer/image
// backing memory.
type MemoryClass int

const (
	MemoryDevice MemoryClass = iota
	MemoryHost
	MemoryReadback
)

// BufferUsage is a bitmask subset of the usages a Buffer may be created with.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

// DescriptorKind identifies the kind of resource a descriptor binding holds.
type DescriptorKind int

const (
	DescriptorUniformBuffer DescriptorKind = iota
	DescriptorStorageBuffer
	DescriptorDynamicUniformBuffer
	DescriptorDynamicStorageBuffer
	DescriptorSampledImage
	DescriptorSampler
	DescriptorCombinedImageSampler
)

// IndexType selects the element width of an index buffer.
type IndexType int

const (
	IndexTypeU16 IndexType = iota
	IndexTypeU32
)
