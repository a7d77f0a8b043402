package rg

import vk "github.com/goki/vulkan"

// DescriptorLayoutEntry describes one binding of a DescriptorSetLayout.
type DescriptorLayoutEntry struct {
	Binding    uint32
	Kind       DescriptorKind
	StageMask  vk.ShaderStageFlagBits
	ArrayCount uint32
}

// DescriptorSetLayout owns its VkDescriptorSetLayout and the ordered list
// of pools it has grown to satisfy allocation demand.
type DescriptorSetLayout struct {
	Entries []DescriptorLayoutEntry
	Handle  vk.DescriptorSetLayout
	pools   []*descriptorSetPool

	device *Device
}

// descriptorSetPool is one grown VkDescriptorPool plus the free list of
// sets pre-allocated from it.
type descriptorSetPool struct {
	handle   vk.DescriptorPool
	sets     []vk.DescriptorSet
	freeList []int
}

// DescriptorSet is a handle into its owning pool's set array; destroying it
// returns the index to the pool's free list. The underlying VkDescriptorSet
// is only actually freed when the layout (and therefore every pool) is
// destroyed.
type DescriptorSet struct {
	Handle vk.DescriptorSet
	pool   *descriptorSetPool
	index  int
}

const descriptorPoolMinSets = 8
const descriptorPoolMaxSets = 128

// nextPoolSize doubles prevSize, capped at descriptorPoolMaxSets. Successive
// pool sizes therefore follow 8, 16, 32, 64, 128, 128, 128, ... per §4.6.
func nextPoolSize(prevSize int) int {
	next := prevSize * 2
	if next > descriptorPoolMaxSets {
		return descriptorPoolMaxSets
	}
	return next
}

func toVkDescriptorType(kind DescriptorKind) vk.DescriptorType {
	switch kind {
	case DescriptorUniformBuffer:
		return vk.DescriptorTypeUniformBuffer
	case DescriptorStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	case DescriptorDynamicUniformBuffer:
		return vk.DescriptorTypeUniformBufferDynamic
	case DescriptorDynamicStorageBuffer:
		return vk.DescriptorTypeStorageBufferDynamic
	case DescriptorSampledImage:
		return vk.DescriptorTypeSampledImage
	case DescriptorSampler:
		return vk.DescriptorTypeSampler
	case DescriptorCombinedImageSampler:
		return vk.DescriptorTypeCombinedImageSampler
	}
	return vk.DescriptorTypeUniformBuffer
}

// CreateDescriptorSetLayout fixes the binding array for the lifetime of
// the layout; pools are grown lazily as sets are allocated.
func (d *Device) CreateDescriptorSetLayout(entries []DescriptorLayoutEntry) (*DescriptorSetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(entries))
	for i, e := range entries {
		bindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         e.Binding,
			DescriptorType:  toVkDescriptorType(e.Kind),
			DescriptorCount: e.ArrayCount,
			StageFlags:      vk.ShaderStageFlags(e.StageMask),
		}
	}

	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var handle vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(d.Logical, &info, nil, &handle); res != vk.Success {
		return nil, WrapResult(res, "vkCreateDescriptorSetLayout")
	}

	return &DescriptorSetLayout{Entries: entries, Handle: handle, device: d}, nil
}

// Allocate returns a DescriptorSet from the layout's most recently grown
// pool with a non-empty free list, growing a new pool when none qualifies.
// Successive pool sizes follow 8, 16, 32, 64, 128, 128, 128, ... per §4.6.
func (l *DescriptorSetLayout) Allocate() (*DescriptorSet, error) {
	for i := len(l.pools) - 1; i >= 0; i-- {
		p := l.pools[i]
		if n := len(p.freeList); n > 0 {
			idx := p.freeList[n-1]
			p.freeList = p.freeList[:n-1]
			return &DescriptorSet{Handle: p.sets[idx], pool: p, index: idx}, nil
		}
	}

	newSize := descriptorPoolMinSets
	if len(l.pools) > 0 {
		newSize = nextPoolSize(len(l.pools[len(l.pools)-1].sets))
	}

	pool, err := l.growPool(newSize)
	if err != nil {
		return nil, err
	}
	l.pools = append(l.pools, pool)

	idx := len(pool.freeList) - 1
	pool.freeList = pool.freeList[:idx]
	return &DescriptorSet{Handle: pool.sets[idx], pool: pool, index: idx}, nil
}

// growPool creates a new VkDescriptorPool sized for setCount sets, then
// pre-allocates every set up front and seeds the free list with all of
// them, per §4.6's "new pool pre-allocates all its sets" rule.
func (l *DescriptorSetLayout) growPool(setCount int) (*descriptorSetPool, error) {
	sizesByKind := map[vk.DescriptorType]uint32{}
	for _, e := range l.Entries {
		sizesByKind[toVkDescriptorType(e.Kind)] += e.ArrayCount * uint32(setCount)
	}
	var poolSizes []vk.DescriptorPoolSize
	for kind, count := range sizesByKind {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{Type: kind, DescriptorCount: count})
	}

	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       uint32(setCount),
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var handle vk.DescriptorPool
	if res := vk.CreateDescriptorPool(l.device.Logical, &info, nil, &handle); res != vk.Success {
		return nil, WrapResult(res, "vkCreateDescriptorPool")
	}

	layouts := make([]vk.DescriptorSetLayout, setCount)
	for i := range layouts {
		layouts[i] = l.Handle
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     handle,
		DescriptorSetCount: uint32(setCount),
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, setCount)
	if res := vk.AllocateDescriptorSets(l.device.Logical, &allocInfo, &sets[0]); res != vk.Success {
		vk.DestroyDescriptorPool(l.device.Logical, handle, nil)
		return nil, WrapResult(res, "vkAllocateDescriptorSets")
	}

	freeList := make([]int, setCount)
	for i := range freeList {
		freeList[i] = i
	}

	return &descriptorSetPool{handle: handle, sets: sets, freeList: freeList}, nil
}

// Free returns set to its owning pool's free list. The physical
// VkDescriptorSet is never freed individually — only when the layout (and
// its pools) are destroyed.
func (l *DescriptorSetLayout) Free(set *DescriptorSet) {
	set.pool.freeList = append(set.pool.freeList, set.index)
}

// DescriptorWrite is one binding update; a zero Size means WHOLE_SIZE.
// ArrayElement selects the slot within an arrayed binding (the bindless
// global descriptor set's storage-buffer/image/sampler arrays); it is 0
// for a non-arrayed binding.
type DescriptorWrite struct {
	Binding      uint32
	ArrayElement uint32
	Kind         DescriptorKind
	Buffer       *Buffer
	Offset       uint64
	Size         uint64
	Image        *Image
	Sampler      *Sampler
}

// Update writes the given entries into set, resolving each write's kind
// from the layout's declared binding kind.
func (l *DescriptorSetLayout) Update(set *DescriptorSet, writes []DescriptorWrite) {
	var vkWrites []vk.WriteDescriptorSet
	// Keep buffer/image info structs alive for the duration of the call.
	bufferInfos := make([]vk.DescriptorBufferInfo, 0, len(writes))
	imageInfos := make([]vk.DescriptorImageInfo, 0, len(writes))

	for _, w := range writes {
		size := w.Size
		if size == 0 {
			size = uint64(vk.WholeSize)
		}
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set.Handle,
			DstBinding:      w.Binding,
			DstArrayElement: w.ArrayElement,
			DescriptorCount: 1,
			DescriptorType:  toVkDescriptorType(w.Kind),
		}
		switch w.Kind {
		case DescriptorUniformBuffer, DescriptorStorageBuffer, DescriptorDynamicUniformBuffer, DescriptorDynamicStorageBuffer:
			bufferInfos = append(bufferInfos, vk.DescriptorBufferInfo{
				Buffer: w.Buffer.Handle,
				Offset: vk.DeviceSize(w.Offset),
				Range:  vk.DeviceSize(size),
			})
			write.PBufferInfo = bufferInfos[len(bufferInfos)-1:]
		case DescriptorSampledImage, DescriptorCombinedImageSampler:
			info := vk.DescriptorImageInfo{ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal}
			if w.Image != nil {
				info.ImageView = w.Image.View
			}
			if w.Sampler != nil {
				info.Sampler = w.Sampler.Handle
			}
			imageInfos = append(imageInfos, info)
			write.PImageInfo = imageInfos[len(imageInfos)-1:]
		case DescriptorSampler:
			imageInfos = append(imageInfos, vk.DescriptorImageInfo{Sampler: w.Sampler.Handle})
			write.PImageInfo = imageInfos[len(imageInfos)-1:]
		}
		vkWrites = append(vkWrites, write)
	}

	vk.UpdateDescriptorSets(l.device.Logical, uint32(len(vkWrites)), vkWrites, 0, nil)
}

// Destroy destroys every grown pool (which frees all of its sets) and the
// layout itself.
func (l *DescriptorSetLayout) Destroy() {
	for _, p := range l.pools {
		vk.DestroyDescriptorPool(l.device.Logical, p.handle, nil)
	}
	vk.DestroyDescriptorSetLayout(l.device.Logical, l.Handle, nil)
}
