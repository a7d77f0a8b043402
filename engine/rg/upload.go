package rg

import vk "github.com/goki/vulkan"

// ImageCopyDest describes the target subresource and offset for
// ImageUpload, mirroring vkCmdCopyBufferToImage's VkBufferImageCopy.
type ImageCopyDest struct {
	Image      *Image
	MipLevel   uint32
	BaseLayer  uint32
	LayerCount uint32
	OffsetX    int32
	OffsetY    int32
	OffsetZ    int32
}

// BufferUpload copies data into buffer at offset via a synchronous
// host-visible staging buffer, per §4.10: allocate a staging buffer of
// exactly len(data) bytes, copy into its persistent mapping, then record and submit a
// one-shot command buffer performing a single vkCmdCopyBuffer region.
func (d *Device) BufferUpload(pool *CmdPool, queue vk.Queue, buffer *Buffer, offset uint64, data []byte) error {
	staging, err := d.stageData(data)
	if err != nil {
		return err
	}
	defer d.DestroyBuffer(staging)

	cmd, err := d.beginOneShot(pool)
	if err != nil {
		return err
	}

	region := vk.BufferCopy{SrcOffset: 0, DstOffset: vk.DeviceSize(offset), Size: vk.DeviceSize(len(data))}
	vk.CmdCopyBuffer(cmd.Handle, staging.Handle, buffer.Handle, 1, []vk.BufferCopy{region})

	return d.endOneShot(cmd, queue)
}

// ImageUpload copies data into dest's image via a synchronous staging
// buffer, per §4.10: stage, then within the one-shot command buffer
// transition UNDEFINED -> TRANSFER_DST_OPTIMAL, vkCmdCopyBufferToImage,
// then TRANSFER_DST_OPTIMAL -> SHADER_READ_ONLY_OPTIMAL.
func (d *Device) ImageUpload(pool *CmdPool, queue vk.Queue, dest ImageCopyDest, extent vk.Extent3D, data []byte) error {
	staging, err := d.stageData(data)
	if err != nil {
		return err
	}
	defer d.DestroyBuffer(staging)

	cmd, err := d.beginOneShot(pool)
	if err != nil {
		return err
	}

	subresource := vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(dest.Image.Aspect),
		BaseMipLevel:   dest.MipLevel,
		LevelCount:     1,
		BaseArrayLayer: dest.BaseLayer,
		LayerCount:     dest.LayerCount,
	}

	toDst := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vk.ImageLayoutUndefined,
		NewLayout:           vk.ImageLayoutTransferDstOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               dest.Image.Handle,
		SubresourceRange:    subresource,
		SrcAccessMask:       0,
		DstAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
	}
	vk.CmdPipelineBarrier(cmd.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{toDst})

	copyRegion := vk.BufferImageCopy{
		BufferOffset: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(dest.Image.Aspect),
			MipLevel:       dest.MipLevel,
			BaseArrayLayer: dest.BaseLayer,
			LayerCount:     dest.LayerCount,
		},
		ImageOffset: vk.Offset3D{X: dest.OffsetX, Y: dest.OffsetY, Z: dest.OffsetZ},
		ImageExtent: extent,
	}
	vk.CmdCopyBufferToImage(cmd.Handle, staging.Handle, dest.Image.Handle, vk.ImageLayoutTransferDstOptimal,
		1, []vk.BufferImageCopy{copyRegion})

	toShaderRead := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vk.ImageLayoutTransferDstOptimal,
		NewLayout:           vk.ImageLayoutShaderReadOnlyOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               dest.Image.Handle,
		SubresourceRange:    subresource,
		SrcAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessShaderReadBit),
	}
	vk.CmdPipelineBarrier(cmd.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{toShaderRead})

	return d.endOneShot(cmd, queue)
}

func (d *Device) stageData(data []byte) (*Buffer, error) {
	staging, err := d.CreateBuffer(uint64(len(data)), BufferUsageTransferSrc, MemoryHost, false)
	if err != nil {
		return nil, err
	}
	mapped := staging.Map()
	copy(mapped, data)
	return staging, nil
}

func (d *Device) beginOneShot(pool *CmdPool) (*CmdBuffer, error) {
	cmd, err := pool.AllocateCmdBuffer()
	if err != nil {
		return nil, err
	}
	if err := cmd.Begin(); err != nil {
		cmd.Free()
		return nil, err
	}
	return cmd, nil
}

// endOneShot ends, submits, and synchronously waits for the one-shot
// command buffer before freeing it.
func (d *Device) endOneShot(cmd *CmdBuffer, queue vk.Queue) error {
	if err := cmd.End(); err != nil {
		cmd.Free()
		return err
	}
	if err := cmd.Submit(queue); err != nil {
		cmd.Free()
		return err
	}
	err := cmd.WaitIdle()
	cmd.Free()
	return err
}
