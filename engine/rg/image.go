package rg

import (
	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/core"
)

// ImageUsage is a bitmask subset of how an Image may be used.
type ImageUsage uint32

const (
	ImageUsageSampled ImageUsage = 1 << iota
	ImageUsageColorAttachment
	ImageUsageDepthStencilAttachment
	ImageUsageTransferSrc
	ImageUsageTransferDst
	ImageUsageStorage
)

func toVkImageUsage(u ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if u&ImageUsageSampled != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if u&ImageUsageColorAttachment != 0 {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if u&ImageUsageDepthStencilAttachment != 0 {
		flags |= vk.ImageUsageDepthStencilAttachmentBit
	}
	if u&ImageUsageTransferSrc != 0 {
		flags |= vk.ImageUsageTransferSrcBit
	}
	if u&ImageUsageTransferDst != 0 {
		flags |= vk.ImageUsageTransferDstBit
	}
	if u&ImageUsageStorage != 0 {
		flags |= vk.ImageUsageStorageBit
	}
	return vk.ImageUsageFlags(flags)
}

// Image is an RG-owned VkImage, its backing Allocation, and a default view
// covering every mip/array layer.
type Image struct {
	Width, Height, Depth uint32
	Format               vk.Format
	MipCount             uint32
	LayerCount           uint32
	SampleCount          vk.SampleCountFlagBits
	Aspect               vk.ImageAspectFlagBits

	Handle vk.Image
	View   vk.ImageView
	Alloc  Allocation
}

// IsCube reports whether this image was created with a layer count of 6,
// the spec's convention for marking a cube view.
func (img *Image) IsCube() bool { return img.LayerCount == 6 }

func hasStencil(format vk.Format) bool {
	switch format {
	case vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD16UnormS8Uint:
		return true
	default:
		return false
	}
}

// CreateImage allocates a VkImage with the requested extent/format/usage,
// binds memory from the device allocator, and creates a default view whose
// subresource range spans every mip and array layer. A layerCount of 6
// marks a cube view (ImageViewTypeCube).
func (d *Device) CreateImage(width, height, depth, mipCount, layerCount uint32, format vk.Format, usage ImageUsage, samples vk.SampleCountFlagBits, dedicated bool) (*Image, error) {
	aspect := vk.ImageAspectColorBit
	if usage&ImageUsageDepthStencilAttachment != 0 {
		aspect = vk.ImageAspectDepthBit
		if hasStencil(format) {
			aspect |= vk.ImageAspectStencilBit
		}
	}

	imageType := vk.ImageType2d
	if depth > 1 {
		imageType = vk.ImageType3d
	}

	createFlags := vk.ImageCreateFlags(0)
	if layerCount == 6 {
		createFlags = vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit)
	}

	info := vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		Flags:       createFlags,
		ImageType:   imageType,
		Format:      format,
		Extent:      vk.Extent3D{Width: width, Height: height, Depth: depth},
		MipLevels:   mipCount,
		ArrayLayers: layerCount,
		Samples:     samples,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       toVkImageUsage(usage),
		SharingMode: vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var handle vk.Image
	if res := vk.CreateImage(d.Logical, &info, nil, &handle); res != vk.Success {
		return nil, WrapResult(res, "vkCreateImage")
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.Logical, handle, &reqs)

	alloc, err := d.Allocator.Allocate(reqs, MemoryDevice, dedicated)
	if err != nil {
		vk.DestroyImage(d.Logical, handle, nil)
		return nil, err
	}
	memory, offset := alloc.vkMemoryAndOffset()
	if res := vk.BindImageMemory(d.Logical, handle, memory, vk.DeviceSize(offset)); res != vk.Success {
		d.Allocator.Free(alloc)
		vk.DestroyImage(d.Logical, handle, nil)
		return nil, WrapResult(res, "vkBindImageMemory")
	}

	img := &Image{
		Width: width, Height: height, Depth: depth,
		Format: format, MipCount: mipCount, LayerCount: layerCount,
		SampleCount: samples, Aspect: aspect,
		Handle: handle, Alloc: alloc,
	}

	viewType := vk.ImageViewType2d
	if layerCount == 6 {
		viewType = vk.ImageViewTypeCube
	} else if layerCount > 1 {
		viewType = vk.ImageViewType2dArray
	} else if depth > 1 {
		viewType = vk.ImageViewType3d
	}

	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    handle,
		ViewType: viewType,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(aspect),
			BaseMipLevel:   0,
			LevelCount:     mipCount,
			BaseArrayLayer: 0,
			LayerCount:     layerCount,
		},
	}
	if res := vk.CreateImageView(d.Logical, &viewInfo, nil, &img.View); res != vk.Success {
		d.Allocator.Free(alloc)
		vk.DestroyImage(d.Logical, handle, nil)
		return nil, WrapResult(res, "vkCreateImageView")
	}

	core.LogDebug("rg: created image %dx%dx%d format=%v mips=%d layers=%d", width, height, depth, format, mipCount, layerCount)
	return img, nil
}

// DestroyImage destroys the view and image and releases the backing
// allocation.
func (d *Device) DestroyImage(img *Image) {
	if img == nil {
		return
	}
	if img.View != nil {
		vk.DestroyImageView(d.Logical, img.View, nil)
	}
	vk.DestroyImage(d.Logical, img.Handle, nil)
	d.Allocator.Free(img.Alloc)
}
