package rg

import (
	"encoding/binary"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/containers"
	"github.com/felipeagc/rgrender/engine/core"
)

// RenderPass wraps a VkRenderPass plus the framebuffer(s) bound to it and
// the FNV-1a hash that identifies pipeline-compatible render passes.
//
// Grounded on engine/renderer/vulkan/renderpass.go's attachment/subpass
// assembly, generalized to accept arbitrary color/depth Images instead of
// the teacher's fixed swapchain-and-depth pair, and extended with the hash
// the teacher's version lacks.
type RenderPass struct {
	ColorAttachmentCount uint32
	Width, Height        uint32
	Handle               vk.RenderPass
	Framebuffers         []vk.Framebuffer
	CurrentFramebuffer   uint32
	Hash                 uint64

	device *Device
}

// ColorAttachment describes one color target of a render pass.
type ColorAttachment struct {
	Image        *Image
	IsSwapchain  bool // final layout PRESENT_SRC_KHR instead of SHADER_READ_ONLY_OPTIMAL
}

// CreateRenderPass builds a single-subpass, graphics-bind-point render
// pass over the given color attachments and optional depth attachment, per
// §4.5: color attachments clear+store with a final layout of either
// SHADER_READ_ONLY_OPTIMAL or (for swapchain images) PRESENT_SRC_KHR; depth
// clears color and stencil, storing depth only. Two external dependencies
// convert color reads/writes to/from memory access at pass begin/end.
func (d *Device) CreateRenderPass(colors []ColorAttachment, depth *Image, width, height uint32) (*RenderPass, error) {
	var descriptions []vk.AttachmentDescription
	var colorRefs []vk.AttachmentReference

	for _, c := range colors {
		finalLayout := vk.ImageLayoutShaderReadOnlyOptimal
		if c.IsSwapchain {
			finalLayout = vk.ImageLayoutPresentSrc
		}
		descriptions = append(descriptions, vk.AttachmentDescription{
			Format:         c.Image.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    finalLayout,
		})
		colorRefs = append(colorRefs, vk.AttachmentReference{
			Attachment: uint32(len(descriptions) - 1),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}

	var depthRef vk.AttachmentReference
	if depth != nil {
		descriptions = append(descriptions, vk.AttachmentDescription{
			Format:         depth.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpClear,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		depthRef = vk.AttachmentReference{
			Attachment: uint32(len(descriptions) - 1),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		subpass.PDepthStencilAttachment = &depthRef
	}

	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:      vk.SubpassExternal,
			DstSubpass:      0,
			SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessMemoryReadBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
		{
			SrcSubpass:      0,
			DstSubpass:      vk.SubpassExternal,
			SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessMemoryReadBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descriptions)),
		PAttachments:    descriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var handle vk.RenderPass
	if res := vk.CreateRenderPass(d.Logical, &createInfo, nil, &handle); res != vk.Success {
		return nil, WrapResult(res, "vkCreateRenderPass")
	}

	rp := &RenderPass{
		ColorAttachmentCount: uint32(len(colors)),
		Width:                width,
		Height:               height,
		Handle:               handle,
		Hash:                 hashRenderPass(descriptions, subpass, colorRefs, depth != nil, &depthRef, dependencies),
		device:               d,
	}

	views := make([]vk.ImageView, 0, len(colors)+1)
	for _, c := range colors {
		views = append(views, c.Image.View)
	}
	if depth != nil {
		views = append(views, depth.View)
	}
	fb, err := d.createFramebuffer(rp.Handle, views, width, height)
	if err != nil {
		vk.DestroyRenderPass(d.Logical, handle, nil)
		return nil, err
	}
	rp.Framebuffers = []vk.Framebuffer{fb}

	core.LogDebug("rg: created render pass hash=%x colors=%d depth=%v", rp.Hash, len(colors), depth != nil)
	return rp, nil
}

func (d *Device) createFramebuffer(pass vk.RenderPass, views []vk.ImageView, width, height uint32) (vk.Framebuffer, error) {
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(d.Logical, &info, nil, &fb); res != vk.Success {
		return nil, WrapResult(res, "vkCreateFramebuffer")
	}
	return fb, nil
}

// Destroy tears down every framebuffer and the render pass itself.
func (rp *RenderPass) Destroy() {
	for _, fb := range rp.Framebuffers {
		vk.DestroyFramebuffer(rp.device.Logical, fb, nil)
	}
	vk.DestroyRenderPass(rp.device.Logical, rp.Handle, nil)
}

// hashRenderPass computes the FNV-1a digest over attachment descriptions,
// subpass bind-point/flags and attachment reference lists, and the
// dependency array, per §4.5. Two render passes with identical
// descriptions hash identically and are therefore pipeline-compatible.
func hashRenderPass(attachments []vk.AttachmentDescription, subpass vk.SubpassDescription, colorRefs []vk.AttachmentReference, hasDepth bool, depthRef *vk.AttachmentReference, deps []vk.SubpassDependency) uint64 {
	var buf []byte
	put32 := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }

	for _, a := range attachments {
		put32(uint32(a.Format))
		put32(uint32(a.Samples))
		put32(uint32(a.LoadOp))
		put32(uint32(a.StoreOp))
		put32(uint32(a.StencilLoadOp))
		put32(uint32(a.StencilStoreOp))
		put32(uint32(a.InitialLayout))
		put32(uint32(a.FinalLayout))
	}

	put32(uint32(subpass.PipelineBindPoint))
	put32(uint32(subpass.Flags))
	for _, r := range colorRefs {
		put32(r.Attachment)
		put32(uint32(r.Layout))
	}
	if hasDepth {
		put32(depthRef.Attachment)
		put32(uint32(depthRef.Layout))
	}

	for _, dep := range deps {
		put32(dep.SrcSubpass)
		put32(dep.DstSubpass)
		put32(uint32(dep.SrcStageMask))
		put32(uint32(dep.DstStageMask))
		put32(uint32(dep.SrcAccessMask))
		put32(uint32(dep.DstAccessMask))
		put32(uint32(dep.DependencyFlags))
	}

	h := containers.FNV1a64(buf)
	if h == 0 {
		// Hash value 0 is the hashmap's empty-slot sentinel; salt rather
		// than prove FNV-1a never collides with 0 on real input.
		h = 1
	}
	return h
}
