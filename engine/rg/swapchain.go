package rg

import (
	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/core"
)

// Swapchain owns the VkSwapchainKHR, its per-image color images/views, an
// optional depth image shared across all framebuffers, the embedded
// single-subpass RenderPass (one framebuffer per swapchain image), the
// per-image acquire semaphores, and the present/submit synchronization
// accumulators described by §4.8/§4.9.
//
// Grounded on engine/renderer/vulkan/swapchain.go's format/present-mode
// selection and image/view array creation, generalized to: build its own
// RenderPass with an arbitrary depth format instead of the teacher's
// fixed DeviceDetectDepthFormat depth attachment, accumulate present-wait
// semaphores/fences across multiple CmdBuffers instead of the teacher's
// single-semaphore present call, and retry acquire after a rebuild
// instead of returning a bool for the caller to interpret.
type Swapchain struct {
	Handle      vk.Swapchain
	Surface     vk.Surface
	ColorFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Vsync       bool
	DepthFormat vk.Format

	images []vk.Image
	views  []vk.ImageView
	depth  *Image

	RenderPass *RenderPass

	presentCompleteSemaphores []vk.Semaphore
	currentSemaphore          uint32

	pendingWaitSemaphores []vk.Semaphore
	pendingWaitFences     []vk.Fence

	device *Device
}

// SwapchainOptions configures swapchain construction.
type SwapchainOptions struct {
	Surface     vk.Surface
	Width       uint32
	Height      uint32
	Vsync       bool
	DepthFormat vk.Format // vk.FormatUndefined for no depth attachment
}

// CreateSwapchain builds a new swapchain per §4.9: BGRA8_UNORM preferred
// color format, FIFO when vsync else MAILBOX/IMMEDIATE/FIFO, image count
// clamped to [min+1, max], extent clamped to the surface's supported
// range (adopting the surface's current extent unless it is the "any"
// sentinel), and one render pass/framebuffer set spanning every image.
func (d *Device) CreateSwapchain(opts SwapchainOptions) (*Swapchain, error) {
	sc := &Swapchain{
		Surface:     opts.Surface,
		Vsync:       opts.Vsync,
		DepthFormat: opts.DepthFormat,
		device:      d,
	}
	if err := sc.build(opts.Width, opts.Height, nil); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Swapchain) build(width, height uint32, oldSwapchain vk.Swapchain) error {
	d := sc.device

	var capabilities vk.SurfaceCapabilities
	vk.GetPhysicalDeviceSurfaceCapabilities(d.PhysicalDevice, sc.Surface, &capabilities)
	capabilities.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(d.PhysicalDevice, sc.Surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(d.PhysicalDevice, sc.Surface, &formatCount, formats)

	for i := range formats {
		formats[i].Deref()
	}
	chosen := formats[0]
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Unorm {
			chosen = f
			break
		}
	}
	sc.ColorFormat = chosen

	var presentModeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(d.PhysicalDevice, sc.Surface, &presentModeCount, nil)
	presentModes := make([]vk.PresentMode, presentModeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(d.PhysicalDevice, sc.Surface, &presentModeCount, presentModes)

	presentMode := vk.PresentModeFifo
	if !sc.Vsync {
		presentMode = choosePresentMode(presentModes)
	}
	sc.PresentMode = presentMode

	extent := vk.Extent2D{Width: width, Height: height}
	if capabilities.CurrentExtent.Width != ^uint32(0) {
		extent = capabilities.CurrentExtent
	}
	extent.Width = clampUint32(extent.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	extent.Height = clampUint32(extent.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)
	sc.Extent = extent

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	if vk.ImageUsageFlags(capabilities.SupportedUsageFlags)&vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if vk.ImageUsageFlags(capabilities.SupportedUsageFlags)&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          sc.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      sc.ColorFormat.Format,
		ImageColorSpace:  sc.ColorFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(d.Logical, &createInfo, nil, &handle); res != vk.Success {
		return WrapResult(res, "vkCreateSwapchain")
	}
	sc.Handle = handle

	var count uint32
	vk.GetSwapchainImages(d.Logical, handle, &count, nil)
	sc.images = make([]vk.Image, count)
	vk.GetSwapchainImages(d.Logical, handle, &count, sc.images)

	sc.views = make([]vk.ImageView, count)
	for i, img := range sc.images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    img,
			ViewType: vk.ImageViewType2d,
			Format:   sc.ColorFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		if res := vk.CreateImageView(d.Logical, &viewInfo, nil, &sc.views[i]); res != vk.Success {
			return WrapResult(res, "vkCreateImageView")
		}
	}

	if sc.DepthFormat != vk.FormatUndefined {
		depth, err := d.CreateImage(extent.Width, extent.Height, 1, 1, 1,
			sc.DepthFormat, ImageUsageDepthStencilAttachment, vk.SampleCount1Bit, true)
		if err != nil {
			return err
		}
		sc.depth = depth
	}

	// A single color-attachment description (one swapchain image per
	// present), but one framebuffer per swapchain image.
	firstColor := []ColorAttachment{{Image: &Image{View: sc.views[0], Format: sc.ColorFormat.Format}, IsSwapchain: true}}
	rp, err := d.CreateRenderPass(firstColor, sc.depth, extent.Width, extent.Height)
	if err != nil {
		return err
	}
	for i := 1; i < len(sc.views); i++ {
		views := []vk.ImageView{sc.views[i]}
		if sc.depth != nil {
			views = append(views, sc.depth.View)
		}
		fb, err := d.createFramebuffer(rp.Handle, views, extent.Width, extent.Height)
		if err != nil {
			return err
		}
		rp.Framebuffers = append(rp.Framebuffers, fb)
	}
	sc.RenderPass = rp

	sc.presentCompleteSemaphores = make([]vk.Semaphore, count)
	for i := range sc.presentCompleteSemaphores {
		info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
		if res := vk.CreateSemaphore(d.Logical, &info, nil, &sc.presentCompleteSemaphores[i]); res != vk.Success {
			return WrapResult(res, "vkCreateSemaphore")
		}
	}

	core.LogInfo("rg: swapchain created %dx%d images=%d present_mode=%v", extent.Width, extent.Height, count, presentMode)
	return nil
}

func choosePresentMode(available []vk.PresentMode) vk.PresentMode {
	hasMailbox, hasImmediate := false, false
	for _, m := range available {
		switch m {
		case vk.PresentModeMailbox:
			hasMailbox = true
		case vk.PresentModeImmediate:
			hasImmediate = true
		}
	}
	switch {
	case hasMailbox:
		return vk.PresentModeMailbox
	case hasImmediate:
		return vk.PresentModeImmediate
	default:
		return vk.PresentModeFifo
	}
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AcquireResult carries the index of the acquired image; RenderPass's
// CurrentFramebuffer is already updated to match it.
type AcquireResult struct {
	ImageIndex uint32
}

// AcquireNextImage advances the acquire semaphore index cyclically, calls
// vkAcquireNextImageKHR, and retries once after a rebuild on
// OUT_OF_DATE/SUBOPTIMAL, per §4.9.
func (sc *Swapchain) AcquireNextImage() (*AcquireResult, error) {
	sc.currentSemaphore = (sc.currentSemaphore + 1) % uint32(len(sc.presentCompleteSemaphores))
	semaphore := sc.presentCompleteSemaphores[sc.currentSemaphore]

	var index uint32
	res := vk.AcquireNextImage(sc.device.Logical, sc.Handle, ^uint64(0), semaphore, nil, &index)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		if err := sc.Rebuild(sc.Extent.Width, sc.Extent.Height); err != nil {
			return nil, err
		}
		res = vk.AcquireNextImage(sc.device.Logical, sc.Handle, ^uint64(0), semaphore, nil, &index)
	}
	if res != vk.Success && res != vk.Suboptimal {
		return nil, WrapResult(res, "vkAcquireNextImageKHR")
	}

	sc.RenderPass.CurrentFramebuffer = index
	return &AcquireResult{ImageIndex: index}, nil
}

// QueuePresentWait accumulates semaphore as a present wait for the next
// Present call (mirrors CmdBuffer's wait_for_commands accumulator, used
// by swapchain.wait_for_commands per §4.8's present-wait rule).
func (sc *Swapchain) QueuePresentWait(semaphore vk.Semaphore) {
	sc.pendingWaitSemaphores = append(sc.pendingWaitSemaphores, semaphore)
}

// QueuePresentFence accumulates a fence that Present will wait on and
// reset after presenting, with a 1-second timeout.
func (sc *Swapchain) QueuePresentFence(fence vk.Fence) {
	sc.pendingWaitFences = append(sc.pendingWaitFences, fence)
}

// Present presents imageIndex using the accumulated wait semaphores,
// rebuilds on OUT_OF_DATE, then waits on and resets the accumulated
// fences with a 1-second timeout and clears both accumulators, per §4.9.
func (sc *Swapchain) Present(queue vk.Queue, imageIndex uint32) error {
	info := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(sc.pendingWaitSemaphores)),
		PWaitSemaphores:    sc.pendingWaitSemaphores,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Handle},
		PImageIndices:      []uint32{imageIndex},
	}

	res := vk.QueuePresent(queue, &info)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		if err := sc.Rebuild(sc.Extent.Width, sc.Extent.Height); err != nil {
			return err
		}
	} else if res != vk.Success {
		return WrapResult(res, "vkQueuePresentKHR")
	}

	const oneSecondNS = uint64(1_000_000_000)
	if len(sc.pendingWaitFences) > 0 {
		vk.WaitForFences(sc.device.Logical, uint32(len(sc.pendingWaitFences)), sc.pendingWaitFences, vk.True, oneSecondNS)
		vk.ResetFences(sc.device.Logical, uint32(len(sc.pendingWaitFences)), sc.pendingWaitFences)
	}

	sc.pendingWaitSemaphores = nil
	sc.pendingWaitFences = nil
	return nil
}

// Rebuild tears down and recreates the swapchain at the given extent,
// passing the previous handle as oldSwapchain per §4.9, then destroys it.
func (sc *Swapchain) Rebuild(width, height uint32) error {
	old := sc.Handle
	sc.destroyViewsAndRenderPass()

	if err := sc.build(width, height, old); err != nil {
		return err
	}
	vk.DestroySwapchain(sc.device.Logical, old, nil)
	return nil
}

func (sc *Swapchain) destroyViewsAndRenderPass() {
	if sc.RenderPass != nil {
		sc.RenderPass.Destroy()
		sc.RenderPass = nil
	}
	if sc.depth != nil {
		sc.device.DestroyImage(sc.depth)
		sc.depth = nil
	}
	for _, v := range sc.views {
		vk.DestroyImageView(sc.device.Logical, v, nil)
	}
	sc.views = nil
	for _, s := range sc.presentCompleteSemaphores {
		vk.DestroySemaphore(sc.device.Logical, s, nil)
	}
	sc.presentCompleteSemaphores = nil
	sc.currentSemaphore = 0
}

// Destroy tears down every swapchain-owned resource, including the
// swapchain itself.
func (sc *Swapchain) Destroy() {
	sc.destroyViewsAndRenderPass()
	vk.DestroySwapchain(sc.device.Logical, sc.Handle, nil)
}
