package rg

import (
	vk "github.com/goki/vulkan"
)

// CmdBufferState tracks the lifecycle Ready -> Recording -> Pending ->
// Ready, per §4.8. A CmdBuffer returns to Ready once its signal fence has
// been observed (waited on) after submission.
type CmdBufferState int

const (
	CmdBufferReady CmdBufferState = iota
	CmdBufferRecording
	CmdBufferPending
)

// CmdPool wraps a VkCommandPool tied to a single queue family.
type CmdPool struct {
	Handle vk.CommandPool
	device *Device
}

// CreateCmdPool creates a command pool allowing individual buffer reset,
// for the given queue family.
func (d *Device) CreateCmdPool(queueFamily uint32) (*CmdPool, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFamily,
	}
	var handle vk.CommandPool
	if res := vk.CreateCommandPool(d.Logical, &info, nil, &handle); res != vk.Success {
		return nil, WrapResult(res, "vkCreateCommandPool")
	}
	return &CmdPool{Handle: handle, device: d}, nil
}

// Destroy destroys the pool and every buffer allocated from it.
func (p *CmdPool) Destroy() {
	vk.DestroyCommandPool(p.device.Logical, p.Handle, nil)
}

// CmdBuffer is a primary command buffer plus the state needed to resolve
// graphics pipeline instances against the render pass currently bound
// with set_render_pass, and the wait/signal synchronization accumulators
// used by submit.
//
// Grounded on engine/renderer/vulkan/command_buffer.go's state machine and
// begin/end/single-use helpers, generalized with the render-pass-bound
// pipeline instance resolution and the semaphore accumulators spec.md's
// wait_for_present/wait_for_commands/submit describe (the teacher has
// neither — it submits with a single caller-provided semaphore pair).
type CmdBuffer struct {
	Handle vk.CommandBuffer
	State  CmdBufferState

	Semaphore vk.Semaphore
	Fence     vk.Fence

	currentRenderPass  *RenderPass
	boundPipelineLayout vk.PipelineLayout
	boundBindPoint      vk.PipelineBindPoint

	waitSemaphores []vk.Semaphore
	waitStages     []vk.PipelineStageFlags

	pool   *CmdPool
	device *Device
}

// AllocateCmdBuffer allocates a primary command buffer from pool plus its
// own signal semaphore and fence (created signaled, so the first submit's
// caller need not special-case "no prior fence to wait on").
func (p *CmdPool) AllocateCmdBuffer() (*CmdBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.Handle,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(p.device.Logical, &allocInfo, handles); res != vk.Success {
		return nil, WrapResult(res, "vkAllocateCommandBuffers")
	}

	var semaphore vk.Semaphore
	semInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	if res := vk.CreateSemaphore(p.device.Logical, &semInfo, nil, &semaphore); res != vk.Success {
		return nil, WrapResult(res, "vkCreateSemaphore")
	}

	var fence vk.Fence
	fenceInfo := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo, Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit)}
	if res := vk.CreateFence(p.device.Logical, &fenceInfo, nil, &fence); res != vk.Success {
		return nil, WrapResult(res, "vkCreateFence")
	}

	return &CmdBuffer{
		Handle:    handles[0],
		State:     CmdBufferReady,
		Semaphore: semaphore,
		Fence:     fence,
		pool:      p,
		device:    p.device,
	}, nil
}

// Free frees the underlying command buffer and destroys its semaphore
// and fence.
func (c *CmdBuffer) Free() {
	vk.FreeCommandBuffers(c.device.Logical, c.pool.Handle, 1, []vk.CommandBuffer{c.Handle})
	vk.DestroySemaphore(c.device.Logical, c.Semaphore, nil)
	vk.DestroyFence(c.device.Logical, c.Fence, nil)
}

// Begin starts one-time-submit recording.
func (c *CmdBuffer) Begin() error {
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(c.Handle, &info); res != vk.Success {
		return WrapResult(res, "vkBeginCommandBuffer")
	}
	c.State = CmdBufferRecording
	return nil
}

// defaultDepthBiasConstantFactor/defaultDepthBiasClamp/defaultDepthBiasSlopeFactor
// are the depth-bias factors SetRenderPass issues for every pipeline with
// PipelineState.DepthBias set, since no caller currently threads through
// per-pass bias constants. These match the conservative shadow-acne-avoidance
// values original_source's shadow pass hardcodes.
const (
	defaultDepthBiasConstantFactor = 1.25
	defaultDepthBiasClamp          = 0.0
	defaultDepthBiasSlopeFactor    = 1.75
)

// SetRenderPass ends the previously bound render pass (if any), begins
// rp, and re-issues viewport+scissor+depth-bias from its extent, per
// §4.8's dynamic state rule (depth bias only takes effect for pipelines
// built with PipelineState.DepthBias set — see engine/rg/pipeline.go).
func (c *CmdBuffer) SetRenderPass(rp *RenderPass, clearValues []vk.ClearValue) {
	if c.currentRenderPass != nil {
		vk.CmdEndRenderPass(c.Handle)
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.Handle,
		Framebuffer: rp.Framebuffers[rp.CurrentFramebuffer],
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: rp.Width, Height: rp.Height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.Handle, &beginInfo, vk.SubpassContentsInline)
	c.currentRenderPass = rp

	viewport := vk.Viewport{Width: float32(rp.Width), Height: float32(rp.Height), MinDepth: 0, MaxDepth: 1}
	vk.CmdSetViewport(c.Handle, 0, 1, []vk.Viewport{viewport})
	scissor := vk.Rect2D{Extent: vk.Extent2D{Width: rp.Width, Height: rp.Height}}
	vk.CmdSetScissor(c.Handle, 0, 1, []vk.Rect2D{scissor})
	vk.CmdSetDepthBias(c.Handle, defaultDepthBiasConstantFactor, defaultDepthBiasClamp, defaultDepthBiasSlopeFactor)
}

// BindGraphicsPipeline resolves pipeline's instance against the currently
// bound render pass (building one if this is the first time this
// pipeline is used with a render pass of this hash) and binds it.
func (c *CmdBuffer) BindGraphicsPipeline(pipeline *Pipeline) error {
	if err := pipeline.Bind(c.Handle, c.currentRenderPass); err != nil {
		return err
	}
	c.boundPipelineLayout = pipeline.Layout
	c.boundBindPoint = vk.PipelineBindPointGraphics
	return nil
}

// BindDescriptorSet binds set at setIndex against the currently bound
// pipeline's layout.
func (c *CmdBuffer) BindDescriptorSet(setIndex uint32, set *DescriptorSet, dynamicOffsets []uint32) {
	vk.CmdBindDescriptorSets(c.Handle, c.boundBindPoint, c.boundPipelineLayout, setIndex, 1,
		[]vk.DescriptorSet{set.Handle}, uint32(len(dynamicOffsets)), dynamicOffsets)
}

// BindVertexBuffer binds buffer at binding 0 starting at offset.
func (c *CmdBuffer) BindVertexBuffer(buffer *Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(c.Handle, 0, 1, []vk.Buffer{buffer.Handle}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

// BindIndexBuffer binds buffer as the index buffer, interpreting its
// contents according to indexType.
func (c *CmdBuffer) BindIndexBuffer(buffer *Buffer, offset uint64, indexType IndexType) {
	vkType := vk.IndexTypeUint16
	if indexType == IndexTypeU32 {
		vkType = vk.IndexTypeUint32
	}
	vk.CmdBindIndexBuffer(c.Handle, buffer.Handle, vk.DeviceSize(offset), vkType)
}

// Draw issues a non-indexed draw.
func (c *CmdBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(c.Handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed issues an indexed draw.
func (c *CmdBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(c.Handle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

// Dispatch issues a compute dispatch.
func (c *CmdBuffer) Dispatch(groupsX, groupsY, groupsZ uint32) {
	vk.CmdDispatch(c.Handle, groupsX, groupsY, groupsZ)
}

// PushConstants writes data into the currently bound pipeline layout's
// push constant range at offset.
func (c *CmdBuffer) PushConstants(offset uint32, data []byte) {
	stages := vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	vk.CmdPushConstants(c.Handle, c.boundPipelineLayout, stages, offset, uint32(len(data)), bytesToPointer(data))
}

// WaitForPresent queues the swapchain's current acquire semaphore as a
// COLOR_ATTACHMENT_OUTPUT wait for the next submit.
func (c *CmdBuffer) WaitForPresent(sc *Swapchain) {
	c.waitSemaphores = append(c.waitSemaphores, sc.presentCompleteSemaphores[sc.currentSemaphore])
	c.waitStages = append(c.waitStages, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit))
}

// WaitForCommands queues other's signal semaphore as an ALL_COMMANDS wait
// for the next submit, establishing explicit ordering between two
// CmdBuffers with no implicit tracking, per §5.
func (c *CmdBuffer) WaitForCommands(other *CmdBuffer) {
	c.waitSemaphores = append(c.waitSemaphores, other.Semaphore)
	c.waitStages = append(c.waitStages, vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit))
}

// End ends any open render pass and stops recording.
func (c *CmdBuffer) End() error {
	if c.currentRenderPass != nil {
		vk.CmdEndRenderPass(c.Handle)
		c.currentRenderPass = nil
	}
	if res := vk.EndCommandBuffer(c.Handle); res != vk.Success {
		return WrapResult(res, "vkEndCommandBuffer")
	}
	return nil
}

// Submit submits the recorded buffer with the accumulated wait
// semaphores/stages, signaling self.Semaphore and self.Fence, then clears
// the accumulators. The caller must have waited on self.Fence before
// reusing this CmdBuffer, per §4.8's note that a racing resubmit is the
// caller's responsibility.
func (c *CmdBuffer) Submit(queue vk.Queue) error {
	info := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(c.waitSemaphores)),
		PWaitSemaphores:      c.waitSemaphores,
		PWaitDstStageMask:    c.waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{c.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{c.Semaphore},
	}

	if res := vk.ResetFences(c.device.Logical, 1, []vk.Fence{c.Fence}); res != vk.Success {
		return WrapResult(res, "vkResetFences")
	}
	if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{info}, c.Fence); res != vk.Success {
		return WrapResult(res, "vkQueueSubmit")
	}

	c.waitSemaphores = nil
	c.waitStages = nil
	c.State = CmdBufferPending
	return nil
}

// WaitIdle blocks until self.Fence is signaled and returns the CmdBuffer
// to the Ready state.
func (c *CmdBuffer) WaitIdle() error {
	if res := vk.WaitForFences(c.device.Logical, 1, []vk.Fence{c.Fence}, vk.True, ^uint64(0)); res != vk.Success {
		return WrapResult(res, "vkWaitForFences")
	}
	c.State = CmdBufferReady
	return nil
}
