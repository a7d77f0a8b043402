// Package brdf bakes the split-sum BRDF integration LUT every PBR
// material uniform references, once at startup, into a single
// RG32_SFLOAT image registered as a bindless sampled-image slot.
package brdf

import (
	"fmt"
	"os"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/bindless"
	"github.com/felipeagc/rgrender/engine/rg"
)

// Bake renders the BRDF LUT into a dim x dim RG32_SFLOAT image using the
// full-screen triangle at vertexSpvPath/fragmentSpvPath (pre-compiled
// SPIR-V, per the HLSL->SPIR-V build step), registers the image as a
// bindless sampled-image slot, and returns its handle.
//
// Grounded on original_source/renderer/pbr.c's egGenerateBRDFLUT: the
// same single-mip RG32_SFLOAT color-attachment image, a throwaway
// single-subpass render pass over it, one pipeline bound to the global
// pipeline layout, and a single rgCmdDraw(3, 1, 0, 0) full-screen
// triangle with no vertex buffer bound, followed by an immediate
// submit-and-wait since the LUT never changes after this call.
func Bake(be *bindless.Engine, dim uint32, vertexSpvPath, fragmentSpvPath string) (bindless.Handle, error) {
	device := be.Device()

	image, handle, err := be.AllocateImage(
		dim, dim, 1, 1, 1,
		vk.FormatR32g32Sfloat,
		rg.ImageUsageColorAttachment,
		vk.SampleCount1Bit,
		false,
	)
	if err != nil {
		return bindless.Handle{}, fmt.Errorf("brdf: allocate LUT image: %w", err)
	}

	renderPass, err := device.CreateRenderPass([]rg.ColorAttachment{{Image: image}}, nil, dim, dim)
	if err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: create render pass: %w", err)
	}
	defer renderPass.Destroy()

	vertexCode, err := os.ReadFile(vertexSpvPath)
	if err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: read vertex shader: %w", err)
	}
	fragmentCode, err := os.ReadFile(fragmentSpvPath)
	if err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: read fragment shader: %w", err)
	}

	vertexModule, err := device.CreateShaderModule(vertexCode, vk.ShaderStageVertexBit, "vertex")
	if err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: create vertex shader module: %w", err)
	}
	defer vertexModule.Destroy()

	fragmentModule, err := device.CreateShaderModule(fragmentCode, vk.ShaderStageFragmentBit, "pixel")
	if err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: create fragment shader module: %w", err)
	}
	defer fragmentModule.Destroy()

	state := rg.DefaultPipelineState()
	state.DepthTest = false
	state.DepthWrite = false

	pipeline, err := device.CreatePipeline(rg.PipelineDescription{
		State:                state,
		DescriptorSetLayouts: []vk.DescriptorSetLayout{be.Layout.Handle},
		VertexShader:         vertexModule,
		FragmentShader:       fragmentModule,
	})
	if err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: create pipeline: %w", err)
	}
	defer pipeline.Destroy()

	cmdPool, err := device.CreateCmdPool(device.GraphicsQueueFamily)
	if err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: create command pool: %w", err)
	}
	defer cmdPool.Destroy()

	cmd, err := cmdPool.AllocateCmdBuffer()
	if err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: allocate command buffer: %w", err)
	}
	defer cmd.Free()

	if err := cmd.Begin(); err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: begin command buffer: %w", err)
	}

	cmd.SetRenderPass(renderPass, []vk.ClearValue{{}})
	if err := cmd.BindGraphicsPipeline(pipeline); err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: bind pipeline: %w", err)
	}
	cmd.Draw(3, 1, 0, 0)

	if err := cmd.End(); err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: end command buffer: %w", err)
	}
	if err := cmd.Submit(device.GraphicsQueue); err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: submit command buffer: %w", err)
	}
	if err := cmd.WaitIdle(); err != nil {
		be.FreeImage(handle)
		return bindless.Handle{}, fmt.Errorf("brdf: wait for bake to finish: %w", err)
	}

	return handle, nil
}
