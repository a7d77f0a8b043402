package rg

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/containers"
	"github.com/felipeagc/rgrender/engine/core"
)

// PipelineDescription is everything needed to build a Pipeline's
// render-pass-independent state: vertex layout, fixed-function state
// (scanned from #pragma directives, see pragma.go), descriptor set
// layouts, push constant ranges and shader stages.
type PipelineDescription struct {
	State PipelineState

	VertexStride     uint32
	VertexAttributes []vk.VertexInputAttributeDescription

	DescriptorSetLayouts []vk.DescriptorSetLayout
	PushConstantRanges   []vk.PushConstantRange

	VertexShader   *ShaderModule
	FragmentShader *ShaderModule
}

// Pipeline holds the render-pass-independent graphics pipeline state plus
// the pipeline layout, and lazily materializes one VkPipeline per distinct
// render pass hash it is bound against, per §4.7. A Pipeline used
// exclusively with render passes that hash identically never builds more
// than one VkPipeline instance.
//
// Grounded on engine/renderer/vulkan/pipeline.go for the fixed-function
// state assembly and vk.CreateGraphicsPipelines call, generalized to
// decouple pipeline creation from any single render pass and to drive
// its state from PipelineState instead of the teacher's fixed
// cull-mode/wireframe/depth-test parameters.
type Pipeline struct {
	Description PipelineDescription
	Layout      vk.PipelineLayout

	instances *containers.Hashmap[vk.Pipeline]

	device *Device
}

// CreatePipeline builds the pipeline layout (the only render-pass
// independent Vulkan object a graphics pipeline needs ahead of time) and
// returns a Pipeline ready to be bound against any compatible render
// pass via Bind.
func (d *Device) CreatePipeline(desc PipelineDescription) (*Pipeline, error) {
	if len(desc.PushConstantRanges) > int(VULKAN_SHADER_MAX_PUSH_CONST_RANGES) {
		return nil, fmt.Errorf("rg: cannot have more than %d push constant ranges, got %d",
			VULKAN_SHADER_MAX_PUSH_CONST_RANGES, len(desc.PushConstantRanges))
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(desc.DescriptorSetLayouts)),
		PSetLayouts:    desc.DescriptorSetLayouts,
	}
	if len(desc.PushConstantRanges) > 0 {
		layoutInfo.PushConstantRangeCount = uint32(len(desc.PushConstantRanges))
		layoutInfo.PPushConstantRanges = desc.PushConstantRanges
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(d.Logical, &layoutInfo, nil, &layout); res != vk.Success {
		return nil, WrapResult(res, "vkCreatePipelineLayout")
	}

	return &Pipeline{
		Description: desc,
		Layout:      layout,
		instances:   containers.NewHashmap[vk.Pipeline](),
		device:      d,
	}, nil
}

// Bind looks up (or lazily builds) the VkPipeline instance compatible
// with pass's hash and records a vkCmdBindPipeline against cmd. Building
// an instance is expensive; every subsequent Bind against a render pass
// with the same hash reuses the cached VkPipeline, per §4.7's pipeline
// instance cache.
func (p *Pipeline) Bind(cmd vk.CommandBuffer, pass *RenderPass) error {
	handle, err := p.instanceFor(pass)
	if err != nil {
		return err
	}
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, handle)
	return nil
}

func (p *Pipeline) instanceFor(pass *RenderPass) (vk.Pipeline, error) {
	if cached, ok := p.instances.Get(pass.Hash); ok {
		return cached, nil
	}

	handle, err := p.buildInstance(pass)
	if err != nil {
		return nil, err
	}
	p.instances.Set(pass.Hash, handle)
	core.LogDebug("rg: built pipeline instance for render pass hash=%x (cache now holds %d instances)", pass.Hash, p.instances.Len())
	return handle, nil
}

func (p *Pipeline) buildInstance(pass *RenderPass) (vk.Pipeline, error) {
	state := p.Description.State

	viewport := vk.Viewport{
		Width: float32(pass.Width), Height: float32(pass.Height),
		MinDepth: 0, MaxDepth: 1,
	}
	scissor := vk.Rect2D{Extent: vk.Extent2D{Width: pass.Width, Height: pass.Height}}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:            vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode:      state.PolygonMode,
		CullMode:         vk.CullModeFlags(state.CullMode),
		FrontFace:        state.FrontFace,
		LineWidth:        1.0,
		DepthBiasEnable:  vkBool(state.DepthBias),
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vkBool(state.DepthTest),
		DepthWriteEnable: vkBool(state.DepthWrite),
		DepthCompareOp:   state.DepthCompareOp,
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	if state.BlendEnable {
		blendAttachment.BlendEnable = vk.True
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttachment.ColorBlendOp = vk.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttachment.AlphaBlendOp = vk.BlendOpAdd
	}

	blendAttachments := make([]vk.PipelineColorBlendAttachmentState, pass.ColorAttachmentCount)
	for i := range blendAttachments {
		blendAttachments[i] = blendAttachment
	}
	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor, vk.DynamicStateDepthBias}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{{Binding: 0, Stride: p.Description.VertexStride, InputRate: vk.VertexInputRateVertex}},
		VertexAttributeDescriptionCount: uint32(len(p.Description.VertexAttributes)),
		PVertexAttributeDescriptions:    p.Description.VertexAttributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: state.Topology,
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		p.Description.VertexShader.stageCreateInfo(),
		p.Description.FragmentShader.stageCreateInfo(),
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              p.Layout,
		RenderPass:          pass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	handles := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(p.device.Logical, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{createInfo}, nil, handles); res != vk.Success {
		return nil, WrapResult(res, "vkCreateGraphicsPipelines")
	}
	return handles[0], nil
}

// Destroy destroys every pipeline instance built for this Pipeline plus
// its layout. Shader modules are owned by the caller and must be
// destroyed separately.
func (p *Pipeline) Destroy() {
	p.instances.Each(func(_ uint64, handle vk.Pipeline) {
		vk.DestroyPipeline(p.device.Logical, handle, nil)
	})
	vk.DestroyPipelineLayout(p.device.Logical, p.Layout, nil)
}

// SetShaders replaces this pipeline's vertex/fragment shader modules, for
// the asset watcher's hot-reload path. Callers destroy the old modules
// themselves, then call Invalidate so the next Bind rebuilds against the
// new ones.
func (p *Pipeline) SetShaders(vertex, fragment *ShaderModule) {
	p.Description.VertexShader = vertex
	p.Description.FragmentShader = fragment
}

// Invalidate destroys every cached VkPipeline instance without touching
// the layout, so the next Bind against any render pass rebuilds from
// Description's shader modules. Callers must device-wait-idle first and
// must have already swapped Description's shader modules for freshly
// recompiled ones, per the asset watcher's hot-reload path.
func (p *Pipeline) Invalidate() {
	p.instances.Each(func(_ uint64, handle vk.Pipeline) {
		vk.DestroyPipeline(p.device.Logical, handle, nil)
	})
	p.instances = containers.NewHashmap[vk.Pipeline]()
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
