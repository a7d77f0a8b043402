package rg

import vk "github.com/goki/vulkan"

// ShaderModule wraps a compiled SPIR-V module for one pipeline stage,
// compiled ahead of time by the external HLSL->SPIR-V build step (see
// magefiles/build.go) and loaded here as raw bytes.
type ShaderModule struct {
	Handle     vk.ShaderModule
	Stage      vk.ShaderStageFlagBits
	EntryPoint string

	device *Device
}

// CreateShaderModule wraps SPIR-V bytecode into a VkShaderModule for the
// given stage, entering the pipeline under entryPoint ("vertex" or
// "pixel" for this module's dxc-compiled graphics shaders). Grounded on engine/renderer/vulkan's shader module creation
// call, cleaned up to take raw bytecode instead of reading from the
// teacher's resource system.
func (d *Device) CreateShaderModule(code []byte, stage vk.ShaderStageFlagBits, entryPoint string) (*ShaderModule, error) {
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32FromBytes(code),
	}

	var handle vk.ShaderModule
	if res := vk.CreateShaderModule(d.Logical, &info, nil, &handle); res != vk.Success {
		return nil, WrapResult(res, "vkCreateShaderModule")
	}

	return &ShaderModule{Handle: handle, Stage: stage, EntryPoint: entryPoint, device: d}, nil
}

func (s *ShaderModule) stageCreateInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Handle,
		PName:  safeCString(s.EntryPoint),
	}
}

// Destroy destroys the underlying VkShaderModule. Safe to call once the
// pipeline(s) referencing it have been created; Vulkan does not require
// the module to outlive pipeline creation.
func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.device.Logical, s.Handle, nil)
}

func sliceUint32FromBytes(b []byte) []uint32 {
	out := make([]uint32, (len(b)+3)/4)
	for i := range out {
		var word uint32
		for j := 0; j < 4; j++ {
			idx := i*4 + j
			if idx < len(b) {
				word |= uint32(b[idx]) << (8 * j)
			}
		}
		out[i] = word
	}
	return out
}
