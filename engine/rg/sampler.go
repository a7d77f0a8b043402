package rg

import vk "github.com/goki/vulkan"

// SamplerOptions mirrors the spec's Sampler data: filtering, addressing,
// border color, anisotropy, and LOD bounds, with the spec's zero-value
// defaults applied by NewSampler.
type SamplerOptions struct {
	MinFilter, MagFilter vk.Filter
	AddressMode          vk.SamplerAddressMode
	BorderColor          vk.BorderColor
	AnisotropyEnable     bool
	MaxAnisotropy        float32
	MinLod, MaxLod       float32
}

// Sampler is an RG-owned VkSampler.
type Sampler struct {
	Handle vk.Sampler
}

// CreateSampler applies the spec's defaults — max_lod = 1.0 when both lod
// bounds are zero, max_anisotropy = 1.0 when zero — before creating the
// underlying VkSampler.
func (d *Device) CreateSampler(opts SamplerOptions) (*Sampler, error) {
	if opts.MinLod == 0 && opts.MaxLod == 0 {
		opts.MaxLod = 1.0
	}
	if opts.MaxAnisotropy == 0 {
		opts.MaxAnisotropy = 1.0
	}

	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MinFilter:               opts.MinFilter,
		MagFilter:               opts.MagFilter,
		AddressModeU:            opts.AddressMode,
		AddressModeV:            opts.AddressMode,
		AddressModeW:            opts.AddressMode,
		BorderColor:             opts.BorderColor,
		AnisotropyEnable:        vk.Bool32(boolToInt(opts.AnisotropyEnable)),
		MaxAnisotropy:           opts.MaxAnisotropy,
		MinLod:                  opts.MinLod,
		MaxLod:                  opts.MaxLod,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		UnnormalizedCoordinates: vk.False,
	}

	var handle vk.Sampler
	if res := vk.CreateSampler(d.Logical, &info, nil, &handle); res != vk.Success {
		return nil, WrapResult(res, "vkCreateSampler")
	}
	return &Sampler{Handle: handle}, nil
}

// DestroySampler destroys the underlying VkSampler.
func (d *Device) DestroySampler(s *Sampler) {
	if s == nil {
		return
	}
	vk.DestroySampler(d.Logical, s.Handle, nil)
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
