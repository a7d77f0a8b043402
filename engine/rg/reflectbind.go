package rg

import (
	"sort"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/rg/reflect"
)

// ReflectVertexInput decodes a vertex shader's SPIR-V bytecode and
// returns the vertex stride and per-location attribute descriptions a
// PipelineDescription needs, so a model loader doesn't have to hand-write
// a vertex layout that must stay in sync with the shader by hand.
//
// Grounded on engine/rg/reflect's Module.VertexStride/VertexAttributes
// (§4.4's SPIR-V reflector); this is the one caller that turns its
// output into the vk.VertexInputAttributeDescription slice
// PipelineDescription.VertexAttributes expects.
func ReflectVertexInput(vertexCode []byte) (stride uint32, attrs []vk.VertexInputAttributeDescription, err error) {
	words := sliceUint32FromBytes(vertexCode)
	mod, err := reflect.Reflect(words, true, reflect.Options{})
	if err != nil {
		return 0, nil, err
	}

	locations := make([]uint32, 0, len(mod.VertexAttributes))
	for loc := range mod.VertexAttributes {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })

	attrs = make([]vk.VertexInputAttributeDescription, 0, len(locations))
	for _, loc := range locations {
		a := mod.VertexAttributes[loc]
		attrs = append(attrs, vk.VertexInputAttributeDescription{
			Location: loc,
			Binding:  0,
			Format:   toVkFormat(a.Format),
			Offset:   a.Offset,
		})
	}

	return mod.VertexStride, attrs, nil
}

func toVkFormat(f reflect.Format) vk.Format {
	switch f {
	case reflect.FormatR32Sfloat:
		return vk.FormatR32Sfloat
	case reflect.FormatRG32Sfloat:
		return vk.FormatR32g32Sfloat
	case reflect.FormatRGB32Sfloat:
		return vk.FormatR32g32b32Sfloat
	case reflect.FormatRGBA32Sfloat:
		return vk.FormatR32g32b32a32Sfloat
	case reflect.FormatR32Uint:
		return vk.FormatR32Uint
	}
	return vk.FormatUndefined
}

// ReflectDescriptorBindings decodes a shader module's SPIR-V bytecode
// purely for diagnostics: logging which descriptor sets/bindings a
// compiled shader expects, to catch a shader/pipeline-layout mismatch
// before it becomes a validation-layer error at draw time.
func ReflectDescriptorBindings(code []byte, isVertexStage bool) ([]reflect.Binding, error) {
	mod, err := reflect.Reflect(sliceUint32FromBytes(code), isVertexStage, reflect.Options{})
	if err != nil {
		return nil, err
	}
	return mod.Bindings, nil
}
