// Package reflect is a single-pass SPIR-V decoder that recovers
// descriptor-set/binding kinds and vertex-input layout directly from
// compiled shader words, without linking against a SPIR-V SDK.
//
// Grounded on spec.md's own algorithmic description of the reflector
// (§4.4); no pack repo or original_source file implements SPIR-V
// reflection, so this package is built from first principles against the
// public SPIR-V binary module format (magic/version/bound header
// followed by a flat opcode stream, 0x1F0004xx-ID instructions decorated
// via OpDecorate, types via OpType*, storage via OpVariable).
package reflect

import (
	"encoding/binary"
	"fmt"
)

const spirvMagic = 0x07230203

// Opcodes used by this reflector, values from the public SPIR-V binary
// instruction set (Khronos spirv.h).
const (
	opName             = 5
	opMemberName       = 6
	opTypeVoid         = 19
	opTypeBool         = 20
	opTypeInt          = 21
	opTypeFloat        = 22
	opTypeVector       = 23
	opTypeMatrix       = 24
	opTypeImage        = 25
	opTypeSampler      = 26
	opTypeSampledImage = 27
	opTypeArray        = 28
	opTypeRuntimeArray = 29
	opTypeStruct       = 30
	opTypePointer      = 32
	opVariable         = 59
	opDecorate         = 71
	opMemberDecorate   = 72
)

// Decorations relevant to reflection.
const (
	decorationBlock         = 2
	decorationBufferBlock   = 3
	decorationBuiltIn       = 11
	decorationLocation      = 30
	decorationBinding       = 33
	decorationDescriptorSet = 34
)

// Storage classes relevant to reflection.
const (
	storageClassUniformConstant = 0
	storageClassInput           = 1
	storageClassUniform         = 2
	storageClassStorageBuffer   = 12
)

// BindingKind is the descriptor kind a reflected binding resolves to.
type BindingKind int

const (
	BindingUniformBuffer BindingKind = iota
	BindingDynamicUniformBuffer
	BindingStorageBuffer
	BindingDynamicStorageBuffer
	BindingSampledImage
	BindingSampler
	BindingCombinedImageSampler
)

// Format is the vertex-attribute format the reflector can infer, named
// after the Vulkan formats they correspond to.
type Format int

const (
	FormatR32Sfloat Format = iota
	FormatRG32Sfloat
	FormatRGB32Sfloat
	FormatRGBA32Sfloat
	FormatR32Uint
)

// sizeOf returns an attribute format's byte size, used to fold attribute
// offsets and accumulate vertex_stride.
func (f Format) sizeOf() uint32 {
	switch f {
	case FormatR32Sfloat, FormatR32Uint:
		return 4
	case FormatRG32Sfloat:
		return 8
	case FormatRGB32Sfloat:
		return 12
	case FormatRGBA32Sfloat:
		return 16
	}
	return 0
}

// Attribute is one vertex input attribute's format and folded byte
// offset within the vertex.
type Attribute struct {
	Format Format
	Offset uint32
}

// Binding is one descriptor binding's resolved kind.
type Binding struct {
	Set     uint32
	Binding uint32
	Kind    BindingKind
}

// Module is the result of reflecting a single SPIR-V shader module.
type Module struct {
	Bindings         []Binding
	VertexStride     uint32
	VertexAttributes map[uint32]Attribute // keyed by location
}

// id accumulates every fact the decorate/type/variable passes learn
// about one SPIR-V result id.
type id struct {
	opcode int

	// Decorations.
	hasSet      bool
	set         uint32
	hasBinding  bool
	binding     uint32
	hasLocation bool
	location    uint32
	isBuiltin   bool
	isBlock     bool
	isBufferBlock bool

	// Type facts.
	subtype       uint32 // element/pointee type id
	storageClass  uint32
	vectorWidth   uint32
	isFloat       bool
	isUnsigned    bool
}

// Options configures binding-kind resolution for ambiguous storage
// classes, per §4.4's "dynamic if the caller passed dynamic_buffers".
type Options struct {
	DynamicBuffers bool
}

// Reflect decodes a SPIR-V word stream (already validated for magic by
// the caller's loader) into a Module. isVertexStage controls whether
// Input variables contribute to the vertex layout.
func Reflect(words []uint32, isVertexStage bool, opts Options) (*Module, error) {
	if len(words) < 5 || words[0] != spirvMagic {
		return nil, fmt.Errorf("reflect: not a SPIR-V module (bad magic)")
	}
	idBound := words[3]

	ids := make([]id, idBound)

	i := 5
	for i < len(words) {
		word := words[i]
		wordCount := int(word >> 16)
		opcode := int(word & 0xFFFF)
		if wordCount == 0 || i+wordCount > len(words) {
			break
		}
		operands := words[i+1 : i+wordCount]
		decodeInstruction(ids, opcode, operands)
		i += wordCount
	}

	mod := &Module{VertexAttributes: map[uint32]Attribute{}}

	type locAttr = struct {
		location uint32
		format   Format
	}
	var vertexInputs []locAttr

	for resultID, rec := range ids {
		if rec.opcode != opVariable {
			continue
		}
		switch rec.storageClass {
		case storageClassUniformConstant, storageClassUniform, storageClassStorageBuffer:
			kind, ok := resolveBindingKind(ids, rec, opts)
			if !ok {
				continue
			}
			if !rec.hasSet || !rec.hasBinding {
				continue
			}
			mod.Bindings = append(mod.Bindings, Binding{Set: rec.set, Binding: rec.binding, Kind: kind})
		case storageClassInput:
			if !isVertexStage || rec.isBuiltin || !rec.hasLocation {
				continue
			}
			format, ok := inferVertexFormat(ids, pointeeType(ids, uint32(resultID)))
			if !ok {
				continue
			}
			vertexInputs = append(vertexInputs, locAttr{location: rec.location, format: format})
		}
	}

	// Fold offsets in location order, accumulating vertex_stride.
	sortByLocation(vertexInputs)
	var offset uint32
	for _, v := range vertexInputs {
		mod.VertexAttributes[v.location] = Attribute{Format: v.format, Offset: offset}
		offset += v.format.sizeOf()
	}
	mod.VertexStride = offset

	return mod, nil
}

func decodeInstruction(ids []id, opcode int, operands []uint32) {
	switch opcode {
	case opDecorate:
		if len(operands) < 2 {
			return
		}
		target := operands[0]
		decoration := operands[1]
		applyDecoration(&ids[target], decoration, operands[2:])
	case opTypeFloat:
		resultID := operands[0]
		ids[resultID].opcode = opTypeFloat
		ids[resultID].isFloat = true
	case opTypeInt:
		resultID := operands[0]
		ids[resultID].opcode = opTypeInt
		if len(operands) >= 3 {
			ids[resultID].isUnsigned = operands[2] == 0
		}
	case opTypeVector:
		resultID := operands[0]
		ids[resultID].opcode = opTypeVector
		ids[resultID].subtype = operands[1]
		ids[resultID].vectorWidth = operands[2]
	case opTypeImage:
		ids[operands[0]].opcode = opTypeImage
	case opTypeSampler:
		ids[operands[0]].opcode = opTypeSampler
	case opTypeSampledImage:
		ids[operands[0]].opcode = opTypeSampledImage
	case opTypeStruct:
		ids[operands[0]].opcode = opTypeStruct
	case opTypePointer:
		resultID := operands[0]
		ids[resultID].opcode = opTypePointer
		ids[resultID].storageClass = operands[1]
		ids[resultID].subtype = operands[2]
	case opVariable:
		resultTypeID := operands[0]
		resultID := operands[1]
		storageClass := operands[2]
		ids[resultID].opcode = opVariable
		ids[resultID].subtype = resultTypeID
		ids[resultID].storageClass = storageClass
	}
}

func applyDecoration(rec *id, decoration uint32, extra []uint32) {
	switch decoration {
	case decorationDescriptorSet:
		if len(extra) > 0 {
			rec.hasSet = true
			rec.set = extra[0]
		}
	case decorationBinding:
		if len(extra) > 0 {
			rec.hasBinding = true
			rec.binding = extra[0]
		}
	case decorationLocation:
		if len(extra) > 0 {
			rec.hasLocation = true
			rec.location = extra[0]
		}
	case decorationBuiltIn:
		rec.isBuiltin = true
	case decorationBlock:
		rec.isBlock = true
	case decorationBufferBlock:
		rec.isBufferBlock = true
	}
}

// pointeeType resolves a variable's result id (whose recorded subtype is
// the OpTypePointer id) down to the pointer's pointee type id.
func pointeeType(ids []id, variableID uint32) uint32 {
	ptrType := ids[variableID].subtype
	if int(ptrType) >= len(ids) {
		return 0
	}
	return ids[ptrType].subtype
}

func resolveBindingKind(ids []id, rec id, opts Options) (BindingKind, bool) {
	ptrType := rec.subtype
	if int(ptrType) >= len(ids) {
		return 0, false
	}
	typeID := ids[ptrType].subtype
	if int(typeID) >= len(ids) {
		return 0, false
	}
	t := ids[typeID]

	switch t.opcode {
	case opTypeImage:
		return BindingSampledImage, true
	case opTypeSampler:
		return BindingSampler, true
	case opTypeSampledImage:
		return BindingCombinedImageSampler, true
	case opTypeStruct:
		if t.isBufferBlock || rec.storageClass == storageClassStorageBuffer {
			if opts.DynamicBuffers {
				return BindingDynamicStorageBuffer, true
			}
			return BindingStorageBuffer, true
		}
		if rec.storageClass == storageClassUniform {
			if opts.DynamicBuffers {
				return BindingDynamicUniformBuffer, true
			}
			return BindingUniformBuffer, true
		}
	}
	return 0, false
}

// inferVertexFormat implements §4.4 step 4: float32 scalar/vector maps to
// R/RG/RGB/RGBA32_SFLOAT, uint32 scalar maps to R32_UINT, anything else
// fails reflection for that attribute (it is simply dropped, matching
// the algorithm's "fail" for unsupported types, which this reflector
// treats as "this attribute contributes nothing" rather than aborting
// the whole module).
func inferVertexFormat(ids []id, typeID uint32) (Format, bool) {
	if int(typeID) >= len(ids) {
		return 0, false
	}
	t := ids[typeID]

	switch t.opcode {
	case opTypeFloat:
		return FormatR32Sfloat, true
	case opTypeInt:
		if t.isUnsigned {
			return FormatR32Uint, true
		}
		return 0, false
	case opTypeVector:
		if int(t.subtype) >= len(ids) || !ids[t.subtype].isFloat {
			return 0, false
		}
		switch t.vectorWidth {
		case 2:
			return FormatRG32Sfloat, true
		case 3:
			return FormatRGB32Sfloat, true
		case 4:
			return FormatRGBA32Sfloat, true
		}
	}
	return 0, false
}

func sortByLocation(attrs []struct {
	location uint32
	format   Format
}) {
	for i := 1; i < len(attrs); i++ {
		for j := i; j > 0 && attrs[j].location < attrs[j-1].location; j-- {
			attrs[j], attrs[j-1] = attrs[j-1], attrs[j]
		}
	}
}

// Combine merges a vertex and fragment module's bindings per-(set,
// binding): if either side declares a binding, it is adopted; if both
// declare the same binding, they must agree on kind.
func Combine(modules ...*Module) ([]Binding, error) {
	type key struct {
		set     uint32
		binding uint32
	}
	merged := map[key]Binding{}
	for _, m := range modules {
		if m == nil {
			continue
		}
		for _, b := range m.Bindings {
			k := key{b.Set, b.Binding}
			if existing, ok := merged[k]; ok {
				if existing.Kind != b.Kind {
					return nil, fmt.Errorf("reflect: set %d binding %d declared as both %v and %v across stages",
						b.Set, b.Binding, existing.Kind, b.Kind)
				}
				continue
			}
			merged[k] = b
		}
	}

	out := make([]Binding, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	return out, nil
}

// DecodeWords reinterprets raw little-endian SPIR-V bytes as the uint32
// word stream Reflect expects.
func DecodeWords(code []byte) []uint32 {
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4 : i*4+4])
	}
	return words
}
