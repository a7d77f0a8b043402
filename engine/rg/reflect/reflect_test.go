package reflect

import "testing"

// inst builds one instruction's word sequence: opcode/word-count header
// followed by its operands.
func inst(opcode int, operands ...uint32) []uint32 {
	out := make([]uint32, 0, len(operands)+1)
	wordCount := len(operands) + 1
	out = append(out, uint32(wordCount<<16)|uint32(opcode))
	out = append(out, operands...)
	return out
}

func buildModule(idBound uint32, instructions ...[]uint32) []uint32 {
	words := []uint32{spirvMagic, 0x00010300, 0, idBound, 0}
	for _, in := range instructions {
		words = append(words, in...)
	}
	return words
}

// TestReflectVertexLayoutMatchesSpec reproduces the literal scenario:
// "input float3 pos : LOC0; input float2 uv : LOC1" should yield
// vertex_stride=20 with attributes [{RGB32_SFLOAT,0},{RG32_SFLOAT,12}].
func TestReflectVertexLayoutMatchesSpec(t *testing.T) {
	const (
		floatType = 1
		vec3Type  = 2
		vec2Type  = 3
		ptrVec3   = 4
		ptrVec2   = 5
		posVar    = 6
		uvVar     = 7
	)

	words := buildModule(8,
		inst(opTypeFloat, floatType, 32),
		inst(opTypeVector, vec3Type, floatType, 3),
		inst(opTypeVector, vec2Type, floatType, 2),
		inst(opTypePointer, ptrVec3, storageClassInput, vec3Type),
		inst(opTypePointer, ptrVec2, storageClassInput, vec2Type),
		inst(opVariable, ptrVec3, posVar, storageClassInput),
		inst(opVariable, ptrVec2, uvVar, storageClassInput),
		inst(opDecorate, posVar, decorationLocation, 0),
		inst(opDecorate, uvVar, decorationLocation, 1),
	)

	mod, err := Reflect(words, true, Options{})
	if err != nil {
		t.Fatalf("Reflect failed: %v", err)
	}

	if mod.VertexStride != 20 {
		t.Fatalf("vertex stride = %d, want 20", mod.VertexStride)
	}
	pos, ok := mod.VertexAttributes[0]
	if !ok || pos.Format != FormatRGB32Sfloat || pos.Offset != 0 {
		t.Fatalf("attribute at location 0 = %+v, want {RGB32_SFLOAT, 0}", pos)
	}
	uv, ok := mod.VertexAttributes[1]
	if !ok || uv.Format != FormatRG32Sfloat || uv.Offset != 12 {
		t.Fatalf("attribute at location 1 = %+v, want {RG32_SFLOAT, 12}", uv)
	}
}

func TestReflectResolvesUniformAndStorageBuffer(t *testing.T) {
	const (
		structType = 1
		ptrUniform = 2
		ptrStorage = 3
		uboVar     = 4
		ssboVar    = 5
	)

	words := buildModule(6,
		inst(opTypeStruct, structType),
		inst(opTypePointer, ptrUniform, storageClassUniform, structType),
		inst(opTypePointer, ptrStorage, storageClassStorageBuffer, structType),
		inst(opVariable, ptrUniform, uboVar, storageClassUniform),
		inst(opVariable, ptrStorage, ssboVar, storageClassStorageBuffer),
		inst(opDecorate, uboVar, decorationDescriptorSet, 0),
		inst(opDecorate, uboVar, decorationBinding, 0),
		inst(opDecorate, ssboVar, decorationDescriptorSet, 0),
		inst(opDecorate, ssboVar, decorationBinding, 1),
	)

	mod, err := Reflect(words, false, Options{})
	if err != nil {
		t.Fatalf("Reflect failed: %v", err)
	}
	if len(mod.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d: %+v", len(mod.Bindings), mod.Bindings)
	}

	byBinding := map[uint32]Binding{}
	for _, b := range mod.Bindings {
		byBinding[b.Binding] = b
	}
	if byBinding[0].Kind != BindingUniformBuffer {
		t.Fatalf("binding 0 kind = %v, want BindingUniformBuffer", byBinding[0].Kind)
	}
	if byBinding[1].Kind != BindingStorageBuffer {
		t.Fatalf("binding 1 kind = %v, want BindingStorageBuffer", byBinding[1].Kind)
	}
}

func TestCombineAgreesAcrossStages(t *testing.T) {
	a := &Module{Bindings: []Binding{{Set: 0, Binding: 0, Kind: BindingUniformBuffer}}}
	b := &Module{Bindings: []Binding{{Set: 0, Binding: 0, Kind: BindingUniformBuffer}, {Set: 0, Binding: 1, Kind: BindingSampledImage}}}

	merged, err := Combine(a, b)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged bindings, got %d", len(merged))
	}
}

func TestCombineRejectsConflictingKinds(t *testing.T) {
	a := &Module{Bindings: []Binding{{Set: 0, Binding: 0, Kind: BindingUniformBuffer}}}
	b := &Module{Bindings: []Binding{{Set: 0, Binding: 0, Kind: BindingStorageBuffer}}}

	if _, err := Combine(a, b); err == nil {
		t.Fatal("expected Combine to reject a binding declared with two different kinds")
	}
}
