package model

import (
	"testing"
	"unsafe"

	"github.com/felipeagc/rgrender/engine/rmath"
)

func TestDefaultMaterialIsOpaqueWhiteFullyRough(t *testing.T) {
	m := defaultMaterial()
	if m.BaseColor != rmath.NewVec4One() {
		t.Fatalf("default base colour = %v, want opaque white", m.BaseColor)
	}
	if m.Metallic != 0 {
		t.Fatalf("default metallic = %v, want 0", m.Metallic)
	}
	if m.Roughness != 1 {
		t.Fatalf("default roughness = %v, want 1", m.Roughness)
	}
}

func TestBoolToU32(t *testing.T) {
	if boolToU32(true) != 1 {
		t.Fatalf("boolToU32(true) != 1")
	}
	if boolToU32(false) != 0 {
		t.Fatalf("boolToU32(false) != 0")
	}
}

func TestStructBytesMatchesFieldLayout(t *testing.T) {
	mu := modelUniform{Transform: rmath.NewMat4Translation(rmath.Vec3{X: 1, Y: 2, Z: 3})}
	b := structBytes(&mu)

	if len(b) != int(unsafe.Sizeof(modelUniform{})) {
		t.Fatalf("structBytes length = %d, want %d", len(b), unsafe.Sizeof(modelUniform{}))
	}

	var roundTripped modelUniform
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&roundTripped)), len(b)), b)
	if roundTripped.Transform != mu.Transform {
		t.Fatalf("round-tripped transform = %v, want %v", roundTripped.Transform, mu.Transform)
	}
}

func TestMaterialUniformSizeMatchesShaderStride(t *testing.T) {
	// model.frag.hlsl's MaterialUniform declares the same fields in the
	// same order and computes its byte offset from a hardcoded stride of
	// 72; this guards that assumption against a field being added here
	// without updating the shader.
	const shaderStride = 72
	if got := unsafe.Sizeof(materialUniform{}); got != shaderStride {
		t.Fatalf("materialUniform size = %d, want %d (update assets/shaders/model.frag.hlsl's kMaterialStride too)", got, shaderStride)
	}
}

func TestCameraUniformSizeMatchesShaderStride(t *testing.T) {
	const shaderStride = 144
	type cameraUniformShape struct {
		Position rmath.Vec4
		View     rmath.Mat4
		Proj     rmath.Mat4
	}
	if got := unsafe.Sizeof(cameraUniformShape{}); got != shaderStride {
		t.Fatalf("rg.Uniform-shaped size = %d, want %d", got, shaderStride)
	}
}
