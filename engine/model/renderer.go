package model

import (
	"unsafe"

	"github.com/felipeagc/rgrender/engine/bindless"
	"github.com/felipeagc/rgrender/engine/framepool"
	"github.com/felipeagc/rgrender/engine/rg"
	"github.com/felipeagc/rgrender/engine/rmath"
)

// modelUniform/materialUniform are the two per-draw records written into
// the model/material frame pools, matching original_source/renderer/
// model_asset.c's ModelUniform/MaterialUniform C structs field for field.
type modelUniform struct {
	Transform rmath.Mat4
}

type materialUniform struct {
	BaseColor rmath.Vec4
	Emissive  rmath.Vec4

	Metallic       float32
	Roughness      float32
	IsNormalMapped uint32

	SamplerIndex                uint32
	AlbedoImageIndex            uint32
	NormalImageIndex            uint32
	MetallicRoughnessImageIndex uint32
	OcclusionImageIndex         uint32
	EmissiveImageIndex          uint32
	BRDFImageIndex              uint32
}

// Manager owns the three per-frame staging pools (camera, model,
// material) the model renderer writes one record into per draw, per
// §4.12-§4.13.
//
// Grounded on original_source/renderer/model_asset.c's EgModelManager:
// identical three-pool setup (camera pool capacity 16, model/material
// pool capacities caller-supplied limits) and identical
// begin-frame/reset/allocate-camera-record sequencing.
type Manager struct {
	bindless *bindless.Engine

	cameraPool   *framepool.Pool
	modelPool    *framepool.Pool
	materialPool *framepool.Pool

	currentCameraBuf, currentCameraIdx uint32

	brdfImage bindless.Handle
}

// NewManager creates the three frame pools. modelLimit/materialLimit
// bound how many model/material records a single frame may write.
// brdfImage is the bindless slot of the split-sum BRDF LUT every
// material uniform references.
func NewManager(be *bindless.Engine, modelLimit, materialLimit uint64, brdfImage bindless.Handle) (*Manager, error) {
	cameraPool, err := framepool.New(be, uint64(unsafe.Sizeof(rg.Uniform{})), 16)
	if err != nil {
		return nil, err
	}
	modelPool, err := framepool.New(be, uint64(unsafe.Sizeof(modelUniform{})), modelLimit)
	if err != nil {
		return nil, err
	}
	materialPool, err := framepool.New(be, uint64(unsafe.Sizeof(materialUniform{})), materialLimit)
	if err != nil {
		return nil, err
	}

	return &Manager{
		bindless:     be,
		cameraPool:   cameraPool,
		modelPool:    modelPool,
		materialPool: materialPool,
		brdfImage:    brdfImage,
	}, nil
}

// Destroy frees all three frame pools' bindless storage buffer slots.
func (m *Manager) Destroy() {
	m.cameraPool.Destroy()
	m.modelPool.Destroy()
	m.materialPool.Destroy()
}

// BeginFrame resets all three frame pools and writes cam into the camera
// pool, remembering its buffer/item index for the push constants every
// subsequent Render call issues.
func (m *Manager) BeginFrame(cam rg.Uniform) error {
	m.cameraPool.Reset()
	m.modelPool.Reset()
	m.materialPool.Reset()

	idx, err := m.cameraPool.AllocateItem(structBytes(&cam))
	if err != nil {
		return err
	}

	m.currentCameraBuf = m.cameraPool.BufferIndex()
	m.currentCameraIdx = idx
	return nil
}

// Render binds the model's vertex/index buffers, then walks its node
// graph pre-order (roots first), writing one model record and one
// material record per primitive and issuing its draw, per §4.13.
func (m *Manager) Render(asset *Asset, cmd *rg.CmdBuffer, worldTransform rmath.Mat4) error {
	cmd.BindVertexBuffer(asset.VertexBuffer, 0)
	if asset.IndexBuffer != nil {
		cmd.BindIndexBuffer(asset.IndexBuffer, 0, asset.IndexType)
	}

	for _, rootIndex := range asset.RootNodeIndices {
		if err := m.renderNode(asset, cmd, rootIndex, worldTransform); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) renderNode(asset *Asset, cmd *rg.CmdBuffer, nodeIndex int, worldTransform rmath.Mat4) error {
	node := &asset.Nodes[nodeIndex]
	world := node.ResolvedMatrix.Mul(worldTransform)

	if node.MeshIndex != NoMesh {
		mesh := &asset.Meshes[node.MeshIndex]
		for _, prim := range mesh.Primitives {
			if err := m.renderPrimitive(asset, cmd, prim, world); err != nil {
				return err
			}
		}
	}

	for _, child := range node.Children {
		if err := m.renderNode(asset, cmd, child, worldTransform); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) renderPrimitive(asset *Asset, cmd *rg.CmdBuffer, prim Primitive, world rmath.Mat4) error {
	material := defaultMaterial()
	if prim.MaterialIndex != NoMaterial {
		material = asset.Materials[prim.MaterialIndex]
	}

	modelIdx, err := m.modelPool.AllocateItem(structBytes(&modelUniform{Transform: world}))
	if err != nil {
		return err
	}

	matUniform := materialUniform{
		BaseColor:                   material.BaseColor,
		Emissive:                    material.Emissive,
		Metallic:                    material.Metallic,
		Roughness:                   material.Roughness,
		IsNormalMapped:              boolToU32(material.IsNormalMapped),
		SamplerIndex:                material.Sampler.Index,
		AlbedoImageIndex:            material.AlbedoImage.Index,
		NormalImageIndex:            material.NormalImage.Index,
		MetallicRoughnessImageIndex: material.MetallicRoughnessImage.Index,
		OcclusionImageIndex:         material.OcclusionImage.Index,
		EmissiveImageIndex:          material.EmissiveImage.Index,
		BRDFImageIndex:              m.brdfImage.Index,
	}
	materialIdx, err := m.materialPool.AllocateItem(structBytes(&matUniform))
	if err != nil {
		return err
	}

	pushConstants := [6]uint32{
		m.currentCameraBuf, m.currentCameraIdx,
		m.modelPool.BufferIndex(), modelIdx,
		m.materialPool.BufferIndex(), materialIdx,
	}
	cmd.PushConstants(0, structBytes(&pushConstants))

	if prim.HasIndices {
		cmd.DrawIndexed(prim.IndexCount, 1, prim.FirstIndex, 0, 0)
	} else {
		cmd.Draw(prim.VertexCount, 1, 0, 0)
	}
	return nil
}

// defaultMaterial mirrors original_source/renderer/model_asset.c's
// MaterialDefault: opaque white base colour, no emissive, fully
// dielectric and rough, every image/sampler slot left at its zero
// bindless.Handle (index 0: whichever image or sampler was allocated
// first in that bindless pool; no slot is reserved for defaults).
func defaultMaterial() Material {
	return Material{
		BaseColor: rmath.NewVec4One(),
		Emissive:  rmath.NewVec4Zero(),
		Metallic:  0,
		Roughness: 1,
	}
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// structBytes returns a byte view over v's memory, valid only until v is
// no longer referenced. Used to feed fixed-layout uniform structs to
// framepool.Pool.AllocateItem without a manual field-by-field encoder,
// the same unsafe.Sizeof/unsafe.Pointer idiom engine/rg/unsafe.go
// already uses for mapped-buffer access.
func structBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}
