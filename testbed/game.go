// Package testbed is a minimal host application exercising the engine's
// rg/bindless/model stack end to end: one procedurally built cube model,
// spinning in front of a free-look camera.
package testbed

import (
	"unsafe"

	"github.com/felipeagc/rgrender/engine"
	"github.com/felipeagc/rgrender/engine/core"
	"github.com/felipeagc/rgrender/engine/model"
	"github.com/felipeagc/rgrender/engine/rg"
	"github.com/felipeagc/rgrender/engine/rmath"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	cube   *model.Asset
	spin   float32
	aspect float32
}

// vertex is the cube's per-vertex layout: position, normal, uv. Must
// match the compiled model vertex shader's input layout, which
// engine.buildModelPipeline reflects at load time rather than the
// pipeline hand-specifying it.
type vertex struct {
	Position rmath.Vec3
	Normal   rmath.Vec3
	UV       rmath.Vec2
}

func NewTestGame() (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartPosX: 100,
				StartPosY: 100,
				Name:      "rgrender testbed",
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize

	return tg, nil
}

func (g *TestGame) Initialize(ctx *engine.Context) error {
	core.LogInfo("testbed: building demo cube")

	state := g.State.(*gameState)

	cube, err := buildCube(ctx.Device)
	if err != nil {
		return err
	}
	state.cube = cube

	ctx.Camera.Position = rmath.NewVec3(0, 1.5, 4)
	ctx.Camera.Yaw = rmath.DegToRad(180)
	ctx.Camera.Pitch = 0

	return nil
}

func (g *TestGame) Update(ctx *engine.Context, deltaTime float64) error {
	state := g.State.(*gameState)
	state.spin += float32(deltaTime)
	return nil
}

func (g *TestGame) Render(ctx *engine.Context, cmd *rg.CmdBuffer, deltaTime float64) error {
	state := g.State.(*gameState)
	transform := rmath.NewMat4EulerY(state.spin)
	return ctx.Models.Render(state.cube, cmd, transform)
}

func (g *TestGame) OnResize(ctx *engine.Context, width, height uint32) error {
	state := g.State.(*gameState)
	if height > 0 {
		state.aspect = float32(width) / float32(height)
	}
	return nil
}

// buildCube returns a single-mesh, single-primitive Asset for a unit
// cube: 24 vertices (4 per face, for flat per-face normals) and 36
// indices, uploaded into two host-visible buffers.
//
// Grounded on original_source/renderer/model_asset.c's programmatic
// MODEL_FROM_MESH construction path (a model built directly from vertex/
// index data rather than parsed from a GLB), using this module's
// model.NewAsset/ResolveMatrices in place of its C struct population.
func buildCube(device *rg.Device) (*model.Asset, error) {
	verts, indices := cubeGeometry()

	vertexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&verts[0])), len(verts)*int(unsafe.Sizeof(vertex{})))
	indexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4)

	vertexBuffer, err := device.CreateBuffer(uint64(len(vertexBytes)), rg.BufferUsageVertex, rg.MemoryHost, false)
	if err != nil {
		return nil, err
	}
	copy(vertexBuffer.Map(), vertexBytes)

	indexBuffer, err := device.CreateBuffer(uint64(len(indexBytes)), rg.BufferUsageIndex, rg.MemoryHost, false)
	if err != nil {
		return nil, err
	}
	copy(indexBuffer.Map(), indexBytes)

	asset := model.NewAsset(model.FromMesh)
	asset.VertexBuffer = vertexBuffer
	asset.IndexBuffer = indexBuffer
	asset.IndexType = rg.IndexTypeU32
	asset.Nodes = []model.Node{{
		ParentIndex: model.NoParent,
		Scale:       rmath.NewVec3One(),
		Rotation:    rmath.NewQuatIdentity(),
		MeshIndex:   0,
	}}
	asset.RootNodeIndices = []int{0}
	asset.Meshes = []model.Mesh{{
		Primitives: []model.Primitive{{
			FirstIndex:    0,
			IndexCount:    uint32(len(indices)),
			MaterialIndex: model.NoMaterial,
			HasIndices:    true,
		}},
	}}
	asset.ResolveMatrices()

	return asset, nil
}

func cubeGeometry() ([]vertex, []uint32) {
	faces := []struct {
		normal  rmath.Vec3
		corners [4]rmath.Vec3
	}{
		{rmath.NewVec3(0, 0, 1), [4]rmath.Vec3{{X: -0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5}}},
		{rmath.NewVec3(0, 0, -1), [4]rmath.Vec3{{X: 0.5, Y: -0.5, Z: -0.5}, {X: -0.5, Y: -0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5}, {X: 0.5, Y: 0.5, Z: -0.5}}},
		{rmath.NewVec3(1, 0, 0), [4]rmath.Vec3{{X: 0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: 0.5, Z: -0.5}, {X: 0.5, Y: 0.5, Z: 0.5}}},
		{rmath.NewVec3(-1, 0, 0), [4]rmath.Vec3{{X: -0.5, Y: -0.5, Z: -0.5}, {X: -0.5, Y: -0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: -0.5}}},
		{rmath.NewVec3(0, 1, 0), [4]rmath.Vec3{{X: -0.5, Y: 0.5, Z: 0.5}, {X: 0.5, Y: 0.5, Z: 0.5}, {X: 0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5}}},
		{rmath.NewVec3(0, -1, 0), [4]rmath.Vec3{{X: -0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: 0.5}, {X: -0.5, Y: -0.5, Z: 0.5}}},
	}
	uvs := [4]rmath.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}

	var verts []vertex
	var indices []uint32
	for _, face := range faces {
		base := uint32(len(verts))
		for i, corner := range face.corners {
			verts = append(verts, vertex{Position: corner, Normal: face.normal, UV: uvs[i]})
		}
		indices = append(indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}
	return verts, indices
}
