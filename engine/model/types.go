// Package model implements the flattened-arena ModelAsset data model and
// the node-graph renderer consuming it, per §3/§4.13. Parsing a GLB byte
// buffer into this shape is out of scope here (an external collaborator) —
// types.go builds the shape itself, the way a programmatic caller or an
// already-decoded glTF document would populate it.
package model

import (
	"github.com/google/uuid"

	"github.com/felipeagc/rgrender/engine/bindless"
	"github.com/felipeagc/rgrender/engine/rg"
	"github.com/felipeagc/rgrender/engine/rmath"
)

// Origin records how a Model was constructed, mirroring the original's
// MODEL_FROM_MESH / MODEL_FROM_GLTF distinction.
type Origin int

const (
	FromMesh Origin = iota
	FromGltf
)

// NoParent/NoMesh are the sentinel indices for a root node / a node with
// no attached mesh; NoMaterial marks a primitive using the default
// material.
const (
	NoParent   = -1
	NoMesh     = -1
	NoMaterial = -1
)

// Node is one entry of the flattened node arena: a parent index (or
// NoParent for a root), a child-index list, a TRS triplet, and a
// pre-resolved local matrix folding the node's own ancestor chain
// (computed once at load by Asset.ResolveMatrices).
type Node struct {
	ParentIndex int
	Children    []int

	Translation rmath.Vec3
	Rotation    rmath.Quaternion
	Scale       rmath.Vec3

	// Matrix is the node's authored matrix, used instead of the TRS
	// triplet when non-nil. A glTF node carries either a matrix or a
	// TRS triplet, never both, so this is never composed with the TRS
	// fields above.
	Matrix *rmath.Mat4

	// ResolvedMatrix is this node's full transform relative to the
	// model's own root: its own local matrix composed up through every
	// ancestor's local matrix.
	ResolvedMatrix rmath.Mat4

	MeshIndex int // NoMesh if this node carries no mesh
}

// localMatrix returns this node's own local transform: its authored
// matrix if set, otherwise scale * rotation * translation, since this
// codebase's row-vector Mat4.Mul applies its receiver first and each
// subsequent .Mul argument after (scale applied first).
func (n *Node) localMatrix() rmath.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	t := rmath.NewMat4Translation(n.Translation)
	r := n.Rotation.ToMat4()
	s := rmath.NewMat4Scale(n.Scale)
	return s.Mul(r).Mul(t)
}

// Primitive is one drawable piece of a Mesh.
type Primitive struct {
	FirstIndex     uint32
	IndexCount     uint32
	VertexCount    uint32
	MaterialIndex  int32 // NoMaterial for the default material
	HasIndices     bool
	IsNormalMapped bool
}

// Mesh is a list of Primitives sharing the model's one vertex/index
// buffer pair.
type Mesh struct {
	Primitives []Primitive
}

// Material carries the four colour/scalar factors and the five image
// handles + one sampler handle the PBR material uniform needs.
type Material struct {
	BaseColor rmath.Vec4
	Emissive  rmath.Vec4
	Metallic  float32
	Roughness float32

	IsNormalMapped bool

	AlbedoImage            bindless.Handle
	NormalImage            bindless.Handle
	MetallicRoughnessImage bindless.Handle
	OcclusionImage         bindless.Handle
	EmissiveImage          bindless.Handle
	Sampler                bindless.Handle
}

// Asset is the flat arena described by §3's ModelAsset: nodes, root
// indices, meshes, materials, and the resources they reference, plus the
// one vertex/index buffer pair every primitive indexes into.
//
// Grounded on original_source/renderer/model_asset.c's EgModelAsset
// (identical field set: nodes/root_nodes/meshes/materials/images/
// samplers arrays plus one vertex_buffer/index_buffer pair) and the
// teacher's engine/systems/mesh.go + engine/renderer/metadata mesh shape
// for how a mesh's primitives are represented in this module's Go idiom.
type Asset struct {
	// ID identifies this loaded asset instance across its lifetime, for
	// log correlation when several instances of the same source model
	// are live at once (the teacher's engine/systems/renderview.go
	// stamps render-views the same way).
	ID uuid.UUID

	Origin Origin

	Nodes           []Node
	RootNodeIndices []int
	Meshes          []Mesh
	Materials       []Material

	Images   []bindless.Handle
	Samplers []bindless.Handle

	VertexBuffer *rg.Buffer
	IndexBuffer  *rg.Buffer
	IndexType    rg.IndexType
}

// NewAsset returns an empty Asset stamped with a fresh ID, ready for a
// caller to populate its nodes/meshes/materials before calling
// ResolveMatrices.
func NewAsset(origin Origin) *Asset {
	return &Asset{ID: uuid.New(), Origin: origin}
}

// ResolveMatrices computes ResolvedMatrix for every node: its own local
// matrix composed up through every ancestor's local matrix, matching
// original_source/renderer/model_asset.c's NodeResolveMatrix. Call once
// after a model's nodes/parent indices are fully populated.
func (a *Asset) ResolveMatrices() {
	for i := range a.Nodes {
		a.Nodes[i].ResolvedMatrix = a.resolveNode(i)
	}
}

func (a *Asset) resolveNode(index int) rmath.Mat4 {
	m := a.Nodes[index].localMatrix()
	p := a.Nodes[index].ParentIndex
	for p != NoParent {
		parentLocal := a.Nodes[p].localMatrix()
		m = m.Mul(parentLocal)
		p = a.Nodes[p].ParentIndex
	}
	return m
}
