package model

import (
	"testing"

	"github.com/felipeagc/rgrender/engine/rmath"
)

func TestResolveMatricesComposesParentChain(t *testing.T) {
	// root -(translate 1,0,0)-> child -(translate 0,2,0)-> grandchild
	asset := &Asset{
		RootNodeIndices: []int{0},
		Nodes: []Node{
			{ParentIndex: NoParent, Children: []int{1}, Translation: rmath.Vec3{X: 1}, Scale: rmath.Vec3{X: 1, Y: 1, Z: 1}, MeshIndex: NoMesh},
			{ParentIndex: 0, Children: []int{2}, Translation: rmath.Vec3{Y: 2}, Scale: rmath.Vec3{X: 1, Y: 1, Z: 1}, MeshIndex: NoMesh},
			{ParentIndex: 1, Children: nil, Scale: rmath.Vec3{X: 1, Y: 1, Z: 1}, MeshIndex: NoMesh},
		},
	}

	asset.ResolveMatrices()

	grandchild := asset.Nodes[2].ResolvedMatrix
	// rmath's translation matrices carry their offset in row 3 (indices
	// 12/13/14), so the combined translate(1,0,0)+translate(0,2,0) lands
	// at indices 12 (x) and 13 (y).
	if got := grandchild.Data[12]; got != 1 {
		t.Fatalf("expected resolved x translation 1, got %v", got)
	}
	if got := grandchild.Data[13]; got != 2 {
		t.Fatalf("expected resolved y translation 2, got %v", got)
	}
}

func TestResolveMatricesRootHasNoParentContribution(t *testing.T) {
	asset := &Asset{
		RootNodeIndices: []int{0},
		Nodes: []Node{
			{ParentIndex: NoParent, Translation: rmath.Vec3{X: 5}, Scale: rmath.Vec3{X: 1, Y: 1, Z: 1}, MeshIndex: NoMesh},
		},
	}

	asset.ResolveMatrices()

	if got := asset.Nodes[0].ResolvedMatrix.Data[12]; got != 5 {
		t.Fatalf("expected root's own translation 5, got %v", got)
	}
}

func TestNodeLocalMatrixAppliesScaleBeforeTranslation(t *testing.T) {
	// Non-uniform scale (2,1,1) plus a translation: the translation is
	// this node's own position in its parent's space and must not itself
	// be scaled by the node's own scale factor (scale applies to the
	// node's mesh, not its offset). A translate-first composition would
	// incorrectly stretch the translation by the X scale, landing at
	// x=2 instead of x=1.
	asset := &Asset{
		RootNodeIndices: []int{0},
		Nodes: []Node{
			{ParentIndex: NoParent, Translation: rmath.Vec3{X: 1}, Scale: rmath.Vec3{X: 2, Y: 1, Z: 1}, MeshIndex: NoMesh},
		},
	}

	asset.ResolveMatrices()

	m := asset.Nodes[0].ResolvedMatrix
	if got := m.Data[0]; got != 2 {
		t.Fatalf("expected X scale 2 preserved, got %v", got)
	}
	if got := m.Data[12]; got != 1 {
		t.Fatalf("expected unscaled X translation 1, got %v", got)
	}
}

func TestNodeLocalMatrixPrefersAuthoredMatrixOverTRS(t *testing.T) {
	authored := rmath.NewMat4Translation(rmath.Vec3{X: 9})
	n := &Node{
		Matrix:      &authored,
		Translation: rmath.Vec3{X: 1, Y: 1, Z: 1}, // would conflict if both applied
		Scale:       rmath.Vec3{X: 1, Y: 1, Z: 1},
	}

	got := n.localMatrix()
	if got.Data[12] != 9 {
		t.Fatalf("expected authored matrix's translation 9 to win over TRS, got %v", got.Data[12])
	}
}
