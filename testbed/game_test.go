package testbed

import "testing"

func TestCubeGeometryHasSixFacesWornAsTriangles(t *testing.T) {
	verts, indices := cubeGeometry()

	const faces = 6
	const vertsPerFace = 4
	const indicesPerFace = 6 // two triangles

	if len(verts) != faces*vertsPerFace {
		t.Fatalf("got %d vertices, want %d", len(verts), faces*vertsPerFace)
	}
	if len(indices) != faces*indicesPerFace {
		t.Fatalf("got %d indices, want %d", len(indices), faces*indicesPerFace)
	}

	maxIndex := uint32(0)
	for _, idx := range indices {
		if idx > maxIndex {
			maxIndex = idx
		}
	}
	if int(maxIndex) != len(verts)-1 {
		t.Fatalf("max index %d does not reach last vertex %d", maxIndex, len(verts)-1)
	}
}
