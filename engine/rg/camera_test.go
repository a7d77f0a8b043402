package rg

import (
	"math"
	"testing"

	"github.com/felipeagc/rgrender/engine/rmath"
)

func TestCameraPitchClampedToEightyNineDegrees(t *testing.T) {
	c := NewCamera()
	c.Update(1.0, 0, 100000, MoveInput{})
	if c.Pitch > degToRad(89)+1e-4 {
		t.Fatalf("pitch = %v, want <= 89 degrees", c.Pitch)
	}

	c2 := NewCamera()
	c2.Update(1.0, 0, -100000, MoveInput{})
	if c2.Pitch < degToRad(-89)-1e-4 {
		t.Fatalf("pitch = %v, want >= -89 degrees", c2.Pitch)
	}
}

func TestCameraViewMatrixLooksDownFront(t *testing.T) {
	c := NewCamera()
	c.Yaw = 0
	c.Pitch = 0
	c.Position = rmath.Vec3{X: 0, Y: 0, Z: 0}

	view := c.ViewMatrix()
	want := rmath.NewMat4LookAt(rmath.Vec3{X: 0, Y: 0, Z: 0}, rmath.Vec3{X: 0, Y: 0, Z: 1}, rmath.Vec3{X: 0, Y: 1, Z: 0})

	for i := range view.Data {
		if math.Abs(float64(view.Data[i]-want.Data[i])) > 1e-4 {
			t.Fatalf("view matrix mismatch at index %d: got %v want %v", i, view.Data[i], want.Data[i])
		}
	}
}

func TestCameraProjectionMapsNearToOneAndIsYFlipped(t *testing.T) {
	c := NewCamera()
	proj := c.ProjectionMatrix(16.0 / 9.0)

	if proj.Data[5] >= 0 {
		t.Fatalf("expected Y-flip correction to negate row 1, got %v", proj.Data[5])
	}

	// Reverse-Z: for a point at view-space depth z, clip.z/clip.w = m[10] + m[14]/z = near/z.
	// At z=near that's 1.0; further away it falls toward 0, the opposite of a
	// conventional (non-reverse) projection.
	near := float64(c.Near)
	depthAtNear := float64(proj.Data[10]) + float64(proj.Data[14])/near
	depthFar := float64(proj.Data[10]) + float64(proj.Data[14])/(near*1000)
	if math.Abs(depthAtNear-1.0) > 1e-4 {
		t.Fatalf("expected depth at near plane = 1.0 (reverse-Z), got %v", depthAtNear)
	}
	if depthFar >= depthAtNear {
		t.Fatalf("expected depth to decrease with distance under reverse-Z, got near=%v far=%v", depthAtNear, depthFar)
	}
}

func TestCameraMovementAdvancesAlongFront(t *testing.T) {
	c := NewCamera()
	c.Yaw = 0
	c.Pitch = 0
	start := c.Position
	c.Update(1.0, 0, 0, MoveInput{Forward: true})
	if c.Position == start {
		t.Fatal("expected position to change after forward movement")
	}
}
