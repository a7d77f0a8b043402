package rg

import (
	"math"

	"github.com/felipeagc/rgrender/engine/rmath"
)

// Camera is a first-person fly camera producing the view/projection pair
// uploaded as a per-frame uniform, per SPEC_FULL.md §3.1. Position/yaw/
// pitch update from caller-supplied input deltas rather than polling a
// window directly, since this package has no platform dependency.
//
// Grounded on original_source/renderer/camera.c's EgFPSCamera: same
// default yaw (180 degrees, facing -Z), pitch clamp (+-89 degrees),
// sensitivity/speed defaults, and the reverse-Z infinite-far perspective
// projection with its Y-flip correction matrix for Vulkan's clip space.
type Camera struct {
	Position rmath.Vec3
	Yaw      float32
	Pitch    float32
	Fov      float32 // radians
	Near     float32
	Speed    float32

	Sensitivity float32
}

// NewCamera returns a Camera with the original's defaults.
func NewCamera() *Camera {
	return &Camera{
		Yaw:         degToRad(180),
		Fov:         degToRad(75),
		Near:        0.1,
		Speed:       1.0,
		Sensitivity: 0.14,
	}
}

// MoveInput is the set of held movement keys for one Update call.
type MoveInput struct {
	Forward, Backward, Left, Right bool
}

// Update applies a mouse delta (already scaled to pixels) and held
// movement keys, advancing position by speed*deltaTime along the
// camera's forward/right axes.
func (c *Camera) Update(deltaTime float32, mouseDeltaX, mouseDeltaY float32, move MoveInput) {
	c.Yaw -= degToRad(mouseDeltaX * c.Sensitivity)
	c.Pitch -= degToRad(mouseDeltaY * c.Sensitivity)
	c.Pitch = rmath.Clamp(c.Pitch, degToRad(-89), degToRad(89))

	front := c.frontVector()
	right := front.Cross(rmath.Vec3{X: 0, Y: 1, Z: 0}).Normalize()

	delta := c.Speed * deltaTime
	forwardStep := front.MulScalar(delta)
	rightStep := right.MulScalar(delta)

	if move.Forward {
		c.Position = c.Position.Add(forwardStep)
	}
	if move.Backward {
		c.Position = c.Position.Sub(forwardStep)
	}
	if move.Left {
		c.Position = c.Position.Sub(rightStep)
	}
	if move.Right {
		c.Position = c.Position.Add(rightStep)
	}
}

func (c *Camera) frontVector() rmath.Vec3 {
	return rmath.Vec3{
		X: float32(math.Sin(float64(c.Yaw))) * float32(math.Cos(float64(c.Pitch))),
		Y: float32(math.Sin(float64(c.Pitch))),
		Z: float32(math.Cos(float64(c.Yaw))) * float32(math.Cos(float64(c.Pitch))),
	}.Normalize()
}

// ViewMatrix returns the camera's look-at matrix.
func (c *Camera) ViewMatrix() rmath.Mat4 {
	front := c.frontVector()
	right := front.Cross(rmath.Vec3{X: 0, Y: 1, Z: 0}).Normalize()
	up := right.Cross(front)
	return rmath.NewMat4LookAt(c.Position, c.Position.Add(front), up)
}

// ProjectionMatrix returns an infinite-far, reverse-Z perspective
// projection for the given aspect ratio, with the Y-flip correction
// Vulkan's clip space needs relative to the original's OpenGL-style
// convention.
func (c *Camera) ProjectionMatrix(aspectRatio float32) rmath.Mat4 {
	proj := perspectiveReverseZInfiniteFar(c.Fov, aspectRatio, c.Near)
	correction := rmath.NewMat4Identity()
	correction.Data[5] = -1.0
	return correction.Mul(proj)
}

// perspectiveReverseZInfiniteFar builds a right-handed infinite-far
// projection mapping near -> depth 1, infinity -> depth 0, matching this
// module's reverse-Z convention (depth clears to 0.0, compare op
// GREATER).
func perspectiveReverseZInfiniteFar(fovRadians, aspectRatio, near float32) rmath.Mat4 {
	f := float32(1.0 / math.Tan(float64(fovRadians)/2.0))
	m := rmath.Mat4{}
	m.Data[0] = f / aspectRatio
	m.Data[5] = f
	m.Data[10] = 0
	m.Data[11] = -1
	m.Data[14] = near
	return m
}

func degToRad(deg float32) float32 {
	return deg * rmath.K_DEG2RAD_MULTIPLIER
}

// Uniform is the per-frame camera uniform uploaded to the global buffer,
// matching the original's EgCameraUniform layout (position padded to
// vec4, then view, then projection).
type Uniform struct {
	Position rmath.Vec4
	View     rmath.Mat4
	Proj     rmath.Mat4
}

// ToUniform assembles this frame's Uniform for the given aspect ratio.
func (c *Camera) ToUniform(aspectRatio float32) Uniform {
	return Uniform{
		Position: rmath.Vec4{X: c.Position.X, Y: c.Position.Y, Z: c.Position.Z, W: 1.0},
		View:     c.ViewMatrix(),
		Proj:     c.ProjectionMatrix(aspectRatio),
	}
}
