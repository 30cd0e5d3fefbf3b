package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is an orthographic view of the flock orbiting around Target.
// Yaw turns around the world Y axis, Pitch tilts the view, both in radians.
type Camera struct {
	Target           mgl64.Vec3
	Yaw, Pitch       float64
	Scale            float64 // pixels per world unit
	CenterX, CenterY float64
}

const maxPitch = math.Pi/2 - 0.01

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(c.Yaw))
}

// Project maps a world point to screen coordinates. Depth grows away from
// the viewer.
func (c *Camera) Project(p mgl64.Vec3) (x, y, depth float64) {
	q := c.rotation().Mul3x1(p.Sub(c.Target))
	return c.CenterX + q[0]*c.Scale, c.CenterY - q[1]*c.Scale, -q[2]
}

// Unproject is the inverse of Project: it returns the world point drawn at
// (x, y) at the given depth.
func (c *Camera) Unproject(x, y, depth float64) mgl64.Vec3 {
	q := mgl64.Vec3{(x - c.CenterX) / c.Scale, -(y - c.CenterY) / c.Scale, -depth}
	// the rotation is orthonormal, its transpose undoes it
	return c.rotation().Transpose().Mul3x1(q).Add(c.Target)
}

// Orbit turns the camera by the given angles, keeping the pitch short of
// the poles.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = max(-maxPitch, min(maxPitch, c.Pitch+dPitch))
}

// Zoom multiplies the scale by factor, within sane limits.
func (c *Camera) Zoom(factor float64) {
	c.Scale = max(0.5, min(200, c.Scale*factor))
}
