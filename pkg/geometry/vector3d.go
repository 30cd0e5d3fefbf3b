// Package geometry holds the small set of 3D vector helpers the flocking
// engine needs on top of mgl64.
//
// mgl64.Vec3 is a plain [3]float64, so it is cheap to copy and compare. We
// keep it as the only vector type of the project; the helpers below add the
// guarded variants (normalising a zero vector, rotating onto a parallel axis)
// that mgl64 leaves to the caller.
package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used by the approximate comparisons.
const (
	Epsilon = 1e-9
)

var (
	// Zero is the null vector.
	Zero = mgl64.Vec3{}
	// Forward is the reference axis of the engine: sample 0 of a direction
	// set points along it and zero velocities are reseeded onto it.
	Forward = mgl64.Vec3{0, 0, 1}
)

// IsZero reports whether v is exactly the null vector.
func IsZero(v mgl64.Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// Normalize returns a unit vector in the same direction.
// Unlike mgl64.Vec3.Normalize it returns the zero vector for a zero input
// instead of a vector of NaNs.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return Zero
	}
	return v.Mul(1 / l)
}

// ClampLength scales v down so that |v| <= maxLen. Shorter vectors are
// returned unchanged.
func ClampLength(v mgl64.Vec3, maxLen float64) mgl64.Vec3 {
	l := v.Len()
	if l <= maxLen || l == 0 {
		return v
	}
	return v.Mul(maxLen / l)
}

// AngleBetween returns the angle in degrees between a and b.
// It returns 0 when either vector is null.
func AngleBetween(a, b mgl64.Vec3) float64 {
	na, nb := Normalize(a), Normalize(b)
	if IsZero(na) || IsZero(nb) {
		return 0
	}
	// acos is undefined outside [-1, 1], rounding can push the dot product out
	cos := mgl64.Clamp(na.Dot(nb), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// Lerp linearly interpolates between a and b: a + (b - a) * t.
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// AlignAxis returns the rotation that takes the unit vector axis onto the
// direction of dir. Parallel inputs give the identity and anti-parallel
// inputs a half turn around any axis perpendicular to axis.
func AlignAxis(axis, dir mgl64.Vec3) mgl64.Quat {
	from, to := Normalize(axis), Normalize(dir)
	if IsZero(from) || IsZero(to) {
		return mgl64.QuatIdent()
	}
	cos := from.Dot(to)
	if cos >= 1-Epsilon {
		return mgl64.QuatIdent()
	}
	if cos <= -1+Epsilon {
		perp := mgl64.Vec3{1, 0, 0}.Cross(from)
		if perp.LenSqr() < Epsilon {
			perp = mgl64.Vec3{0, 1, 0}.Cross(from)
		}
		return mgl64.QuatRotate(math.Pi, Normalize(perp))
	}
	return mgl64.QuatRotate(math.Acos(cos), Normalize(from.Cross(to)))
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func Eq(a, b mgl64.Vec3) bool {
	return math.Abs(a[0]-b[0]) <= Epsilon &&
		math.Abs(a[1]-b[1]) <= Epsilon &&
		math.Abs(a[2]-b[2]) <= Epsilon
}

// Format prints v with two decimals, handy in log lines and test failures.
func Format(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}
