// Package geom holds the pose math shared by the agent core, the world and
// projectiles. Conventions: +Y is up, +Z is the local forward axis, the arena
// floor is the X/Z plane.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// Up is the world up axis.
	Up = mgl64.Vec3{0, 1, 0}
	// ForwardAxis is the local forward axis of every entity.
	ForwardAxis = mgl64.Vec3{0, 0, 1}
)

// epsilon below which a vector is treated as zero length.
const epsilon = 1e-9

// Distance returns the euclidean distance between two points.
func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// Forward returns the world-space forward direction of rotation q.
func Forward(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(ForwardAxis)
}

// TransformDirection rotates a local direction into world space.
func TransformDirection(q mgl64.Quat, local mgl64.Vec3) mgl64.Vec3 {
	return q.Rotate(local)
}

// LookRotation returns the rotation whose forward points from `from` to `to`
// with no roll. When the points coincide the identity rotation is returned.
func LookRotation(from, to mgl64.Vec3) mgl64.Quat {
	d := to.Sub(from)
	if d.Len() < epsilon {
		return mgl64.QuatIdent()
	}

	horizontal := math.Hypot(d.X(), d.Z())
	yaw := math.Atan2(d.X(), d.Z())
	pitch := -math.Atan2(d.Y(), horizontal)

	return mgl64.QuatRotate(yaw, Up).Mul(mgl64.QuatRotate(pitch, mgl64.Vec3{1, 0, 0})).Normalize()
}

// RotateToward spherically interpolates from cur toward target along the
// shortest arc. t is clamped to [0, 1].
func RotateToward(cur, target mgl64.Quat, t float64) mgl64.Quat {
	t = mgl64.Clamp(t, 0, 1)
	if cur.Dot(target) < 0 {
		target = target.Scale(-1)
	}
	return mgl64.QuatSlerp(cur, target, t).Normalize()
}

// AngleDeg returns the unsigned angle in degrees between two vectors.
// Zero-length inputs yield 0.
func AngleDeg(a, b mgl64.Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la < epsilon || lb < epsilon {
		return 0
	}
	cos := mgl64.Clamp(a.Dot(b)/(la*lb), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// WithinBox reports whether p lies inside the axis-aligned horizontal square of
// half-size `half` centred on c. Height is ignored.
func WithinBox(c, p mgl64.Vec3, half float64) bool {
	return math.Abs(p.X()-c.X()) <= half && math.Abs(p.Z()-c.Z()) <= half
}

// Centroid averages a set of points. ok is false for an empty set.
func Centroid(points []mgl64.Vec3) (c mgl64.Vec3, ok bool) {
	if len(points) == 0 {
		return mgl64.Vec3{}, false
	}
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(points))), true
}
