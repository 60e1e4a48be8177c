package model

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Default mount geometry for a tank: the aim pivot sits on top of the hull
// and the muzzle a barrel-length ahead of the pivot.
var (
	DefaultPivotOffset  = mgl64.Vec3{0, 2, 0}
	DefaultMuzzleOffset = mgl64.Vec3{0, 0, 6}
)

// Tank is a combat unit: a hull entity plus an aim pivot (weapon mount)
// that rotates independently of the hull.
type Tank struct {
	*Entity

	pivotOffset  mgl64.Vec3 // hull-local
	muzzleOffset mgl64.Vec3 // pivot-local

	mu  sync.RWMutex
	aim mgl64.Quat // world-space
}

// NewTank creates a tank hull at pose with the aim pivot aligned to the hull.
func NewTank(objectID uint32, name string, pose Pose) *Tank {
	t := &Tank{
		Entity:       NewEntity(objectID, name, TagTank, pose),
		pivotOffset:  DefaultPivotOffset,
		muzzleOffset: DefaultMuzzleOffset,
		aim:          pose.Rotation,
	}
	t.Entity.Data = t
	return t
}

// AimRotation returns the world rotation of the aim pivot.
func (t *Tank) AimRotation() mgl64.Quat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.aim
}

// SetAimRotation rotates the aim pivot.
func (t *Tank) SetAimRotation(q mgl64.Quat) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aim = q
}

// PivotPosition returns the world position of the aim pivot.
func (t *Tank) PivotPosition() mgl64.Vec3 {
	p := t.Pose()
	return p.Position.Add(p.Rotation.Rotate(t.pivotOffset))
}

// MuzzlePose returns the world pose projectiles are spawned at.
func (t *Tank) MuzzlePose() Pose {
	aim := t.AimRotation()
	return Pose{
		Position: t.PivotPosition().Add(aim.Rotate(t.muzzleOffset)),
		Rotation: aim,
	}
}
