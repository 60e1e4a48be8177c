package model

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestNewEntity(t *testing.T) {
	pose := NewPose(mgl64.Vec3{1, 2, 3})
	e := NewEntity(42, "Tank1", TagTank, pose)

	assert.Equal(t, uint32(42), e.ObjectID())
	assert.Equal(t, "Tank1", e.Name())
	assert.Equal(t, TagTank, e.Tag())
	assert.Equal(t, pose, e.Pose())
	assert.False(t, e.Dynamic())
}

func TestEntity_Forward(t *testing.T) {
	e := NewEntity(1, "e", TagPlayer, NewPose(mgl64.Vec3{}))
	assert.InDelta(t, 1.0, e.Forward().Z(), 1e-9)

	e.SetRotation(mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 1, 0}))
	assert.InDelta(t, 1.0, e.Forward().X(), 1e-9)
	assert.InDelta(t, 0.0, e.Forward().Z(), 1e-9)
}

func TestEntity_Velocity(t *testing.T) {
	e := NewEntity(1, "e", TagTank, NewPose(mgl64.Vec3{}))

	e.AddVelocity(mgl64.Vec3{1, 0, 0})
	e.AddVelocity(mgl64.Vec3{0, 2, 0})
	assert.Equal(t, mgl64.Vec3{1, 2, 0}, e.Velocity())
	assert.True(t, e.Dynamic())

	e.SetVelocity(mgl64.Vec3{0, 0, 5})
	assert.Equal(t, mgl64.Vec3{0, 0, 5}, e.Velocity())
}

func TestEntity_ConcurrentAccess(t *testing.T) {
	e := NewEntity(1, "e", TagTank, NewPose(mgl64.Vec3{}))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.SetPosition(mgl64.Vec3{float64(i), 0, 0})
		}()
		go func() {
			defer wg.Done()
			_ = e.Pose()
		}()
	}
	wg.Wait()
}

func TestTank_MuzzlePose(t *testing.T) {
	tank := NewTank(7, "Tank7", NewPose(mgl64.Vec3{10, 0, 10}))
	assert.Same(t, tank, tank.Entity.Data)

	muzzle := tank.MuzzlePose()
	assert.InDelta(t, 10.0, muzzle.Position.X(), 1e-9)
	assert.InDelta(t, 2.0, muzzle.Position.Y(), 1e-9)
	assert.InDelta(t, 16.0, muzzle.Position.Z(), 1e-9)

	// Turning the pivot swings the muzzle but leaves the hull alone.
	tank.SetAimRotation(mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 1, 0}))
	muzzle = tank.MuzzlePose()
	assert.InDelta(t, 16.0, muzzle.Position.X(), 1e-9)
	assert.InDelta(t, 10.0, muzzle.Position.Z(), 1e-9)
	assert.InDelta(t, 1.0, tank.Forward().Z(), 1e-9)
}
