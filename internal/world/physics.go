package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/geom"
	"github.com/udisondev/tankarena/internal/model"
)

const (
	// Gravity is the downward acceleration applied to bodies in motion.
	Gravity = 9.81
	// BodyMass is the mass every rigid body is assumed to have.
	BodyMass = 100.0
	// GroundLevel is the arena floor height.
	GroundLevel = 0.0
)

// ApplyExplosionImpulse pushes e away from origin. The push falls off
// linearly to zero at radius; nothing happens beyond it. upwardBias moves the
// push origin down so the body is thrown upward as well as outward.
func (w *World) ApplyExplosionImpulse(e *model.Entity, origin mgl64.Vec3, strength, radius, upwardBias float64) {
	pos := e.Position()
	dist := geom.Distance(pos, origin)
	if radius <= 0 || dist > radius {
		return
	}

	dir := pos.Sub(origin.Sub(geom.Up.Mul(upwardBias)))
	if dir.Len() == 0 {
		dir = geom.Up
	}
	falloff := 1 - dist/radius
	e.AddVelocity(dir.Normalize().Mul(strength * falloff / BodyMass))
}

// SetVelocity overrides e's velocity and makes it a moving body.
func (w *World) SetVelocity(e *model.Entity, v mgl64.Vec3) {
	e.SetVelocity(v)
}

// Integrate advances every moving body by dt under gravity and keeps it on
// or above the ground.
func (w *World) Integrate(dt float64) {
	w.ForEach(func(e *model.Entity) bool {
		if !e.Dynamic() {
			return true
		}
		v := e.Velocity()
		v[1] -= Gravity * dt
		pos := e.Position().Add(v.Mul(dt))
		if pos.Y() < GroundLevel {
			pos[1] = GroundLevel
			if v.Y() < 0 {
				v[1] = 0
			}
		}
		e.SetPosition(pos)
		e.SetVelocity(v)
		return true
	})
}
