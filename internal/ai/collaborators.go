package ai

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/model"
)

// Spatial resolves entities by tag. Queried once, at Init.
type Spatial interface {
	FindByTag(tag model.Tag) []*model.Entity
}

// Effects receives the fire-and-forget requests a tank issues to the world
// it lives in: projectiles, physics reactions and delayed removal.
type Effects interface {
	SpawnProjectile(shooter *model.Tank, muzzle model.Pose)
	ApplyExplosionImpulse(e *model.Entity, origin mgl64.Vec3, strength, radius, upwardBias float64)
	SetVelocity(e *model.Entity, v mgl64.Vec3)
	Destroy(e *model.Entity, delaySeconds float64)
}

// Transition describes one state change of a tank.
type Transition struct {
	ObjectID uint32
	Agent    string
	From     State
	To       State
	Reason   string
	Health   int
	Position mgl64.Vec3
}

// TransitionFunc observes state changes. Called synchronously from the tick
// or the hit callback; must not block.
type TransitionFunc func(Transition)
