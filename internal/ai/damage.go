package ai

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/geom"
)

// OnHit applies projectile damage. It runs outside the tick, from the
// collision pass, and may override the state chosen by the last tick:
//   - health at or below zero: Dead (takes precedence over everything)
//   - target within engage range: flee toward a fresh waypoint
//
// Hits on a dead tank are ignored.
func (ai *TankAI) OnHit(damage int) {
	if ai.state == StateDead || ai.state == StateNone {
		return
	}

	ai.health -= damage

	if IsDebugEnabled() {
		slog.Debug("tank hit",
			"agent", ai.tank.Name(),
			"objectID", ai.tank.ObjectID(),
			"damage", damage,
			"health", ai.health)
	}

	if ai.health <= 0 {
		ai.transition(StateDead, "destroyed by hit")
		return
	}

	if ai.target == nil || ai.target.Removed() {
		return
	}
	if geom.Distance(ai.tank.Position(), ai.target.Position()) <= engageRange {
		ai.nextWaypoint()
		ai.transition(StateFlee, "hit near target")
	}
}

// explode runs the one-shot destruction sequence: repeated outward
// impulses from a point below and behind the hull, a randomized launch
// velocity, then delayed removal from the world.
func (ai *TankAI) explode() {
	rx := 10 + ai.rng.Float64()*20
	rz := 10 + ai.rng.Float64()*20

	pose := ai.tank.Pose()
	origin := pose.Position.Sub(mgl64.Vec3{rx, 10, rz})
	launch := geom.TransformDirection(pose.Rotation, mgl64.Vec3{rx, 20, rz})

	for range explosionPasses {
		ai.effects.ApplyExplosionImpulse(ai.tank.Entity, origin, explosionStrength, explosionRadius, explosionUpwardBias)
	}
	ai.effects.SetVelocity(ai.tank.Entity, launch)
	ai.effects.Destroy(ai.tank.Entity, destroyDelay)

	slog.Info("tank destroyed",
		"agent", ai.tank.Name(),
		"objectID", ai.tank.ObjectID(),
		"health", ai.health)
}
