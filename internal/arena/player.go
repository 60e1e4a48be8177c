package arena

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/ai"
	"github.com/udisondev/tankarena/internal/config"
	"github.com/udisondev/tankarena/internal/geom"
	"github.com/udisondev/tankarena/internal/model"
)

// muzzleHeight is how far above its feet the player fires from.
const muzzleHeight = 2.0

// scriptedPlayer is the target the tanks hunt. It loops through a fixed path
// and shoots at the nearest living tank in range.
type scriptedPlayer struct {
	entity *model.Entity
	path   []mgl64.Vec3
	next   int
	speed  float64

	fireInterval float64
	fireRange    float64
	sinceShot    float64
	shots        int
}

func newScriptedPlayer(e *model.Entity, cfg config.Player) *scriptedPlayer {
	path := make([]mgl64.Vec3, len(cfg.Path))
	for i, p := range cfg.Path {
		path[i] = p.Vec()
	}
	return &scriptedPlayer{
		entity:       e,
		path:         path,
		next:         1 % len(path),
		speed:        cfg.Speed,
		fireInterval: cfg.FireInterval,
		fireRange:    cfg.FireRange,
	}
}

// move advances along the loop by speed*dt, carrying leftover distance past
// each corner.
func (p *scriptedPlayer) move(dt float64) {
	budget := p.speed * dt
	pos := p.entity.Position()

	for budget > 0 && len(p.path) > 1 {
		goal := p.path[p.next]
		d := geom.Distance(pos, goal)
		if d > budget {
			pos = pos.Add(goal.Sub(pos).Mul(budget / d))
			break
		}
		pos = goal
		budget -= d
		p.next = (p.next + 1) % len(p.path)
	}

	rot := p.entity.Rotation()
	if goal := p.path[p.next]; geom.Distance(pos, goal) > 0 {
		rot = geom.LookRotation(pos, goal)
	}
	p.entity.SetPose(model.Pose{Position: pos, Rotation: rot})
}

// aimAt picks the nearest tank still fighting within range, ties broken by
// object id.
func (p *scriptedPlayer) aimAt(tanks []*tankEntry) *model.Tank {
	var (
		best     *model.Tank
		bestDist = p.fireRange
	)
	pos := p.entity.Position()
	for _, t := range tanks {
		if t.ai.CurrentState() == ai.StateDead || t.tank.Removed() {
			continue
		}
		if d := geom.Distance(pos, t.tank.Position()); d <= bestDist && (best == nil || d < bestDist) {
			best, bestDist = t.tank, d
		}
	}
	return best
}

// muzzleToward returns a firing pose from the player at target.
func (p *scriptedPlayer) muzzleToward(target *model.Tank) model.Pose {
	from := p.entity.Position().Add(geom.Up.Mul(muzzleHeight))
	return model.Pose{Position: from, Rotation: geom.LookRotation(from, target.Position())}
}
