package combat

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/ai"
	"github.com/udisondev/tankarena/internal/geom"
	"github.com/udisondev/tankarena/internal/model"
	"github.com/udisondev/tankarena/internal/world"
)

// ControllerLookup resolves the controller driving an entity.
// Satisfied by *ai.TickManager.
type ControllerLookup interface {
	GetController(objectID uint32) (ai.Controller, error)
}

// Config holds projectile ballistics.
type Config struct {
	Speed     float64 // units per second along the muzzle forward
	Damage    int     // health removed per hit
	Lifetime  float64 // seconds before a miss despawns
	HitRadius float64 // overlap distance counted as a hit
}

// DefaultConfig returns ballistics tuned for the default arena.
func DefaultConfig() Config {
	return Config{
		Speed:     400,
		Damage:    25,
		Lifetime:  3,
		HitRadius: 8,
	}
}

// Hit describes one projectile impact, for observers.
type Hit struct {
	ProjectileID uint32
	ShooterID    uint32
	Shooter      string
	TargetID     uint32
	Target       string
	Damage       int
}

type projectile struct {
	entity  *model.Entity
	shooter *model.Entity
	age     float64
}

// System flies projectiles and delivers hits. Spawn and Step run on the
// simulation goroutine.
type System struct {
	world       *world.World
	cfg         Config
	controllers ControllerLookup

	live map[uint32]*projectile

	// hitObserver is notified after each delivered hit (nil allowed).
	hitObserver func(Hit)
}

// NewSystem creates a projectile system adding bullets to w and delivering
// hits to controllers found through lookup.
func NewSystem(w *world.World, cfg Config, lookup ControllerLookup) *System {
	return &System{
		world:       w,
		cfg:         cfg,
		controllers: lookup,
		live:        make(map[uint32]*projectile),
	}
}

// SetHitObserver sets the callback for observing hits.
func (s *System) SetHitObserver(fn func(Hit)) {
	s.hitObserver = fn
}

// Spawn launches a bullet from muzzle, owned by shooter.
func (s *System) Spawn(shooter *model.Entity, muzzle model.Pose) *model.Entity {
	name := fmt.Sprintf("Bullet-%s", shooter.Name())
	e := s.world.Spawn(name, model.TagBullet, muzzle)
	s.live[e.ObjectID()] = &projectile{entity: e, shooter: shooter}

	if ai.IsDebugEnabled() {
		slog.Debug("projectile spawned",
			"objectID", e.ObjectID(),
			"shooter", shooter.Name(),
			"position", muzzle.Position)
	}
	return e
}

// Live returns the number of projectiles in flight.
func (s *System) Live() int {
	return len(s.live)
}

// Step moves every projectile, expires misses and resolves hits, in
// projectile ID order.
func (s *System) Step(dt float64) {
	if len(s.live) == 0 {
		return
	}

	ids := make([]uint32, 0, len(s.live))
	for id := range s.live {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	targets := append(s.world.FindByTag(model.TagTank), s.world.FindByTag(model.TagPlayer)...)
	bounds := s.world.Bounds()

	for _, id := range ids {
		p := s.live[id]
		if p.entity.Removed() {
			delete(s.live, id)
			continue
		}

		p.age += dt
		pose := p.entity.Pose()
		pos := pose.Position.Add(geom.Forward(pose.Rotation).Mul(s.cfg.Speed * dt))
		p.entity.SetPosition(pos)

		if target := s.firstOverlap(p, pos, targets); target != nil {
			s.deliver(p, target)
			s.despawn(id)
			continue
		}

		if p.age >= s.cfg.Lifetime || (bounds != nil && !bounds.Contains(pos)) {
			s.despawn(id)
		}
	}
}

func (s *System) firstOverlap(p *projectile, pos mgl64.Vec3, targets []*model.Entity) *model.Entity {
	for _, t := range targets {
		if t == p.shooter || t.Removed() {
			continue
		}
		if geom.Distance(pos, t.Position()) <= s.cfg.HitRadius {
			return t
		}
	}
	return nil
}

func (s *System) deliver(p *projectile, target *model.Entity) {
	if s.controllers != nil {
		if c, err := s.controllers.GetController(target.ObjectID()); err == nil {
			if r, ok := c.(ai.HitReceiver); ok {
				r.OnHit(s.cfg.Damage)
			}
		}
	}

	hit := Hit{
		ProjectileID: p.entity.ObjectID(),
		ShooterID:    p.shooter.ObjectID(),
		Shooter:      p.shooter.Name(),
		TargetID:     target.ObjectID(),
		Target:       target.Name(),
		Damage:       s.cfg.Damage,
	}

	if ai.IsDebugEnabled() {
		slog.Debug("projectile hit",
			"shooter", hit.Shooter,
			"target", hit.Target,
			"damage", hit.Damage)
	}

	if s.hitObserver != nil {
		s.hitObserver(hit)
	}
}

func (s *System) despawn(id uint32) {
	delete(s.live, id)
	s.world.Remove(id)
}
