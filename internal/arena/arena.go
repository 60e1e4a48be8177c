// Package arena assembles a playable match from configuration: the world,
// one FSM controller per tank, the scripted player, projectiles, and the
// frame phases that tie them together.
package arena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/udisondev/tankarena/internal/ai"
	"github.com/udisondev/tankarena/internal/combat"
	"github.com/udisondev/tankarena/internal/config"
	"github.com/udisondev/tankarena/internal/db"
	"github.com/udisondev/tankarena/internal/geom"
	"github.com/udisondev/tankarena/internal/model"
	"github.com/udisondev/tankarena/internal/snapshot"
	"github.com/udisondev/tankarena/internal/world"
)

// Recorder receives match events. Implemented by *db.Journal; must not block.
type Recorder interface {
	RecordTransition(r db.TransitionRecord)
	RecordDeath(d db.DeathRecord)
}

// Publisher receives snapshots. Implemented by *spectator.Hub.
type Publisher interface {
	Broadcast(s *snapshot.Snapshot) error
}

// Option customizes an Arena.
type Option func(*Arena)

// WithRecorder forwards transitions and deaths to r.
func WithRecorder(r Recorder) Option {
	return func(a *Arena) { a.recorder = r }
}

// WithPublisher broadcasts a snapshot to p every `every` frames.
func WithPublisher(p Publisher, every int) Option {
	return func(a *Arena) {
		a.publisher = p
		a.publishEvery = uint64(max(every, 1))
	}
}

// WithMatchID sets the match id instead of a random one.
func WithMatchID(id uuid.UUID) Option {
	return func(a *Arena) { a.matchID = id }
}

type tankEntry struct {
	tank *model.Tank
	ai   *ai.TankAI
}

// Arena is one match. All simulation runs on the goroutine calling Step or
// Run; Snapshot may be read from anywhere.
type Arena struct {
	cfg     config.Arena
	matchID uuid.UUID
	seed    uint64

	world       *world.World
	manager     *ai.TickManager
	projectiles *combat.System

	tanks     []*tankEntry
	player    *scriptedPlayer
	waypoints []snapshot.Point
	bounds    [][2]float64

	recorder     Recorder
	publisher    Publisher
	publishEvery uint64

	playerHits atomic.Int64
	latest     atomic.Pointer[snapshot.Snapshot]
}

// New validates cfg and builds the match. Every tank is spawned before any
// controller initializes so that each one sees all of its peers.
func New(cfg config.Arena, opts ...Option) (*Arena, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bounds, err := world.NewBounds(cfg.Layout.Bounds)
	if err != nil {
		return nil, fmt.Errorf("building arena bounds: %w", err)
	}

	a := &Arena{
		cfg:          cfg,
		matchID:      uuid.New(),
		seed:         cfg.Seed,
		world:        world.New(bounds),
		manager:      ai.NewTickManager(cfg.TickInterval),
		bounds:       bounds.Corners(),
		publishEvery: 1,
	}
	if a.seed == 0 {
		a.seed = rand.Uint64()
	}
	for _, o := range opts {
		o(a)
	}

	a.projectiles = combat.NewSystem(a.world, combat.Config{
		Speed:     cfg.Projectile.Speed,
		Damage:    cfg.Projectile.Damage,
		Lifetime:  cfg.Projectile.Lifetime,
		HitRadius: cfg.Projectile.HitRadius,
	}, a.manager)
	a.projectiles.SetHitObserver(a.onHit)

	a.world.SetSpawnFunc(func(shooter *model.Tank, muzzle model.Pose) {
		a.projectiles.Spawn(shooter.Entity, muzzle)
	})
	a.world.OnRemove(func(e *model.Entity) {
		if e.Tag() == model.TagTank {
			a.manager.Unregister(e.ObjectID())
		}
	})

	a.populate()
	if err := a.initControllers(); err != nil {
		return nil, err
	}

	a.manager.AddPhase("player", a.stepPlayer)
	a.manager.AddPhase("physics", a.world.Integrate)
	a.manager.AddPhase("projectiles", a.projectiles.Step)
	a.manager.AddPhase("lifecycle", a.world.Reap)
	a.manager.AddPhase("publish", a.publish)

	slog.Info("arena ready",
		"matchID", a.matchID,
		"seed", a.seed,
		"area", bounds.Area(),
		"tanks", len(a.tanks),
		"waypoints", len(a.waypoints),
		"player", a.player != nil)

	return a, nil
}

func (a *Arena) populate() {
	layout := a.cfg.Layout

	for i, wp := range layout.Waypoints {
		a.world.Spawn(fmt.Sprintf("WandarPoint%d", i+1), model.TagWaypoint, model.NewPose(wp.Vec()))
		a.waypoints = append(a.waypoints, snapshot.Point(wp))
	}

	if layout.Player != nil {
		start := layout.Player.Path[0].Vec()
		e := a.world.Spawn(layout.Player.Name, model.TagPlayer, model.NewPose(start))
		a.player = newScriptedPlayer(e, *layout.Player)
	}

	tuning := ai.Tuning{
		MovementSpeed:        a.cfg.AI.MovementSpeed,
		RotationSpeed:        a.cfg.AI.RotationSpeed,
		EvasionRotationSpeed: a.cfg.AI.EvasionRotationSpeed,
		ShotInterval:         a.cfg.AI.ShotInterval,
		StartingHealth:       a.cfg.AI.StartingHealth,
		EvasionTriggerRadius: a.cfg.AI.EvasionTriggerRadius,
	}

	for i, spawn := range layout.Tanks {
		pose := model.Pose{
			Position: spawn.Position.Vec(),
			Rotation: mgl64.QuatRotate(mgl64.DegToRad(spawn.Heading), geom.Up),
		}
		tank := a.world.SpawnTank(spawn.Name, pose)
		rng := rand.New(rand.NewPCG(a.seed, uint64(i+1)))

		tankAI := ai.NewTankAI(tank, tuning, a.world, rng)
		tankAI.SetTransitionFunc(a.onTransition)
		a.tanks = append(a.tanks, &tankEntry{tank: tank, ai: tankAI})
	}
}

func (a *Arena) initControllers() error {
	for _, t := range a.tanks {
		if err := t.ai.Init(a.world); err != nil {
			return fmt.Errorf("building arena: %w", err)
		}
		a.manager.Register(t.tank.ObjectID(), t.ai)
	}
	return nil
}

// Step advances the match by one frame of dt seconds.
func (a *Arena) Step(dt float64) {
	a.manager.Step(dt)
}

// Run steps the match in real time until ctx is canceled or the configured
// duration elapses. Both count as a normal end.
func (a *Arena) Run(ctx context.Context) error {
	if a.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Duration)
		defer cancel()
	}

	err := a.manager.Start(ctx)
	slog.Info("match over",
		"matchID", a.matchID,
		"frames", a.manager.Frames(),
		"alive", a.Alive(),
		"playerHits", a.playerHits.Load())

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Stop ends Run.
func (a *Arena) Stop() {
	a.manager.Stop()
}

func (a *Arena) stepPlayer(dt float64) {
	p := a.player
	if p == nil {
		return
	}
	p.move(dt)

	if p.fireInterval <= 0 {
		return
	}
	p.sinceShot += dt
	if p.sinceShot < p.fireInterval {
		return
	}
	if target := p.aimAt(a.tanks); target != nil {
		a.projectiles.Spawn(p.entity, p.muzzleToward(target))
		p.shots++
		p.sinceShot = 0
	}
}

func (a *Arena) onTransition(tr ai.Transition) {
	if a.recorder == nil {
		return
	}
	frame := a.manager.Frames()
	now := time.Now()

	a.recorder.RecordTransition(db.TransitionRecord{
		MatchID:    a.matchID,
		Frame:      frame,
		ObjectID:   tr.ObjectID,
		Agent:      tr.Agent,
		From:       tr.From.String(),
		To:         tr.To.String(),
		Reason:     tr.Reason,
		Health:     tr.Health,
		X:          tr.Position.X(),
		Y:          tr.Position.Y(),
		Z:          tr.Position.Z(),
		RecordedAt: now,
	})

	if tr.To == ai.StateDead {
		a.recorder.RecordDeath(db.DeathRecord{
			MatchID:  a.matchID,
			ObjectID: tr.ObjectID,
			Agent:    tr.Agent,
			Frame:    frame,
			Health:   tr.Health,
			X:        tr.Position.X(),
			Y:        tr.Position.Y(),
			Z:        tr.Position.Z(),
			DiedAt:   now,
		})
	}
}

func (a *Arena) onHit(h combat.Hit) {
	if a.player != nil && h.TargetID == a.player.entity.ObjectID() {
		a.playerHits.Add(1)
	}
}

func (a *Arena) publish(float64) {
	s := a.buildSnapshot()
	a.latest.Store(s)

	if a.publisher == nil || s.Frame%a.publishEvery != 0 {
		return
	}
	if err := a.publisher.Broadcast(s); err != nil {
		slog.Error("publishing snapshot", "frame", s.Frame, "error", err)
	}
}

func (a *Arena) buildSnapshot() *snapshot.Snapshot {
	s := &snapshot.Snapshot{
		Version:   snapshot.Version,
		MatchID:   a.matchID.String(),
		Frame:     a.manager.Frames(),
		Time:      a.world.Clock(),
		Bounds:    a.bounds,
		Tanks:     make([]snapshot.Tank, 0, len(a.tanks)),
		Bullets:   []snapshot.Entity{},
		Waypoints: a.waypoints,
	}

	for _, t := range a.tanks {
		pose := t.tank.Pose()
		s.Tanks = append(s.Tanks, snapshot.Tank{
			ID:          t.tank.ObjectID(),
			Name:        t.tank.Name(),
			State:       t.ai.CurrentState().String(),
			Health:      t.ai.Health(),
			Position:    snapshot.FromVec(pose.Position),
			Heading:     snapshot.Yaw(pose.Rotation),
			Aim:         snapshot.Yaw(t.tank.AimRotation()),
			Destination: snapshot.FromVec(t.ai.Destination()),
		})
	}

	if a.player != nil {
		s.Player = &snapshot.Entity{
			ID:       a.player.entity.ObjectID(),
			Name:     a.player.entity.Name(),
			Position: snapshot.FromVec(a.player.entity.Position()),
		}
	}

	for _, b := range a.world.FindByTag(model.TagBullet) {
		s.Bullets = append(s.Bullets, snapshot.Entity{
			ID:       b.ObjectID(),
			Name:     b.Name(),
			Position: snapshot.FromVec(b.Position()),
		})
	}
	return s
}

// Snapshot returns the state after the last completed frame, nil before the
// first one.
func (a *Arena) Snapshot() *snapshot.Snapshot {
	return a.latest.Load()
}

// MatchID returns the match id.
func (a *Arena) MatchID() uuid.UUID {
	return a.matchID
}

// Seed returns the seed in use, resolved when the config asked for a random one.
func (a *Arena) Seed() uint64 {
	return a.seed
}

// Frames returns the number of completed frames.
func (a *Arena) Frames() uint64 {
	return a.manager.Frames()
}

// Controllers returns the number of registered tank controllers.
func (a *Arena) Controllers() int {
	return a.manager.Count()
}

// Tank returns the controller of the named tank.
func (a *Arena) Tank(name string) (*ai.TankAI, bool) {
	for _, t := range a.tanks {
		if t.tank.Name() == name {
			return t.ai, true
		}
	}
	return nil, false
}

// Alive returns how many tanks are not Dead.
func (a *Arena) Alive() int {
	n := 0
	for _, t := range a.tanks {
		if t.ai.CurrentState() != ai.StateDead {
			n++
		}
	}
	return n
}

// PlayerHits returns how many projectiles struck the player.
func (a *Arena) PlayerHits() int64 {
	return a.playerHits.Load()
}

// PlayerShots returns how many projectiles the player fired.
func (a *Arena) PlayerShots() int {
	if a.player == nil {
		return 0
	}
	return a.player.shots
}

// World returns the entity registry.
func (a *Arena) World() *world.World {
	return a.world
}
