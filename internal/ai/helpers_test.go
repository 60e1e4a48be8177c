package ai

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tankarena/internal/model"
)

// fakeSpatial serves a fixed tag → entities table.
type fakeSpatial map[model.Tag][]*model.Entity

func (f fakeSpatial) FindByTag(tag model.Tag) []*model.Entity {
	return f[tag]
}

type impulseCall struct {
	origin                     mgl64.Vec3
	strength, radius, upwardBy float64
}

// recordingEffects captures every request a tank makes to the world.
type recordingEffects struct {
	shots      []model.Pose
	impulses   []impulseCall
	velocities []mgl64.Vec3
	destroyed  []float64
}

func (r *recordingEffects) SpawnProjectile(_ *model.Tank, muzzle model.Pose) {
	r.shots = append(r.shots, muzzle)
}

func (r *recordingEffects) ApplyExplosionImpulse(_ *model.Entity, origin mgl64.Vec3, strength, radius, upwardBias float64) {
	r.impulses = append(r.impulses, impulseCall{origin, strength, radius, upwardBias})
}

func (r *recordingEffects) SetVelocity(_ *model.Entity, v mgl64.Vec3) {
	r.velocities = append(r.velocities, v)
}

func (r *recordingEffects) Destroy(_ *model.Entity, delay float64) {
	r.destroyed = append(r.destroyed, delay)
}

// farWaypoint is far enough from every test scene that the anti-repeat
// jitter never kicks in, so a freshly picked destination equals it exactly.
var farWaypoint = mgl64.Vec3{5000, 0, 5000}

type scene struct {
	ai      *TankAI
	tank    *model.Tank
	target  *model.Entity
	effects *recordingEffects
	spatial fakeSpatial
	changes []Transition
}

type sceneOption func(*sceneConfig)

type sceneConfig struct {
	tuning    Tuning
	self      mgl64.Vec3
	target    *mgl64.Vec3
	peers     []mgl64.Vec3
	waypoints []mgl64.Vec3
	seed      uint64
}

func withHealth(h int) sceneOption {
	return func(c *sceneConfig) { c.tuning.StartingHealth = h }
}

func withPosition(p mgl64.Vec3) sceneOption {
	return func(c *sceneConfig) { c.self = p }
}

func withTarget(p mgl64.Vec3) sceneOption {
	return func(c *sceneConfig) { c.target = &p }
}

func withoutTarget() sceneOption {
	return func(c *sceneConfig) { c.target = nil }
}

func withPeers(ps ...mgl64.Vec3) sceneOption {
	return func(c *sceneConfig) { c.peers = ps }
}

func withWaypoints(ps ...mgl64.Vec3) sceneOption {
	return func(c *sceneConfig) { c.waypoints = ps }
}

// newScene builds an initialized, started tank facing +Z, at the origin
// unless withPosition says otherwise.
// Defaults: health 100, target at (1000, 0, 0), no peers, one far waypoint.
func newScene(t testing.TB, opts ...sceneOption) *scene {
	t.Helper()

	defaultTarget := mgl64.Vec3{1000, 0, 0}
	cfg := sceneConfig{
		tuning:    DefaultTuning(),
		target:    &defaultTarget,
		waypoints: []mgl64.Vec3{farWaypoint},
		seed:      1,
	}
	for _, o := range opts {
		o(&cfg)
	}

	tank := model.NewTank(1, "Tank1", model.NewPose(cfg.self))
	sp := fakeSpatial{model.TagTank: {tank.Entity}}

	for i, p := range cfg.waypoints {
		sp[model.TagWaypoint] = append(sp[model.TagWaypoint],
			model.NewEntity(uint32(100+i), fmt.Sprintf("WP%d", i), model.TagWaypoint, model.NewPose(p)))
	}
	for i, p := range cfg.peers {
		peer := model.NewTank(uint32(10+i), fmt.Sprintf("Tank%d", 10+i), model.NewPose(p))
		sp[model.TagTank] = append(sp[model.TagTank], peer.Entity)
	}

	var target *model.Entity
	if cfg.target != nil {
		target = model.NewEntity(2, "Player", model.TagPlayer, model.NewPose(*cfg.target))
		sp[model.TagPlayer] = []*model.Entity{target}
	}

	fx := &recordingEffects{}
	sc := &scene{
		ai:      NewTankAI(tank, cfg.tuning, fx, rand.New(rand.NewPCG(cfg.seed, cfg.seed))),
		tank:    tank,
		target:  target,
		effects: fx,
		spatial: sp,
	}
	sc.ai.SetTransitionFunc(func(tr Transition) { sc.changes = append(sc.changes, tr) })

	require.NoError(t, sc.ai.Init(sp))
	sc.ai.Start()
	return sc
}

// peer returns the i-th peer entity added with withPeers.
func (s *scene) peer(i int) *model.Entity {
	return s.spatial[model.TagTank][1+i]
}
