package ai

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/geom"
	"github.com/udisondev/tankarena/internal/model"
)

// TankAI drives one tank through Patrol, Chase, Attack, Flee, Evade and Dead.
//
// Entry points are Init (once), Tick (once per simulation frame) and OnHit
// (from the projectile collision pass). All three run on the simulation
// goroutine and never overlap for one tank, so decision state is unlocked.
type TankAI struct {
	tank    *model.Tank
	tuning  Tuning
	effects Effects
	rng     *rand.Rand

	onTransition TransitionFunc

	isRunning atomic.Bool

	// Resolved at Init; peers are a snapshot and never re-queried.
	target    *model.Entity
	peers     []*model.Entity
	waypoints *WaypointSelector

	state       State
	health      int
	destination mgl64.Vec3
	shotTimer   float64 // seconds since last shot
	destroyed   bool    // destruction sequence already ran
}

// NewTankAI creates an FSM for tank. rng drives waypoint selection and the
// destruction effect; pass a seeded source for reproducible runs.
func NewTankAI(tank *model.Tank, tuning Tuning, effects Effects, rng *rand.Rand) *TankAI {
	return &TankAI{
		tank:    tank,
		tuning:  tuning,
		effects: effects,
		rng:     rng,
		state:   StateNone,
		health:  tuning.StartingHealth,
	}
}

// SetTransitionFunc installs the state change observer.
func (ai *TankAI) SetTransitionFunc(fn TransitionFunc) {
	ai.onTransition = fn
}

// Init resolves waypoints, peers and the target, picks the first destination
// and enters Patrol. An empty waypoint set is a configuration error; a missing
// target is tolerated and leaves the tank patrolling.
func (ai *TankAI) Init(spatial Spatial) error {
	selector, err := NewWaypointSelector(spatial.FindByTag(model.TagWaypoint), ai.rng)
	if err != nil {
		return fmt.Errorf("initializing %s: %w", ai.tank.Name(), err)
	}
	ai.waypoints = selector
	ai.peers = spatial.FindByTag(model.TagTank)

	if players := spatial.FindByTag(model.TagPlayer); len(players) > 0 {
		ai.target = players[0]
	} else {
		slog.Warn("target not found, tank will only patrol",
			"agent", ai.tank.Name(),
			"tag", model.TagPlayer)
	}

	ai.nextWaypoint()
	ai.transition(StatePatrol, "init")
	return nil
}

// Start starts the controller. Ticks before Start are ignored.
func (ai *TankAI) Start() {
	ai.isRunning.Store(true)
	if IsDebugEnabled() {
		slog.Debug("tank AI started",
			"agent", ai.tank.Name(),
			"objectID", ai.tank.ObjectID(),
			"state", ai.state)
	}
}

// Stop stops the controller.
func (ai *TankAI) Stop() {
	ai.isRunning.Store(false)
	if IsDebugEnabled() {
		slog.Debug("tank AI stopped",
			"agent", ai.tank.Name(),
			"objectID", ai.tank.ObjectID())
	}
}

// Tick runs the current state's behavior, advances the weapon timer and
// applies the health override: a tank with no health left is Dead whatever
// its behavior decided this tick.
func (ai *TankAI) Tick(dt float64) {
	if !ai.isRunning.Load() || ai.state == StateNone {
		return
	}

	s := ai.sense(dt)
	behaviors[ai.state].run(ai, s)

	ai.shotTimer += dt

	if ai.health <= 0 {
		ai.transition(StateDead, "health depleted")
	}
}

// CurrentState returns the active state.
func (ai *TankAI) CurrentState() State {
	return ai.state
}

// SetState forces a state from outside the FSM. Dead cannot be left and can
// only be entered through health loss, so both requests are ignored.
func (ai *TankAI) SetState(s State) {
	if ai.state.Terminal() || s == StateDead || s == StateNone {
		return
	}
	ai.transition(s, "forced")
}

// Tank returns the controlled tank.
func (ai *TankAI) Tank() *model.Tank {
	return ai.tank
}

// Health returns remaining health. It may be negative after overkill.
func (ai *TankAI) Health() int {
	return ai.health
}

// Destination returns the current movement/aim target point.
func (ai *TankAI) Destination() mgl64.Vec3 {
	return ai.destination
}

// ShotTimer returns seconds accumulated since the last shot.
func (ai *TankAI) ShotTimer() float64 {
	return ai.shotTimer
}

// Destroyed reports whether the destruction sequence has run.
func (ai *TankAI) Destroyed() bool {
	return ai.destroyed
}

// sense samples the world once per tick.
type sense struct {
	dt        float64
	self      mgl64.Vec3
	target    mgl64.Vec3
	hasTarget bool
	// dist is the distance to the target, +Inf without one so every
	// target-relative guard reads "far away".
	dist float64
}

func (ai *TankAI) sense(dt float64) *sense {
	s := &sense{
		dt:   dt,
		self: ai.tank.Position(),
		dist: math.Inf(1),
	}
	if ai.target != nil && !ai.target.Removed() {
		s.target = ai.target.Position()
		s.hasTarget = true
		s.dist = geom.Distance(s.self, s.target)
	}
	return s
}

func (ai *TankAI) transition(to State, reason string) {
	from := ai.state
	if from == to {
		return
	}
	ai.state = to

	if IsDebugEnabled() {
		slog.Debug("tank state changed",
			"agent", ai.tank.Name(),
			"objectID", ai.tank.ObjectID(),
			"from", from,
			"to", to,
			"reason", reason,
			"health", ai.health)
	}

	if ai.onTransition != nil {
		ai.onTransition(Transition{
			ObjectID: ai.tank.ObjectID(),
			Agent:    ai.tank.Name(),
			From:     from,
			To:       to,
			Reason:   reason,
			Health:   ai.health,
			Position: ai.tank.Position(),
		})
	}
}

func (ai *TankAI) nextWaypoint() {
	ai.destination = ai.waypoints.Next(ai.tank.Position())
}

// threatened reports whether any peer is close enough to evade.
func (ai *TankAI) threatened() (*model.Entity, bool) {
	for _, p := range ai.peers {
		if ShouldEvade(ai.tank.Entity, p) {
			return p, true
		}
	}
	return nil, false
}

// steer turns the hull toward the destination by a slerp step of dt*speed.
func (ai *TankAI) steer(dt, speed float64) {
	pose := ai.tank.Pose()
	want := geom.LookRotation(pose.Position, ai.destination)
	ai.tank.SetRotation(geom.RotateToward(pose.Rotation, want, dt*speed))
}

// advance drives the hull along its own forward axis.
func (ai *TankAI) advance(dt float64) {
	pose := ai.tank.Pose()
	step := geom.Forward(pose.Rotation).Mul(dt * ai.tuning.MovementSpeed)
	ai.tank.SetPosition(pose.Position.Add(step))
}

// aim turns the weapon mount toward the destination, independent of the hull.
func (ai *TankAI) aim(dt float64) {
	want := geom.LookRotation(ai.tank.PivotPosition(), ai.destination)
	ai.tank.SetAimRotation(geom.RotateToward(ai.tank.AimRotation(), want, dt*ai.tuning.RotationSpeed))
}

// fire spawns one projectile when the shot interval has elapsed.
func (ai *TankAI) fire() {
	if ai.shotTimer < ai.tuning.ShotInterval {
		return
	}
	ai.effects.SpawnProjectile(ai.tank, ai.tank.MuzzlePose())
	ai.shotTimer = 0

	if IsDebugEnabled() {
		slog.Debug("tank fired",
			"agent", ai.tank.Name(),
			"objectID", ai.tank.ObjectID())
	}
}
