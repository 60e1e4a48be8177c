package model

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// Tag is the category used to discover entities in the world.
type Tag string

const (
	TagWaypoint Tag = "WandarPoint"
	TagTank     Tag = "Tank"
	TagPlayer   Tag = "Player"
	TagBullet   Tag = "Bullet"
)

// Pose is a world-space position and orientation.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewPose returns a pose at pos with identity rotation.
func NewPose(pos mgl64.Vec3) Pose {
	return Pose{Position: pos, Rotation: mgl64.QuatIdent()}
}

// Entity is the base of every object placed in the arena.
// Pose and velocity are guarded so snapshot readers (spectator, viewer) can
// read while the simulation goroutine writes.
type Entity struct {
	objectID uint32
	name     string
	tag      Tag

	// Data points back to the owning typed object (e.g. *Tank).
	Data any

	removed atomic.Bool

	mu       sync.RWMutex
	pose     Pose
	velocity mgl64.Vec3
	dynamic  bool
}

// NewEntity creates an entity with the given identity and pose.
func NewEntity(objectID uint32, name string, tag Tag, pose Pose) *Entity {
	return &Entity{
		objectID: objectID,
		name:     name,
		tag:      tag,
		pose:     pose,
	}
}

// ObjectID returns the immutable object id.
func (e *Entity) ObjectID() uint32 {
	return e.objectID
}

// Name returns the entity name. Names are unique per arena and serve as the
// identity key for peer comparisons.
func (e *Entity) Name() string {
	return e.name
}

// Tag returns the discovery tag.
func (e *Entity) Tag() Tag {
	return e.tag
}

// Pose returns a copy of the current pose.
func (e *Entity) Pose() Pose {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pose
}

// SetPose replaces the pose.
func (e *Entity) SetPose(p Pose) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pose = p
}

// Position returns the world position (hot path shortcut).
func (e *Entity) Position() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pose.Position
}

// SetPosition moves the entity without touching its rotation.
func (e *Entity) SetPosition(p mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pose.Position = p
}

// Rotation returns the world rotation.
func (e *Entity) Rotation() mgl64.Quat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pose.Rotation
}

// SetRotation rotates the entity in place.
func (e *Entity) SetRotation(q mgl64.Quat) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pose.Rotation = q
}

// Forward returns the world-space forward direction (+Z local).
func (e *Entity) Forward() mgl64.Vec3 {
	return e.Rotation().Rotate(mgl64.Vec3{0, 0, 1})
}

// Velocity returns the rigid-body velocity.
func (e *Entity) Velocity() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.velocity
}

// SetVelocity sets the rigid-body velocity and hands the entity over to
// physics integration.
func (e *Entity) SetVelocity(v mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.velocity = v
	e.dynamic = true
}

// AddVelocity accumulates an impulse already divided by mass.
func (e *Entity) AddVelocity(dv mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.velocity = e.velocity.Add(dv)
	e.dynamic = true
}

// Dynamic reports whether physics integrates this entity.
func (e *Entity) Dynamic() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dynamic
}

// MarkRemoved flags the entity as gone from the world. References held
// elsewhere (peer snapshots) must treat it as absent from then on.
func (e *Entity) MarkRemoved() {
	e.removed.Store(true)
}

// Removed reports whether the entity has left the world.
func (e *Entity) Removed() bool {
	return e.removed.Load()
}
