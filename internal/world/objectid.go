package world

import (
	"sync/atomic"

	"github.com/udisondev/tankarena/internal/model"
)

// ObjectIDGenerator generates unique object IDs for arena entities.
//
// ID ranges (convention):
//
//	0x00000000 - 0x0FFFFFFF: Reserved (0 = invalid)
//	0x10000000 - 0x1FFFFFFF: Waypoints
//	0x20000000 - 0x2FFFFFFF: Tanks
//	0x30000000 - 0x3FFFFFFF: Players
//	0x40000000 - 0x4FFFFFFF: Bullets
//	0x70000000 - 0x7FFFFFFF: Anything else
type ObjectIDGenerator struct {
	nextWaypointID atomic.Uint32
	nextTankID     atomic.Uint32
	nextPlayerID   atomic.Uint32
	nextBulletID   atomic.Uint32
	nextMiscID     atomic.Uint32
}

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextWaypointID.Store(0x10000000)
	gen.nextTankID.Store(0x20000000)
	gen.nextPlayerID.Store(0x30000000)
	gen.nextBulletID.Store(0x40000000)
	gen.nextMiscID.Store(0x70000000)
	return gen
}

// Next returns the next ID in the range reserved for tag.
// Thread-safe via atomic increment.
func (g *ObjectIDGenerator) Next(tag model.Tag) uint32 {
	switch tag {
	case model.TagWaypoint:
		return g.nextWaypointID.Add(1)
	case model.TagTank:
		return g.nextTankID.Add(1)
	case model.TagPlayer:
		return g.nextPlayerID.Add(1)
	case model.TagBullet:
		return g.nextBulletID.Add(1)
	default:
		return g.nextMiscID.Add(1)
	}
}
