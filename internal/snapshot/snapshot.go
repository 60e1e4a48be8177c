// Package snapshot holds the read-only view of the arena published once per
// frame for the spectator feed and the terminal viewer.
package snapshot

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/invopop/jsonschema"

	"github.com/udisondev/tankarena/internal/geom"
)

// Version is bumped whenever the snapshot layout changes incompatibly.
const Version = 1

// Point is an [x, y, z] position; y is up.
type Point [3]float64

// FromVec converts a math vector.
func FromVec(v mgl64.Vec3) Point {
	return Point(v)
}

// Tank is one AI tank.
type Tank struct {
	ID          uint32  `json:"id" jsonschema:"required,description=Object id"`
	Name        string  `json:"name" jsonschema:"required"`
	State       string  `json:"state" jsonschema:"required,enum=NONE,enum=PATROL,enum=CHASE,enum=ATTACK,enum=DEAD,enum=EVADE,enum=FLEE"`
	Health      int     `json:"health" jsonschema:"required,description=Remaining health; negative after overkill"`
	Position    Point   `json:"position" jsonschema:"required"`
	Heading     float64 `json:"heading" jsonschema:"required,description=Hull yaw in degrees; 0 faces +Z"`
	Aim         float64 `json:"aim" jsonschema:"required,description=Weapon mount yaw in degrees"`
	Destination Point   `json:"destination" jsonschema:"required"`
}

// Entity is any other object worth drawing.
type Entity struct {
	ID       uint32 `json:"id" jsonschema:"required"`
	Name     string `json:"name" jsonschema:"required"`
	Position Point  `json:"position" jsonschema:"required"`
}

// Snapshot is the state of the arena after one frame.
type Snapshot struct {
	Version   int          `json:"ver" jsonschema:"required"`
	MatchID   string       `json:"matchId" jsonschema:"required,format=uuid"`
	Frame     uint64       `json:"frame" jsonschema:"required,minimum=0"`
	Time      float64      `json:"time" jsonschema:"required,description=Simulation seconds since start"`
	Bounds    [][2]float64 `json:"bounds,omitempty" jsonschema:"description=Arena corners over X/Z"`
	Tanks     []Tank       `json:"tanks" jsonschema:"required"`
	Player    *Entity      `json:"player,omitempty" jsonschema:"description=Scripted target; absent when the arena has none"`
	Bullets   []Entity     `json:"bullets" jsonschema:"required"`
	Waypoints []Point      `json:"waypoints" jsonschema:"required"`
}

// Alive returns the tanks that are not in the DEAD state.
func (s *Snapshot) Alive() int {
	n := 0
	for _, t := range s.Tanks {
		if t.State != "DEAD" {
			n++
		}
	}
	return n
}

// Yaw returns the heading of q in degrees, 0 facing +Z, positive toward +X.
func Yaw(q mgl64.Quat) float64 {
	f := geom.Forward(q)
	return mgl64.RadToDeg(math.Atan2(f.X(), f.Z()))
}

// Schema returns the JSON schema of Snapshot.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(Snapshot))
	schema.Title = "Tank Arena Snapshot"
	schema.Description = "One frame of the spectator feed served on /ws"
	return schema
}
