package ai

import (
	"errors"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/geom"
	"github.com/udisondev/tankarena/internal/model"
)

// ErrNoWaypoints is returned when a tank is initialised without patrol points.
var ErrNoWaypoints = errors.New("no waypoints to patrol")

// WaypointSelector picks semi-random patrol destinations.
//
// A uniformly chosen waypoint is used as is unless it lies inside the
// square of half-size waypointRangeHalf around the tank; then it is resampled
// once with up to waypointJitter of horizontal noise around the same
// waypoint. The second draw is accepted even if it lands in the box again.
type WaypointSelector struct {
	points []*model.Entity
	rng    *rand.Rand
}

// NewWaypointSelector creates a selector over a fixed waypoint set.
func NewWaypointSelector(points []*model.Entity, rng *rand.Rand) (*WaypointSelector, error) {
	if len(points) == 0 {
		return nil, ErrNoWaypoints
	}
	return &WaypointSelector{points: points, rng: rng}, nil
}

// Next returns the next destination for a tank at agentPos.
func (s *WaypointSelector) Next(agentPos mgl64.Vec3) mgl64.Vec3 {
	anchor := s.points[s.rng.IntN(len(s.points))].Position()
	if !geom.WithinBox(agentPos, anchor, waypointRangeHalf) {
		return anchor
	}
	return anchor.Add(mgl64.Vec3{s.jitter(), 0, s.jitter()})
}

// Len returns the number of candidate waypoints.
func (s *WaypointSelector) Len() int {
	return len(s.points)
}

func (s *WaypointSelector) jitter() float64 {
	return (s.rng.Float64()*2 - 1) * waypointJitter
}
