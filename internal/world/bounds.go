package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrDegenerateBounds is returned for a boundary with fewer than three corners.
var ErrDegenerateBounds = errors.New("arena bounds need at least 3 points")

// Bounds is the arena boundary polygon over the X/Z floor plane.
type Bounds struct {
	polygon orb.Polygon
}

// NewBounds builds a boundary from X/Z corners. The ring is closed
// automatically.
func NewBounds(corners [][2]float64) (*Bounds, error) {
	if len(corners) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrDegenerateBounds, len(corners))
	}
	ring := make(orb.Ring, 0, len(corners)+1)
	for _, c := range corners {
		ring = append(ring, orb.Point{c[0], c[1]})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return &Bounds{polygon: orb.Polygon{ring}}, nil
}

// Contains reports whether p lies inside the boundary (height ignored).
func (b *Bounds) Contains(p mgl64.Vec3) bool {
	return planar.PolygonContains(b.polygon, orb.Point{p.X(), p.Z()})
}

// Area returns the floor area enclosed by the boundary.
func (b *Bounds) Area() float64 {
	return math.Abs(planar.Area(b.polygon))
}

// Corners returns the X/Z corners without the closing point.
func (b *Bounds) Corners() [][2]float64 {
	ring := b.polygon[0]
	out := make([][2]float64, 0, len(ring)-1)
	for _, p := range ring[:len(ring)-1] {
		out = append(out, [2]float64{p.X(), p.Y()})
	}
	return out
}
