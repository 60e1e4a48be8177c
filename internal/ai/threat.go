package ai

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/geom"
	"github.com/udisondev/tankarena/internal/model"
)

// ShouldEvade reports whether candidate is a peer self must steer away from:
// present in the world, not self, and within threatRadius.
func ShouldEvade(self, candidate *model.Entity) bool {
	if self == nil || candidate == nil || candidate.Removed() {
		return false
	}
	if candidate == self || candidate.Name() == self.Name() {
		return false
	}
	return geom.Distance(candidate.Position(), self.Position()) <= threatRadius
}

// ThreatCentroid averages the positions of every peer that ShouldEvade
// accepts. n is the number of threats; the centroid is meaningless when n is 0.
func ThreatCentroid(self *model.Entity, peers []*model.Entity) (centroid mgl64.Vec3, n int) {
	var threats []mgl64.Vec3
	for _, p := range peers {
		if ShouldEvade(self, p) {
			threats = append(threats, p.Position())
		}
	}
	centroid, _ = geom.Centroid(threats)
	return centroid, len(threats)
}

// AvoidancePoint mirrors the threat centroid through self and pushes it far
// out: self - avoidanceScale*(centroid - self).
func AvoidancePoint(self, centroid mgl64.Vec3) mgl64.Vec3 {
	return self.Add(centroid.Sub(self).Mul(-avoidanceScale))
}
