package ai

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/udisondev/tankarena/internal/model"
)

func tankAt(id uint32, name string, p mgl64.Vec3) *model.Entity {
	return model.NewTank(id, name, model.NewPose(p)).Entity
}

func TestShouldEvade(t *testing.T) {
	self := tankAt(1, "Tank1", mgl64.Vec3{})

	removed := tankAt(5, "Tank5", mgl64.Vec3{10, 0, 0})
	removed.MarkRemoved()

	tests := []struct {
		name      string
		candidate *model.Entity
		want      bool
	}{
		{"nil", nil, false},
		{"self", self, false},
		{"same name", tankAt(2, "Tank1", mgl64.Vec3{5, 0, 0}), false},
		{"removed", removed, false},
		{"inside radius", tankAt(3, "Tank3", mgl64.Vec3{100, 0, 100}), true},
		{"on radius", tankAt(4, "Tank4", mgl64.Vec3{0, 0, 200}), true},
		{"outside radius", tankAt(6, "Tank6", mgl64.Vec3{0, 0, 200.01}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldEvade(self, tt.candidate))
		})
	}
}

func TestShouldEvade_SelfNeverThreat(t *testing.T) {
	for _, p := range []mgl64.Vec3{{}, {1, 0, 1}, {1e6, 0, -1e6}} {
		self := tankAt(1, "Tank1", p)
		assert.False(t, ShouldEvade(self, self))
	}
}

func TestThreatCentroid(t *testing.T) {
	self := tankAt(1, "Tank1", mgl64.Vec3{})
	peers := []*model.Entity{
		self,
		tankAt(2, "Tank2", mgl64.Vec3{100, 0, 0}),
		tankAt(3, "Tank3", mgl64.Vec3{0, 0, 150}),
		tankAt(4, "Tank4", mgl64.Vec3{900, 0, 0}),
		nil,
	}

	c, n := ThreatCentroid(self, peers)
	assert.Equal(t, 2, n)
	assert.Equal(t, mgl64.Vec3{50, 0, 75}, c)

	_, n = ThreatCentroid(self, []*model.Entity{self})
	assert.Zero(t, n)
}

func TestAvoidancePoint(t *testing.T) {
	self := mgl64.Vec3{10, 0, 10}
	centroid := mgl64.Vec3{20, 0, 5}

	got := AvoidancePoint(self, centroid)
	assert.Equal(t, mgl64.Vec3{-990, 0, 510}, got)
}
