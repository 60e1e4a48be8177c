package world

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tankarena/internal/model"
)

func TestObjectIDGenerator_Ranges(t *testing.T) {
	g := NewObjectIDGenerator()

	tests := []struct {
		tag    model.Tag
		lo, hi uint32
	}{
		{model.TagWaypoint, 0x10000000, 0x1FFFFFFF},
		{model.TagTank, 0x20000000, 0x2FFFFFFF},
		{model.TagPlayer, 0x30000000, 0x3FFFFFFF},
		{model.TagBullet, 0x40000000, 0x4FFFFFFF},
		{model.Tag("Crate"), 0x70000000, 0x7FFFFFFF},
	}
	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			first := g.Next(tt.tag)
			second := g.Next(tt.tag)
			assert.Equal(t, tt.lo+1, first)
			assert.Equal(t, first+1, second)
			assert.LessOrEqual(t, second, tt.hi)
		})
	}
}

func TestObjectIDGenerator_Concurrent(t *testing.T) {
	g := NewObjectIDGenerator()

	var (
		mu   sync.Mutex
		seen = make(map[uint32]struct{})
		wg   sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				id := g.Next(model.TagBullet)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 20*500)
}

func TestWorld_SpawnGetRemove(t *testing.T) {
	w := New(nil)

	wp := w.Spawn("WP1", model.TagWaypoint, model.NewPose(mgl64.Vec3{1, 0, 2}))
	tank := w.SpawnTank("Tank1", model.NewPose(mgl64.Vec3{}))
	assert.Equal(t, 2, w.Count())

	got, ok := w.Get(tank.ObjectID())
	require.True(t, ok)
	assert.Same(t, tank.Entity, got)
	assert.Same(t, tank, got.Data)

	var removed []*model.Entity
	w.OnRemove(func(e *model.Entity) { removed = append(removed, e) })

	w.Remove(wp.ObjectID())
	w.Remove(wp.ObjectID())

	_, ok = w.Get(wp.ObjectID())
	assert.False(t, ok)
	assert.True(t, wp.Removed())
	assert.Equal(t, []*model.Entity{wp}, removed, "hook fires once")
	assert.Equal(t, 1, w.Count())
}

func TestWorld_AddDuplicate(t *testing.T) {
	w := New(nil)
	e := model.NewEntity(7, "Player", model.TagPlayer, model.NewPose(mgl64.Vec3{}))

	require.NoError(t, w.Add(e))
	assert.Error(t, w.Add(model.NewEntity(7, "Other", model.TagPlayer, model.NewPose(mgl64.Vec3{}))))
}

func TestWorld_FindByTagSorted(t *testing.T) {
	w := New(nil)
	for _, id := range []uint32{30, 10, 20} {
		require.NoError(t, w.Add(model.NewEntity(id, "WP", model.TagWaypoint, model.NewPose(mgl64.Vec3{}))))
	}
	require.NoError(t, w.Add(model.NewEntity(15, "Player", model.TagPlayer, model.NewPose(mgl64.Vec3{}))))

	got := w.FindByTag(model.TagWaypoint)
	require.Len(t, got, 3)
	assert.Equal(t, uint32(10), got[0].ObjectID())
	assert.Equal(t, uint32(20), got[1].ObjectID())
	assert.Equal(t, uint32(30), got[2].ObjectID())

	assert.Empty(t, w.FindByTag(model.TagBullet))
}

func TestWorld_SpawnProjectile(t *testing.T) {
	w := New(nil)
	tank := w.SpawnTank("Tank1", model.NewPose(mgl64.Vec3{}))

	// No spawner: logged and ignored.
	w.SpawnProjectile(tank, tank.MuzzlePose())

	var shooters []string
	w.SetSpawnFunc(func(shooter *model.Tank, _ model.Pose) { shooters = append(shooters, shooter.Name()) })
	w.SpawnProjectile(tank, tank.MuzzlePose())

	assert.Equal(t, []string{"Tank1"}, shooters)
}
