package world

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/udisondev/tankarena/internal/model"
)

// RemoveHook is called after an entity has left the world.
type RemoveHook func(e *model.Entity)

// SpawnFunc creates a projectile for shooter at the muzzle pose. Injected by
// the arena so the world does not depend on the projectile system.
type SpawnFunc func(shooter *model.Tank, muzzle model.Pose)

// World is the arena entity registry. It answers tag queries for the AI and
// carries out the physical effects the AI requests (impulses, velocities,
// delayed removal).
//
// Registry access is safe from any goroutine; Integrate and Reap run on the
// simulation goroutine only.
type World struct {
	objects sync.Map // map[uint32]*model.Entity keyed by objectID
	ids     *ObjectIDGenerator
	bounds  *Bounds

	spawnProjectile SpawnFunc

	mu      sync.Mutex
	hooks   []RemoveHook
	pending map[uint32]float64 // objectID → clock time of removal
	clock   float64
}

// New creates an empty world. bounds may be nil for an unbounded arena.
func New(bounds *Bounds) *World {
	return &World{
		ids:     NewObjectIDGenerator(),
		bounds:  bounds,
		pending: make(map[uint32]float64),
	}
}

// Bounds returns the arena boundary, nil when unbounded.
func (w *World) Bounds() *Bounds {
	return w.bounds
}

// SetSpawnFunc installs the projectile factory used by SpawnProjectile.
func (w *World) SetSpawnFunc(fn SpawnFunc) {
	w.spawnProjectile = fn
}

// OnRemove registers a hook fired for every entity leaving the world.
func (w *World) OnRemove(hook RemoveHook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks = append(w.hooks, hook)
}

// Spawn creates an entity with a fresh ID from tag's range and adds it.
func (w *World) Spawn(name string, tag model.Tag, pose model.Pose) *model.Entity {
	e := model.NewEntity(w.ids.Next(tag), name, tag, pose)
	w.objects.Store(e.ObjectID(), e)
	return e
}

// SpawnTank creates a tank with a fresh ID and adds it.
func (w *World) SpawnTank(name string, pose model.Pose) *model.Tank {
	t := model.NewTank(w.ids.Next(model.TagTank), name, pose)
	w.objects.Store(t.ObjectID(), t.Entity)
	return t
}

// Add adds an entity created elsewhere.
// Returns error if the object ID is already taken.
func (w *World) Add(e *model.Entity) error {
	if _, loaded := w.objects.LoadOrStore(e.ObjectID(), e); loaded {
		return fmt.Errorf("object %d (%s) already in world", e.ObjectID(), e.Name())
	}
	return nil
}

// Remove removes an entity immediately, marks it removed and fires the
// removal hooks. Unknown IDs are ignored.
func (w *World) Remove(objectID uint32) {
	value, ok := w.objects.LoadAndDelete(objectID)
	if !ok {
		return
	}
	e := value.(*model.Entity)
	e.MarkRemoved()

	w.mu.Lock()
	delete(w.pending, objectID)
	hooks := slices.Clone(w.hooks)
	w.mu.Unlock()

	for _, h := range hooks {
		h(e)
	}

	slog.Debug("entity removed", "objectID", objectID, "name", e.Name(), "tag", e.Tag())
}

// Get returns entity by ID.
func (w *World) Get(objectID uint32) (*model.Entity, bool) {
	value, ok := w.objects.Load(objectID)
	if !ok {
		return nil, false
	}
	return value.(*model.Entity), true
}

// FindByTag returns every live entity carrying tag, ordered by object ID.
func (w *World) FindByTag(tag model.Tag) []*model.Entity {
	var out []*model.Entity
	w.objects.Range(func(_, value any) bool {
		if e := value.(*model.Entity); e.Tag() == tag {
			out = append(out, e)
		}
		return true
	})
	slices.SortFunc(out, func(a, b *model.Entity) int {
		return cmp.Compare(a.ObjectID(), b.ObjectID())
	})
	return out
}

// ForEach iterates over all entities in unspecified order.
// If fn returns false, iteration stops.
func (w *World) ForEach(fn func(*model.Entity) bool) {
	w.objects.Range(func(_, value any) bool {
		return fn(value.(*model.Entity))
	})
}

// Count returns total number of entities (O(N)).
func (w *World) Count() int {
	count := 0
	w.objects.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// SpawnProjectile forwards to the installed SpawnFunc.
func (w *World) SpawnProjectile(shooter *model.Tank, muzzle model.Pose) {
	if w.spawnProjectile == nil {
		slog.Warn("projectile requested with no spawner installed", "shooter", shooter.Name())
		return
	}
	w.spawnProjectile(shooter, muzzle)
}
