package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/tankarena/internal/world"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid arena config")

// Vec3 is an [x, y, z] triple; y is up.
type Vec3 [3]float64

// Vec returns v as a math vector.
func (v Vec3) Vec() mgl64.Vec3 {
	return mgl64.Vec3(v)
}

// AI holds the tank controller tuning.
type AI struct {
	MovementSpeed        float64 `yaml:"movement_speed"`
	RotationSpeed        float64 `yaml:"rotation_speed"`
	EvasionRotationSpeed float64 `yaml:"evasion_rotation_speed"`
	ShotInterval         float64 `yaml:"shot_interval"` // seconds
	StartingHealth       int     `yaml:"starting_health"`
	EvasionTriggerRadius float64 `yaml:"evasion_trigger_radius"` // accepted, not used by the FSM
}

// Projectile holds bullet ballistics.
type Projectile struct {
	Speed     float64 `yaml:"speed"`
	Damage    int     `yaml:"damage"`
	Lifetime  float64 `yaml:"lifetime"` // seconds
	HitRadius float64 `yaml:"hit_radius"`
}

// TankSpawn places one AI tank.
type TankSpawn struct {
	Name     string  `yaml:"name"`
	Position Vec3    `yaml:"position"`
	Heading  float64 `yaml:"heading"` // degrees of yaw, 0 = +Z
}

// Player is the scripted target the tanks hunt. It drives a closed loop
// through Path and shoots at the nearest tank in range.
type Player struct {
	Name         string  `yaml:"name"`
	Path         []Vec3  `yaml:"path"`
	Speed        float64 `yaml:"speed"`
	FireInterval float64 `yaml:"fire_interval"` // seconds, 0 disables shooting
	FireRange    float64 `yaml:"fire_range"`
}

// Layout is the arena geometry.
type Layout struct {
	Bounds    [][2]float64 `yaml:"bounds"` // X/Z corners
	Waypoints []Vec3       `yaml:"waypoints"`
	Tanks     []TankSpawn  `yaml:"tanks"`
	Player    *Player      `yaml:"player"` // nil: no target in the arena
}

// Spectator holds the WebSocket feed settings.
type Spectator struct {
	Enabled        bool   `yaml:"enabled"`
	BindAddress    string `yaml:"bind_address"`
	BroadcastEvery int    `yaml:"broadcast_every"` // ticks
}

// Viewer holds the terminal viewer settings.
type Viewer struct {
	Enabled bool `yaml:"enabled"`
	FPS     int  `yaml:"fps"`
	Emoji   bool `yaml:"emoji"` // needs a terminal font with emoji glyphs
}

// Arena holds all configuration for an arena run.
type Arena struct {
	LogLevel     string        `yaml:"log_level"`
	TickInterval time.Duration `yaml:"tick_interval"`
	Seed         uint64        `yaml:"seed"`     // 0 picks a random seed
	Duration     time.Duration `yaml:"duration"` // 0 runs until interrupted

	AI         AI         `yaml:"ai"`
	Projectile Projectile `yaml:"projectile"`
	Layout     Layout     `yaml:"layout"`
	Journal    Journal    `yaml:"journal"`
	Spectator  Spectator  `yaml:"spectator"`
	Viewer     Viewer     `yaml:"viewer"`
}

// DefaultAI returns the stock tank tuning.
func DefaultAI() AI {
	return AI{
		MovementSpeed:        150,
		RotationSpeed:        1.5,
		EvasionRotationSpeed: 5,
		ShotInterval:         3,
		StartingHealth:       100,
		EvasionTriggerRadius: 250,
	}
}

// DefaultLayout returns a 2000×2000 arena with a ring of waypoints, four
// tanks in the corners and a player looping around the centre.
func DefaultLayout() Layout {
	return Layout{
		Bounds: [][2]float64{{-1000, -1000}, {1000, -1000}, {1000, 1000}, {-1000, 1000}},
		Waypoints: []Vec3{
			{-700, 0, -700}, {0, 0, -800}, {700, 0, -700}, {800, 0, 0},
			{700, 0, 700}, {0, 0, 800}, {-700, 0, 700}, {-800, 0, 0},
		},
		Tanks: []TankSpawn{
			{Name: "Tank1", Position: Vec3{-850, 0, -850}, Heading: 45},
			{Name: "Tank2", Position: Vec3{850, 0, -850}, Heading: -45},
			{Name: "Tank3", Position: Vec3{850, 0, 850}, Heading: -135},
			{Name: "Tank4", Position: Vec3{-850, 0, 850}, Heading: 135},
		},
		Player: &Player{
			Name:         "Player",
			Path:         []Vec3{{-400, 0, -400}, {400, 0, -400}, {400, 0, 400}, {-400, 0, 400}},
			Speed:        60,
			FireInterval: 2,
			FireRange:    250,
		},
	}
}

// DefaultArena returns Arena config with sensible defaults.
func DefaultArena() Arena {
	return Arena{
		LogLevel:     "info",
		TickInterval: 20 * time.Millisecond,
		Seed:         1,
		AI:           DefaultAI(),
		Projectile: Projectile{
			Speed:     400,
			Damage:    25,
			Lifetime:  3,
			HitRadius: 8,
		},
		Layout: DefaultLayout(),
		Journal: Journal{
			Enabled:       false,
			FlushInterval: time.Second,
			BufferSize:    1024,
			DatabaseConfig: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "tankarena",
				Password: "tankarena",
				DBName:   "tankarena",
				SSLMode:  "disable",
			},
		},
		Spectator: Spectator{
			Enabled:        true,
			BindAddress:    "127.0.0.1:8080",
			BroadcastEvery: 5,
		},
		Viewer: Viewer{
			Enabled: false,
			FPS:     20,
		},
	}
}

// Validate checks the config for faults that would make the arena unusable.
// All problems are reported together; each wraps ErrInvalid.
func (c Arena) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.TickInterval <= 0 {
		fail("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.AI.MovementSpeed <= 0 || c.AI.RotationSpeed <= 0 || c.AI.EvasionRotationSpeed <= 0 {
		fail("ai speeds must be positive")
	}
	if c.AI.ShotInterval <= 0 {
		fail("ai.shot_interval must be positive")
	}
	if c.AI.StartingHealth <= 0 {
		fail("ai.starting_health must be positive")
	}
	if c.Projectile.Speed <= 0 || c.Projectile.Lifetime <= 0 || c.Projectile.HitRadius <= 0 {
		fail("projectile speed, lifetime and hit_radius must be positive")
	}
	if len(c.Layout.Waypoints) == 0 {
		fail("layout.waypoints is empty")
	}
	if len(c.Layout.Tanks) == 0 {
		fail("layout.tanks is empty")
	}

	bounds, err := world.NewBounds(c.Layout.Bounds)
	if err != nil {
		fail("layout.bounds: %v", err)
	}

	names := make(map[string]bool, len(c.Layout.Tanks)+1)
	for i, t := range c.Layout.Tanks {
		if t.Name == "" {
			fail("layout.tanks[%d] has no name", i)
		} else if names[t.Name] {
			fail("duplicate tank name %q", t.Name)
		}
		names[t.Name] = true
		if bounds != nil && !bounds.Contains(t.Position.Vec()) {
			fail("tank %q spawns outside the arena at %v", t.Name, t.Position)
		}
	}
	for i, wp := range c.Layout.Waypoints {
		if bounds != nil && !bounds.Contains(wp.Vec()) {
			fail("waypoint %d outside the arena at %v", i, wp)
		}
	}

	if p := c.Layout.Player; p != nil {
		if p.Name == "" || names[p.Name] {
			fail("player name %q is empty or taken", p.Name)
		}
		if len(p.Path) == 0 {
			fail("player path is empty")
		}
		if p.Speed < 0 || p.FireInterval < 0 || p.FireRange < 0 {
			fail("player speed, fire_interval and fire_range must not be negative")
		}
		for i, pt := range p.Path {
			if bounds != nil && !bounds.Contains(pt.Vec()) {
				fail("player path point %d outside the arena at %v", i, pt)
			}
		}
	}

	if c.Journal.Enabled && c.Journal.BufferSize <= 0 {
		fail("journal.buffer_size must be positive")
	}
	if c.Journal.Enabled && c.Journal.FlushInterval <= 0 {
		fail("journal.flush_interval must be positive")
	}
	if c.Spectator.Enabled && c.Spectator.BroadcastEvery <= 0 {
		fail("spectator.broadcast_every must be positive")
	}
	if c.Viewer.Enabled && c.Viewer.FPS <= 0 {
		fail("viewer.fps must be positive")
	}

	return errors.Join(errs...)
}
