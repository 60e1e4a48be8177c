package ai

// Decision thresholds of the tank FSM, in world units, degrees and seconds.
const (
	engageRange      = 300.0 // patrol notices the target; flee gives up beyond it
	attackRange      = 200.0 // chase closes into attack
	loseRange        = 500.0 // chase gives up and resumes patrol
	chaseMinHealth   = 50    // below this the tank flees instead of chasing
	threatRadius     = 200.0 // peers closer than this are evaded
	patrolArrival    = 75.0  // patrol waypoint counts as reached
	fleeArrival      = 50.0  // flee waypoint counts as reached
	evadeArrival     = 25.0  // evasion point counts as reached
	fleeHeadingAngle = 30.0  // flee is heading at its waypoint...
	fleeTargetAngle  = 60.0  // ...which also lies toward the target
	avoidanceScale   = 100.0 // evasion point = self - scale*(centroid - self)

	waypointRangeHalf = 50.0 // anti-repeat box half-size around the tank
	waypointJitter    = 10.0 // max horizontal offset on resample

	explosionStrength   = 10000.0
	explosionRadius     = 40.0
	explosionUpwardBias = 10.0
	explosionPasses     = 3
	destroyDelay        = 1.5
)

// Tuning holds the per-tank movement and weapon parameters.
type Tuning struct {
	MovementSpeed        float64
	RotationSpeed        float64
	EvasionRotationSpeed float64
	ShotInterval         float64 // seconds between shots
	StartingHealth       int

	// EvasionTriggerRadius is carried for config compatibility only.
	// Evasion uses the fixed threat radius.
	EvasionTriggerRadius float64
}

// DefaultTuning returns the stock tank parameters.
func DefaultTuning() Tuning {
	return Tuning{
		MovementSpeed:        150,
		RotationSpeed:        1.5,
		EvasionRotationSpeed: 5,
		ShotInterval:         3,
		StartingHealth:       100,
		EvasionTriggerRadius: 250,
	}
}
