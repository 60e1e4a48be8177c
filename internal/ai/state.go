package ai

// State is the behavior the tank FSM runs on each tick.
type State int32

const (
	// StateNone is the placeholder before Init. Never entered afterwards.
	StateNone State = iota
	// StatePatrol - wander between waypoints
	StatePatrol
	// StateChase - drive toward the target
	StateChase
	// StateAttack - hold position and fire at the target
	StateAttack
	// StateDead - terminal; runs the destruction sequence once
	StateDead
	// StateEvade - steer away from nearby peers
	StateEvade
	// StateFlee - run from the target between waypoints
	StateFlee

	stateCount
)

// String returns human-readable state name
func (s State) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StatePatrol:
		return "PATROL"
	case StateChase:
		return "CHASE"
	case StateAttack:
		return "ATTACK"
	case StateDead:
		return "DEAD"
	case StateEvade:
		return "EVADE"
	case StateFlee:
		return "FLEE"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no transition may leave s.
func (s State) Terminal() bool {
	return s == StateDead
}
