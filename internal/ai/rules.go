package ai

import (
	"log/slog"

	"github.com/udisondev/tankarena/internal/geom"
)

// verdict is what a rule tells the evaluator to do next.
type verdict uint8

const (
	// pass falls through to the next rule.
	pass verdict = iota
	// settle stops rule evaluation; the state body still runs.
	settle
	// halt stops rule evaluation and skips the state body.
	halt
)

// rule is one guard of a state. Rules run top to bottom; the first one that
// does not pass decides the tick.
type rule struct {
	name string
	eval func(ai *TankAI, s *sense) verdict
}

// behavior is the ordered guard list of a state plus the movement/aim body
// that runs unless a rule halts.
type behavior struct {
	rules []rule
	body  func(ai *TankAI, s *sense)
}

func (b behavior) run(ai *TankAI, s *sense) {
	for _, r := range b.rules {
		v := r.eval(ai, s)
		if v == halt {
			return
		}
		if v == settle {
			break
		}
	}
	if b.body != nil {
		b.body(ai, s)
	}
}

var behaviors = [stateCount]behavior{
	StatePatrol: {
		rules: []rule{
			{"evade-peer", evadePeer},
			{"engage-target", patrolEngage},
			{"waypoint-reached", patrolArrived},
		},
		body: cruise,
	},
	StateChase: {
		rules: []rule{
			{"evade-peer", evadePeer},
			{"track-target", trackTarget},
			{"close-in", chaseCloseIn},
			{"lose-target", chaseLose},
		},
		body: cruise,
	},
	StateAttack: {
		rules: []rule{
			{"track-target", trackTarget},
			{"reengage", attackReengage},
			{"disengage", attackDisengage},
		},
		body: engage,
	},
	StateFlee: {
		rules: []rule{
			{"escaped", fleeEscaped},
			{"heading-into-target", fleeHeadingIntoTarget},
			{"refuge-reached", fleeArrived},
		},
		body: cruise,
	},
	StateEvade: {
		rules: []rule{
			{"threat-scan", evadeScan},
			{"clear-of-threat", evadeArrived},
		},
		body: evadeSteer,
	},
	StateDead: {
		body: wreck,
	},
}

// RuleNames returns the guard names of state s in evaluation order.
func RuleNames(s State) []string {
	if s < 0 || s >= stateCount {
		return nil
	}
	names := make([]string, 0, len(behaviors[s].rules))
	for _, r := range behaviors[s].rules {
		names = append(names, r.name)
	}
	return names
}

// --- shared rules and bodies ---

func evadePeer(ai *TankAI, s *sense) verdict {
	peer, ok := ai.threatened()
	if !ok {
		return pass
	}
	if IsDebugEnabled() {
		slog.Debug("tank evading peer",
			"agent", ai.tank.Name(),
			"peer", peer.Name(),
			"peerPosition", peer.Position())
	}
	ai.transition(StateEvade, "peer "+peer.Name()+" too close")
	return halt
}

func trackTarget(ai *TankAI, s *sense) verdict {
	if s.hasTarget {
		ai.destination = s.target
	}
	return pass
}

// cruise turns toward the destination and drives forward.
func cruise(ai *TankAI, s *sense) {
	ai.steer(s.dt, ai.tuning.RotationSpeed)
	ai.advance(s.dt)
}

// --- Patrol ---

func patrolEngage(ai *TankAI, s *sense) verdict {
	if s.dist > engageRange {
		return pass
	}
	if ai.health >= chaseMinHealth {
		ai.transition(StateChase, "target in range")
	} else {
		ai.transition(StateFlee, "target in range, health low")
	}
	return settle
}

func patrolArrived(ai *TankAI, s *sense) verdict {
	if geom.Distance(s.self, ai.destination) > patrolArrival {
		return pass
	}
	ai.nextWaypoint()
	return settle
}

// --- Chase ---

func chaseCloseIn(ai *TankAI, s *sense) verdict {
	if s.dist > attackRange {
		return pass
	}
	ai.transition(StateAttack, "target in attack range")
	return settle
}

func chaseLose(ai *TankAI, s *sense) verdict {
	if s.dist < loseRange {
		return pass
	}
	ai.nextWaypoint()
	ai.transition(StatePatrol, "target lost")
	return settle
}

// --- Attack ---

func attackReengage(ai *TankAI, s *sense) verdict {
	if s.dist < attackRange || s.dist >= engageRange {
		return pass
	}
	cruise(ai, s)
	ai.transition(StateChase, "target out of attack range")
	return settle
}

func attackDisengage(ai *TankAI, s *sense) verdict {
	if s.dist < engageRange {
		return pass
	}
	ai.transition(StatePatrol, "target out of range")
	return settle
}

// engage swings the weapon mount at the target and fires when ready.
func engage(ai *TankAI, s *sense) {
	if !s.hasTarget {
		return
	}
	ai.aim(s.dt)
	ai.fire()
}

// --- Flee ---

func fleeEscaped(ai *TankAI, s *sense) verdict {
	if s.dist <= engageRange {
		return pass
	}
	ai.transition(StatePatrol, "escaped target")
	return settle
}

// fleeHeadingIntoTarget compares the hull forward against the destination
// and target positions taken as vectors from the world origin, not from
// the tank.
func fleeHeadingIntoTarget(ai *TankAI, s *sense) verdict {
	forward := ai.tank.Forward()
	if geom.AngleDeg(forward, ai.destination) > fleeHeadingAngle {
		return pass
	}
	if !s.hasTarget || geom.AngleDeg(forward, s.target) > fleeTargetAngle {
		return pass
	}
	ai.nextWaypoint()
	return settle
}

func fleeArrived(ai *TankAI, s *sense) verdict {
	if geom.Distance(s.self, ai.destination) > fleeArrival {
		return pass
	}
	if s.dist > engageRange {
		ai.transition(StatePatrol, "escaped target")
	} else {
		ai.nextWaypoint()
	}
	return settle
}

// --- Evade ---

// evadeScan re-aggregates every current threat and aims far away from
// their centroid. With no threats left evasion is over.
func evadeScan(ai *TankAI, s *sense) verdict {
	centroid, n := ThreatCentroid(ai.tank.Entity, ai.peers)
	if n == 0 {
		ai.nextWaypoint()
		ai.transition(StatePatrol, "threats cleared")
		return halt
	}
	ai.destination = AvoidancePoint(s.self, centroid)

	if IsDebugEnabled() {
		slog.Debug("tank evasion point",
			"agent", ai.tank.Name(),
			"threats", n,
			"centroid", centroid,
			"destination", ai.destination)
	}
	return pass
}

func evadeArrived(ai *TankAI, s *sense) verdict {
	if geom.Distance(s.self, ai.destination) > evadeArrival {
		return pass
	}
	ai.nextWaypoint()
	ai.transition(StatePatrol, "evasion point reached")
	return halt
}

func evadeSteer(ai *TankAI, s *sense) {
	ai.steer(s.dt, ai.tuning.EvasionRotationSpeed)
	ai.advance(s.dt)
}

// --- Dead ---

func wreck(ai *TankAI, s *sense) {
	if ai.destroyed {
		return
	}
	ai.destroyed = true
	ai.explode()
}
