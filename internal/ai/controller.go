package ai

// Controller is a per-entity AI driven by the TickManager.
type Controller interface {
	// Start enables ticking.
	Start()

	// Stop disables ticking.
	Stop()

	// SetState forces a state from outside the controller's own logic.
	SetState(s State)

	// CurrentState returns the active state.
	CurrentState() State

	// Tick advances the controller by dt seconds of simulation time.
	Tick(dt float64)
}

// HitReceiver is a controller that reacts to projectile damage.
type HitReceiver interface {
	OnHit(damage int)
}

var (
	_ Controller  = (*TankAI)(nil)
	_ HitReceiver = (*TankAI)(nil)
)
