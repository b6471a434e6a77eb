package physics

import "fmt"

// Telemetry is the HUD view of the aircraft
type Telemetry struct {
	SpeedMS           float64
	SpeedKMH          float64
	Altitude          float64
	Throttle          float64
	AngleOfAttack     float64
	LiftCoefficient   float64
	HeightAboveGround float64
}

// NewTelemetry derives HUD values from the body, the last aero sample and
// the ground clearance
func NewTelemetry(b *RigidBody, aero AeroSample, clearance float64) Telemetry {
	speed := b.Speed()
	return Telemetry{
		SpeedMS:           speed,
		SpeedKMH:          speed * 3.6,
		Altitude:          b.Position.Y(),
		Throttle:          b.throttle,
		AngleOfAttack:     aero.AngleOfAttack,
		LiftCoefficient:   aero.LiftCoefficient,
		HeightAboveGround: clearance,
	}
}

// String formats the HUD line
func (t Telemetry) String() string {
	return fmt.Sprintf("SPD %4.0f km/h  ALT %5.0f m  AGL %5.0f m  THR %3.0f%%  CL %+.2f",
		t.SpeedKMH, t.Altitude, t.HeightAboveGround, t.Throttle*100, t.LiftCoefficient)
}
