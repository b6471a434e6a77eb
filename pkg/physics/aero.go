package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidAeroConfig is returned for non-physical aerodynamic constants
var ErrInvalidAeroConfig = errors.New("invalid aerodynamic configuration")

// MinAeroSpeed is the speed below which lift and drag are skipped
const MinAeroSpeed = 0.1

// AeroConfig holds the flight model constants
type AeroConfig struct {
	Gravity             mgl64.Vec3
	WingArea            float64
	AirDensity          float64
	LiftSlope           float64
	MaxLiftCoefficient  float64
	BaseDragCoefficient float64
	InducedDragFactor   float64
}

// Validate rejects zero or negative constants
func (c AeroConfig) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"wing area", c.WingArea},
		{"air density", c.AirDensity},
		{"lift slope", c.LiftSlope},
		{"max lift coefficient", c.MaxLiftCoefficient},
	}
	for _, check := range checks {
		if !(check.value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidAeroConfig, check.name, check.value)
		}
	}
	if c.BaseDragCoefficient < 0 || c.InducedDragFactor < 0 {
		return fmt.Errorf("%w: drag coefficients must not be negative", ErrInvalidAeroConfig)
	}
	return nil
}

// AeroSample is what one Apply call computed
type AeroSample struct {
	Speed           float64
	AngleOfAttack   float64
	LiftCoefficient float64
	DragCoefficient float64
	Lift            mgl64.Vec3
	Drag            mgl64.Vec3
	Thrust          mgl64.Vec3
	Gravity         mgl64.Vec3
	// Aerodynamic is false when the body was too slow for lift and drag
	Aerodynamic bool
}

// AeroModel computes lift, drag, thrust and gravity for a body
type AeroModel struct {
	cfg AeroConfig
}

// NewAeroModel validates the configuration
func NewAeroModel(cfg AeroConfig) (*AeroModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AeroModel{cfg: cfg}, nil
}

// Config returns the model constants
func (m *AeroModel) Config() AeroConfig {
	return m.cfg
}

// Apply accumulates this tick's forces on the body. It never integrates.
func (m *AeroModel) Apply(b *RigidBody) AeroSample {
	sample := AeroSample{Speed: b.Speed()}

	if sample.Speed > MinAeroSpeed {
		forward, up, right := b.Forward(), b.Up(), b.Right()
		relativeWind := b.LinearVelocity.Mul(-1)

		sample.AngleOfAttack = math.Atan2(relativeWind.Dot(up), relativeWind.Dot(forward))
		sample.LiftCoefficient = m.LiftCoefficient(sample.AngleOfAttack)
		sample.DragCoefficient = m.DragCoefficient(sample.LiftCoefficient)

		q := 0.5 * m.cfg.AirDensity * sample.Speed * sample.Speed
		liftMagnitude := sample.LiftCoefficient * q * m.cfg.WingArea
		dragMagnitude := sample.DragCoefficient * q * m.cfg.WingArea

		// Wind parallel to the wing span leaves no lift plane
		liftAxis := relativeWind.Cross(right)
		if liftAxis.Len() > 1e-9 {
			sample.Lift = liftAxis.Normalize().Mul(liftMagnitude)
		}
		sample.Drag = relativeWind.Normalize().Mul(dragMagnitude)
		sample.Aerodynamic = true

		b.AddForce(sample.Lift)
		b.AddForce(sample.Drag)
	}

	sample.Thrust = b.Forward().Mul(b.maxThrust * b.throttle)
	sample.Gravity = m.cfg.Gravity.Mul(b.mass)
	b.AddForce(sample.Thrust)
	b.AddForce(sample.Gravity)

	return sample
}

// LiftCoefficient is the linear lift curve clamped at the stall limit
func (m *AeroModel) LiftCoefficient(aoa float64) float64 {
	cl := m.cfg.LiftSlope * aoa
	return math.Max(-m.cfg.MaxLiftCoefficient, math.Min(m.cfg.MaxLiftCoefficient, cl))
}

// DragCoefficient is the parabolic drag polar CD0 + K*CL^2
func (m *AeroModel) DragCoefficient(cl float64) float64 {
	return m.cfg.BaseDragCoefficient + m.cfg.InducedDragFactor*cl*cl
}
