package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Body configuration errors
var (
	ErrInvalidMass    = errors.New("mass must be positive")
	ErrInvalidInertia = errors.New("invalid inertia")
)

// Body axes in local space
var (
	AxisForward = mgl64.Vec3{0, 0, -1}
	AxisUp      = mgl64.Vec3{0, 1, 0}
	AxisRight   = mgl64.Vec3{1, 0, 0}
)

// BodyConfig describes the airframe
type BodyConfig struct {
	Mass float64
	// Dimensions is the bounding box (width, height, length) used for inertia
	Dimensions    mgl64.Vec3
	MaxThrust     float64
	ThrottleRate  float64
	ControlTorque mgl64.Vec3
}

// SpawnState is the canonical state restored by Reset
type SpawnState struct {
	Position    mgl64.Vec3
	Velocity    mgl64.Vec3
	Orientation mgl64.Quat
	Throttle    float64
}

// RigidBody is the player aircraft: kinematic state, mass properties and
// the force/torque accumulators cleared by every Integrate call
type RigidBody struct {
	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3

	mass           float64
	invInertiaBody mgl64.Mat3
	force          mgl64.Vec3
	torque         mgl64.Vec3

	maxThrust     float64
	throttle      float64
	throttleRate  float64
	controlTorque mgl64.Vec3

	spawn SpawnState
}

// BoxInverseInertia returns the inverse inertia tensor of a solid box
// with the given mass and (width, height, length) dimensions
func BoxInverseInertia(mass float64, dims mgl64.Vec3) (mgl64.Mat3, error) {
	if !(mass > 0) {
		return mgl64.Mat3{}, fmt.Errorf("%w: got %v", ErrInvalidMass, mass)
	}
	for i, d := range dims {
		if !(d > 0) {
			return mgl64.Mat3{}, fmt.Errorf("%w: dimension %d must be positive, got %v", ErrInvalidInertia, i, d)
		}
	}

	w2, h2, l2 := dims[0]*dims[0], dims[1]*dims[1], dims[2]*dims[2]
	ixx := mass / 12 * (h2 + l2)
	iyy := mass / 12 * (w2 + l2)
	izz := mass / 12 * (w2 + h2)
	return mgl64.Diag3(mgl64.Vec3{1 / ixx, 1 / iyy, 1 / izz}), nil
}

// NewRigidBody creates the aircraft at its spawn state
func NewRigidBody(cfg BodyConfig, spawn SpawnState) (*RigidBody, error) {
	invInertia, err := BoxInverseInertia(cfg.Mass, cfg.Dimensions)
	if err != nil {
		return nil, err
	}
	if cfg.MaxThrust < 0 {
		return nil, fmt.Errorf("max thrust must not be negative, got %v", cfg.MaxThrust)
	}
	if spawn.Throttle < 0 || spawn.Throttle > 1 {
		return nil, fmt.Errorf("spawn throttle must be in [0, 1], got %v", spawn.Throttle)
	}
	if spawn.Orientation.Len() == 0 {
		spawn.Orientation = mgl64.QuatIdent()
	}
	spawn.Orientation = spawn.Orientation.Normalize()

	b := &RigidBody{
		mass:           cfg.Mass,
		invInertiaBody: invInertia,
		maxThrust:      cfg.MaxThrust,
		throttleRate:   cfg.ThrottleRate,
		controlTorque:  cfg.ControlTorque,
		spawn:          spawn,
	}
	b.Reset()
	return b, nil
}

// Reset restores the spawn position, velocity, orientation and throttle
func (b *RigidBody) Reset() {
	b.Position = b.spawn.Position
	b.LinearVelocity = b.spawn.Velocity
	b.Orientation = b.spawn.Orientation
	b.AngularVelocity = mgl64.Vec3{}
	b.throttle = b.spawn.Throttle
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

// AddForce accumulates a world-space force through the center of mass
func (b *RigidBody) AddForce(f mgl64.Vec3) {
	b.force = b.force.Add(f)
}

// AddTorque accumulates a world-space torque
func (b *RigidBody) AddTorque(t mgl64.Vec3) {
	b.torque = b.torque.Add(t)
}

// Integrate advances the body by dt with semi-implicit Euler and clears
// the accumulators. dt <= 0 is a no-op.
func (b *RigidBody) Integrate(dt float64) {
	if dt <= 0 {
		return
	}

	// Linear
	acceleration := b.force.Mul(1 / b.mass)
	b.LinearVelocity = b.LinearVelocity.Add(acceleration.Mul(dt))
	b.Position = b.Position.Add(b.LinearVelocity.Mul(dt))

	// Angular: I_world^-1 = R * I_body^-1 * R^T
	r := b.RotationMatrix()
	invInertiaWorld := r.Mul3(b.invInertiaBody).Mul3(r.Transpose())
	angularAcceleration := invInertiaWorld.Mul3x1(b.torque)
	b.AngularVelocity = b.AngularVelocity.Add(angularAcceleration.Mul(dt))

	spin := mgl64.Quat{W: 0, V: b.AngularVelocity.Mul(0.5 * dt)}
	b.Orientation = b.Orientation.Add(spin.Mul(b.Orientation)).Normalize()

	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

// RotationMatrix returns the body-to-world rotation of the orientation
func (b *RigidBody) RotationMatrix() mgl64.Mat3 {
	return mgl64.Mat3FromCols(
		b.Orientation.Rotate(mgl64.Vec3{1, 0, 0}),
		b.Orientation.Rotate(mgl64.Vec3{0, 1, 0}),
		b.Orientation.Rotate(mgl64.Vec3{0, 0, 1}),
	)
}

// Forward is the world-space nose direction
func (b *RigidBody) Forward() mgl64.Vec3 {
	return b.Orientation.Rotate(AxisForward)
}

// Up is the world-space lift-side direction
func (b *RigidBody) Up() mgl64.Vec3 {
	return b.Orientation.Rotate(AxisUp)
}

// Right is the world-space starboard direction
func (b *RigidBody) Right() mgl64.Vec3 {
	return b.Orientation.Rotate(AxisRight)
}

// Speed is the magnitude of the linear velocity
func (b *RigidBody) Speed() float64 {
	return b.LinearVelocity.Len()
}

// Mass returns the body mass
func (b *RigidBody) Mass() float64 {
	return b.mass
}

// Throttle returns the throttle fraction
func (b *RigidBody) Throttle() float64 {
	return b.throttle
}

// SetThrottle sets the throttle, clamped to [0, 1]
func (b *RigidBody) SetThrottle(v float64) {
	b.throttle = math.Max(0, math.Min(1, v))
}

// MaxThrust returns the thrust at full throttle
func (b *RigidBody) MaxThrust() float64 {
	return b.maxThrust
}

// Accumulated returns the pending force and torque
func (b *RigidBody) Accumulated() (force, torque mgl64.Vec3) {
	return b.force, b.torque
}

// View is a read-only snapshot for cameras and HUDs
type View struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Velocity    mgl64.Vec3
	Forward     mgl64.Vec3
	Up          mgl64.Vec3
}

// View snapshots the state needed for visual transform sync
func (b *RigidBody) View() View {
	return View{
		Position:    b.Position,
		Orientation: b.Orientation,
		Velocity:    b.LinearVelocity,
		Forward:     b.Forward(),
		Up:          b.Up(),
	}
}
