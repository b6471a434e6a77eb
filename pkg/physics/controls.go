package physics

import "github.com/go-gl/mathgl/mgl64"

// ControlInput is one tick of pilot intent. Pitch, Yaw and Roll are signed
// torque scalars in [-1, 1]; ThrottleDelta is the signed throttle change
// intent in [-1, 1].
type ControlInput struct {
	Pitch         float64
	Yaw           float64
	Roll          float64
	ThrottleDelta float64
}

// IsZero reports whether the input carries no intent
func (in ControlInput) IsZero() bool {
	return in == ControlInput{}
}

// ApplyControls turns the input into a world-space torque on the body and
// moves the throttle. Positive pitch raises the nose, positive yaw swings it
// to the right and positive roll drops the right wing.
func (b *RigidBody) ApplyControls(in ControlInput, dt float64) {
	local := mgl64.Vec3{
		in.Pitch * b.controlTorque[0],
		-in.Yaw * b.controlTorque[1],
		-in.Roll * b.controlTorque[2],
	}
	if local != (mgl64.Vec3{}) {
		b.AddTorque(b.Orientation.Rotate(local))
	}

	if in.ThrottleDelta != 0 && dt > 0 {
		b.SetThrottle(b.throttle + in.ThrottleDelta*b.throttleRate*dt)
	}
}
