package physics

import (
	"errors"
	"fmt"
)

// ErrInvalidThreshold is returned for a negative collision buffer
var ErrInvalidThreshold = errors.New("collision threshold must not be negative")

// HeightQuery is the terrain height contract the probe relies on
type HeightQuery interface {
	Height(x, z float64) float64
}

// CollisionProbe detects ground contact. It is stateless and never
// mutates the body.
type CollisionProbe struct {
	terrain   HeightQuery
	threshold float64
}

// NewCollisionProbe creates a probe that fires threshold units above the ground
func NewCollisionProbe(terrain HeightQuery, threshold float64) (*CollisionProbe, error) {
	if terrain == nil {
		return nil, errors.New("collision probe needs a height query")
	}
	if threshold < 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return &CollisionProbe{terrain: terrain, threshold: threshold}, nil
}

// Check reports whether the body is below ground height plus the threshold
func (p *CollisionProbe) Check(b *RigidBody) bool {
	return b.Position.Y() < p.terrain.Height(b.Position.X(), b.Position.Z())+p.threshold
}

// Clearance is the height of the body above the ground
func (p *CollisionProbe) Clearance(b *RigidBody) float64 {
	return b.Position.Y() - p.terrain.Height(b.Position.X(), b.Position.Z())
}

// Threshold returns the contact buffer
func (p *CollisionProbe) Threshold() float64 {
	return p.threshold
}
