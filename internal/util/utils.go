package util

import (
	"math"
)

// Lerp performs linear interpolation between a and b with t in [0,1]
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// InverseLerp returns where value sits between a and b, unclamped
func InverseLerp(a, b, value float64) float64 {
	if a == b {
		return 0
	}
	return (value - a) / (b - a)
}

// Clamp restricts a value to be between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Map remaps a value from one range to another
func Map(value, inMin, inMax, outMin, outMax float64) float64 {
	// Clamp t to [0,1] to handle values outside the input range
	t := Clamp(InverseLerp(inMin, inMax, value), 0, 1)
	return outMin + t*(outMax-outMin)
}

// SmoothStep performs cubic interpolation between a and b
func SmoothStep(a, b, t float64) float64 {
	t = Clamp(t, 0, 1)
	t = t * t * (3 - 2*t)
	return a + t*(b-a)
}

// Distance2D calculates the Euclidean distance between two 2D points
func Distance2D(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// IsInside checks if a point is inside a circular area (boundary included)
func IsInside(px, py, cx, cy, radius float64) bool {
	dx := px - cx
	dy := py - cy
	return dx*dx+dy*dy <= radius*radius
}

// FloorDiv returns floor(v / size) as an int grid coordinate
func FloorDiv(v, size float64) int {
	return int(math.Floor(v / size))
}
