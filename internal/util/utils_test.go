package util

import (
	"math"
	"testing"
)

func TestLerp(t *testing.T) {
	tests := []struct {
		a, b, t, want float64
	}{
		{100, 20, 0, 100},
		{100, 20, 1, 20},
		{100, 20, 0.5, 60},
		{-1, 1, 0.25, -0.5},
	}
	for _, tt := range tests {
		if got := Lerp(tt.a, tt.b, tt.t); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Lerp(%f, %f, %f) = %f, want %f", tt.a, tt.b, tt.t, got, tt.want)
		}
	}
}

func TestClampAndMap(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp(5, 0, 1) = %f", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp(-5, 0, 1) = %f", got)
	}
	if got := Map(50, 0, 100, 0, 1); got != 0.5 {
		t.Errorf("Map(50, 0, 100, 0, 1) = %f", got)
	}
	if got := Map(150, 0, 100, 10, 20); got != 20 {
		t.Errorf("Map should clamp, got %f", got)
	}
	if got := InverseLerp(3, 3, 10); got != 0 {
		t.Errorf("InverseLerp with empty range = %f", got)
	}
}

func TestSmoothStep(t *testing.T) {
	if got := SmoothStep(0, 10, 0.5); got != 5 {
		t.Errorf("SmoothStep midpoint = %f", got)
	}
	if got := SmoothStep(0, 10, 2); got != 10 {
		t.Errorf("SmoothStep should clamp t, got %f", got)
	}
}

func TestIsInsideBoundary(t *testing.T) {
	if !IsInside(3, 4, 0, 0, 5) {
		t.Error("point on the circle should be inside")
	}
	if IsInside(3, 4.001, 0, 0, 5) {
		t.Error("point just outside reported inside")
	}
	if got := Distance2D(0, 0, 3, 4); got != 5 {
		t.Errorf("Distance2D = %f", got)
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		v    float64
		want int
	}{
		{0, 0},
		{511.9, 0},
		{512, 1},
		{-0.1, -1},
		{-512, -1},
		{-512.5, -2},
	}
	for _, tt := range tests {
		if got := FloorDiv(tt.v, 512); got != tt.want {
			t.Errorf("FloorDiv(%f, 512) = %d, want %d", tt.v, got, tt.want)
		}
	}
}
