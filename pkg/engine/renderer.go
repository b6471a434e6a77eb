package engine

import (
	"flightsim/pkg/physics"
	"flightsim/pkg/sim"
	"flightsim/pkg/terrain"
)

// Frame is everything a renderer draws for one frame
type Frame struct {
	Body      physics.View
	Telemetry physics.Telemetry
	Mode      sim.Mode
	Chunks    *terrain.ChunkStore
	FPS       float64
}

// Intent is what the pilot asked for this frame
type Intent struct {
	Controls    physics.ControlInput
	Quit        bool
	Reset       bool
	TogglePause bool
}

// Renderer defines the interface for all renderers
type Renderer interface {
	// Render draws the frame
	Render(frame Frame)

	// UpdateResolution updates the rendering resolution
	UpdateResolution(width, height int)

	// Close releases resources
	Close()
}

// InputSource turns device state into pilot intent once per frame
type InputSource interface {
	Poll() Intent
}

func newFrame(s *sim.Simulation, fps float64) Frame {
	return Frame{
		Body:      s.Body(),
		Telemetry: s.Telemetry(),
		Mode:      s.Mode(),
		Chunks:    s.Chunks(),
		FPS:       fps,
	}
}
