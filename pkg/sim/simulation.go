package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"flightsim/internal/logger"
	"flightsim/pkg/config"
	"flightsim/pkg/physics"
	"flightsim/pkg/terrain"
)

// Mode is the flight state the sequencer is in
type Mode int

// Flight modes
const (
	ModeFlying Mode = iota
	ModeCrashed
	ModePaused
)

func (m Mode) String() string {
	switch m {
	case ModeFlying:
		return "flying"
	case ModeCrashed:
		return "crashed"
	case ModePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// CollisionEvent describes the tick the aircraft hit the ground
type CollisionEvent struct {
	Tick     uint64
	Position mgl64.Vec3
	Speed    float64
	Ground   float64
}

// Simulation drives one aircraft over streamed terrain with a fixed tick:
// controls, aerodynamics, integration, chunk streaming, collision probe.
type Simulation struct {
	hf     *terrain.HeightField
	chunks *terrain.ChunkStore
	body   *physics.RigidBody
	aero   *physics.AeroModel
	probe  *physics.CollisionProbe
	log    *logger.Logger

	fixedStep   float64
	maxSubsteps int
	accumulator float64

	mode        Mode
	tick        uint64
	lastAero    physics.AeroSample
	onCollision []func(CollisionEvent)
}

func newSimulation(hf *terrain.HeightField, chunks *terrain.ChunkStore, body *physics.RigidBody,
	aero *physics.AeroModel, probe *physics.CollisionProbe, cfg config.SimConfig, log *logger.Logger) *Simulation {

	s := &Simulation{
		hf:          hf,
		chunks:      chunks,
		body:        body,
		aero:        aero,
		probe:       probe,
		log:         log.Named("sim"),
		fixedStep:   cfg.FixedStep,
		maxSubsteps: cfg.MaxSubsteps,
		mode:        ModeFlying,
	}
	chunks.Initialize()
	s.log.Infof("terrain ready: %d chunks, view distance %.0f", chunks.Len(), chunks.ViewDistance())
	return s
}

// OnCollision registers a callback fired at most once per tick on ground contact
func (s *Simulation) OnCollision(fn func(CollisionEvent)) {
	s.onCollision = append(s.onCollision, fn)
}

// Step runs one tick of dt seconds. It does nothing unless flying and
// reports whether the aircraft hit the ground.
func (s *Simulation) Step(in physics.ControlInput, dt float64) bool {
	if s.mode != ModeFlying || dt <= 0 {
		return false
	}
	s.tick++

	s.body.ApplyControls(in, dt)
	s.lastAero = s.aero.Apply(s.body)
	s.body.Integrate(dt)
	s.chunks.Update(s.body.Position.X(), s.body.Position.Z())

	if !s.probe.Check(s.body) {
		return false
	}

	s.mode = ModeCrashed
	ev := CollisionEvent{
		Tick:     s.tick,
		Position: s.body.Position,
		Speed:    s.body.Speed(),
		Ground:   s.hf.Height(s.body.Position.X(), s.body.Position.Z()),
	}
	s.log.Infof("collision at tick %d: (%.1f, %.1f, %.1f) ground %.1f, %.0f m/s",
		ev.Tick, ev.Position.X(), ev.Position.Y(), ev.Position.Z(), ev.Ground, ev.Speed)
	for _, fn := range s.onCollision {
		fn(ev)
	}
	return true
}

// Advance consumes frameDt of wall time in fixed steps, at most
// maxSubsteps per call, and returns the number of steps run
func (s *Simulation) Advance(in physics.ControlInput, frameDt float64) int {
	if s.mode != ModeFlying {
		s.accumulator = 0
		return 0
	}

	s.accumulator += frameDt
	if limit := s.fixedStep * float64(s.maxSubsteps); s.accumulator > limit {
		s.accumulator = limit
	}

	// tolerate rounding left over from repeated subtraction
	epsilon := s.fixedStep * 1e-6
	steps := 0
	for s.accumulator+epsilon >= s.fixedStep && steps < s.maxSubsteps {
		s.accumulator -= s.fixedStep
		steps++
		if s.Step(in, s.fixedStep) {
			s.accumulator = 0
			break
		}
	}
	return steps
}

// Reset restores a fresh flight: body at spawn, terrain around the origin
func (s *Simulation) Reset() {
	s.body.Reset()
	s.chunks.Reset()
	s.mode = ModeFlying
	s.accumulator = 0
	s.lastAero = physics.AeroSample{}
	s.log.Info("flight reset")
}

// Pause stops ticking while flying
func (s *Simulation) Pause() {
	if s.mode == ModeFlying {
		s.mode = ModePaused
	}
}

// Resume continues a paused flight
func (s *Simulation) Resume() {
	if s.mode == ModePaused {
		s.mode = ModeFlying
	}
}

// TogglePause flips between flying and paused
func (s *Simulation) TogglePause() {
	if s.mode == ModePaused {
		s.Resume()
	} else {
		s.Pause()
	}
}

// Mode returns the current flight mode
func (s *Simulation) Mode() Mode {
	return s.mode
}

// Tick is the number of steps run since construction
func (s *Simulation) Tick() uint64 {
	return s.tick
}

// Telemetry returns the HUD values for the last tick
func (s *Simulation) Telemetry() physics.Telemetry {
	return physics.NewTelemetry(s.body, s.lastAero, s.probe.Clearance(s.body))
}

// LastAero returns the forces computed on the last tick
func (s *Simulation) LastAero() physics.AeroSample {
	return s.lastAero
}

// Body returns the camera view of the aircraft
func (s *Simulation) Body() physics.View {
	return s.body.View()
}

// Chunks returns the terrain store for renderers
func (s *Simulation) Chunks() *terrain.ChunkStore {
	return s.chunks
}

// HeightField returns the terrain generator
func (s *Simulation) HeightField() *terrain.HeightField {
	return s.hf
}
