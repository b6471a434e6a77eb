package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"flightsim/internal/logger"
	noise "flightsim/internal/math"
	"flightsim/pkg/config"
	"flightsim/pkg/physics"
	"flightsim/pkg/terrain"
)

func vec3(v []float64) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func rgb(v []float64) terrain.RGB {
	return terrain.RGB{R: v[0], G: v[1], B: v[2]}
}

// NewHeightField builds the terrain generator described by cfg
func NewHeightField(cfg *config.Config) (*terrain.HeightField, error) {
	field, err := noise.NewField(noise.FieldConfig{
		Seed:          cfg.Noise.Seed,
		TerrainSource: noise.SourceKind(cfg.Noise.TerrainSource),
		BiomeSource:   noise.SourceKind(cfg.Noise.BiomeSource),
	})
	if err != nil {
		return nil, err
	}

	biomes := make([]terrain.Biome, 0, len(cfg.Terrain.Biomes))
	for _, b := range cfg.Terrain.Biomes {
		biomes = append(biomes, terrain.Biome{
			Name:      b.Name,
			Amplitude: b.Amplitude,
			Frequency: b.Frequency,
			ColorLow:  rgb(b.ColorLow),
			ColorHigh: rgb(b.ColorHigh),
		})
	}
	table, err := terrain.NewBiomeTable(biomes...)
	if err != nil {
		return nil, err
	}

	return terrain.NewHeightField(field, table, terrain.HeightFieldConfig{
		Octaves:     cfg.Noise.Octaves,
		Persistence: cfg.Noise.Persistence,
		Lacunarity:  cfg.Noise.Lacunarity,
		BiomeScale:  cfg.Terrain.BiomeScale,
	})
}

// NewChunkStore builds the streaming store over hf
func NewChunkStore(cfg *config.Config, hf *terrain.HeightField, log *logger.Logger) (*terrain.ChunkStore, error) {
	bands := make([]terrain.LODBand, 0, len(cfg.Streaming.LODBands))
	for _, b := range cfg.Streaming.LODBands {
		bands = append(bands, terrain.LODBand{MaxDistance: b.MaxDistance, Resolution: b.Resolution})
	}
	lod, err := terrain.NewLODTable(bands...)
	if err != nil {
		return nil, err
	}

	return terrain.NewChunkStore(hf, terrain.StoreConfig{
		ChunkSize:    cfg.Streaming.ChunkSize,
		ViewDistance: cfg.Streaming.ViewDistance,
		ViewMargin:   cfg.Streaming.ViewMargin,
		LOD:          lod,
		Workers:      cfg.Streaming.Workers,
	}, log)
}

// NewBody builds the aircraft at its spawn state
func NewBody(cfg *config.Config) (*physics.RigidBody, error) {
	f := cfg.Flight
	return physics.NewRigidBody(physics.BodyConfig{
		Mass:          f.Mass,
		Dimensions:    vec3(f.Dimensions),
		MaxThrust:     f.MaxThrust,
		ThrottleRate:  f.ThrottleRate,
		ControlTorque: vec3(f.ControlTorque),
	}, physics.SpawnState{
		Position:    vec3(f.Spawn.Position),
		Velocity:    vec3(f.Spawn.Velocity),
		Orientation: mgl64.QuatIdent(),
		Throttle:    f.Spawn.Throttle,
	})
}

// NewAeroModel builds the flight model
func NewAeroModel(cfg *config.Config) (*physics.AeroModel, error) {
	a := cfg.Aero
	return physics.NewAeroModel(physics.AeroConfig{
		Gravity:             vec3(a.Gravity),
		WingArea:            a.WingArea,
		AirDensity:          a.AirDensity,
		LiftSlope:           a.LiftSlope,
		MaxLiftCoefficient:  a.MaxLiftCoefficient,
		BaseDragCoefficient: a.BaseDragCoefficient,
		InducedDragFactor:   a.InducedDragFactor,
	})
}

// New validates cfg and assembles a simulation
func New(cfg *config.Config, log *logger.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hf, err := NewHeightField(cfg)
	if err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	chunks, err := NewChunkStore(cfg, hf, log)
	if err != nil {
		return nil, fmt.Errorf("streaming: %w", err)
	}
	body, err := NewBody(cfg)
	if err != nil {
		return nil, fmt.Errorf("flight: %w", err)
	}
	aero, err := NewAeroModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("aero: %w", err)
	}
	probe, err := physics.NewCollisionProbe(hf, cfg.Collision.Threshold)
	if err != nil {
		return nil, fmt.Errorf("collision: %w", err)
	}

	return newSimulation(hf, chunks, body, aero, probe, cfg.Sim, log), nil
}
