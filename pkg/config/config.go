package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"flightsim/internal/logger"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Display modes
const (
	DisplayOpenGL = "opengl"
	DisplayASCII  = "ascii"
)

// Config represents the main configuration
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Audio     AudioConfig     `yaml:"audio"`
	Log       LogConfig       `yaml:"log"`
	Noise     NoiseConfig     `yaml:"noise"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Streaming StreamingConfig `yaml:"streaming"`
	Flight    FlightConfig    `yaml:"flight"`
	Aero      AeroConfig      `yaml:"aero"`
	Collision CollisionConfig `yaml:"collision"`
	Sim       SimConfig       `yaml:"sim"`
}

// GraphicsConfig contains graphics-related configuration
type GraphicsConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Fullscreen  bool    `yaml:"fullscreen"`
	VSync       bool    `yaml:"vsync"`
	FrameRate   int     `yaml:"framerate"`
	DisplayMode string  `yaml:"display_mode"` // opengl, ascii
	FOVDegrees  float64 `yaml:"fov_degrees"`
}

// AudioConfig contains audio-related configuration
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
}

// LogConfig selects the log level and an optional log file
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty logs to the console only
}

// NoiseConfig contains the seed and octave settings of the terrain noise
type NoiseConfig struct {
	Seed          int64   `yaml:"seed"`
	TerrainSource string  `yaml:"terrain_source"` // simplex, perlin
	BiomeSource   string  `yaml:"biome_source"`
	Octaves       int     `yaml:"octaves"`
	Persistence   float64 `yaml:"persistence"`
	Lacunarity    float64 `yaml:"lacunarity"`
}

// BiomeConfig is one biome entry; the first two are blended
type BiomeConfig struct {
	Name      string    `yaml:"name"`
	Amplitude float64   `yaml:"amplitude"`
	Frequency float64   `yaml:"frequency"`
	ColorLow  []float64 `yaml:"color_low"`
	ColorHigh []float64 `yaml:"color_high"`
}

// TerrainConfig contains the biome table
type TerrainConfig struct {
	Biomes     []BiomeConfig `yaml:"biomes"`
	BiomeScale float64       `yaml:"biome_scale"`
}

// LODBandConfig is one level-of-detail band
type LODBandConfig struct {
	MaxDistance float64 `yaml:"max_distance"`
	Resolution  int     `yaml:"resolution"`
}

// StreamingConfig contains chunk streaming settings
type StreamingConfig struct {
	ChunkSize    float64         `yaml:"chunk_size"`
	ViewDistance float64         `yaml:"view_distance"` // 0 derives it from the bands
	ViewMargin   float64         `yaml:"view_margin"`
	LODBands     []LODBandConfig `yaml:"lod_bands"`
	Workers      int             `yaml:"workers"`
}

// SpawnConfig is the state a fresh flight starts from
type SpawnConfig struct {
	Position []float64 `yaml:"position"`
	Velocity []float64 `yaml:"velocity"`
	Throttle float64   `yaml:"throttle"`
}

// FlightConfig describes the aircraft
type FlightConfig struct {
	Mass          float64     `yaml:"mass"`
	Dimensions    []float64   `yaml:"dimensions"`
	MaxThrust     float64     `yaml:"max_thrust"`
	ThrottleRate  float64     `yaml:"throttle_rate"`
	ControlTorque []float64   `yaml:"control_torque"`
	Spawn         SpawnConfig `yaml:"spawn"`
}

// AeroConfig contains the flight model constants
type AeroConfig struct {
	Gravity             []float64 `yaml:"gravity"`
	WingArea            float64   `yaml:"wing_area"`
	AirDensity          float64   `yaml:"air_density"`
	LiftSlope           float64   `yaml:"lift_slope"`
	MaxLiftCoefficient  float64   `yaml:"max_lift_coefficient"`
	BaseDragCoefficient float64   `yaml:"base_drag_coefficient"`
	InducedDragFactor   float64   `yaml:"induced_drag_factor"`
}

// CollisionConfig contains the ground contact buffer
type CollisionConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// SimConfig contains the fixed tick settings
type SimConfig struct {
	FixedStep   float64 `yaml:"fixed_step"` // seconds
	MaxSubsteps int     `yaml:"max_substeps"`
}

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:       1280,
			Height:      720,
			Fullscreen:  false,
			VSync:       true,
			FrameRate:   60,
			DisplayMode: DisplayOpenGL,
			FOVDegrees:  70,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.5,
		},
		Log: LogConfig{
			Level: "info",
		},
		Noise: NoiseConfig{
			Seed:          1337,
			TerrainSource: "simplex",
			BiomeSource:   "perlin",
			Octaves:       6,
			Persistence:   0.5,
			Lacunarity:    2.0,
		},
		Terrain: TerrainConfig{
			Biomes: []BiomeConfig{
				{
					Name:      "mountains",
					Amplitude: 400,
					Frequency: 0.0008,
					ColorLow:  []float64{0.36, 0.33, 0.30},
					ColorHigh: []float64{0.95, 0.95, 0.97},
				},
				{
					Name:      "plains",
					Amplitude: 60,
					Frequency: 0.003,
					ColorLow:  []float64{0.20, 0.45, 0.15},
					ColorHigh: []float64{0.55, 0.65, 0.30},
				},
			},
			BiomeScale: 6000,
		},
		Streaming: StreamingConfig{
			ChunkSize:    512,
			ViewDistance: 0,
			ViewMargin:   1.1,
			LODBands: []LODBandConfig{
				{MaxDistance: 512, Resolution: 64},
				{MaxDistance: 1024, Resolution: 32},
				{MaxDistance: 2048, Resolution: 16},
			},
			Workers: 1,
		},
		Flight: FlightConfig{
			Mass:          1200,
			Dimensions:    []float64{10, 2, 8},
			MaxThrust:     9000,
			ThrottleRate:  0.5,
			ControlTorque: []float64{8000, 6000, 10000},
			Spawn: SpawnConfig{
				Position: []float64{0, 600, 0},
				Velocity: []float64{0, 0, -60},
				Throttle: 0.6,
			},
		},
		Aero: AeroConfig{
			Gravity:             []float64{0, -9.81, 0},
			WingArea:            16,
			AirDensity:          1.225,
			LiftSlope:           5.5,
			MaxLiftCoefficient:  1.4,
			BaseDragCoefficient: 0.03,
			InducedDragFactor:   0.05,
		},
		Collision: CollisionConfig{
			Threshold: 1.5,
		},
		Sim: SimConfig{
			FixedStep:   1.0 / 120,
			MaxSubsteps: 8,
		},
	}
}

// LoadConfig loads the configuration from a file. Defaults are returned
// alongside any error so the caller can carry on.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return config, fmt.Errorf("config file not found, using defaults: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("error parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error serializing config: %w", err)
	}

	err = os.WriteFile(filePath, data, 0644)
	if err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

func invalid(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, v...))
}

func vec3(name string, v []float64) error {
	if len(v) != 3 {
		return invalid("%s needs 3 components, got %d", name, len(v))
	}
	return nil
}

func color(name string, v []float64) error {
	if err := vec3(name, v); err != nil {
		return err
	}
	for _, c := range v {
		if c < 0 || c > 1 {
			return invalid("%s components must be in [0, 1], got %v", name, v)
		}
	}
	return nil
}

// Validate checks structure and ranges; physical meaning is checked again
// by the constructors that consume each section
func (c *Config) Validate() error {
	g := c.Graphics
	if g.Width <= 0 || g.Height <= 0 {
		return invalid("graphics size %dx%d", g.Width, g.Height)
	}
	if g.FrameRate <= 0 {
		return invalid("graphics.framerate must be positive, got %d", g.FrameRate)
	}
	if g.DisplayMode != DisplayOpenGL && g.DisplayMode != DisplayASCII {
		return invalid("graphics.display_mode %q (want %s or %s)", g.DisplayMode, DisplayOpenGL, DisplayASCII)
	}
	if g.FOVDegrees <= 0 || g.FOVDegrees >= 180 {
		return invalid("graphics.fov_degrees must be in (0, 180), got %v", g.FOVDegrees)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return invalid("audio.volume must be in [0, 1], got %v", c.Audio.Volume)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}

	n := c.Noise
	for name, src := range map[string]string{"noise.terrain_source": n.TerrainSource, "noise.biome_source": n.BiomeSource} {
		if src != "simplex" && src != "perlin" {
			return invalid("%s %q (want simplex or perlin)", name, src)
		}
	}
	if n.Octaves < 1 {
		return invalid("noise.octaves must be at least 1, got %d", n.Octaves)
	}
	if n.Persistence <= 0 || n.Persistence >= 1 {
		return invalid("noise.persistence must be in (0, 1), got %v", n.Persistence)
	}
	if n.Lacunarity <= 0 {
		return invalid("noise.lacunarity must be positive, got %v", n.Lacunarity)
	}

	if len(c.Terrain.Biomes) < 2 {
		return invalid("terrain.biomes needs at least 2 entries, got %d", len(c.Terrain.Biomes))
	}
	for i, b := range c.Terrain.Biomes {
		if b.Amplitude <= 0 || b.Frequency <= 0 {
			return invalid("biome %d (%s): amplitude and frequency must be positive", i, b.Name)
		}
		if err := color(fmt.Sprintf("biome %s color_low", b.Name), b.ColorLow); err != nil {
			return err
		}
		if err := color(fmt.Sprintf("biome %s color_high", b.Name), b.ColorHigh); err != nil {
			return err
		}
	}
	if c.Terrain.BiomeScale <= 0 {
		return invalid("terrain.biome_scale must be positive, got %v", c.Terrain.BiomeScale)
	}

	s := c.Streaming
	if s.ChunkSize <= 0 {
		return invalid("streaming.chunk_size must be positive, got %v", s.ChunkSize)
	}
	if s.ViewDistance < 0 {
		return invalid("streaming.view_distance must not be negative, got %v", s.ViewDistance)
	}
	if s.ViewMargin < 1 {
		return invalid("streaming.view_margin must be at least 1, got %v", s.ViewMargin)
	}
	if len(s.LODBands) == 0 {
		return invalid("streaming.lod_bands is empty")
	}
	for i, b := range s.LODBands {
		if b.MaxDistance <= 0 || b.Resolution < 2 {
			return invalid("lod band %d: max_distance %v, resolution %d", i, b.MaxDistance, b.Resolution)
		}
	}
	if s.Workers < 1 {
		return invalid("streaming.workers must be at least 1, got %d", s.Workers)
	}

	f := c.Flight
	if f.Mass <= 0 {
		return invalid("flight.mass must be positive, got %v", f.Mass)
	}
	if f.MaxThrust < 0 || f.ThrottleRate < 0 {
		return invalid("flight.max_thrust and throttle_rate must not be negative")
	}
	for name, v := range map[string][]float64{
		"flight.dimensions":     f.Dimensions,
		"flight.control_torque": f.ControlTorque,
		"flight.spawn.position": f.Spawn.Position,
		"flight.spawn.velocity": f.Spawn.Velocity,
		"aero.gravity":          c.Aero.Gravity,
	} {
		if err := vec3(name, v); err != nil {
			return err
		}
	}
	if f.Spawn.Throttle < 0 || f.Spawn.Throttle > 1 {
		return invalid("flight.spawn.throttle must be in [0, 1], got %v", f.Spawn.Throttle)
	}

	if c.Collision.Threshold < 0 {
		return invalid("collision.threshold must not be negative, got %v", c.Collision.Threshold)
	}
	if c.Sim.FixedStep <= 0 {
		return invalid("sim.fixed_step must be positive, got %v", c.Sim.FixedStep)
	}
	if c.Sim.MaxSubsteps < 1 {
		return invalid("sim.max_substeps must be at least 1, got %d", c.Sim.MaxSubsteps)
	}

	return nil
}
