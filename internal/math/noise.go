package noise

import (
	"errors"
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Errors returned when fractal or source configuration is malformed
var (
	ErrInvalidOctaves     = errors.New("octaves must be at least 1")
	ErrInvalidPersistence = errors.New("persistence must be in (0, 1)")
	ErrInvalidLacunarity  = errors.New("lacunarity must be positive")
	ErrInvalidFrequency   = errors.New("frequency must be positive")
	ErrUnknownSource      = errors.New("unknown noise source")
)

// biomeSeedOffset decorrelates the biome channel from the terrain channel
const biomeSeedOffset = 7919

// 2D gradient noise with unit gradients peaks at ±√2/2
const perlinRangeScale = math.Sqrt2

// SourceKind names a raw noise implementation
type SourceKind string

// Supported raw noise sources
const (
	SourceSimplex SourceKind = "simplex"
	SourcePerlin  SourceKind = "perlin"
)

// Source is a raw 2D noise channel with output in [-1, 1]
type Source interface {
	Eval2(x, y float64) float64
}

// simplexSource wraps OpenSimplex noise
type simplexSource struct {
	noise opensimplex.Noise
}

// Eval2 samples OpenSimplex noise
func (s simplexSource) Eval2(x, y float64) float64 {
	return clampUnit(s.noise.Eval2(x, y))
}

// perlinSource wraps single-octave Perlin noise
type perlinSource struct {
	noise *perlin.Perlin
}

// Eval2 samples Perlin noise rescaled to the full [-1, 1] range
func (s perlinSource) Eval2(x, y float64) float64 {
	return clampUnit(s.noise.Noise2D(x, y) * perlinRangeScale)
}

// NewSource creates a seeded raw noise source of the given kind
func NewSource(kind SourceKind, seed int64) (Source, error) {
	switch kind {
	case SourceSimplex:
		return simplexSource{noise: opensimplex.New(seed)}, nil
	case SourcePerlin:
		// Octave summing is done by Fractal, so the library runs one octave
		return perlinSource{noise: perlin.NewPerlin(2, 2, 1, seed)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}

// FractalParams configures an octave sum
type FractalParams struct {
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Frequency   float64
}

// Validate checks the parameters keep the fractal sum well defined
func (p FractalParams) Validate() error {
	if p.Octaves < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidOctaves, p.Octaves)
	}
	if !(p.Persistence > 0 && p.Persistence < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidPersistence, p.Persistence)
	}
	if !(p.Lacunarity > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidLacunarity, p.Lacunarity)
	}
	if !(p.Frequency > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidFrequency, p.Frequency)
	}
	return nil
}

// Fractal sums octaves of src and divides by the total weight so the
// result stays in [-1, 1]. Returns 0 when p.Octaves < 1.
func Fractal(src Source, x, z float64, p FractalParams) float64 {
	result := 0.0
	amplitude := 1.0
	frequency := p.Frequency
	total := 0.0

	for i := 0; i < p.Octaves; i++ {
		result += src.Eval2(x*frequency, z*frequency) * amplitude
		total += amplitude
		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}

	if total == 0 {
		return 0
	}
	return clampUnit(result / total)
}

// Field holds the two independent noise channels used by terrain generation.
// It is immutable after construction and safe for concurrent reads.
type Field struct {
	terrain Source
	biome   Source
}

// FieldConfig selects the seed and source implementations of a Field
type FieldConfig struct {
	Seed          int64
	TerrainSource SourceKind
	BiomeSource   SourceKind
}

// NewField builds the terrain and biome channels from one seed
func NewField(cfg FieldConfig) (*Field, error) {
	terrain, err := NewSource(cfg.TerrainSource, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("terrain channel: %w", err)
	}
	biome, err := NewSource(cfg.BiomeSource, cfg.Seed+biomeSeedOffset)
	if err != nil {
		return nil, fmt.Errorf("biome channel: %w", err)
	}
	return NewFieldFromSources(terrain, biome), nil
}

// NewFieldFromSources builds a Field from explicit channels
func NewFieldFromSources(terrain, biome Source) *Field {
	return &Field{terrain: terrain, biome: biome}
}

// Sample returns raw terrain noise in [-1, 1]
func (f *Field) Sample(x, z float64) float64 {
	return f.terrain.Eval2(x, z)
}

// Fractal returns the normalised octave sum of the terrain channel
func (f *Field) Fractal(x, z float64, octaves int, persistence, lacunarity, baseFrequency float64) float64 {
	return Fractal(f.terrain, x, z, FractalParams{
		Octaves:     octaves,
		Persistence: persistence,
		Lacunarity:  lacunarity,
		Frequency:   baseFrequency,
	})
}

// Biome returns raw biome-selector noise in [-1, 1]
func (f *Field) Biome(x, z float64) float64 {
	return f.biome.Eval2(x, z)
}

// clampUnit guards the [-1, 1] contract against library overshoot
func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
