package terrain

import (
	"errors"
	"fmt"

	noise "flightsim/internal/math"
)

// ErrInvalidBiomeScale is returned for a non-positive biome scale
var ErrInvalidBiomeScale = errors.New("biome scale must be positive")

// HeightFieldConfig holds the octave settings shared by every biome
type HeightFieldConfig struct {
	Octaves     int
	Persistence float64
	Lacunarity  float64
	BiomeScale  float64
}

// Sample is the full terrain answer for one point
type Sample struct {
	Height    float64
	Influence float64
	Color     RGB
}

// HeightField is the canonical terrain query. Every method is a pure
// function of its arguments and the configuration given to NewHeightField.
type HeightField struct {
	field      *noise.Field
	biomeA     Biome
	biomeB     Biome
	octaves    int
	persist    float64
	lacunarity float64
	biomeScale float64
}

// NewHeightField composes a noise field with the table's blended biome pair
func NewHeightField(field *noise.Field, table *BiomeTable, cfg HeightFieldConfig) (*HeightField, error) {
	if field == nil || table == nil {
		return nil, errors.New("height field needs a noise field and a biome table")
	}
	if !(cfg.BiomeScale > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidBiomeScale, cfg.BiomeScale)
	}

	a, b := table.Pair()
	for _, biome := range []Biome{a, b} {
		params := noise.FractalParams{
			Octaves:     cfg.Octaves,
			Persistence: cfg.Persistence,
			Lacunarity:  cfg.Lacunarity,
			Frequency:   biome.Frequency,
		}
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("biome %q: %w", biome.Name, err)
		}
	}

	return &HeightField{
		field:      field,
		biomeA:     a,
		biomeB:     b,
		octaves:    cfg.Octaves,
		persist:    cfg.Persistence,
		lacunarity: cfg.Lacunarity,
		biomeScale: cfg.BiomeScale,
	}, nil
}

// BiomeInfluence maps the biome channel to [0, 1]; 0 is fully biome A
func (h *HeightField) BiomeInfluence(x, z float64) float64 {
	return (h.field.Biome(x/h.biomeScale, z/h.biomeScale) + 1) / 2
}

// fractalHeight is the octave sum at the biome's own frequency, scaled by its amplitude
func (h *HeightField) fractalHeight(x, z float64, b Biome) float64 {
	return h.field.Fractal(x, z, h.octaves, h.persist, h.lacunarity, b.Frequency) * b.Amplitude
}

// Height returns the blended elevation at (x, z)
func (h *HeightField) Height(x, z float64) float64 {
	return h.heightWith(x, z, h.BiomeInfluence(x, z))
}

func (h *HeightField) heightWith(x, z, influence float64) float64 {
	heightA := h.fractalHeight(x, z, h.biomeA)
	heightB := h.fractalHeight(x, z, h.biomeB)
	return Blend(heightA, heightB, influence)
}

// colorWith shades both biome ramps at height and blends them
func (h *HeightField) colorWith(height, influence float64) RGB {
	return BlendColor(h.biomeA.ColorAt(height), h.biomeB.ColorAt(height), influence)
}

// Color returns the vertex color at (x, z)
func (h *HeightField) Color(x, z float64) RGB {
	return h.At(x, z).Color
}

// At computes height, influence and color with a single biome lookup
func (h *HeightField) At(x, z float64) Sample {
	influence := h.BiomeInfluence(x, z)
	height := h.heightWith(x, z, influence)
	return Sample{
		Height:    height,
		Influence: influence,
		Color:     h.colorWith(height, influence),
	}
}

// Biomes returns the blended pair
func (h *HeightField) Biomes() (Biome, Biome) {
	return h.biomeA, h.biomeB
}
