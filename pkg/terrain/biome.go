package terrain

import (
	"errors"
	"fmt"

	"flightsim/internal/util"
)

// Configuration errors for biomes
var (
	ErrInvalidBiome = errors.New("invalid biome")
	ErrTooFewBiomes = errors.New("at least two biomes are required")
)

// RGB is a linear color with components in [0, 1]
type RGB struct {
	R, G, B float64
}

// Lerp blends c towards other by t
func (c RGB) Lerp(other RGB, t float64) RGB {
	return RGB{
		R: util.Lerp(c.R, other.R, t),
		G: util.Lerp(c.G, other.G, t),
		B: util.Lerp(c.B, other.B, t),
	}
}

// Biome is a named terrain style. Immutable once placed in a BiomeTable.
type Biome struct {
	Name      string
	Amplitude float64
	Frequency float64
	ColorLow  RGB
	ColorHigh RGB
}

// Validate checks amplitude and frequency are positive
func (b Biome) Validate() error {
	if !(b.Amplitude > 0) {
		return fmt.Errorf("%w %q: amplitude must be positive, got %v", ErrInvalidBiome, b.Name, b.Amplitude)
	}
	if !(b.Frequency > 0) {
		return fmt.Errorf("%w %q: frequency must be positive, got %v", ErrInvalidBiome, b.Name, b.Frequency)
	}
	return nil
}

// ColorAt returns the biome's ramp color for an elevation
func (b Biome) ColorAt(height float64) RGB {
	return b.ColorLow.Lerp(b.ColorHigh, util.Clamp(height/b.Amplitude, 0, 1))
}

// BiomeTable is the immutable registry of biomes. The first two entries are
// the blended pair: influence 0 is fully the first, 1 fully the second.
type BiomeTable struct {
	biomes []Biome
}

// NewBiomeTable validates and stores the biomes
func NewBiomeTable(biomes ...Biome) (*BiomeTable, error) {
	if len(biomes) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewBiomes, len(biomes))
	}
	for _, b := range biomes {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}

	stored := make([]Biome, len(biomes))
	copy(stored, biomes)
	return &BiomeTable{biomes: stored}, nil
}

// DefaultBiomes returns the stock mountains/plains pair
func DefaultBiomes() []Biome {
	return []Biome{
		{
			Name:      "mountains",
			Amplitude: 400,
			Frequency: 0.0008,
			ColorLow:  RGB{0.36, 0.33, 0.30},
			ColorHigh: RGB{0.95, 0.95, 0.97},
		},
		{
			Name:      "plains",
			Amplitude: 60,
			Frequency: 0.003,
			ColorLow:  RGB{0.20, 0.45, 0.15},
			ColorHigh: RGB{0.55, 0.65, 0.30},
		},
	}
}

// Pair returns the two blended biomes
func (t *BiomeTable) Pair() (Biome, Biome) {
	return t.biomes[0], t.biomes[1]
}

// Biomes returns a copy of every registered biome
func (t *BiomeTable) Biomes() []Biome {
	out := make([]Biome, len(t.biomes))
	copy(out, t.biomes)
	return out
}

// Lookup finds a biome by name
func (t *BiomeTable) Lookup(name string) (Biome, bool) {
	for _, b := range t.biomes {
		if b.Name == name {
			return b, true
		}
	}
	return Biome{}, false
}

// Blend interpolates two biome contributions by influence
func Blend(a, b, influence float64) float64 {
	return util.Lerp(a, b, influence)
}

// BlendColor interpolates two biome colors by influence
func BlendColor(a, b RGB, influence float64) RGB {
	return a.Lerp(b, influence)
}
