package terrain

import (
	"errors"
	"fmt"
	"sort"
)

// LOD table errors
var (
	ErrEmptyLODTable  = errors.New("LOD table has no bands")
	ErrInvalidLODBand = errors.New("invalid LOD band")
)

// LODBand assigns a sample resolution to cells up to MaxDistance away
type LODBand struct {
	MaxDistance float64
	Resolution  int
}

// LODTable picks a chunk resolution from the viewpoint distance
type LODTable struct {
	bands    []LODBand
	coarsest int
}

// DefaultLODBands returns the stock near/mid/far bands
func DefaultLODBands() []LODBand {
	return []LODBand{
		{MaxDistance: 512, Resolution: 64},
		{MaxDistance: 1024, Resolution: 32},
		{MaxDistance: 2048, Resolution: 16},
	}
}

// NewLODTable validates the bands and sorts them by distance
func NewLODTable(bands ...LODBand) (*LODTable, error) {
	if len(bands) == 0 {
		return nil, ErrEmptyLODTable
	}

	sorted := make([]LODBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MaxDistance < sorted[j].MaxDistance
	})

	coarsest := sorted[0].Resolution
	for i, b := range sorted {
		if !(b.MaxDistance > 0) {
			return nil, fmt.Errorf("%w: max distance must be positive, got %v", ErrInvalidLODBand, b.MaxDistance)
		}
		if b.Resolution < 2 {
			return nil, fmt.Errorf("%w: resolution must be at least 2, got %d", ErrInvalidLODBand, b.Resolution)
		}
		if i > 0 && b.MaxDistance == sorted[i-1].MaxDistance {
			return nil, fmt.Errorf("%w: duplicate max distance %v", ErrInvalidLODBand, b.MaxDistance)
		}
		if b.Resolution < coarsest {
			coarsest = b.Resolution
		}
	}

	return &LODTable{bands: sorted, coarsest: coarsest}, nil
}

// ResolutionFor returns the resolution of the nearest band whose
// MaxDistance covers d, or the coarsest resolution beyond every band
func (t *LODTable) ResolutionFor(d float64) int {
	for _, b := range t.bands {
		if d <= b.MaxDistance {
			return b.Resolution
		}
	}
	return t.coarsest
}

// MaxDistance is the reach of the farthest band
func (t *LODTable) MaxDistance() float64 {
	return t.bands[len(t.bands)-1].MaxDistance
}

// Coarsest is the lowest resolution in the table
func (t *LODTable) Coarsest() int {
	return t.coarsest
}

// Bands returns the bands in ascending distance order
func (t *LODTable) Bands() []LODBand {
	out := make([]LODBand, len(t.bands))
	copy(out, t.bands)
	return out
}
