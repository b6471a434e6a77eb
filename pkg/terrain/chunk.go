package terrain

import "fmt"

// ChunkKey identifies a chunk by integer grid coordinates
type ChunkKey struct {
	X, Z int
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.X, k.Z)
}

// Less orders keys by Z then X
func (k ChunkKey) Less(other ChunkKey) bool {
	if k.Z != other.Z {
		return k.Z < other.Z
	}
	return k.X < other.X
}

// Chunk is one fully sampled terrain cell. Samples are row-major
// (index = row*Resolution + col) with rows along Z and columns along X.
// Chunks are never mutated after they are published by the ChunkStore.
type Chunk struct {
	Key        ChunkKey
	Size       float64
	Resolution int
	Heights    []float64
	Colors     []RGB
}

// Mesh is the renderable descriptor of a chunk: local-space positions
// (x, height, z triplets) and per-vertex colors (r, g, b triplets).
// Normals are left to the consumer.
type Mesh struct {
	Positions []float32
	Colors    []float32
	Indices   []uint32
}

// Origin returns the world-space corner of the chunk
func (c *Chunk) Origin() (x, z float64) {
	return float64(c.Key.X) * c.Size, float64(c.Key.Z) * c.Size
}

// Center returns the world-space center of the chunk footprint
func (c *Chunk) Center() (x, z float64) {
	return cellCenter(c.Key, c.Size)
}

// Spacing is the world distance between neighbouring samples
func (c *Chunk) Spacing() float64 {
	return c.Size / float64(c.Resolution-1)
}

// SamplePosition returns the world position of grid sample (col, row)
func (c *Chunk) SamplePosition(col, row int) (x, z float64) {
	ox, oz := c.Origin()
	last := float64(c.Resolution - 1)
	return ox + c.Size*float64(col)/last, oz + c.Size*float64(row)/last
}

// HeightAtSample returns the stored height of grid sample (col, row)
func (c *Chunk) HeightAtSample(col, row int) float64 {
	return c.Heights[row*c.Resolution+col]
}

// MinMax returns the lowest and highest stored sample
func (c *Chunk) MinMax() (lo, hi float64) {
	lo, hi = c.Heights[0], c.Heights[0]
	for _, h := range c.Heights[1:] {
		if h < lo {
			lo = h
		}
		if h > hi {
			hi = h
		}
	}
	return lo, hi
}

// Mesh builds the renderable vertex data for the chunk
func (c *Chunk) Mesh() Mesh {
	n := c.Resolution * c.Resolution
	positions := make([]float32, 0, n*3)
	colors := make([]float32, 0, n*3)
	ox, oz := c.Origin()

	for row := 0; row < c.Resolution; row++ {
		for col := 0; col < c.Resolution; col++ {
			i := row*c.Resolution + col
			x, z := c.SamplePosition(col, row)
			positions = append(positions, float32(x-ox), float32(c.Heights[i]), float32(z-oz))
			color := c.Colors[i]
			colors = append(colors, float32(color.R), float32(color.G), float32(color.B))
		}
	}

	return Mesh{
		Positions: positions,
		Colors:    colors,
		Indices:   GridIndices(c.Resolution),
	}
}

// GridIndices triangulates a resolution x resolution vertex grid,
// two counter-clockwise triangles per quad when viewed from +Y
func GridIndices(resolution int) []uint32 {
	if resolution < 2 {
		return nil
	}
	quads := (resolution - 1) * (resolution - 1)
	indices := make([]uint32, 0, quads*6)
	r := uint32(resolution)

	for row := uint32(0); row < r-1; row++ {
		for col := uint32(0); col < r-1; col++ {
			topLeft := row*r + col
			topRight := topLeft + 1
			bottomLeft := topLeft + r
			bottomRight := bottomLeft + 1

			indices = append(indices,
				topLeft, bottomLeft, topRight,
				topRight, bottomLeft, bottomRight,
			)
		}
	}
	return indices
}

// cellCenter returns the world-space center of a grid cell
func cellCenter(key ChunkKey, size float64) (x, z float64) {
	return (float64(key.X) + 0.5) * size, (float64(key.Z) + 0.5) * size
}

// sampleChunk evaluates the height field over the cell footprint. Edge
// samples sit on the cell boundary so neighbours share edge heights.
func sampleChunk(hf *HeightField, key ChunkKey, size float64, resolution int) *Chunk {
	n := resolution * resolution
	chunk := &Chunk{
		Key:        key,
		Size:       size,
		Resolution: resolution,
		Heights:    make([]float64, n),
		Colors:     make([]RGB, n),
	}

	for row := 0; row < resolution; row++ {
		for col := 0; col < resolution; col++ {
			s := hf.At(chunk.SamplePosition(col, row))
			chunk.Heights[row*resolution+col] = s.Height
			chunk.Colors[row*resolution+col] = s.Color
		}
	}
	return chunk
}
