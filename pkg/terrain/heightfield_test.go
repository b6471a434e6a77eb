package terrain

import (
	"errors"
	"math"
	"testing"

	noise "flightsim/internal/math"
)

// constSource returns the same raw noise everywhere
type constSource float64

func (c constSource) Eval2(x, y float64) float64 { return float64(c) }

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func testBiomes() []Biome {
	return []Biome{
		{Name: "mountains", Amplitude: 100, Frequency: 0.001, ColorLow: RGB{0, 0, 0}, ColorHigh: RGB{1, 1, 1}},
		{Name: "plains", Amplitude: 20, Frequency: 0.004, ColorLow: RGB{0, 1, 0}, ColorHigh: RGB{0, 0, 1}},
	}
}

func newTestHeightField(t *testing.T, seed int64) *HeightField {
	t.Helper()
	field, err := noise.NewField(noise.FieldConfig{
		Seed:          seed,
		TerrainSource: noise.SourceSimplex,
		BiomeSource:   noise.SourcePerlin,
	})
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	table, err := NewBiomeTable(DefaultBiomes()...)
	if err != nil {
		t.Fatalf("NewBiomeTable: %v", err)
	}
	hf, err := NewHeightField(field, table, HeightFieldConfig{
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
		BiomeScale:  6000,
	})
	if err != nil {
		t.Fatalf("NewHeightField: %v", err)
	}
	return hf
}

func TestHeightInterpolation(t *testing.T) {
	tests := []struct {
		biomeNoise    float64
		wantInfluence float64
		wantHeight    float64
	}{
		{0, 0.5, 60},
		{0.98, 0.99, 20.8},
		{-0.98, 0.01, 99.2},
		{-1, 0, 100},
		{1, 1, 20},
	}

	table, err := NewBiomeTable(testBiomes()...)
	if err != nil {
		t.Fatalf("NewBiomeTable: %v", err)
	}
	cfg := HeightFieldConfig{Octaves: 5, Persistence: 0.5, Lacunarity: 2, BiomeScale: 1000}

	for _, tt := range tests {
		field := noise.NewFieldFromSources(constSource(1), constSource(tt.biomeNoise))
		hf, err := NewHeightField(field, table, cfg)
		if err != nil {
			t.Fatalf("NewHeightField: %v", err)
		}

		influence := hf.BiomeInfluence(123, -456)
		if !approx(influence, tt.wantInfluence, 1e-9) {
			t.Errorf("biome noise %f: influence = %f, want %f", tt.biomeNoise, influence, tt.wantInfluence)
		}
		height := hf.Height(123, -456)
		if !approx(height, tt.wantHeight, 1e-9) {
			t.Errorf("biome noise %f: height = %f, want %f", tt.biomeNoise, height, tt.wantHeight)
		}
	}
}

func TestColorBlendsBothRamps(t *testing.T) {
	table, err := NewBiomeTable(testBiomes()...)
	if err != nil {
		t.Fatalf("NewBiomeTable: %v", err)
	}
	// terrain 0.5 gives height 50 in mountains and 10 in plains; blended 30
	field := noise.NewFieldFromSources(constSource(0.5), constSource(0))
	hf, err := NewHeightField(field, table, HeightFieldConfig{Octaves: 3, Persistence: 0.5, Lacunarity: 2, BiomeScale: 1000})
	if err != nil {
		t.Fatalf("NewHeightField: %v", err)
	}

	s := hf.At(0, 0)
	if !approx(s.Height, 30, 1e-9) {
		t.Fatalf("height = %f, want 30", s.Height)
	}
	// mountains at 30/100 -> grey 0.3; plains clamp(30/20)=1 -> blue
	want := RGB{R: 0.15, G: 0.15, B: 0.65}
	if !approx(s.Color.R, want.R, 1e-9) || !approx(s.Color.G, want.G, 1e-9) || !approx(s.Color.B, want.B, 1e-9) {
		t.Fatalf("color = %+v, want %+v", s.Color, want)
	}
	if c := hf.Color(0, 0); c != s.Color {
		t.Fatalf("Color disagrees with At: %+v vs %+v", c, s.Color)
	}
}

func TestHeightDeterminism(t *testing.T) {
	a := newTestHeightField(t, 42)
	b := newTestHeightField(t, 42)

	for i := 0; i < 500; i++ {
		x := float64(i)*37.3 - 9000
		z := float64(i)*-11.9 + 4000

		h1, h2 := a.Height(x, z), a.Height(x, z)
		if h1 != h2 {
			t.Fatalf("height not repeatable at (%f,%f): %f vs %f", x, z, h1, h2)
		}
		if h3 := b.Height(x, z); h1 != h3 {
			t.Fatalf("same seed differs at (%f,%f): %f vs %f", x, z, h1, h3)
		}
		if a.BiomeInfluence(x, z) != b.BiomeInfluence(x, z) {
			t.Fatalf("influence not deterministic at (%f,%f)", x, z)
		}
	}
}

func TestBiomeInfluenceBounds(t *testing.T) {
	hf := newTestHeightField(t, 7)
	for i := -200; i < 200; i++ {
		for j := -3; j <= 3; j++ {
			x := float64(i) * 313.7
			z := float64(j) * 2711.1
			if inf := hf.BiomeInfluence(x, z); inf < 0 || inf > 1 {
				t.Fatalf("influence %f out of [0,1] at (%f,%f)", inf, x, z)
			}
		}
	}
}

func TestHeightWithinAmplitude(t *testing.T) {
	hf := newTestHeightField(t, 99)
	a, b := hf.Biomes()
	limit := math.Max(a.Amplitude, b.Amplitude)
	for i := 0; i < 1000; i++ {
		x := float64(i) * 97.1
		z := float64(i%37) * 401.3
		if h := hf.Height(x, z); math.Abs(h) > limit {
			t.Fatalf("height %f exceeds amplitude %f at (%f,%f)", h, limit, x, z)
		}
	}
}

func TestBiomeValidation(t *testing.T) {
	tests := []struct {
		name   string
		biomes []Biome
		want   error
	}{
		{"one biome", DefaultBiomes()[:1], ErrTooFewBiomes},
		{"zero amplitude", []Biome{{Name: "flat", Amplitude: 0, Frequency: 1}, DefaultBiomes()[1]}, ErrInvalidBiome},
		{"negative frequency", []Biome{DefaultBiomes()[0], {Name: "odd", Amplitude: 1, Frequency: -1}}, ErrInvalidBiome},
		{"defaults", DefaultBiomes(), nil},
	}
	for _, tt := range tests {
		_, err := NewBiomeTable(tt.biomes...)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestHeightFieldConfigErrors(t *testing.T) {
	field := noise.NewFieldFromSources(constSource(0), constSource(0))
	table, _ := NewBiomeTable(DefaultBiomes()...)

	if _, err := NewHeightField(field, table, HeightFieldConfig{Octaves: 4, Persistence: 0.5, Lacunarity: 2}); !errors.Is(err, ErrInvalidBiomeScale) {
		t.Errorf("zero biome scale: err = %v", err)
	}
	if _, err := NewHeightField(field, table, HeightFieldConfig{Octaves: 0, Persistence: 0.5, Lacunarity: 2, BiomeScale: 1}); !errors.Is(err, noise.ErrInvalidOctaves) {
		t.Errorf("zero octaves: err = %v", err)
	}
	if _, err := NewHeightField(field, table, HeightFieldConfig{Octaves: 4, Persistence: 1.5, Lacunarity: 2, BiomeScale: 1}); !errors.Is(err, noise.ErrInvalidPersistence) {
		t.Errorf("persistence 1.5: err = %v", err)
	}
}

func TestLookupBiome(t *testing.T) {
	table, _ := NewBiomeTable(DefaultBiomes()...)
	if b, ok := table.Lookup("plains"); !ok || b.Amplitude != 60 {
		t.Fatalf("Lookup(plains) = %+v, %v", b, ok)
	}
	if _, ok := table.Lookup("ocean"); ok {
		t.Fatal("Lookup(ocean) should miss")
	}
}
