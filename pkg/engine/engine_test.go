package engine

import (
	"math"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"flightsim/pkg/config"
	"flightsim/pkg/sim"
	"flightsim/pkg/terrain"
)

func TestHeadingRune(t *testing.T) {
	tests := []struct {
		x, z float64
		want rune
	}{
		{0, -1, '^'},
		{1, 0, '>'},
		{0, 1, 'v'},
		{-1, 0, '<'},
		{1, -1, '/'},
		{-1, -1, '\\'},
		{0, 0, '+'},
	}
	for _, tt := range tests {
		if got := headingRune(tt.x, tt.z); got != tt.want {
			t.Errorf("headingRune(%v, %v) = %q, want %q", tt.x, tt.z, got, tt.want)
		}
	}
}

func TestGridNormalsFlatAndSloped(t *testing.T) {
	const res = 3
	flat := make([]float32, 0, res*res*3)
	sloped := make([]float32, 0, res*res*3)
	for row := 0; row < res; row++ {
		for col := 0; col < res; col++ {
			flat = append(flat, float32(col), 0, float32(row))
			// rises toward +X at 45 degrees
			sloped = append(sloped, float32(col), float32(col), float32(row))
		}
	}

	for i, n := range gridNormals(flat, res) {
		want := float32(0)
		if i%3 == 1 {
			want = 1
		}
		if n != want {
			t.Fatalf("flat normal component %d = %v, want %v", i, n, want)
		}
	}

	normals := gridNormals(sloped, res)
	center := (1*res + 1) * 3
	inv := float32(1 / math.Sqrt2)
	if math.Abs(float64(normals[center]+inv)) > 1e-6 ||
		math.Abs(float64(normals[center+1]-inv)) > 1e-6 ||
		math.Abs(float64(normals[center+2])) > 1e-6 {
		t.Fatalf("sloped normal = %v", normals[center:center+3])
	}
}

func TestAircraftMeshIndicesInRange(t *testing.T) {
	positions, colors, normals, indices := aircraftMesh()
	if len(positions) != len(colors) || len(positions) != len(normals) {
		t.Fatalf("attribute lengths differ: %d %d %d", len(positions), len(colors), len(normals))
	}
	for _, i := range indices {
		if int(i) >= len(positions)/3 {
			t.Fatalf("index %d out of range", i)
		}
	}
	// nose points along -Z
	if positions[2] >= 0 {
		t.Fatalf("nose z = %v", positions[2])
	}
}

func newTestASCII(t *testing.T) (*ASCIIRenderer, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	r, err := NewASCIIRenderer(screen, 32, nil)
	if err != nil {
		t.Fatalf("NewASCIIRenderer: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(r.Close)
	return r, screen
}

func TestASCIIKeyHoldDecays(t *testing.T) {
	r, _ := newTestASCII(t)
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	r.handleEvent(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	r.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone))
	r.handleEvent(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone))

	in := r.Poll()
	if in.Controls.Pitch != 1 || in.Controls.Roll != 1 || in.Controls.ThrottleDelta != 1 || in.Controls.Yaw != 0 {
		t.Fatalf("controls = %+v", in.Controls)
	}

	now = now.Add(keyHold)
	if in := r.Poll(); !in.Controls.IsZero() {
		t.Fatalf("controls after hold = %+v", in.Controls)
	}
}

func TestASCIIOneShotRequests(t *testing.T) {
	r, _ := newTestASCII(t)

	r.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	r.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone))
	in := r.Poll()
	if !in.Reset || !in.TogglePause || in.Quit {
		t.Fatalf("intent = %+v", in)
	}
	if in := r.Poll(); in.Reset || in.TogglePause {
		t.Fatalf("requests not consumed: %+v", in)
	}

	r.handleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	if !r.Poll().Quit {
		t.Fatal("escape should quit")
	}
}

func TestASCIIShade(t *testing.T) {
	r, _ := newTestASCII(t)
	if got := r.shade(-10, 100); got != ' ' {
		t.Errorf("below zero = %q", got)
	}
	if got := r.shade(100, 100); got != '$' {
		t.Errorf("at amplitude = %q", got)
	}
	if got := r.shade(50, 0); got != ' ' {
		t.Errorf("zero amplitude = %q", got)
	}
}

func TestASCIIRenderDrawsMapAndHUD(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Noise.Octaves = 3
	s, err := sim.New(cfg, nil)
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}

	r, screen := newTestASCII(t)
	r.Render(newFrame(s, 60))

	if ch, _, _, _ := screen.GetContent(0, 0); ch != 'S' {
		t.Fatalf("HUD starts with %q", ch)
	}
	if ch, _, _, _ := screen.GetContent(40, hudRows+(24-hudRows)/2); ch != '^' {
		t.Fatalf("aircraft glyph = %q", ch)
	}
}

func TestStoreEventsMirrorLiveChunks(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Noise.Octaves = 2
	s, err := sim.New(cfg, nil)
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}

	live := make(map[terrain.ChunkKey]bool)
	s.Chunks().ForEach(func(c *terrain.Chunk) { live[c.Key] = true })
	s.Chunks().OnChange(func(ev terrain.ChunkEvent) {
		switch ev.Kind {
		case terrain.ChunkLoaded:
			if ev.Chunk == nil {
				t.Fatalf("load event for %s without chunk", ev.Key)
			}
			live[ev.Key] = true
		case terrain.ChunkUnloaded:
			delete(live, ev.Key)
		}
	})

	s.Chunks().Update(5000, -5000)
	if len(live) != s.Chunks().Len() {
		t.Fatalf("mirrored %d chunks, store has %d", len(live), s.Chunks().Len())
	}
	for _, key := range s.Chunks().Keys() {
		if !live[key] {
			t.Fatalf("chunk %s missing from mirror", key)
		}
	}
}
