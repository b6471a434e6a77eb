package terrain

import (
	"errors"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T, workers int) *ChunkStore {
	t.Helper()
	lod, err := NewLODTable(DefaultLODBands()...)
	if err != nil {
		t.Fatalf("NewLODTable: %v", err)
	}
	store, err := NewChunkStore(newTestHeightField(t, 1337), StoreConfig{
		ChunkSize:  512,
		ViewMargin: DefaultViewMargin,
		LOD:        lod,
		Workers:    workers,
	}, nil)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	return store
}

// recorder collects store events
type recorder struct {
	events []ChunkEvent
}

func (r *recorder) record(ev ChunkEvent) { r.events = append(r.events, ev) }

func (r *recorder) forKey(key ChunkKey) []ChunkEvent {
	var out []ChunkEvent
	for _, ev := range r.events {
		if ev.Key == key {
			out = append(out, ev)
		}
	}
	return out
}

func TestLODResolutionFor(t *testing.T) {
	lod, err := NewLODTable(LODBand{2048, 16}, LODBand{512, 64}, LODBand{1024, 32})
	if err != nil {
		t.Fatalf("NewLODTable: %v", err)
	}
	tests := []struct {
		d    float64
		want int
	}{
		{0, 64},
		{512, 64},
		{512.1, 32},
		{1024, 32},
		{2000, 16},
		{5000, 16},
	}
	for _, tt := range tests {
		if got := lod.ResolutionFor(tt.d); got != tt.want {
			t.Errorf("ResolutionFor(%f) = %d, want %d", tt.d, got, tt.want)
		}
	}
	if lod.MaxDistance() != 2048 || lod.Coarsest() != 16 {
		t.Fatalf("MaxDistance/Coarsest = %f/%d", lod.MaxDistance(), lod.Coarsest())
	}
}

func TestLODTableErrors(t *testing.T) {
	if _, err := NewLODTable(); !errors.Is(err, ErrEmptyLODTable) {
		t.Errorf("empty table: err = %v", err)
	}
	if _, err := NewLODTable(LODBand{512, 1}); !errors.Is(err, ErrInvalidLODBand) {
		t.Errorf("resolution 1: err = %v", err)
	}
	if _, err := NewLODTable(LODBand{-1, 16}); !errors.Is(err, ErrInvalidLODBand) {
		t.Errorf("negative distance: err = %v", err)
	}
	if _, err := NewLODTable(LODBand{512, 16}, LODBand{512, 32}); !errors.Is(err, ErrInvalidLODBand) {
		t.Errorf("duplicate distance: err = %v", err)
	}
}

func TestStoreConfigErrors(t *testing.T) {
	hf := newTestHeightField(t, 1)
	lod, _ := NewLODTable(DefaultLODBands()...)

	if _, err := NewChunkStore(hf, StoreConfig{ChunkSize: 0, LOD: lod}, nil); !errors.Is(err, ErrInvalidChunkSize) {
		t.Errorf("zero chunk size: err = %v", err)
	}
	if _, err := NewChunkStore(hf, StoreConfig{ChunkSize: 512}, nil); !errors.Is(err, ErrEmptyLODTable) {
		t.Errorf("missing LOD table: err = %v", err)
	}
	if _, err := NewChunkStore(hf, StoreConfig{ChunkSize: 512, ViewDistance: 2048, ViewMargin: 1.1, LOD: lod}, nil); !errors.Is(err, ErrViewDistanceTooSmall) {
		t.Errorf("view distance below margin: err = %v", err)
	}
	store, err := NewChunkStore(hf, StoreConfig{ChunkSize: 512, LOD: lod}, nil)
	if err != nil {
		t.Fatalf("derived view distance: %v", err)
	}
	if !approx(store.ViewDistance(), 2048*DefaultViewMargin, 1e-9) {
		t.Fatalf("derived view distance = %f", store.ViewDistance())
	}
}

func TestInitializeLoadsCircle(t *testing.T) {
	store := newTestStore(t, 1)
	store.Initialize()

	if store.Len() != 60 {
		t.Fatalf("loaded %d chunks around origin, want 60", store.Len())
	}
	for _, corner := range []ChunkKey{{3, 3}, {-4, -4}, {3, -4}, {-4, 3}} {
		if _, ok := store.Chunk(corner); ok {
			t.Errorf("corner cell %v should be outside the view circle", corner)
		}
	}
	for _, edge := range []ChunkKey{{3, 2}, {-4, 0}, {0, -4}, {2, 3}} {
		if _, ok := store.Chunk(edge); !ok {
			t.Errorf("cell %v should be loaded", edge)
		}
	}
	if c, _ := store.Chunk(ChunkKey{0, 0}); c.Resolution != 64 {
		t.Errorf("origin cell resolution = %d, want 64", c.Resolution)
	}
}

func TestChunkSamplesMatchHeightField(t *testing.T) {
	store := newTestStore(t, 1)
	store.Initialize()

	chunk, ok := store.Chunk(ChunkKey{1, -2})
	if !ok {
		t.Fatal("chunk (1,-2) not loaded")
	}
	for _, rc := range [][2]int{{0, 0}, {chunk.Resolution - 1, 0}, {3, 7}, {chunk.Resolution - 1, chunk.Resolution - 1}} {
		col, row := rc[0], rc[1]
		want := store.HeightAt(chunk.SamplePosition(col, row))
		if got := chunk.HeightAtSample(col, row); got != want {
			t.Errorf("sample (%d,%d) = %f, height field says %f", col, row, got, want)
		}
	}

	// neighbours share their edge
	right, _ := store.Chunk(ChunkKey{2, -2})
	if right.Resolution == chunk.Resolution {
		if a, b := chunk.HeightAtSample(chunk.Resolution-1, 0), right.HeightAtSample(0, 0); a != b {
			t.Errorf("shared edge differs: %f vs %f", a, b)
		}
	}
}

func TestLODIdempotence(t *testing.T) {
	store := newTestStore(t, 1)
	rec := &recorder{}
	store.OnChange(rec.record)

	store.Update(256, 256)
	rec.events = nil

	store.Update(256, 256)
	if len(rec.events) != 0 {
		t.Fatalf("repeated update at same viewpoint produced %d events", len(rec.events))
	}

	store.Update(260, 256)
	if evs := rec.forKey(ChunkKey{0, 0}); len(evs) != 0 {
		t.Fatalf("unchanged resolution caused churn on (0,0): %+v", evs)
	}
}

func TestLODNearToFar(t *testing.T) {
	store := newTestStore(t, 1)
	rec := &recorder{}
	store.OnChange(rec.record)

	store.Update(256, 256)
	key := ChunkKey{0, 0}
	if c, _ := store.Chunk(key); c.Resolution != 64 {
		t.Fatalf("near resolution = %d, want 64", c.Resolution)
	}
	rec.events = nil
	before := store.Stats()

	// cell center is 2100 away: past every band, still inside the view distance
	store.Update(256+2100, 256)

	evs := rec.forKey(key)
	if len(evs) != 2 {
		t.Fatalf("expected one unload and one load for %v, got %+v", key, evs)
	}
	if evs[0].Kind != ChunkUnloaded || evs[0].Resolution != 64 {
		t.Errorf("first event = %+v, want unload at 64", evs[0])
	}
	if evs[1].Kind != ChunkLoaded || evs[1].Resolution != 16 {
		t.Errorf("second event = %+v, want load at 16", evs[1])
	}
	if c, _ := store.Chunk(key); c.Resolution != 16 {
		t.Errorf("far resolution = %d, want 16", c.Resolution)
	}
	if store.Stats().Reloaded <= before.Reloaded {
		t.Error("reload counter did not advance")
	}
}

func TestUpdateOrderUnloadsBeforeLoads(t *testing.T) {
	store := newTestStore(t, 1)
	store.Initialize()

	rec := &recorder{}
	store.OnChange(rec.record)
	live := store.Len()
	peak := live
	store.OnChange(func(ev ChunkEvent) {
		if ev.Kind == ChunkLoaded {
			live++
		} else {
			live--
		}
		if live > peak {
			peak = live
		}
	})

	// a grid corner far away: nothing overlaps, and the new set is also 60
	store.Update(10*512, -6*512)
	if peak > 60 {
		t.Fatalf("live set peaked at %d; loads must follow unloads", peak)
	}
	seenLoad := false
	for _, ev := range rec.events {
		if ev.Kind == ChunkLoaded {
			seenLoad = true
		} else if seenLoad {
			t.Fatalf("unload of %v after a load in the same update", ev.Key)
		}
	}
	if store.Len() != 60 {
		t.Fatalf("loaded %d chunks at the new viewpoint, want 60", store.Len())
	}
}

func TestResetInvariant(t *testing.T) {
	store := newTestStore(t, 1)
	store.Update(3000, 3000)
	store.Update(3600, 2500)
	previous := store.Keys()

	rec := &recorder{}
	store.OnChange(rec.record)
	store.Reset()

	unloads := map[ChunkKey]int{}
	for _, ev := range rec.events {
		if ev.Kind == ChunkUnloaded {
			unloads[ev.Key]++
		}
	}
	for _, key := range previous {
		if unloads[key] != 1 {
			t.Errorf("chunk %v disposed %d times, want 1", key, unloads[key])
		}
	}
	if len(unloads) != len(previous) {
		t.Errorf("disposed %d distinct chunks, had %d", len(unloads), len(previous))
	}

	fresh := newTestStore(t, 1)
	fresh.Initialize()
	if !reflect.DeepEqual(store.Keys(), fresh.Keys()) {
		t.Fatalf("keys after reset differ from a fresh initialize")
	}
}

func TestParallelSamplingMatchesSequential(t *testing.T) {
	seq := newTestStore(t, 1)
	par := newTestStore(t, 4)
	seq.Initialize()
	par.Initialize()

	if !reflect.DeepEqual(seq.Keys(), par.Keys()) {
		t.Fatal("parallel store loaded a different key set")
	}
	for _, key := range seq.Keys() {
		a, _ := seq.Chunk(key)
		b, _ := par.Chunk(key)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("chunk %v differs between sequential and parallel sampling", key)
		}
	}
}

func TestChurnIsBenign(t *testing.T) {
	store := newTestStore(t, 1)
	store.Initialize()
	before := store.Stats()

	store.unload(ChunkKey{100, 100})
	chunk, _ := store.Chunk(ChunkKey{0, 0})
	store.publish(sampleChunk(store.hf, chunk.Key, store.size, 16))

	if store.Stats() != before {
		t.Fatalf("no-op churn changed stats: %+v -> %+v", before, store.Stats())
	}
	if c, _ := store.Chunk(ChunkKey{0, 0}); c != chunk {
		t.Fatal("duplicate load replaced the live chunk")
	}
}

func TestHeightAtIgnoresStreamingState(t *testing.T) {
	store := newTestStore(t, 1)
	want := store.HeightField().Height(10000, -10000)
	if got := store.HeightAt(10000, -10000); got != want {
		t.Fatalf("HeightAt with empty store = %f, want %f", got, want)
	}
	store.Initialize()
	if got := store.HeightAt(10000, -10000); got != want {
		t.Fatalf("HeightAt after streaming = %f, want %f", got, want)
	}
}

func TestMeshLayout(t *testing.T) {
	store := newTestStore(t, 1)
	store.Initialize()
	chunk, _ := store.Chunk(ChunkKey{-1, 0})
	mesh := chunk.Mesh()

	n := chunk.Resolution * chunk.Resolution
	if len(mesh.Positions) != n*3 || len(mesh.Colors) != n*3 {
		t.Fatalf("mesh sizes %d/%d, want %d", len(mesh.Positions), len(mesh.Colors), n*3)
	}
	quads := (chunk.Resolution - 1) * (chunk.Resolution - 1)
	if len(mesh.Indices) != quads*6 {
		t.Fatalf("index count %d, want %d", len(mesh.Indices), quads*6)
	}
	last := mesh.Positions[len(mesh.Positions)-3:]
	if !approx(float64(last[0]), 512, 1e-3) || !approx(float64(last[2]), 512, 1e-3) {
		t.Fatalf("last vertex at (%f,%f), want local (512,512)", last[0], last[2])
	}
	for _, idx := range mesh.Indices {
		if int(idx) >= n {
			t.Fatalf("index %d out of range", idx)
		}
	}
}

func TestGridIndicesSmall(t *testing.T) {
	want := []uint32{0, 2, 1, 1, 2, 3}
	if got := GridIndices(2); !reflect.DeepEqual(got, want) {
		t.Fatalf("GridIndices(2) = %v, want %v", got, want)
	}
	if GridIndices(1) != nil {
		t.Fatal("GridIndices(1) should be nil")
	}
}
