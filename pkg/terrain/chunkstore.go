package terrain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"flightsim/internal/logger"
	"flightsim/internal/util"
)

// Streaming configuration errors
var (
	ErrInvalidChunkSize     = errors.New("chunk size must be positive")
	ErrViewDistanceTooSmall = errors.New("view distance does not cover every LOD band")
)

// DefaultViewMargin is the safety factor applied to the farthest LOD band
const DefaultViewMargin = 1.1

// StoreConfig configures chunk streaming
type StoreConfig struct {
	ChunkSize float64
	// ViewDistance of 0 derives the distance from the LOD table and margin
	ViewDistance float64
	ViewMargin   float64
	LOD          *LODTable
	// Workers above 1 sample newly required chunks concurrently
	Workers int
}

// EventKind tells whether a chunk became live or was disposed
type EventKind int

const (
	ChunkLoaded EventKind = iota
	ChunkUnloaded
)

func (k EventKind) String() string {
	if k == ChunkLoaded {
		return "loaded"
	}
	return "unloaded"
}

// ChunkEvent is delivered to listeners for every load and unload
type ChunkEvent struct {
	Kind       EventKind
	Key        ChunkKey
	Resolution int
	Chunk      *Chunk
}

// Stats are cumulative streaming counters
type Stats struct {
	Loaded   int
	Unloaded int
	Reloaded int
}

// ChunkStore owns the live chunks around a viewpoint. It is driven from a
// single ticking goroutine; listeners are called synchronously from Update.
type ChunkStore struct {
	hf           *HeightField
	size         float64
	viewDistance float64
	lod          *LODTable
	workers      int
	log          *logger.Logger

	live      map[ChunkKey]*Chunk
	listeners []func(ChunkEvent)
	stats     Stats
}

// NewChunkStore validates the streaming configuration. The store starts empty;
// call Initialize to load the origin-centered set.
func NewChunkStore(hf *HeightField, cfg StoreConfig, log *logger.Logger) (*ChunkStore, error) {
	if hf == nil {
		return nil, errors.New("chunk store needs a height field")
	}
	if !(cfg.ChunkSize > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidChunkSize, cfg.ChunkSize)
	}
	if cfg.LOD == nil {
		return nil, ErrEmptyLODTable
	}

	margin := cfg.ViewMargin
	if margin == 0 {
		margin = DefaultViewMargin
	}
	if margin < 1 {
		return nil, fmt.Errorf("%w: view margin %v is below 1", ErrViewDistanceTooSmall, margin)
	}

	minView := cfg.LOD.MaxDistance() * margin
	viewDistance := cfg.ViewDistance
	if viewDistance == 0 {
		viewDistance = minView
	}
	if viewDistance < minView {
		return nil, fmt.Errorf("%w: %v < %v (farthest band %v x margin %v)",
			ErrViewDistanceTooSmall, viewDistance, minView, cfg.LOD.MaxDistance(), margin)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &ChunkStore{
		hf:           hf,
		size:         cfg.ChunkSize,
		viewDistance: viewDistance,
		lod:          cfg.LOD,
		workers:      workers,
		log:          log.Named("chunks"),
		live:         make(map[ChunkKey]*Chunk),
	}, nil
}

// OnChange registers a listener for load and unload events
func (s *ChunkStore) OnChange(fn func(ChunkEvent)) {
	s.listeners = append(s.listeners, fn)
}

// ViewDistance is the effective streaming radius
func (s *ChunkStore) ViewDistance() float64 {
	return s.viewDistance
}

// ChunkSize is the world edge length of a cell
func (s *ChunkStore) ChunkSize() float64 {
	return s.size
}

// HeightAt always queries the generator, never the cached samples
func (s *ChunkStore) HeightAt(x, z float64) float64 {
	return s.hf.Height(x, z)
}

// HeightField returns the generator backing the store
func (s *ChunkStore) HeightField() *HeightField {
	return s.hf
}

// KeyAt returns the grid cell containing a world position
func (s *ChunkStore) KeyAt(x, z float64) ChunkKey {
	return ChunkKey{X: util.FloorDiv(x, s.size), Z: util.FloorDiv(z, s.size)}
}

// Required computes the cells whose centers lie within the view distance of
// (x, z), mapped to the resolution each one needs
func (s *ChunkStore) Required(x, z float64) map[ChunkKey]int {
	reach := int(math.Ceil(s.viewDistance/s.size)) + 1
	center := s.KeyAt(x, z)
	required := make(map[ChunkKey]int)

	for gz := center.Z - reach; gz <= center.Z+reach; gz++ {
		for gx := center.X - reach; gx <= center.X+reach; gx++ {
			key := ChunkKey{X: gx, Z: gz}
			cx, cz := cellCenter(key, s.size)
			if !util.IsInside(cx, cz, x, z, s.viewDistance) {
				continue
			}
			required[key] = s.lod.ResolutionFor(util.Distance2D(x, z, cx, cz))
		}
	}
	return required
}

// Initialize loads the set required around the origin
func (s *ChunkStore) Initialize() {
	s.Update(0, 0)
}

// Update streams chunks around the viewpoint: obsolete cells are unloaded
// first, then cells whose resolution changed are rebuilt, then new cells load.
func (s *ChunkStore) Update(x, z float64) {
	required := s.Required(x, z)

	for _, key := range s.sortedLiveKeys() {
		if _, ok := required[key]; !ok {
			s.unload(key)
		}
	}

	var changed []ChunkKey
	for _, key := range s.sortedLiveKeys() {
		if chunk := s.live[key]; chunk.Resolution != required[key] {
			s.log.Debugf("LOD change %v: %d -> %d", key, chunk.Resolution, required[key])
			s.unload(key)
			changed = append(changed, key)
		}
	}
	if len(changed) > 0 {
		s.loadBatch(changed, required)
		s.stats.Reloaded += len(changed)
	}

	var fresh []ChunkKey
	for key := range required {
		if _, ok := s.live[key]; !ok {
			fresh = append(fresh, key)
		}
	}
	sortKeys(fresh)
	s.loadBatch(fresh, required)
}

// Reset disposes every live chunk and reloads the origin-centered set
func (s *ChunkStore) Reset() {
	disposed := len(s.live)
	for _, key := range s.sortedLiveKeys() {
		s.unload(key)
	}
	s.log.Infof("reset: disposed %d chunks", disposed)
	s.Initialize()
}

// loadBatch samples the keys, concurrently when workers > 1, and publishes
// them in key order once every grid is complete
func (s *ChunkStore) loadBatch(keys []ChunkKey, required map[ChunkKey]int) {
	if len(keys) == 0 {
		return
	}

	chunks := make([]*Chunk, len(keys))
	if s.workers == 1 || len(keys) == 1 {
		for i, key := range keys {
			chunks[i] = sampleChunk(s.hf, key, s.size, required[key])
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, s.workers)
		for i, key := range keys {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, key ChunkKey) {
				defer wg.Done()
				defer func() { <-sem }()
				chunks[i] = sampleChunk(s.hf, key, s.size, required[key])
			}(i, key)
		}
		wg.Wait()
	}

	for _, chunk := range chunks {
		s.publish(chunk)
	}
}

// publish makes a sampled chunk live. A key that is already live is left alone.
func (s *ChunkStore) publish(chunk *Chunk) {
	if existing, ok := s.live[chunk.Key]; ok {
		s.log.Debugf("load %v ignored: already live at resolution %d", chunk.Key, existing.Resolution)
		return
	}
	s.live[chunk.Key] = chunk
	s.stats.Loaded++
	s.emit(ChunkEvent{Kind: ChunkLoaded, Key: chunk.Key, Resolution: chunk.Resolution, Chunk: chunk})
}

// unload disposes a live chunk. Unloading an absent key is a no-op.
func (s *ChunkStore) unload(key ChunkKey) {
	chunk, ok := s.live[key]
	if !ok {
		s.log.Debugf("unload %v ignored: not live", key)
		return
	}
	delete(s.live, key)
	s.stats.Unloaded++
	s.emit(ChunkEvent{Kind: ChunkUnloaded, Key: key, Resolution: chunk.Resolution, Chunk: chunk})
}

func (s *ChunkStore) emit(ev ChunkEvent) {
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// Chunk returns the live chunk for a key
func (s *ChunkStore) Chunk(key ChunkKey) (*Chunk, bool) {
	chunk, ok := s.live[key]
	return chunk, ok
}

// Len is the number of live chunks
func (s *ChunkStore) Len() int {
	return len(s.live)
}

// Keys returns the live keys in deterministic order
func (s *ChunkStore) Keys() []ChunkKey {
	return s.sortedLiveKeys()
}

// ForEach visits live chunks in key order
func (s *ChunkStore) ForEach(fn func(*Chunk)) {
	for _, key := range s.sortedLiveKeys() {
		fn(s.live[key])
	}
}

// Stats returns the cumulative load/unload counters
func (s *ChunkStore) Stats() Stats {
	return s.stats
}

func (s *ChunkStore) sortedLiveKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.live))
	for key := range s.live {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

func sortKeys(keys []ChunkKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
