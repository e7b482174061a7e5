package world

import "math"

const (
	// ChunkSize is the side length of one terrain chunk in world units.
	ChunkSize = 500.0
	// ChunkSubdiv is the heightmap grid resolution per chunk side.
	ChunkSubdiv = 64
	// chunkVerts is the sample count per heightmap row/column.
	chunkVerts = ChunkSubdiv + 1
)

type ChunkKey struct {
	CX int
	CZ int
}

type ChunkStatus int

const (
	ChunkPending ChunkStatus = iota
	ChunkReady
	ChunkEvicting
)

// Chunk is one square patch of terrain. A pending chunk has no heightmap and
// no buildings; both are installed atomically when generation completes.
type Chunk struct {
	Key       ChunkKey
	Status    ChunkStatus
	Heightmap []float64 // (ChunkSubdiv+1)^2, row-major in (z,x); nil while pending
	Buildings []*Building
}

// Origin returns the minimum-corner world position of the chunk.
func (c ChunkKey) Origin() (x, z float64) {
	return float64(c.CX) * ChunkSize, float64(c.CZ) * ChunkSize
}

// Center returns the world-space centre of the chunk.
func (c ChunkKey) Center() (x, z float64) {
	return (float64(c.CX) + 0.5) * ChunkSize, (float64(c.CZ) + 0.5) * ChunkSize
}

// ChunkKeyAt maps a world position to its containing chunk.
func ChunkKeyAt(x, z float64) ChunkKey {
	return ChunkKey{
		CX: int(math.Floor(x / ChunkSize)),
		CZ: int(math.Floor(z / ChunkSize)),
	}
}

// ChunkContent is the deterministic generation result for one chunk: the
// worker path and the synchronous fallback both produce exactly this shape.
type ChunkContent struct {
	Key             ChunkKey         `json:"key"`
	Heightmap       []float64        `json:"heightmap"`
	BuildingConfigs []BuildingConfig `json:"building_configs"`
}

// ChunkStore caches chunks by key and answers terrain and building queries.
// Accessed only from the world loop goroutine.
type ChunkStore struct {
	noise  *NoiseField
	chunks map[ChunkKey]*Chunk
	byID   map[string]*Building

	onBuildingDestroyed func(*Building)
	nextBuildingNum     uint64

	radiusCache map[radiusCacheKey]radiusCacheEntry
}

type radiusCacheKey struct {
	qx, qz int // centre quantized to 10-unit cells
	r      int
}

type radiusCacheEntry struct {
	at        float64
	buildings []*Building
}

// radiusCacheTTL bounds staleness of buildingsInRadius results, seconds.
const radiusCacheTTL = 1.0

func NewChunkStore(noise *NoiseField) *ChunkStore {
	return &ChunkStore{
		noise:       noise,
		chunks:      map[ChunkKey]*Chunk{},
		byID:        map[string]*Building{},
		radiusCache: map[radiusCacheKey]radiusCacheEntry{},
	}
}

func (s *ChunkStore) SetBuildingDestroyedCallback(fn func(*Building)) {
	s.onBuildingDestroyed = fn
}

func (s *ChunkStore) Chunk(k ChunkKey) *Chunk { return s.chunks[k] }

func (s *ChunkStore) Len() int { return len(s.chunks) }

// MarkPending reserves a key so at most one generation request is in flight
// per chunk. Returns false when the key is already tracked.
func (s *ChunkStore) MarkPending(k ChunkKey) bool {
	if _, ok := s.chunks[k]; ok {
		return false
	}
	s.chunks[k] = &Chunk{Key: k, Status: ChunkPending}
	return true
}

// Install turns a pending chunk ready, spawning its buildings from the
// generated configs. Content for untracked or non-pending keys is dropped.
func (s *ChunkStore) Install(content ChunkContent) *Chunk {
	ch, ok := s.chunks[content.Key]
	if !ok || ch.Status != ChunkPending {
		return nil
	}
	ch.Heightmap = content.Heightmap
	ch.Buildings = make([]*Building, 0, len(content.BuildingConfigs))
	for _, cfg := range content.BuildingConfigs {
		s.nextBuildingNum++
		b := newBuilding(s.nextBuildingNum, cfg)
		b.onDestroyed = s.onBuildingDestroyed
		ch.Buildings = append(ch.Buildings, b)
		s.byID[b.ID] = b
	}
	ch.Status = ChunkReady
	s.invalidateRadiusCache()
	return ch
}

// Evict disposes a chunk and everything it owns.
func (s *ChunkStore) Evict(k ChunkKey) {
	ch, ok := s.chunks[k]
	if !ok {
		return
	}
	ch.Status = ChunkEvicting
	ch.Heightmap = nil
	for _, b := range ch.Buildings {
		delete(s.byID, b.ID)
	}
	ch.Buildings = nil
	delete(s.chunks, k)
	s.invalidateRadiusCache()
}

// DropAll clears every chunk, used on world reset.
func (s *ChunkStore) DropAll() {
	s.chunks = map[ChunkKey]*Chunk{}
	s.byID = map[string]*Building{}
	s.radiusCache = map[radiusCacheKey]radiusCacheEntry{}
}

// BuildingByID resolves a building in any resident chunk.
func (s *ChunkStore) BuildingByID(id string) *Building {
	return s.byID[id]
}

// HeightAt samples terrain elevation at (x,z). Ready chunks are sampled from
// the cached heightmap with bilinear interpolation; anything else falls back
// to evaluating the noise field directly. Never fails.
func (s *ChunkStore) HeightAt(x, z float64) float64 {
	key := ChunkKeyAt(x, z)
	ch := s.chunks[key]
	if ch == nil || ch.Status != ChunkReady || ch.Heightmap == nil {
		return s.noise.Elevation(x, z)
	}
	ox, oz := key.Origin()
	const cell = ChunkSize / ChunkSubdiv
	gx := (x - ox) / cell
	gz := (z - oz) / cell
	x0 := int(math.Floor(gx))
	z0 := int(math.Floor(gz))
	if x0 < 0 {
		x0 = 0
	}
	if z0 < 0 {
		z0 = 0
	}
	if x0 >= ChunkSubdiv {
		x0 = ChunkSubdiv - 1
	}
	if z0 >= ChunkSubdiv {
		z0 = ChunkSubdiv - 1
	}
	fx := clamp(gx-float64(x0), 0, 1)
	fz := clamp(gz-float64(z0), 0, 1)

	h00 := ch.Heightmap[z0*chunkVerts+x0]
	h10 := ch.Heightmap[z0*chunkVerts+x0+1]
	h01 := ch.Heightmap[(z0+1)*chunkVerts+x0]
	h11 := ch.Heightmap[(z0+1)*chunkVerts+x0+1]
	return lerp(lerp(h00, h10, fx), lerp(h01, h11, fx), fz)
}

// BuildingsInRadius returns live-or-destroyed buildings whose centre lies
// within r of center. Chunks are prefiltered by centre distance, and results
// are memoized briefly because guidance and radar ask every few ticks.
func (s *ChunkStore) BuildingsInRadius(center Vec3, r float64, now float64) []*Building {
	ck := radiusCacheKey{
		qx: int(math.Floor(center.X / 10)),
		qz: int(math.Floor(center.Z / 10)),
		r:  int(r),
	}
	if e, ok := s.radiusCache[ck]; ok && now-e.at < radiusCacheTTL {
		return e.buildings
	}

	prefilter := r + 0.7*ChunkSize
	var out []*Building
	for key, ch := range s.chunks {
		if ch.Status != ChunkReady {
			continue
		}
		cx, cz := key.Center()
		dx := cx - center.X
		dz := cz - center.Z
		if math.Sqrt(dx*dx+dz*dz) > prefilter {
			continue
		}
		for _, b := range ch.Buildings {
			if b.Position.DistanceTo(center) <= r {
				out = append(out, b)
			}
		}
	}
	s.radiusCache[ck] = radiusCacheEntry{at: now, buildings: out}
	return out
}

func (s *ChunkStore) invalidateRadiusCache() {
	if len(s.radiusCache) > 0 {
		s.radiusCache = map[radiusCacheKey]radiusCacheEntry{}
	}
}

// MaxBuildingHeightNear reports the tallest live building top within r of
// (x,z), used for the bomber's dynamic altitude floor.
func (s *ChunkStore) MaxBuildingHeightNear(center Vec3, r float64, now float64) float64 {
	// Query from the ground plane so the caller's altitude does not eat into
	// the radius.
	center.Y = 0
	maxH := 0.0
	for _, b := range s.BuildingsInRadius(center, r, now) {
		if b.Destroyed {
			continue
		}
		top := b.Position.Y + b.Height
		if top > maxH {
			maxH = top
		}
	}
	return maxH
}

// ReadyKeys returns the keys of all ready chunks, unordered.
func (s *ChunkStore) ReadyKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k, ch := range s.chunks {
		if ch.Status == ChunkReady {
			keys = append(keys, k)
		}
	}
	return keys
}
