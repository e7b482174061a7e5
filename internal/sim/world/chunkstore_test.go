package world

import (
	"math"
	"testing"
)

func testStore(seed int64) (*ChunkStore, *NoiseField) {
	n := NewNoiseField(seed)
	return NewChunkStore(n), n
}

func installChunk(t *testing.T, s *ChunkStore, n *NoiseField, seed int64, k ChunkKey) *Chunk {
	t.Helper()
	if !s.MarkPending(k) {
		t.Fatalf("chunk %v already tracked", k)
	}
	ch := s.Install(GenerateChunkContent(n, seed, k))
	if ch == nil || ch.Status != ChunkReady {
		t.Fatalf("install %v failed", k)
	}
	return ch
}

func TestMarkPending_Idempotent(t *testing.T) {
	s, _ := testStore(1)
	k := ChunkKey{0, 0}
	if !s.MarkPending(k) {
		t.Fatal("first MarkPending refused")
	}
	if s.MarkPending(k) {
		t.Fatal("second MarkPending accepted")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestInstall_RequiresPending(t *testing.T) {
	s, n := testStore(1)
	content := GenerateChunkContent(n, 1, ChunkKey{2, 2})
	if ch := s.Install(content); ch != nil {
		t.Fatal("install without pending placeholder accepted")
	}
}

func TestHeightAt_FallbackMatchesNoise(t *testing.T) {
	s, n := testStore(3)
	x, z := 123.4, -567.8
	if got, want := s.HeightAt(x, z), n.Elevation(x, z); got != want {
		t.Fatalf("fallback height %v, want %v", got, want)
	}
}

func TestHeightAt_BilinearMatchesNoiseAtVertices(t *testing.T) {
	seed := int64(11)
	s, n := testStore(seed)
	k := ChunkKey{0, 0}
	installChunk(t, s, n, seed, k)

	// Heightmap vertices must agree exactly with the noise field; points in
	// between must stay within interpolation error of it.
	const cell = ChunkSize / ChunkSubdiv
	for zi := 0; zi <= ChunkSubdiv; zi += 16 {
		for xi := 0; xi <= ChunkSubdiv; xi += 16 {
			x := float64(xi) * cell
			z := float64(zi) * cell
			// Clamp just inside the chunk so the lookup does not spill over.
			qx := math.Min(x, ChunkSize-0.001)
			qz := math.Min(z, ChunkSize-0.001)
			got := s.HeightAt(qx, qz)
			want := n.Elevation(x, z)
			if math.Abs(got-want) > 0.5 {
				t.Fatalf("height at vertex (%v,%v): got %v, want %v", x, z, got, want)
			}
		}
	}

	mid := s.HeightAt(250.3, 250.7)
	if mid < elevationMin || mid > elevationMax {
		t.Fatalf("interpolated height %v out of range", mid)
	}
}

func TestEvict_ReleasesBuildings(t *testing.T) {
	seed := int64(1337)
	s, n := testStore(seed)

	// Scan a few chunks for one that actually spawned buildings.
	var ch *Chunk
	for cx := 0; cx < 6 && ch == nil; cx++ {
		c := installChunk(t, s, n, seed, ChunkKey{cx, 0})
		if len(c.Buildings) > 0 {
			ch = c
		}
	}
	if ch == nil {
		t.Skip("no buildings spawned in scanned chunks for this seed")
	}

	id := ch.Buildings[0].ID
	if s.BuildingByID(id) == nil {
		t.Fatal("building not resolvable before evict")
	}
	s.Evict(ch.Key)
	if s.BuildingByID(id) != nil {
		t.Fatal("building still resolvable after evict")
	}
	if s.Chunk(ch.Key) != nil {
		t.Fatal("chunk still tracked after evict")
	}
}

func TestBuildingsInRadius_CacheInvalidatedByInstall(t *testing.T) {
	seed := int64(1337)
	s, n := testStore(seed)
	center := Vec3{250, 0, 250}

	installChunk(t, s, n, seed, ChunkKey{0, 0})
	first := s.BuildingsInRadius(center, 5000, 0)

	// Same query inside the TTL returns the memoized slice.
	again := s.BuildingsInRadius(center, 5000, 0.1)
	if len(again) != len(first) {
		t.Fatalf("cached query returned %d, want %d", len(again), len(first))
	}

	installChunk(t, s, n, seed, ChunkKey{1, 0})
	after := s.BuildingsInRadius(center, 5000, 0.2)
	ch1 := s.Chunk(ChunkKey{1, 0})
	if len(after) != len(first)+len(ch1.Buildings) {
		t.Fatalf("after install: got %d buildings, want %d", len(after), len(first)+len(ch1.Buildings))
	}
}

func TestBuildingsInRadius_TTLExpiry(t *testing.T) {
	seed := int64(21)
	s, n := testStore(seed)
	installChunk(t, s, n, seed, ChunkKey{0, 0})
	center := Vec3{250, 0, 250}

	_ = s.BuildingsInRadius(center, 800, 0)
	// Mutate behind the cache's back, then query past the TTL.
	s.Evict(ChunkKey{0, 0})
	got := s.BuildingsInRadius(center, 800, radiusCacheTTL+0.01)
	if len(got) != 0 {
		t.Fatalf("stale result after TTL: %d buildings", len(got))
	}
}

func TestMaxBuildingHeightNear_IgnoresDestroyed(t *testing.T) {
	s, _ := testStore(1)
	k := ChunkKey{0, 0}
	if !s.MarkPending(k) {
		t.Fatal("mark pending")
	}
	s.Install(ChunkContent{
		Key:       k,
		Heightmap: make([]float64, chunkVerts*chunkVerts),
		BuildingConfigs: []BuildingConfig{
			{Position: Vec3{100, 0, 100}, Type: BuildingSkyscraper, Width: 10, Height: 55, Depth: 10},
			{Position: Vec3{120, 0, 100}, Type: BuildingResidential, Width: 10, Height: 12, Depth: 10},
		},
	})

	center := Vec3{110, 0, 100}
	if got := s.MaxBuildingHeightNear(center, 120, 0); got != 55 {
		t.Fatalf("max height = %v, want 55", got)
	}

	tall := s.Chunk(k).Buildings[0]
	tall.TakeDamage(buildingMaxHealth, true)
	if got := s.MaxBuildingHeightNear(center, 120, radiusCacheTTL+0.1); got != 12 {
		t.Fatalf("max height after destroy = %v, want 12", got)
	}
}

func TestChunkKeyAt_FloorDivision(t *testing.T) {
	cases := []struct {
		x, z   float64
		cx, cz int
	}{
		{0, 0, 0, 0},
		{499.99, 499.99, 0, 0},
		{500, 0, 1, 0},
		{-0.01, -0.01, -1, -1},
		{-500, -500, -1, -1},
		{-500.01, 0, -2, 0},
	}
	for _, c := range cases {
		k := ChunkKeyAt(c.x, c.z)
		if k.CX != c.cx || k.CZ != c.cz {
			t.Fatalf("ChunkKeyAt(%v,%v) = %v, want {%d %d}", c.x, c.z, k, c.cx, c.cz)
		}
	}
}
