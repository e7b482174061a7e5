package world

import (
	"math"
	"testing"
)

func TestGenerateChunkContent_Deterministic(t *testing.T) {
	seed := int64(1337)
	n1 := NewNoiseField(seed)
	n2 := NewNoiseField(seed)
	k := ChunkKey{3, -2}

	a := GenerateChunkContent(n1, seed, k)
	b := GenerateChunkContent(n2, seed, k)

	if len(a.Heightmap) != chunkVerts*chunkVerts {
		t.Fatalf("heightmap len = %d, want %d", len(a.Heightmap), chunkVerts*chunkVerts)
	}
	for i := range a.Heightmap {
		if a.Heightmap[i] != b.Heightmap[i] {
			t.Fatalf("heightmap diverges at %d", i)
		}
	}
	if len(a.BuildingConfigs) != len(b.BuildingConfigs) {
		t.Fatalf("config counts differ: %d vs %d", len(a.BuildingConfigs), len(b.BuildingConfigs))
	}
	for i := range a.BuildingConfigs {
		if a.BuildingConfigs[i] != b.BuildingConfigs[i] {
			t.Fatalf("config %d differs", i)
		}
	}
}

func TestPlaceBuildings_InsideCentredSquare(t *testing.T) {
	seed := int64(99)
	n := NewNoiseField(seed)
	for cx := -2; cx <= 2; cx++ {
		k := ChunkKey{cx, cx}
		cfgs := placeBuildings(n, seed, k)
		ccx, ccz := k.Center()
		for _, c := range cfgs {
			if math.Abs(c.Position.X-ccx) > 0.4*ChunkSize+1e-9 ||
				math.Abs(c.Position.Z-ccz) > 0.4*ChunkSize+1e-9 {
				t.Fatalf("building at (%v,%v) outside centred square of chunk %v", c.Position.X, c.Position.Z, k)
			}
			if c.Position.Y != n.Elevation(c.Position.X, c.Position.Z) {
				t.Fatalf("building y not grounded on terrain")
			}
		}
	}
}

func TestPlaceBuildings_DimsWithinTypeRanges(t *testing.T) {
	seed := int64(7)
	n := NewNoiseField(seed)
	for cx := 0; cx < 8; cx++ {
		for _, c := range placeBuildings(n, seed, ChunkKey{cx, 0}) {
			dims := buildingDims[c.Type]
			if c.Width < dims[0][0] || c.Width > dims[0][1] {
				t.Fatalf("%s width %v out of %v", c.Type, c.Width, dims[0])
			}
			if c.Height < dims[1][0] || c.Height > dims[1][1] {
				t.Fatalf("%s height %v out of %v", c.Type, c.Height, dims[1])
			}
			if c.Depth < dims[2][0] || c.Depth > dims[2][1] {
				t.Fatalf("%s depth %v out of %v", c.Type, c.Depth, dims[2])
			}
		}
	}
}

func TestPlaceBuildings_SkipsSteepGround(t *testing.T) {
	seed := int64(4242)
	n := NewNoiseField(seed)
	for cx := 0; cx < 8; cx++ {
		for _, c := range placeBuildings(n, seed, ChunkKey{cx, 3}) {
			if s := localSlope(n, c.Position.X, c.Position.Z); s > 8 {
				t.Fatalf("building on slope %v at (%v,%v)", s, c.Position.X, c.Position.Z)
			}
		}
	}
}
