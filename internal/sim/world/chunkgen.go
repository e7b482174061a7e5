package world

import (
	"math"
	"math/rand"
)

// Chunk generation is pure: identical output for a given (seed, key) whether
// it runs on a background worker or on the synchronous fallback path.

// GenerateChunkContent builds the heightmap and building population for one
// chunk.
func GenerateChunkContent(noise *NoiseField, seed int64, key ChunkKey) ChunkContent {
	ox, oz := key.Origin()
	const cell = ChunkSize / ChunkSubdiv

	hm := make([]float64, chunkVerts*chunkVerts)
	for zi := 0; zi < chunkVerts; zi++ {
		for xi := 0; xi < chunkVerts; xi++ {
			hm[zi*chunkVerts+xi] = noise.Elevation(ox+float64(xi)*cell, oz+float64(zi)*cell)
		}
	}

	return ChunkContent{
		Key:             key,
		Heightmap:       hm,
		BuildingConfigs: placeBuildings(noise, seed, key),
	}
}

// placeBuildings samples candidate sites inside the centred 0.8*S square and
// keeps the ones on flat enough ground.
func placeBuildings(noise *NoiseField, seed int64, key ChunkKey) []BuildingConfig {
	rng := rand.New(rand.NewSource(int64(hash2(seed, key.CX, key.CZ))))

	area := ChunkSize * ChunkSize
	want := int(math.Round(area * buildingDensity * (0.5 + rng.Float64()*0.8)))

	cx, cz := key.Center()
	const half = 0.4 * ChunkSize

	configs := make([]BuildingConfig, 0, want)
	for i := 0; i < want; i++ {
		x := cx + (rng.Float64()*2-1)*half
		z := cz + (rng.Float64()*2-1)*half
		if localSlope(noise, x, z) > 8 {
			continue
		}

		typ := buildingTypes[rng.Intn(len(buildingTypes))]
		dims := buildingDims[typ]
		configs = append(configs, BuildingConfig{
			Position: Vec3{x, noise.Elevation(x, z), z},
			Type:     typ,
			Width:    uniformIn(rng, dims[0]),
			Height:   uniformIn(rng, dims[1]),
			Depth:    uniformIn(rng, dims[2]),
			Target:   rng.Float64() < targetProb,
			Launcher: rng.Float64() < launcherProb,
		})
	}
	return configs
}

// localSlope is the largest elevation difference between cardinal neighbours
// at a 5-unit offset.
func localSlope(noise *NoiseField, x, z float64) float64 {
	const off = 5.0
	dx := math.Abs(noise.Elevation(x+off, z) - noise.Elevation(x-off, z))
	dz := math.Abs(noise.Elevation(x, z+off) - noise.Elevation(x, z-off))
	return math.Max(dx, dz)
}

func uniformIn(rng *rand.Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}
