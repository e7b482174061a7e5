package world

import "math"

// NoiseField is a deterministic 2D gradient noise evaluated anywhere on the
// (x,z) plane. It is a pure function of the seed, so the streamer's worker
// path and its synchronous fallback produce identical terrain.
type NoiseField struct {
	seed int64
}

func NewNoiseField(seed int64) *NoiseField {
	return &NoiseField{seed: seed}
}

// Elevation bands: (frequency, amplitude, octaves) summed and clamped to the
// playable relief range.
var elevationBands = [...]struct {
	freq    float64
	amp     float64
	octaves int
}{
	{0.005, 25, 4},
	{0.015, 15, 3},
	{0.03, 8, 2},
	{0.08, 3, 1},
}

const (
	elevationMin = 0.0
	elevationMax = 60.0
)

// Elevation returns the terrain height at world (x,z).
func (n *NoiseField) Elevation(x, z float64) float64 {
	h := 0.0
	for _, b := range elevationBands {
		h += n.Fractal(x*b.freq, z*b.freq, b.octaves) * b.amp
	}
	return clamp(h, elevationMin, elevationMax)
}

// Fractal sums octaves of gradient noise with amplitude halving and
// frequency doubling. Output stays in roughly [-1, 1].
func (n *NoiseField) Fractal(x, z float64, octaves int) float64 {
	sum := 0.0
	amp := 1.0
	norm := 0.0
	for o := 0; o < octaves; o++ {
		sum += n.gradient2(x, z) * amp
		norm += amp
		amp *= 0.5
		x *= 2
		z *= 2
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// gradient2 is classic lattice gradient noise: hashed unit gradients at the
// four surrounding integer corners, smoothstep-blended dot products.
func (n *NoiseField) gradient2(x, z float64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	fx := x - x0
	fz := z - z0
	ix := int(x0)
	iz := int(z0)

	d00 := n.cornerDot(ix, iz, fx, fz)
	d10 := n.cornerDot(ix+1, iz, fx-1, fz)
	d01 := n.cornerDot(ix, iz+1, fx, fz-1)
	d11 := n.cornerDot(ix+1, iz+1, fx-1, fz-1)

	u := fade(fx)
	v := fade(fz)
	return lerp(lerp(d00, d10, u), lerp(d01, d11, u), v)
}

func (n *NoiseField) cornerDot(ix, iz int, dx, dz float64) float64 {
	h := hash2(n.seed, ix, iz)
	// 16 gradient directions on the unit circle.
	ang := float64(h&15) * (2 * math.Pi / 16)
	return math.Cos(ang)*dx + math.Sin(ang)*dz
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
