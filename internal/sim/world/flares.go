package world

import "math"

const (
	// FlareDetectionRange is how far a SAM seeker can be seduced from.
	FlareDetectionRange = 80.0
	flareLifetime       = 5.0
	flareCount          = 6
	flareSpreadRadius   = 15.0
	flareDropOffset     = 5.0
)

type Flare struct {
	Position  Vec3    `json:"position"`
	ExpiresAt float64 `json:"expires_at"`
}

// CountermeasureSet holds the live decoy flares. Owned by the world loop.
type CountermeasureSet struct {
	flares []Flare
}

// Deploy emits the symmetric six-flare pattern around pos.
func (c *CountermeasureSet) Deploy(pos Vec3, now float64) {
	for i := 0; i < flareCount; i++ {
		ang := float64(i) * (2 * math.Pi / flareCount)
		c.flares = append(c.flares, Flare{
			Position: Vec3{
				X: pos.X + math.Cos(ang)*flareSpreadRadius,
				Y: pos.Y - flareDropOffset,
				Z: pos.Z + math.Sin(ang)*flareSpreadRadius,
			},
			ExpiresAt: now + flareLifetime,
		})
	}
}

// Prune drops expired flares. Runs once per tick before guidance.
func (c *CountermeasureSet) Prune(now float64) {
	out := c.flares[:0]
	for _, f := range c.flares {
		if now < f.ExpiresAt {
			out = append(out, f)
		}
	}
	c.flares = out
}

// Nearest returns the closest flare within r of pos. The sweep is bounded by
// pre-filtering to 2r so a large flare field stays cheap.
func (c *CountermeasureSet) Nearest(pos Vec3, r float64) (Flare, bool) {
	best := Flare{}
	bestD := math.Inf(1)
	found := false
	for _, f := range c.flares {
		d := f.Position.DistanceTo(pos)
		if d > 2*r {
			continue
		}
		if d <= r && d < bestD {
			best = f
			bestD = d
			found = true
		}
	}
	return best, found
}

func (c *CountermeasureSet) Active() []Flare { return c.flares }

func (c *CountermeasureSet) Reset() { c.flares = nil }
