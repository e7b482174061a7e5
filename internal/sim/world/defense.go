package world

import "math/rand"

const (
	defenseScanRange     = 300.0
	defenseLaunchInterval = 8.0
	defenseAimJitter     = 20.0

	samLauncherRange   = 1000.0
	samIntervalBase    = 45.0
	samIntervalSpread  = 30.0
)

// DefenseController is the per-launcher AI. It owns the short-range missiles
// it fires; the collision resolver walks them through the world's controller
// set.
type DefenseController struct {
	Launcher *Building
	Missiles []*Projectile

	lastLaunchAt float64
}

func NewDefenseController(launcher *Building) *DefenseController {
	return &DefenseController{Launcher: launcher, lastLaunchAt: -defenseLaunchInterval}
}

// Tick advances this launcher: integrate and reap its missiles, then fire at
// the bomber when it is inside scan range and the launch interval elapsed.
func (dc *DefenseController) Tick(env GuidanceEnv, rng *rand.Rand, nextNum func() uint64) {
	for _, m := range dc.Missiles {
		if !m.ShouldStep(env.Now) {
			continue
		}
		StepProjectile(m, env)
	}
	dc.Missiles = reapExploded(dc.Missiles, env.Now)

	if dc.Launcher.Destroyed {
		return
	}
	if dc.Launcher.Position.DistanceTo(env.BomberPos) > defenseScanRange {
		return
	}
	if env.Now-dc.lastLaunchAt < defenseLaunchInterval {
		return
	}
	dc.lastLaunchAt = env.Now

	aim := Vec3{
		X: env.BomberPos.X + (rng.Float64()*2-1)*defenseAimJitter,
		Y: env.BomberPos.Y + (rng.Float64()*2-1)*defenseAimJitter,
		Z: env.BomberPos.Z + (rng.Float64()*2-1)*defenseAimJitter,
	}
	dc.Missiles = append(dc.Missiles, NewDefenseMissile(nextNum(), dc.Launcher.RooftopPosition(), aim, env.Now))
}

// nextSAMInterval randomises the long-range launch cadence.
func nextSAMInterval(rng *rand.Rand) float64 {
	return samIntervalBase + rng.Float64()*samIntervalSpread
}
