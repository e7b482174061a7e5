package world

import "math"

// Collision thresholds. Proximity tests run on the collision cadence
// (collideTickInterval in the world loop), not every frame.
const (
	bombBlastRadius = 50.0
	bombDamageMin   = 10.0

	defenseHitRadius  = 8.0
	defenseHitDamage  = 25.0
	defenseNearRadius = 20.0
	defenseNearFloor  = 5.0

	samHitRadius  = 8.0
	samHitDamage  = 50.0
	samNearRadius = 20.0
	samNearBase   = 40.0
	samNearFloor  = 10.0
)

// Score counts building kills. Target kills are a subset, so
// DestroyedTargets never exceeds DestroyedBuildings.
type Score struct {
	DestroyedBuildings int `json:"destroyed_buildings"`
	DestroyedTargets   int `json:"destroyed_targets"`
}

// ResolveBombExplosion damages everything standing near the impact point.
// Damage falls off linearly with distance down to the minimum.
func ResolveBombExplosion(store *ChunkStore, impact Vec3, now float64) (destroyed []*Building) {
	ground := Vec3{impact.X, 0, impact.Z}
	for _, b := range store.BuildingsInRadius(ground, bombBlastRadius, now) {
		if b.Destroyed {
			continue
		}
		d := b.Position.DistanceTo(ground)
		dmg := math.Max(bombDamageMin, bombBlastRadius-d)
		if b.TakeDamage(dmg, true) {
			destroyed = append(destroyed, b)
		}
	}
	return destroyed
}

// ResolveMissileVsBomber applies a direct hit or a proximity graze from one
// incoming missile. The missile explodes either way; the bomber's damage
// refractory may still swallow the hit.
func ResolveMissileVsBomber(p *Projectile, b *Bomber, now float64) bool {
	if p.Exploded || b.Destroyed {
		return false
	}
	d := p.Position.DistanceTo(b.Position)

	var hit, near, nearBase, nearFloor, hitDamage float64
	switch p.Kind {
	case KindSAM:
		hit, near = samHitRadius, samNearRadius
		hitDamage = samHitDamage
		nearBase, nearFloor = samNearBase, samNearFloor
	case KindDefense:
		hit, near = defenseHitRadius, defenseNearRadius
		hitDamage = defenseHitDamage
		nearBase, nearFloor = defenseNearRadius, defenseNearFloor
	default:
		return false
	}

	switch {
	case d <= hit:
		p.Exploded = true
		b.TakeDamage(hitDamage, now)
		return true
	case d <= near:
		p.Exploded = true
		b.TakeDamage(math.Max(nearFloor, nearBase-d), now)
		return true
	}
	return false
}
