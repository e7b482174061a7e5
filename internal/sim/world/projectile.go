package world

import (
	"fmt"
	"math"
)

type ProjectileKind string

const (
	KindBomb    ProjectileKind = "bomb"
	KindCruise  ProjectileKind = "cruise"
	KindSAM     ProjectileKind = "sam"
	KindDefense ProjectileKind = "defense"
)

type LockState int

const (
	LockSearching LockState = iota
	LockLocking
	LockLocked
)

func (s LockState) String() string {
	switch s {
	case LockLocking:
		return "locking"
	case LockLocked:
		return "locked"
	default:
		return "searching"
	}
}

// Per-kind flight constants.
const (
	bombDropSpeed     = 50.0
	bombTTL           = 30.0
	cruiseSpeed       = 150.0
	cruiseTurnRate    = 2.0
	cruisePathSpeed   = 0.5
	cruiseTTL         = 60.0
	samSpeed          = 120.0
	samLockDuration   = 1.0
	samMaxTurnRate    = 2.5
	samGuidanceGain   = 3.0
	samTTL            = 30.0
	defenseSpeed      = 100.0
	defenseTTL        = 15.0
	proximityFuse     = 5.0
	cruiseKillRadius  = 20.0
	// cruiseTerminalRange: inside this distance the missile stops blending and
	// points straight at the target, otherwise the turn lag can settle into an
	// orbit outside the fuse.
	cruiseTerminalRange = 120.0
	minProjectileStep   = 1.0 / 60.0
	trigEpsilon       = 0.01
)

// Projectile is the tagged variant for all four flying things. Kind selects
// which extra fields are live; dispatch happens only in the guidance engine.
type Projectile struct {
	ID   string
	Kind ProjectileKind

	Position Vec3
	Velocity Vec3
	Pitch    float64
	Yaw      float64
	Roll     float64

	Launched  bool
	Exploded  bool
	BirthTime float64
	TTLMax    float64
	Speed     float64

	// Cruise missile: two-point parametric curve toward a launcher.
	TargetBuilding *Building
	CurveStart     Vec3
	CurveEnd       Vec3
	PathT          float64
	PathSpeed      float64
	TurnRate       float64

	// SAM: lock-on state machine and flare seduction.
	LockState        LockState
	LockElapsed      float64
	LockDuration     float64
	GuidanceStrength float64
	MaxTurnRate      float64
	DetectionRange   float64
	SeducedByFlare   bool

	// Defense missile: pre-aimed straight shot.
	TargetPoint Vec3
	aimed       bool

	lastStepAt float64

	// Cached curve sample (cruise) and cached orientation trig.
	curveT    float64
	curvePt   Vec3
	curveOK   bool
	trigYaw   float64
	trigValid bool
}

// ShouldStep bounds per-projectile integration cost: updates closer together
// than one 60 Hz frame are skipped.
func (p *Projectile) ShouldStep(now float64) bool {
	if now-p.lastStepAt < minProjectileStep {
		return false
	}
	p.lastStepAt = now
	return true
}

// Expired reports whether the lifetime guard has elapsed.
func (p *Projectile) Expired(now float64) bool {
	return p.TTLMax > 0 && now-p.BirthTime >= p.TTLMax
}

// LockProgress is the externally visible lock fraction in [0,1].
func (p *Projectile) LockProgress() float64 {
	if p.LockDuration <= 0 {
		return 0
	}
	return clamp(p.LockElapsed/p.LockDuration, 0, 1)
}

// orientFromVelocity refreshes pitch/yaw from the velocity vector. The trig
// is re-derived only when yaw moved more than trigEpsilon since the last
// refresh.
func (p *Projectile) orientFromVelocity() {
	v := p.Velocity
	yaw := math.Atan2(v.X, v.Z)
	if p.trigValid && math.Abs(yaw-p.trigYaw) <= trigEpsilon {
		return
	}
	p.trigYaw = yaw
	p.trigValid = true
	p.Yaw = yaw
	p.Pitch = math.Atan2(v.Y, math.Hypot(v.X, v.Z))
}

func newProjectile(num uint64, kind ProjectileKind, now float64) *Projectile {
	return &Projectile{
		ID:        fmt.Sprintf("P%d", num),
		Kind:      kind,
		Launched:  true,
		BirthTime: now,
	}
}

// NewBomb drops from the bomber's belly with the fixed ballistic velocity.
func NewBomb(num uint64, bomberPos Vec3, now float64) *Projectile {
	p := newProjectile(num, KindBomb, now)
	p.Position = bomberPos.Add(Vec3{0, -5, 0})
	p.Velocity = Vec3{0, -bombDropSpeed, 0}
	p.Speed = bombDropSpeed
	p.TTLMax = bombTTL
	return p
}

// NewCruiseMissile launches toward target along the parametric curve.
func NewCruiseMissile(num uint64, start Vec3, target *Building, now float64) *Projectile {
	p := newProjectile(num, KindCruise, now)
	p.Position = start
	p.CurveStart = start
	p.CurveEnd = target.Position
	p.TargetBuilding = target
	p.PathSpeed = cruisePathSpeed
	p.Speed = cruiseSpeed
	p.TurnRate = cruiseTurnRate
	p.TTLMax = cruiseTTL
	p.Velocity = target.Position.Sub(start).Normalized().Scale(cruiseSpeed)
	p.orientFromVelocity()
	return p
}

// NewSAM rises from a launcher rooftop and begins its lock sequence against
// the bomber.
func NewSAM(num uint64, origin Vec3, now float64) *Projectile {
	p := newProjectile(num, KindSAM, now)
	p.Position = origin
	p.Velocity = Vec3{0, samSpeed, 0} // vertical boost until guidance bends it
	p.Speed = samSpeed
	p.LockState = LockSearching
	p.LockDuration = samLockDuration
	p.GuidanceStrength = samGuidanceGain
	p.MaxTurnRate = samMaxTurnRate
	p.DetectionRange = FlareDetectionRange
	p.TTLMax = samTTL
	return p
}

// NewDefenseMissile fires from a rooftop at a fixed point near where the
// bomber was at launch time. The inaccuracy offset is already folded into
// aimPoint.
func NewDefenseMissile(num uint64, origin, aimPoint Vec3, now float64) *Projectile {
	p := newProjectile(num, KindDefense, now)
	p.Position = origin
	p.TargetPoint = aimPoint
	p.Speed = defenseSpeed
	p.TTLMax = defenseTTL
	return p
}

// reapExploded compacts a projectile slice in place, dropping exploded and
// expired entries.
func reapExploded(list []*Projectile, now float64) []*Projectile {
	out := list[:0]
	for _, p := range list {
		if p.Exploded {
			continue
		}
		if p.Expired(now) {
			p.Exploded = true
			continue
		}
		out = append(out, p)
	}
	return out
}
