package world

import "math"

type BayState int

const (
	BayClosed BayState = iota
	BayOpening
	BayOpen
	BayClosing
)

func (s BayState) String() string {
	switch s {
	case BayOpening:
		return "opening"
	case BayOpen:
		return "open"
	case BayClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Bomber flight and weapon tuning.
const (
	bomberSpeed      = 25.0
	bomberTurnSpeed  = 0.5
	bomberClimbRate  = 20.0
	bomberBankSpeed  = 2.5
	bankTurnAngle    = 30.0 * math.Pi / 180
	bankClimbAngle   = 15.0 * math.Pi / 180
	altitudeMin      = 30.0
	altitudeMax      = 300.0
	altitudeClearance = 10.0

	bayTransitionTime = 1.0
	runBombCount      = 9
	runDropInterval   = 1.0
	bombCooldown      = 15.0
	missileCooldown   = 10.0
	flareCooldown     = 8.0

	bomberMaxHealth  = 100.0
	damageRefractory = 0.1

	targetScanRange    = 300.0
	targetCacheTTL     = 0.5
	targetCacheMoveMax = 50.0
)

type BombingRun struct {
	Active         bool
	BombsRemaining int
	NextDropAt     float64
}

// Bomber is the player aircraft: a kinematic state machine over heading,
// altitude target and bank, plus the bomb-bay and cooldown machinery.
type Bomber struct {
	Position       Vec3
	Heading        float64
	AltitudeTarget float64
	BankCurrent    float64
	BankTarget     float64

	Speed     float64
	TurnSpeed float64
	ClimbRate float64

	Health    float64
	Destroyed bool

	BayState    BayState
	BayProgress float64 // [0,1] open fraction

	BombCooldownUntil    float64
	MissileCooldownUntil float64
	FlareCooldownUntil   float64

	Run BombingRun

	// Missile launch deferred until the bay finishes opening.
	pendingMissile bool

	lastDamageAt float64
	onDestroyed  func()

	cachedTarget   *Building
	targetCachedAt float64
	targetCachePos Vec3
}

func NewBomber(start Vec3) *Bomber {
	return &Bomber{
		Position:       start,
		AltitudeTarget: start.Y,
		Speed:          bomberSpeed,
		TurnSpeed:      bomberTurnSpeed,
		ClimbRate:      bomberClimbRate,
		Health:         bomberMaxHealth,
		lastDamageAt:   -damageRefractory,
	}
}

func (b *Bomber) SetDestroyedCallback(fn func()) { b.onDestroyed = fn }

// Velocity derives the horizontal flight vector from the heading.
func (b *Bomber) Velocity() Vec3 {
	return Vec3{math.Sin(b.Heading) * b.Speed, 0, math.Cos(b.Heading) * b.Speed}
}

// Advance integrates one tick of flight from the input snapshot. floorY is
// the dynamic altitude floor (tallest live building near the bomber plus
// clearance).
func (b *Bomber) Advance(in InputSnapshot, dt, floorY float64) {
	if b.Destroyed {
		return
	}

	turning := 0
	if !in.PanModifier {
		if in.HeadingLeft {
			b.Heading += b.TurnSpeed * dt
			turning = 1
		}
		if in.HeadingRight {
			b.Heading -= b.TurnSpeed * dt
			turning = -1
		}
	}

	climbing := 0
	if !in.ZoomModifier {
		if in.Climb {
			b.AltitudeTarget += b.ClimbRate * dt
			climbing = 1
		}
		if in.Dive {
			b.AltitudeTarget -= b.ClimbRate * dt
			climbing = -1
		}
	}

	switch {
	case turning != 0:
		b.BankTarget = float64(turning) * bankTurnAngle
	case climbing != 0:
		b.BankTarget = float64(climbing) * bankClimbAngle
	default:
		b.BankTarget = 0
	}
	b.BankCurrent += (b.BankTarget - b.BankCurrent) * clamp(bomberBankSpeed*dt, 0, 1)

	lo := math.Max(altitudeMin, floorY+altitudeClearance)
	b.AltitudeTarget = clamp(b.AltitudeTarget, lo, altitudeMax)

	v := b.Velocity()
	b.Position.X += v.X * dt
	b.Position.Z += v.Z * dt
	b.Position.Y = b.AltitudeTarget
}

// AdvanceBay runs the bay door state machine and the bombing-run drop timer.
// Returns how many bombs release this tick (0 or 1) and whether a deferred
// cruise launch fires now.
func (b *Bomber) AdvanceBay(dt, now float64) (dropBomb, launchMissile bool) {
	switch b.BayState {
	case BayOpening:
		b.BayProgress += dt / bayTransitionTime
		if b.BayProgress >= 1 {
			b.BayProgress = 1
			b.BayState = BayOpen
			if b.Run.Active {
				b.Run.NextDropAt = now
			}
		}
	case BayClosing:
		b.BayProgress -= dt / bayTransitionTime
		if b.BayProgress <= 0 {
			b.BayProgress = 0
			b.BayState = BayClosed
		}
	}

	if b.BayState != BayOpen {
		return false, false
	}

	if b.pendingMissile {
		b.pendingMissile = false
		launchMissile = true
		if !b.Run.Active {
			b.BayState = BayClosing
		}
		return dropBomb, launchMissile
	}

	if b.Run.Active && now >= b.Run.NextDropAt && b.Run.BombsRemaining > 0 {
		b.Run.BombsRemaining--
		b.Run.NextDropAt = now + runDropInterval
		dropBomb = true
		if b.Run.BombsRemaining == 0 {
			b.Run.Active = false
			b.BayState = BayClosing
			b.BombCooldownUntil = now + bombCooldown
		}
	}
	return dropBomb, launchMissile
}

// StartBombingRun opens the bay and arms the nine-bomb sequence.
func (b *Bomber) StartBombingRun(now float64) Refusal {
	if b.Destroyed {
		return RefusalDestroyed
	}
	if b.Run.Active {
		return RefusalRunActive
	}
	if now < b.BombCooldownUntil {
		return RefusalCooldown
	}
	b.Run = BombingRun{Active: true, BombsRemaining: runBombCount}
	b.openBay()
	return RefusalNone
}

// RequestMissileLaunch gates a cruise launch on cooldown and bay state. The
// actual spawn happens when the bay reports launchMissile from AdvanceBay.
func (b *Bomber) RequestMissileLaunch(now float64) Refusal {
	if b.Destroyed {
		return RefusalDestroyed
	}
	if b.Run.Active {
		return RefusalRunActive
	}
	if now < b.MissileCooldownUntil {
		return RefusalCooldown
	}
	b.MissileCooldownUntil = now + missileCooldown
	b.pendingMissile = true
	b.openBay()
	return RefusalNone
}

// RequestFlares gates countermeasure deployment on its cooldown.
func (b *Bomber) RequestFlares(now float64) Refusal {
	if b.Destroyed {
		return RefusalDestroyed
	}
	if now < b.FlareCooldownUntil {
		return RefusalCooldown
	}
	b.FlareCooldownUntil = now + flareCooldown
	return RefusalNone
}

func (b *Bomber) openBay() {
	switch b.BayState {
	case BayClosed:
		b.BayState = BayOpening
	case BayClosing:
		b.BayState = BayOpening
	}
}

// AcquireTarget returns the closest living defense launcher in range. The
// result is cached briefly and invalidated when the bomber moves far enough
// or the cached launcher dies.
func (b *Bomber) AcquireTarget(store *ChunkStore, now float64) *Building {
	if b.cachedTarget != nil && !b.cachedTarget.Destroyed &&
		now-b.targetCachedAt < targetCacheTTL &&
		b.Position.DistanceTo(b.targetCachePos) < targetCacheMoveMax {
		return b.cachedTarget
	}

	var best *Building
	bestD := targetScanRange
	for _, c := range store.BuildingsInRadius(b.Position, targetScanRange, now) {
		if !c.IsLauncher || c.Destroyed {
			continue
		}
		d := c.Position.DistanceTo(b.Position)
		if d <= bestD {
			best = c
			bestD = d
		}
	}
	b.cachedTarget = best
	b.targetCachedAt = now
	b.targetCachePos = b.Position
	return best
}

// TakeDamage applies damage with the refractory window: hits within 100 ms
// of the previous applied hit are ignored.
func (b *Bomber) TakeDamage(d, now float64) bool {
	if b.Destroyed || d <= 0 {
		return false
	}
	if now-b.lastDamageAt < damageRefractory {
		return false
	}
	b.lastDamageAt = now
	b.Health -= d
	if b.Health > 0 {
		return true
	}
	b.Health = 0
	b.Destroyed = true
	if b.onDestroyed != nil {
		b.onDestroyed()
	}
	return true
}

// HealthPercent is the externally visible health fraction.
func (b *Bomber) HealthPercent() float64 {
	return clamp(b.Health/bomberMaxHealth, 0, 1)
}
