package world

import "math"

// The guidance engine is a set of pure per-tick integration steps, one per
// projectile kind. Explicit Euler throughout; turn-rate blends are
// frame-rate-normalised (v += (vdes-v)*k*dt) and re-clamped to the
// projectile's speed.

// GuidanceEnv is the read-only context a guidance step may consult.
type GuidanceEnv struct {
	Dt  float64
	Now float64

	BomberPos Vec3
	Flares    *CountermeasureSet

	// OnSAMLocked fires exactly once per SAM, on entering the locked state.
	OnSAMLocked func(p *Projectile)
}

// StepProjectile advances p one tick under its guidance law. Returns true
// when the projectile exploded during this step.
func StepProjectile(p *Projectile, env GuidanceEnv) bool {
	if p.Exploded || !p.Launched {
		return false
	}
	switch p.Kind {
	case KindBomb:
		stepBomb(p, env)
	case KindCruise:
		stepCruise(p, env)
	case KindSAM:
		stepSAM(p, env)
	case KindDefense:
		stepDefense(p, env)
	}
	return p.Exploded
}

// Bomb: pure ballistic drop, constant velocity, detonates at ground plane.
func stepBomb(p *Projectile, env GuidanceEnv) {
	p.Position = p.Position.Add(p.Velocity.Scale(env.Dt))
	if p.Position.Y <= 0 {
		p.Position.Y = 0
		p.Exploded = true
	}
}

// Cruise missile: two-phase curve-then-direct law. For t in [0,1] the missile
// chases a point sliding along a lofted curve between launch and target; past
// t=1 it flies straight in.
func stepCruise(p *Projectile, env GuidanceEnv) {
	p.PathT += p.PathSpeed * env.Dt

	targetPos := p.CurveEnd
	if p.TargetBuilding != nil {
		targetPos = p.TargetBuilding.Position
	}

	var desired Vec3
	if p.PathT <= 1 {
		desired = p.curvePoint(p.PathT)
	} else {
		desired = targetPos
	}

	vdes := desired.Sub(p.Position).Normalized().Scale(p.Speed)
	if p.PathT > 1 && p.Position.DistanceTo(targetPos) <= cruiseTerminalRange {
		p.Velocity = vdes // terminal dive
	} else {
		p.Velocity = blendVelocity(p.Velocity, vdes, p.TurnRate*env.Dt, p.Speed)
	}
	p.Position = p.Position.Add(p.Velocity.Scale(env.Dt))
	p.orientFromVelocity()

	if p.Position.DistanceTo(targetPos) <= proximityFuse || p.Position.Y <= 0 {
		p.Exploded = true
		// A strike this close is a kill regardless of remaining health.
		if p.TargetBuilding != nil && !p.TargetBuilding.Destroyed &&
			p.TargetBuilding.Position.DistanceTo(p.Position) <= cruiseKillRadius {
			p.TargetBuilding.TakeDamage(buildingMaxHealth, false)
		}
	}
}

// curvePoint evaluates the lofted path. Samples are cached: a delta-t under
// 0.01 reuses the previous point.
func (p *Projectile) curvePoint(t float64) Vec3 {
	if p.curveOK && math.Abs(t-p.curveT) < 0.01 {
		return p.curvePt
	}
	d := p.CurveStart.DistanceTo(p.CurveEnd)
	base := lerpVec(p.CurveStart, p.CurveEnd, t)
	pt := Vec3{
		X: base.X + math.Sin(2*math.Pi*t)*0.2*d,
		Y: base.Y + math.Sin(math.Pi*t)*50,
		Z: base.Z + math.Cos(1.5*math.Pi*t)*0.2*d,
	}
	p.curveT = t
	p.curvePt = pt
	p.curveOK = true
	return pt
}

// SAM: initial guidance bends gently toward the target while the seeker
// locks; once locked it flies pure pursuit. Flare seduction is re-evaluated
// every tick against the current seeker position.
func stepSAM(p *Projectile, env GuidanceEnv) {
	target := env.BomberPos
	p.SeducedByFlare = false
	if env.Flares != nil {
		if f, ok := env.Flares.Nearest(p.Position, p.DetectionRange); ok {
			target = f.Position
			p.SeducedByFlare = true
		}
	}

	switch p.LockState {
	case LockSearching, LockLocking:
		p.LockState = LockLocking
		vdes := target.Sub(p.Position).Normalized().Scale(p.Speed)
		p.Velocity = blendVelocity(p.Velocity, vdes, (p.MaxTurnRate/2)*env.Dt, p.Speed)

		p.LockElapsed += env.Dt
		if p.LockElapsed >= p.LockDuration {
			p.LockState = LockLocked
			if env.OnSAMLocked != nil {
				env.OnSAMLocked(p)
			}
		}
	case LockLocked:
		vdes := target.Sub(p.Position).Normalized().Scale(p.Speed)
		dv := vdes.Sub(p.Velocity).Scale(p.GuidanceStrength * env.Dt)
		maxDv := p.MaxTurnRate * p.Speed * env.Dt
		if l := dv.Len(); l > maxDv {
			dv = dv.Scale(maxDv / l)
		}
		p.Velocity = p.Velocity.Add(dv).Normalized().Scale(p.Speed)
	}

	p.Position = p.Position.Add(p.Velocity.Scale(env.Dt))
	p.orientFromVelocity()

	// One fuse law for both targets: the seeker detonates within
	// proximityFuse of whatever it is currently tracking.
	if p.Position.DistanceTo(target) <= proximityFuse || p.Position.Y <= 0 {
		p.Exploded = true
	}
}

// Defense missile: aim once at the pre-computed point, then fly straight.
func stepDefense(p *Projectile, env GuidanceEnv) {
	if !p.aimed {
		p.Velocity = p.TargetPoint.Sub(p.Position).Normalized().Scale(p.Speed)
		p.orientFromVelocity()
		p.aimed = true
	}
	p.Position = p.Position.Add(p.Velocity.Scale(env.Dt))
	if p.Position.DistanceTo(p.TargetPoint) < proximityFuse {
		p.Exploded = true
	}
}

// blendVelocity steers v toward vdes by factor k (already dt-scaled) and
// clamps the result back to speed.
func blendVelocity(v, vdes Vec3, k, speed float64) Vec3 {
	if k > 1 {
		k = 1
	}
	blended := v.Add(vdes.Sub(v).Scale(k))
	if l := blended.Len(); l > speed {
		blended = blended.Scale(speed / l)
	}
	return blended
}
