package world

import (
	"math/rand"
	"testing"
)

func testLauncher(x, z float64) *Building {
	return newBuilding(1, BuildingConfig{
		Position: Vec3{x, 0, z},
		Type:     BuildingIndustrial,
		Width:    20, Height: 20, Depth: 20,
		Launcher: true,
	})
}

func TestDefense_LaunchesOnlyInRangeAndInterval(t *testing.T) {
	dc := NewDefenseController(testLauncher(0, 0))
	rng := rand.New(rand.NewSource(1))
	var num uint64
	next := func() uint64 { num++; return num }

	// Bomber out of scan range: nothing fires.
	env := GuidanceEnv{Dt: testDt, Now: 1, BomberPos: Vec3{0, 120, 500}}
	dc.Tick(env, rng, next)
	if len(dc.Missiles) != 0 {
		t.Fatal("launched at a bomber outside scan range")
	}

	// In range: exactly one launch, then the interval gates the next.
	env.BomberPos = Vec3{0, 120, 100}
	env.Now = 2
	dc.Tick(env, rng, next)
	if len(dc.Missiles) != 1 {
		t.Fatalf("missiles = %d, want 1", len(dc.Missiles))
	}
	env.Now = 3
	dc.Tick(env, rng, next)
	if len(dc.Missiles) != 1 {
		t.Fatal("second launch inside the interval")
	}
	env.Now = 2 + defenseLaunchInterval + 0.01
	dc.Tick(env, rng, next)
	if len(dc.Missiles) != 2 {
		t.Fatalf("missiles = %d after interval, want 2", len(dc.Missiles))
	}
}

func TestDefense_SilentWhenDestroyed(t *testing.T) {
	l := testLauncher(0, 0)
	l.TakeDamage(buildingMaxHealth, true)
	dc := NewDefenseController(l)
	rng := rand.New(rand.NewSource(1))
	var num uint64
	next := func() uint64 { num++; return num }

	dc.Tick(GuidanceEnv{Dt: testDt, Now: 5, BomberPos: Vec3{0, 120, 50}}, rng, next)
	if len(dc.Missiles) != 0 {
		t.Fatal("destroyed launcher fired")
	}
}

func TestDefense_AimJitterBounded(t *testing.T) {
	dc := NewDefenseController(testLauncher(0, 0))
	rng := rand.New(rand.NewSource(7))
	var num uint64
	next := func() uint64 { num++; return num }

	bomber := Vec3{50, 120, 50}
	dc.Tick(GuidanceEnv{Dt: testDt, Now: 1, BomberPos: bomber}, rng, next)
	if len(dc.Missiles) != 1 {
		t.Fatal("no launch")
	}
	m := dc.Missiles[0]
	d := m.TargetPoint.Sub(bomber)
	for _, c := range [...]float64{d.X, d.Y, d.Z} {
		if c < -defenseAimJitter || c > defenseAimJitter {
			t.Fatalf("aim offset %v exceeds jitter bound", c)
		}
	}
	if m.Position != dc.Launcher.RooftopPosition() {
		t.Fatalf("launch origin %v, want rooftop %v", m.Position, dc.Launcher.RooftopPosition())
	}
}

func TestDefense_MissilesReaped(t *testing.T) {
	dc := NewDefenseController(testLauncher(0, 0))
	rng := rand.New(rand.NewSource(1))
	var num uint64
	next := func() uint64 { num++; return num }

	env := GuidanceEnv{Dt: testDt, Now: 1, BomberPos: Vec3{0, 120, 100}}
	dc.Tick(env, rng, next)
	if len(dc.Missiles) != 1 {
		t.Fatal("no launch")
	}

	// Let the missile fly to its aim point and fuse; keep the bomber out of
	// launch range so no replacement fires.
	env.BomberPos = Vec3{0, 120, 5000}
	for i := 0; i < 60*int(defenseTTL+2); i++ {
		env.Now += testDt
		dc.Tick(env, rng, next)
	}
	if len(dc.Missiles) != 0 {
		t.Fatalf("missiles = %d after flight, want 0", len(dc.Missiles))
	}
}
