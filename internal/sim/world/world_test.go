package world

import (
	"encoding/json"
	"testing"

	"ironrain.gg/internal/protocol"
)

func stepN(w *World, n int, in InputSnapshot) {
	for i := 0; i < n; i++ {
		w.StepOnce(testDt, in)
	}
}

func TestWorld_DeterministicDigest(t *testing.T) {
	cfg := WorldConfig{ID: "test", TickRateHz: 60, Seed: 42, StartAltitude: 120}
	w1 := New(cfg, nil)
	w2 := New(cfg, nil)

	script := func(i int) InputSnapshot {
		var in InputSnapshot
		switch {
		case i == 10:
			in.Bomb = true
		case i > 120 && i < 300:
			in.HeadingLeft = true
		case i == 400:
			in.Countermeasures = true
		}
		return in
	}

	for i := 0; i < 600; i++ {
		in := script(i)
		w1.StepOnce(testDt, in)
		w2.StepOnce(testDt, in)
		if d1, d2 := w1.StateDigest(), w2.StateDigest(); d1 != d2 {
			t.Fatalf("digest diverged at step %d: %s vs %s", i, d1, d2)
		}
	}
}

func TestWorld_BombingRunDestroysTarget(t *testing.T) {
	w := New(WorldConfig{ID: "test", Seed: 1, StartAltitude: 120}, nil)

	// Plant a known target under the flight path before streaming claims the
	// chunk. The bomber flies +z from the origin; drops land along x=0.
	k := ChunkKey{0, 0}
	w.store.MarkPending(k)
	w.store.Install(ChunkContent{
		Key:       k,
		Heightmap: make([]float64, chunkVerts*chunkVerts),
		BuildingConfigs: []BuildingConfig{
			{Position: Vec3{0, 0, 50}, Type: BuildingResidential, Width: 12, Height: 10, Depth: 12, Target: true},
		},
	})
	target := w.store.Chunk(k).Buildings[0]
	// Three near hits land roughly 25+50+25 damage; trim health so frame
	// jitter cannot leave the kill a point short.
	target.Health = 80

	w.StepOnce(testDt, InputSnapshot{Bomb: true})
	stepN(w, 60*15, InputSnapshot{})

	if !target.Destroyed {
		t.Fatalf("target survived the run with health %v", target.Health)
	}
	if w.score.DestroyedBuildings < 1 {
		t.Fatalf("score.DestroyedBuildings = %d", w.score.DestroyedBuildings)
	}
	if w.score.DestroyedTargets < 1 {
		t.Fatalf("score.DestroyedTargets = %d", w.score.DestroyedTargets)
	}
	if w.score.DestroyedTargets > w.score.DestroyedBuildings {
		t.Fatal("target count exceeds building count")
	}
}

func TestWorld_GameOverFreezesInputThenRestarts(t *testing.T) {
	w := New(WorldConfig{ID: "test", Seed: 9, StartAltitude: 120}, nil)
	stepN(w, 30, InputSnapshot{})

	w.bomber.TakeDamage(bomberMaxHealth, w.nowSec)
	if !w.gameOver {
		t.Fatal("bomber destruction did not end the game")
	}

	// Gameplay input is inert during the window.
	posBefore := w.bomber.Position
	stepN(w, 30, InputSnapshot{HeadingLeft: true, Bomb: true})
	if w.bomber.Position != posBefore {
		t.Fatal("bomber moved while destroyed")
	}
	if w.bomber.Run.Active {
		t.Fatal("bombing run started while destroyed")
	}

	// Past the delay the world restarts fresh.
	stepN(w, 60*int(restartDelay)+30, InputSnapshot{})
	if w.gameOver {
		t.Fatal("world still in game-over after the restart delay")
	}
	if w.bomber.Destroyed || w.bomber.Health != bomberMaxHealth {
		t.Fatalf("bomber not respawned: %+v", w.bomber)
	}
	if w.score != (Score{}) {
		t.Fatalf("score carried over: %+v", w.score)
	}
	// Heading zero after respawn: the bomber has only moved straight down +z.
	if w.bomber.Position.X != 0 || w.bomber.Position.Y != 120 {
		t.Fatalf("bomber not back on the spawn track: %+v", w.bomber.Position)
	}
}

func TestWorld_FlaresDeployAndCooldown(t *testing.T) {
	w := New(WorldConfig{ID: "test", Seed: 3}, nil)

	w.StepOnce(testDt, InputSnapshot{Countermeasures: true})
	if got := len(w.flares.Active()); got != flareCount {
		t.Fatalf("flares = %d, want %d", got, flareCount)
	}

	// Held key is edge-triggered; releasing and pressing again inside the
	// cooldown adds nothing.
	w.StepOnce(testDt, InputSnapshot{})
	w.StepOnce(testDt, InputSnapshot{Countermeasures: true})
	if got := len(w.flares.Active()); got != flareCount {
		t.Fatalf("flares after refused press = %d, want %d", got, flareCount)
	}
}

func TestWorld_MissileIntentWithoutTargetRefused(t *testing.T) {
	w := New(WorldConfig{ID: "test", Seed: 3}, nil)

	// No chunks yet, so no launcher can be in range.
	w.StepOnce(testDt, InputSnapshot{Missile: true})
	if len(w.cruise) != 0 {
		t.Fatal("cruise launched with no target")
	}
	if w.bomber.pendingMissile {
		t.Fatal("missile pending with no target")
	}
}

func TestWorld_StreamsRingAroundBomber(t *testing.T) {
	w := New(WorldConfig{ID: "test", Seed: 5}, nil)
	stepN(w, 60, InputSnapshot{})

	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			ch := w.store.Chunk(ChunkKey{dx, dz})
			if ch == nil || ch.Status != ChunkReady {
				t.Fatalf("ring chunk {%d %d} not ready after 1s", dx, dz)
			}
		}
	}
}

func TestWorld_RadarRefreshesOnCadence(t *testing.T) {
	w := New(WorldConfig{ID: "test", Seed: 5}, nil)
	stepN(w, 60, InputSnapshot{})
	if w.radar == nil {
		t.Fatal("radar never built")
	}
	obs := w.buildObs(w.nowSec)
	if obs.Radar == nil {
		t.Fatal("radar missing from the state surface")
	}
}

func TestWorld_ObsSurfaceTracksBomber(t *testing.T) {
	w := New(WorldConfig{ID: "test", Seed: 5, StartAltitude: 150}, nil)
	stepN(w, 120, InputSnapshot{})

	obs := w.buildObs(w.nowSec)
	if obs.Type != protocol.TypeObs || obs.ProtocolVersion != protocol.Version {
		t.Fatalf("bad envelope: %s %s", obs.Type, obs.ProtocolVersion)
	}
	if obs.Bomber.Position != [3]float64{w.bomber.Position.X, w.bomber.Position.Y, w.bomber.Position.Z} {
		t.Fatal("bomber position mismatch")
	}
	if obs.Bomber.HealthPercent != 1 {
		t.Fatalf("health percent = %v", obs.Bomber.HealthPercent)
	}
	if obs.GameOver {
		t.Fatal("fresh world reports game over")
	}
}

func TestWorld_PilotJoinSingleSeat(t *testing.T) {
	w := New(WorldConfig{ID: "test", TickRateHz: 60, Seed: 5}, nil)

	join := func() PilotJoinResponse {
		out := make(chan []byte, 4)
		resp := make(chan PilotJoinResponse, 1)
		w.handlePilotJoin(PilotJoinRequest{Name: "p", Out: out, Resp: resp})
		return <-resp
	}

	first := join()
	if first.ErrCode != "" {
		t.Fatalf("first join refused: %s", first.ErrCode)
	}
	if first.Welcome.WorldParams.ChunkSize != ChunkSize {
		t.Fatalf("welcome chunk size = %v", first.Welcome.WorldParams.ChunkSize)
	}

	second := join()
	if second.ErrCode != protocol.ErrWorldBusy {
		t.Fatalf("second join: %q, want %q", second.ErrCode, protocol.ErrWorldBusy)
	}

	w.handleLeave(first.Welcome.PilotID)
	third := join()
	if third.ErrCode != "" {
		t.Fatalf("join after leave refused: %s", third.ErrCode)
	}
}

func TestWorld_PilotReceivesEventFrames(t *testing.T) {
	w := New(WorldConfig{ID: "test", TickRateHz: 60, Seed: 3}, nil)

	out := make(chan []byte, 16)
	resp := make(chan PilotJoinResponse, 1)
	w.handlePilotJoin(PilotJoinRequest{Name: "p", Out: out, Resp: resp})
	if r := <-resp; r.ErrCode != "" {
		t.Fatalf("join refused: %s", r.ErrCode)
	}

	w.StepOnce(testDt, InputSnapshot{Countermeasures: true})

	// The session channel carries OBS and ACK frames too; find the event.
	var ev *protocol.EventMsg
drain:
	for {
		select {
		case b := <-out:
			base, err := protocol.DecodeBase(b)
			if err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if base.Type != protocol.TypeEvent {
				continue
			}
			var m protocol.EventMsg
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatal(err)
			}
			if m.Event == "flares_deployed" {
				ev = &m
				break drain
			}
		default:
			break drain
		}
	}
	if ev == nil {
		t.Fatal("no flares_deployed event frame reached the pilot")
	}
	if ev.ProtocolVersion != protocol.Version || ev.Value != flareCount {
		t.Fatalf("event frame: %+v", ev)
	}
}

func TestWorld_CruiseLaunchAgainstPlantedLauncher(t *testing.T) {
	w := New(WorldConfig{ID: "test", Seed: 2, StartAltitude: 120}, nil)

	k := ChunkKey{0, 0}
	w.store.MarkPending(k)
	w.store.Install(ChunkContent{
		Key:       k,
		Heightmap: make([]float64, chunkVerts*chunkVerts),
		BuildingConfigs: []BuildingConfig{
			{Position: Vec3{100, 0, 100}, Type: BuildingIndustrial, Width: 20, Height: 20, Depth: 20, Launcher: true},
		},
	})
	launcher := w.store.Chunk(k).Buildings[0]

	w.StepOnce(testDt, InputSnapshot{Missile: true})
	if !w.bomber.pendingMissile {
		t.Fatal("missile intent not accepted with a launcher in range")
	}

	// Bay opens, missile spawns, and the strike eventually kills the
	// launcher outright.
	stepN(w, 60*20, InputSnapshot{})
	if !launcher.Destroyed {
		t.Fatal("launcher survived the cruise strike")
	}
}
