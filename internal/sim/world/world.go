package world

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"ironrain.gg/internal/protocol"
)

type WorldConfig struct {
	ID            string
	TickRateHz    int
	Seed          int64
	StartAltitude float64
}

// Subsystem cadences, seconds. The frame limiter bounds how often step runs;
// these throttle work inside a step.
const (
	maxFrameDt          = 0.1
	minFrameInterval    = 1.0 / 60.0
	collideTickInterval = 0.016
	defenseTickInterval = 0.050
	streamTickInterval  = 0.100
	radarTickInterval   = 0.100
	restartDelay        = 5.0

	obsBuildingRange = 1500.0
	radarRange       = 600.0
)

type InputEnvelope struct {
	PilotID string
	Keys    InputSnapshot
}

type PilotJoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan PilotJoinResponse
}

type PilotJoinResponse struct {
	Welcome protocol.WelcomeMsg
	ErrCode string
}

type ObserverJoinRequest struct {
	SessionID string
	Out       chan []byte
}

// Event is a gameplay lifecycle notification, mirrored to presenters, the
// tick log and the telemetry index.
type Event struct {
	Tick      uint64  `json:"tick"`
	Now       float64 `json:"now"`
	Name      string  `json:"name"`
	SubjectID string  `json:"subject_id,omitempty"`
	Position  Vec3    `json:"position"`
	Value     float64 `json:"value,omitempty"`
}

type TickLogEntry struct {
	Tick        uint64  `json:"tick"`
	Now         float64 `json:"now"`
	BomberPos   Vec3    `json:"bomber_pos"`
	Health      float64 `json:"health"`
	Score       Score   `json:"score"`
	Chunks      int     `json:"chunks"`
	Projectiles int     `json:"projectiles"`
	Events      []Event `json:"events,omitempty"`
	Digest      string  `json:"digest,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type EventSink interface {
	WriteEvent(e Event) error
}

// World is the single-threaded authoritative simulation. All state must be
// accessed only from the world loop goroutine; transports talk to it through
// channels.
type World struct {
	cfg WorldConfig

	tick atomic.Uint64

	noise    *NoiseField
	store    *ChunkStore
	streamer *WorldStreamer
	backend  Backend

	bomber *Bomber
	camera *CameraController
	score  Score

	bombs    []*Projectile
	cruise   []*Projectile
	sams     []*Projectile
	defenses map[string]*DefenseController
	flares   CountermeasureSet

	rng *rand.Rand

	nowSec        float64
	lastCollideAt float64
	lastDefenseAt float64
	lastStreamAt  float64
	lastRadarAt   float64

	nextSAMAt      float64
	samQueryID     uint64
	samQueryOpen   bool
	samQueryExpiry float64

	gameOver   bool
	gameOverAt float64

	msgCounter uint64

	prevInput   InputSnapshot
	latestInput InputSnapshot

	pilotID  string
	pilotOut chan []byte

	observers map[string]chan []byte

	events []Event

	inbox        chan InputEnvelope
	pilotJoin    chan PilotJoinRequest
	observerJoin chan ObserverJoinRequest
	leave        chan string
	stop         chan struct{}

	tickLogger TickLogger
	eventSink  EventSink

	radar *protocol.RadarState
}

func New(cfg WorldConfig, backend Backend) *World {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 60
	}
	if cfg.StartAltitude <= 0 {
		cfg.StartAltitude = 120
	}
	noise := NewNoiseField(cfg.Seed)
	w := &World{
		cfg:          cfg,
		noise:        noise,
		store:        NewChunkStore(noise),
		backend:      backend,
		camera:       NewCameraController(),
		defenses:     map[string]*DefenseController{},
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		observers:    map[string]chan []byte{},
		inbox:        make(chan InputEnvelope, 64),
		pilotJoin:    make(chan PilotJoinRequest, 4),
		observerJoin: make(chan ObserverJoinRequest, 8),
		leave:        make(chan string, 8),
		stop:         make(chan struct{}),
	}
	w.streamer = NewWorldStreamer(w.store, noise, cfg.Seed, backend, w.nextMsgID)
	w.store.SetBuildingDestroyedCallback(w.onBuildingDestroyed)
	w.spawnBomber()
	w.nextSAMAt = nextSAMInterval(w.rng)
	return w
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }
func (w *World) SetEventSink(s EventSink)   { w.eventSink = s }

func (w *World) Inbox() chan<- InputEnvelope           { return w.inbox }
func (w *World) PilotJoin() chan<- PilotJoinRequest    { return w.pilotJoin }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) Leave() chan<- string                  { return w.leave }

func (w *World) Config() WorldConfig { return w.cfg }
func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Stop() { close(w.stop) }

func (w *World) nextMsgID() uint64 {
	w.msgCounter++
	return w.msgCounter
}

func (w *World) spawnBomber() {
	w.bomber = NewBomber(Vec3{0, w.cfg.StartAltitude, 0})
	w.bomber.SetDestroyedCallback(w.onBomberDestroyed)
}

// Run drives the tick loop from a 60 Hz ticker. Input, joins and leaves are
// applied as they arrive; simulation advances only on ticks that pass the
// frame limiter.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.pilotJoin:
			w.handlePilotJoin(req)
		case req := <-w.observerJoin:
			w.observers[req.SessionID] = req.Out
		case id := <-w.leave:
			w.handleLeave(id)
		case env := <-w.inbox:
			if env.PilotID == w.pilotID {
				w.latestInput = env.Keys
			}
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(last).Seconds()
			if dt < minFrameInterval {
				continue
			}
			last = now
			if dt > maxFrameDt {
				dt = maxFrameDt
			}
			w.StepOnce(dt, w.latestInput)
		}
	}
}

func (w *World) handlePilotJoin(req PilotJoinRequest) {
	resp := PilotJoinResponse{}
	if w.pilotID != "" {
		resp.ErrCode = protocol.ErrWorldBusy
	} else {
		w.pilotID = "PILOT1"
		w.pilotOut = req.Out
		resp.Welcome = protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			PilotID:         w.pilotID,
			WorldParams: protocol.WorldParams{
				TickRateHz:  w.cfg.TickRateHz,
				ChunkSize:   ChunkSize,
				ChunkSubdiv: ChunkSubdiv,
				Seed:        w.cfg.Seed,
			},
		}
	}
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (w *World) handleLeave(id string) {
	if id == w.pilotID {
		w.pilotID = ""
		w.pilotOut = nil
		w.latestInput = InputSnapshot{}
		return
	}
	delete(w.observers, id)
}

// StepOnce advances the simulation by dt with the given input snapshot.
// Exposed for tests; Run calls it on the loop goroutine only.
func (w *World) StepOnce(dt float64, in InputSnapshot) {
	defer func() {
		// Update-path panics must not escape the frame callback.
		_ = recover()
	}()

	w.nowSec += dt
	now := w.nowSec

	w.drainBackend(now)

	if w.gameOver {
		// Gameplay input is inert during the game-over window.
		if now-w.gameOverAt >= restartDelay {
			w.restart(now)
		}
		w.publish(now)
		w.logTick(now)
		w.prevInput = in
		w.tick.Add(1)
		return
	}

	floor := w.store.MaxBuildingHeightNear(w.bomber.Position, 120, now)
	w.camera.Advance(in, dt, now)
	w.bomber.Advance(in, dt, floor)

	w.applyIntents(in, now)

	drop, launch := w.bomber.AdvanceBay(dt, now)
	if drop {
		w.dropBomb(now)
	}
	if launch {
		w.launchCruise(now)
	}

	w.flares.Prune(now)
	env := GuidanceEnv{
		Dt:        dt,
		Now:       now,
		BomberPos: w.bomber.Position,
		Flares:    &w.flares,
		OnSAMLocked: func(p *Projectile) {
			w.emit(now, "sam_locked", p.ID, p.Position, 0)
		},
	}
	w.stepProjectiles(env)

	if now-w.lastDefenseAt >= defenseTickInterval {
		w.lastDefenseAt = now
		w.syncDefenses()
		// Stable order: controller ticks draw from the shared rng, so map
		// iteration would desync replays.
		for _, id := range w.sortedDefenseIDs() {
			w.defenses[id].Tick(env, w.rng, w.nextMsgID)
		}
	}

	if now-w.lastCollideAt >= collideTickInterval {
		w.lastCollideAt = now
		w.resolveBomberCollisions(now)
	}

	w.tickSAMSpawner(now)

	if now-w.lastStreamAt >= streamTickInterval {
		w.lastStreamAt = now
		w.streamer.Tick(now, w.bomber.Position, w.bomber.Velocity())
	}

	if now-w.lastRadarAt >= radarTickInterval {
		w.lastRadarAt = now
		w.radar = w.buildRadar(now)
	}

	w.publish(now)
	w.logTick(now)
	w.prevInput = in
	w.tick.Add(1)
}

func pressed(cur, prev bool) bool { return cur && !prev }

func (w *World) applyIntents(in InputSnapshot, now float64) {
	if pressed(in.Bomb, w.prevInput.Bomb) {
		w.ack("bomb", w.bomber.StartBombingRun(now), now)
	}
	if pressed(in.Missile, w.prevInput.Missile) {
		if w.bomber.AcquireTarget(w.store, now) == nil {
			w.ack("missile", RefusalNoTarget, now)
		} else {
			w.ack("missile", w.bomber.RequestMissileLaunch(now), now)
		}
	}
	if pressed(in.Countermeasures, w.prevInput.Countermeasures) {
		ref := w.bomber.RequestFlares(now)
		if ref == RefusalNone {
			w.flares.Deploy(w.bomber.Position, now)
			w.emit(now, "flares_deployed", w.pilotID, w.bomber.Position, flareCount)
		}
		w.ack("countermeasures", ref, now)
	}
}

func refusalCode(r Refusal) string {
	switch r {
	case RefusalCooldown:
		return protocol.ErrCooldown
	case RefusalNoTarget:
		return protocol.ErrNoTarget
	case RefusalRunActive:
		return protocol.ErrRunActive
	case RefusalDestroyed:
		return protocol.ErrDestroyed
	default:
		return ""
	}
}

func (w *World) ack(action string, ref Refusal, now float64) {
	if w.pilotOut == nil {
		return
	}
	msg := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          action,
		Accepted:        ref == RefusalNone,
		Code:            refusalCode(ref),
		ServerTick:      w.tick.Load(),
	}
	if b, err := json.Marshal(msg); err == nil {
		sendLatest(w.pilotOut, b)
	}
}

func (w *World) dropBomb(now float64) {
	p := NewBomb(w.nextMsgID(), w.bomber.Position, now)
	w.bombs = append(w.bombs, p)
	w.emit(now, "bomb_dropped", p.ID, p.Position, 0)
}

func (w *World) launchCruise(now float64) {
	tgt := w.bomber.AcquireTarget(w.store, now)
	if tgt == nil {
		return
	}
	p := NewCruiseMissile(w.nextMsgID(), w.bomber.Position, tgt, now)
	w.cruise = append(w.cruise, p)
	w.emit(now, "cruise_launched", p.ID, p.Position, 0)
}

func (w *World) stepProjectiles(env GuidanceEnv) {
	for _, p := range w.bombs {
		if !p.ShouldStep(env.Now) {
			continue
		}
		if StepProjectile(p, env) {
			w.emit(env.Now, "bomb_exploded", p.ID, p.Position, 0)
			ResolveBombExplosion(w.store, p.Position, env.Now)
		}
	}
	w.bombs = reapExploded(w.bombs, env.Now)

	for _, p := range w.cruise {
		if !p.ShouldStep(env.Now) {
			continue
		}
		if StepProjectile(p, env) {
			w.emit(env.Now, "cruise_exploded", p.ID, p.Position, 0)
		}
	}
	w.cruise = reapExploded(w.cruise, env.Now)

	for _, p := range w.sams {
		if !p.ShouldStep(env.Now) {
			continue
		}
		seducedBefore := p.SeducedByFlare
		if StepProjectile(p, env) {
			w.emit(env.Now, "sam_exploded", p.ID, p.Position, 0)
		} else if p.SeducedByFlare && !seducedBefore {
			w.emit(env.Now, "sam_seduced", p.ID, p.Position, 0)
		}
	}
	w.sams = reapExploded(w.sams, env.Now)
}

// syncDefenses reconciles the controller set with the launchers present in
// ready chunks.
func (w *World) syncDefenses() {
	seen := map[string]struct{}{}
	for _, k := range w.store.ReadyKeys() {
		ch := w.store.Chunk(k)
		if ch == nil {
			continue
		}
		for _, b := range ch.Buildings {
			if !b.IsLauncher || b.Destroyed {
				continue
			}
			seen[b.ID] = struct{}{}
			if _, ok := w.defenses[b.ID]; !ok {
				w.defenses[b.ID] = NewDefenseController(b)
			}
		}
	}
	for id := range w.defenses {
		if _, ok := seen[id]; !ok {
			delete(w.defenses, id)
		}
	}
}

func (w *World) sortedDefenseIDs() []string {
	ids := make([]string, 0, len(w.defenses))
	for id := range w.defenses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) resolveBomberCollisions(now float64) {
	for _, p := range w.sams {
		if ResolveMissileVsBomber(p, w.bomber, now) {
			w.emit(now, "bomber_hit", p.ID, p.Position, bomberMaxHealth-w.bomber.Health)
		}
	}
	for _, id := range w.sortedDefenseIDs() {
		for _, p := range w.defenses[id].Missiles {
			if ResolveMissileVsBomber(p, w.bomber, now) {
				w.emit(now, "bomber_hit", p.ID, p.Position, bomberMaxHealth-w.bomber.Health)
			}
		}
	}
}

// tickSAMSpawner runs every frame. When the randomised interval elapses it
// asks the backend which launchers are in range and fires from the farthest
// one; a silent backend degrades to a local scan after the usual timeout.
func (w *World) tickSAMSpawner(now float64) {
	if w.samQueryOpen {
		if now >= w.samQueryExpiry {
			w.samQueryOpen = false
			w.spawnSAMFrom(w.pickFarthestLauncherLocal(now), now)
		}
		return
	}
	if now < w.nextSAMAt {
		return
	}

	candidates := w.launcherCandidates()
	if w.backend == nil || len(candidates) == 0 {
		w.spawnSAMFrom(w.pickFarthestLauncherLocal(now), now)
		return
	}
	id := w.nextMsgID()
	if !w.backend.SubmitRadius(id, w.bomber.Position, candidates, samLauncherRange) {
		w.spawnSAMFrom(w.pickFarthestLauncherLocal(now), now)
		return
	}
	w.samQueryID = id
	w.samQueryOpen = true
	w.samQueryExpiry = now + workerTimeout
}

func (w *World) launcherCandidates() []RadiusCandidate {
	var out []RadiusCandidate
	for _, k := range w.store.ReadyKeys() {
		ch := w.store.Chunk(k)
		for _, b := range ch.Buildings {
			if b.IsLauncher && !b.Destroyed {
				out = append(out, RadiusCandidate{ID: b.ID, Position: b.Position})
			}
		}
	}
	return out
}

func (w *World) pickFarthestLauncherLocal(now float64) *Building {
	var best *Building
	bestD := 0.0
	for _, b := range w.store.BuildingsInRadius(w.bomber.Position, samLauncherRange, now) {
		if !b.IsLauncher || b.Destroyed {
			continue
		}
		d := b.Position.DistanceTo(w.bomber.Position)
		if d > bestD {
			best = b
			bestD = d
		}
	}
	return best
}

func (w *World) handleSAMQueryResult(res BackendResult, now float64) {
	w.samQueryOpen = false
	if res.Err != "" {
		w.spawnSAMFrom(w.pickFarthestLauncherLocal(now), now)
		return
	}
	var best *Building
	bestD := 0.0
	for _, hit := range res.Radius {
		b := w.store.BuildingByID(hit.BuildingID)
		if b == nil || !b.IsLauncher || b.Destroyed {
			continue
		}
		if hit.Distance > bestD {
			best = b
			bestD = hit.Distance
		}
	}
	w.spawnSAMFrom(best, now)
}

func (w *World) spawnSAMFrom(launcher *Building, now float64) {
	w.nextSAMAt = now + nextSAMInterval(w.rng)
	if launcher == nil {
		return
	}
	p := NewSAM(w.nextMsgID(), launcher.RooftopPosition(), now)
	w.sams = append(w.sams, p)
	w.emit(now, "sam_launched", p.ID, p.Position, 0)
}

func (w *World) drainBackend(now float64) {
	if w.backend == nil {
		return
	}
	for {
		select {
		case res := <-w.backend.Results():
			if w.streamer.HandleResult(res) {
				continue
			}
			if w.samQueryOpen && res.MessageID == w.samQueryID {
				if !w.gameOver {
					w.handleSAMQueryResult(res, now)
				} else {
					w.samQueryOpen = false
				}
			}
		default:
			return
		}
	}
}

func (w *World) onBuildingDestroyed(b *Building) {
	w.score.DestroyedBuildings++
	if b.IsTarget {
		w.score.DestroyedTargets++
	}
	delete(w.defenses, b.ID)
	w.emit(w.nowSec, "building_destroyed", b.ID, b.Position, b.Height)
}

func (w *World) onBomberDestroyed() {
	w.gameOver = true
	w.gameOverAt = w.nowSec
	w.streamer.SetDisposing(true)
	w.emit(w.nowSec, "bomber_destroyed", w.pilotID, w.bomber.Position, 0)
	w.emit(w.nowSec, "game_over", w.cfg.ID, w.bomber.Position, float64(w.score.DestroyedBuildings))
}

// restart resets all mutable state and re-enters streaming.
func (w *World) restart(now float64) {
	w.store.DropAll()
	w.streamer.Reset()
	w.bombs = nil
	w.cruise = nil
	w.sams = nil
	w.defenses = map[string]*DefenseController{}
	w.flares.Reset()
	w.score = Score{}
	w.radar = nil
	w.spawnBomber()
	w.gameOver = false
	w.samQueryOpen = false
	w.nextSAMAt = now + nextSAMInterval(w.rng)
	w.emit(now, "restart", w.cfg.ID, w.bomber.Position, 0)
}

func (w *World) emit(now float64, name, subject string, pos Vec3, value float64) {
	e := Event{
		Tick:      w.tick.Load(),
		Now:       now,
		Name:      name,
		SubjectID: subject,
		Position:  pos,
		Value:     value,
	}
	w.events = append(w.events, e)
	if w.eventSink != nil {
		_ = w.eventSink.WriteEvent(e)
	}
	if w.pilotOut != nil {
		msg := protocol.EventMsg{
			Type:            protocol.TypeEvent,
			ProtocolVersion: protocol.Version,
			Tick:            e.Tick,
			Event:           e.Name,
			SubjectID:       e.SubjectID,
			Position:        vecArr(e.Position),
			Value:           e.Value,
		}
		if b, err := json.Marshal(msg); err == nil {
			sendLatest(w.pilotOut, b)
		}
	}
}

func (w *World) buildRadar(now float64) *protocol.RadarState {
	rs := &protocol.RadarState{}
	for _, b := range w.store.BuildingsInRadius(w.bomber.Position, radarRange, now) {
		if !b.IsLauncher || b.Destroyed {
			continue
		}
		d := b.Position.Sub(w.bomber.Position)
		rs.Launchers = append(rs.Launchers, protocol.RadarContact{
			ID:       b.ID,
			Distance: d.Len(),
			Bearing:  math.Atan2(d.X, d.Z),
		})
	}
	rs.Incoming = len(w.sams)
	for _, dc := range w.defenses {
		rs.Incoming += len(dc.Missiles)
	}
	return rs
}

// publish builds the per-tick OBS snapshot and fans it out to the pilot and
// every observer, latest-wins.
func (w *World) publish(now float64) {
	obs := w.buildObs(now)
	b, err := json.Marshal(obs)
	if err != nil {
		return
	}
	if w.pilotOut != nil {
		sendLatest(w.pilotOut, b)
	}
	for _, out := range w.observers {
		sendLatest(out, b)
	}
}

func vecArr(v Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func cooldownLeft(until, now float64) float64 {
	if until <= now {
		return 0
	}
	return until - now
}

// BuildObs is the presenter-facing state surface for the current tick.
func (w *World) buildObs(now float64) protocol.ObsMsg {
	b := w.bomber
	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick.Load(),
		Now:             now,
		Bomber: protocol.BomberState{
			Position:       vecArr(b.Position),
			Heading:        b.Heading,
			Bank:           b.BankCurrent,
			HealthPercent:  b.HealthPercent(),
			Destroyed:      b.Destroyed,
			BayState:       b.BayState.String(),
			BayProgress:    b.BayProgress,
			BombReadyIn:    cooldownLeft(b.BombCooldownUntil, now),
			MissileReadyIn: cooldownLeft(b.MissileCooldownUntil, now),
			FlaresReadyIn:  cooldownLeft(b.FlareCooldownUntil, now),
		},
		Score: protocol.ScoreState{
			DestroyedBuildings: w.score.DestroyedBuildings,
			DestroyedTargets:   w.score.DestroyedTargets,
		},
		Camera: protocol.CameraState{
			Mode:         string(w.camera.Mode),
			PanAngle:     w.camera.PanAngle,
			FollowHeight: w.camera.FollowHeight,
		},
		Radar:    w.radar,
		GameOver: w.gameOver,
	}
	if w.gameOver {
		obs.RestartIn = math.Max(0, restartDelay-(now-w.gameOverAt))
	}

	appendProj := func(list []*Projectile) {
		for _, p := range list {
			ps := protocol.ProjectileState{
				ID:       p.ID,
				Kind:     string(p.Kind),
				Position: vecArr(p.Position),
				Yaw:      p.Yaw,
				Pitch:    p.Pitch,
				Exploded: p.Exploded,
			}
			if p.Kind == KindSAM {
				ps.LockProgress = p.LockProgress()
				ps.Seduced = p.SeducedByFlare
			}
			obs.Projectiles = append(obs.Projectiles, ps)
		}
	}
	appendProj(w.bombs)
	appendProj(w.cruise)
	appendProj(w.sams)
	for _, dc := range w.defenses {
		appendProj(dc.Missiles)
	}

	for _, bl := range w.store.BuildingsInRadius(b.Position, obsBuildingRange, now) {
		obs.Buildings = append(obs.Buildings, protocol.BuildingState{
			ID:        bl.ID,
			Type:      string(bl.Type),
			Position:  vecArr(bl.Position),
			Width:     bl.Width,
			Height:    bl.Height,
			Depth:     bl.Depth,
			Target:    bl.IsTarget,
			Launcher:  bl.IsLauncher,
			Destroyed: bl.Destroyed,
		})
	}

	for _, f := range w.flares.Active() {
		obs.Flares = append(obs.Flares, vecArr(f.Position))
	}
	return obs
}

func (w *World) logTick(now float64) {
	if w.tickLogger != nil {
		projCount := len(w.bombs) + len(w.cruise) + len(w.sams)
		for _, dc := range w.defenses {
			projCount += len(dc.Missiles)
		}
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:        w.tick.Load(),
			Now:         now,
			BomberPos:   w.bomber.Position,
			Health:      w.bomber.Health,
			Score:       w.score,
			Chunks:      w.store.Len(),
			Projectiles: projCount,
			Events:      w.events,
			Digest:      w.StateDigest(),
		})
	}
	w.events = nil
}

// StateDigest is a deterministic fingerprint of the externally meaningful
// state, used by determinism tests.
func (w *World) StateDigest() string {
	h := sha256.New()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeF := func(v float64) { writeU64(math.Float64bits(v)) }

	writeU64(w.tick.Load())
	writeF(w.bomber.Position.X)
	writeF(w.bomber.Position.Y)
	writeF(w.bomber.Position.Z)
	writeF(w.bomber.Health)
	writeU64(uint64(w.score.DestroyedBuildings))
	writeU64(uint64(w.score.DestroyedTargets))

	keys := w.store.ReadyKeys()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	for _, k := range keys {
		writeU64(uint64(uint32(int32(k.CX)))<<32 | uint64(uint32(int32(k.CZ))))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// sendLatest delivers b without blocking: when the channel is full the
// oldest frame is dropped in favour of the new one.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
