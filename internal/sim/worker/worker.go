// Package worker runs deterministic simulation jobs off the world loop.
// Workers share no mutable state with the gameplay thread: requests and
// responses are plain messages correlated by id, and every computation is a
// pure function of its payload, so the world's synchronous fallback can
// produce identical results when a worker times out.
package worker

import (
	"fmt"
	"math"

	"ironrain.gg/internal/sim/world"
)

type MsgType string

const (
	MsgGenerateTerrainChunk MsgType = "GENERATE_TERRAIN_CHUNK"
	MsgUpdateMissilePhysics MsgType = "UPDATE_MISSILE_PHYSICS"
	MsgDetectCollisions     MsgType = "DETECT_COLLISIONS"
	MsgGetBuildingsInRadius MsgType = "GET_BUILDINGS_IN_RADIUS"
)

type Request struct {
	Type      MsgType `json:"type"`
	MessageID uint64  `json:"message_id"`

	Terrain   *TerrainReq   `json:"terrain,omitempty"`
	Physics   *PhysicsReq   `json:"physics,omitempty"`
	Collision *CollisionReq `json:"collision,omitempty"`
	Radius    *RadiusReq    `json:"radius,omitempty"`
}

type Response struct {
	Type      MsgType `json:"type"`
	MessageID uint64  `json:"message_id"`
	Err       string  `json:"err,omitempty"`

	Terrain   *world.ChunkContent `json:"terrain,omitempty"`
	Physics   *PhysicsResult      `json:"physics,omitempty"`
	Collision []CollisionResult   `json:"collision,omitempty"`
	Radius    []world.RadiusHit   `json:"radius,omitempty"`
}

type TerrainReq struct {
	CX     int     `json:"cx"`
	CZ     int     `json:"cz"`
	Size   float64 `json:"s"`
	Subdiv int     `json:"n"`
}

// PhysicsReq integrates one straight-flying missile for a step.
type PhysicsReq struct {
	Position world.Vec3 `json:"position"`
	Velocity world.Vec3 `json:"velocity"`
	Dt       float64    `json:"dt"`
}

type PhysicsResult struct {
	Position world.Vec3 `json:"position"`
	Yaw      float64    `json:"yaw"`
	Pitch    float64    `json:"pitch"`
}

type CollisionReq struct {
	Objects []CollisionObject `json:"objects"`
}

type CollisionObject struct {
	ID       string     `json:"object_id"`
	Position world.Vec3 `json:"position"`
	Radius   float64    `json:"radius"`
}

type CollisionResult struct {
	ObjectID         string       `json:"object_id"`
	CollidedWith     []string     `json:"collided_with"`
	CollisionPoints  []world.Vec3 `json:"collision_points"`
	PenetrationDepth float64      `json:"penetration_depth"`
}

type RadiusReq struct {
	Center     world.Vec3              `json:"bomber_position"`
	Candidates []world.RadiusCandidate `json:"buildings"`
	Radius     float64                 `json:"radius"`
}

// Pool is a fixed set of worker goroutines draining a shared request queue.
// Each worker holds only per-worker caches (its noise field); no request
// leaves state behind.
type Pool struct {
	reqs  chan Request
	resps chan Response
	stop  chan struct{}

	seed int64
	n    int
}

func NewPool(n int, seed int64) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		reqs:  make(chan Request, 64),
		resps: make(chan Response, 64),
		stop:  make(chan struct{}),
		seed:  seed,
		n:     n,
	}
	for i := 0; i < n; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) Close() { close(p.stop) }

// Submit enqueues a request without blocking. Returns false when the queue is
// full; the caller's timeout/fallback path covers the dropped request.
func (p *Pool) Submit(req Request) bool {
	select {
	case p.reqs <- req:
		return true
	default:
		return false
	}
}

func (p *Pool) Responses() <-chan Response { return p.resps }

func (p *Pool) run() {
	// Per-worker noise cache; never shared across goroutines.
	noise := world.NewNoiseField(p.seed)
	for {
		select {
		case <-p.stop:
			return
		case req := <-p.reqs:
			resp := Handle(noise, p.seed, req)
			select {
			case p.resps <- resp:
			case <-p.stop:
				return
			}
		}
	}
}

// Handle computes the response for one request. Exposed so the synchronous
// fallback path can run the exact same code on the gameplay thread.
func Handle(noise *world.NoiseField, seed int64, req Request) Response {
	resp := Response{Type: req.Type, MessageID: req.MessageID}
	switch req.Type {
	case MsgGenerateTerrainChunk:
		if req.Terrain == nil {
			resp.Err = "missing terrain payload"
			return resp
		}
		content := world.GenerateChunkContent(noise, seed, world.ChunkKey{CX: req.Terrain.CX, CZ: req.Terrain.CZ})
		resp.Terrain = &content
	case MsgUpdateMissilePhysics:
		if req.Physics == nil {
			resp.Err = "missing physics payload"
			return resp
		}
		r := stepMissile(*req.Physics)
		resp.Physics = &r
	case MsgDetectCollisions:
		if req.Collision == nil {
			resp.Err = "missing collision payload"
			return resp
		}
		resp.Collision = detectCollisions(req.Collision.Objects)
	case MsgGetBuildingsInRadius:
		if req.Radius == nil {
			resp.Err = "missing radius payload"
			return resp
		}
		resp.Radius = buildingsInRadius(*req.Radius)
	default:
		resp.Err = fmt.Sprintf("unknown message type %q", req.Type)
	}
	return resp
}

func stepMissile(req PhysicsReq) PhysicsResult {
	pos := req.Position.Add(req.Velocity.Scale(req.Dt))
	v := req.Velocity
	return PhysicsResult{
		Position: pos,
		Yaw:      math.Atan2(v.X, v.Z),
		Pitch:    math.Atan2(v.Y, math.Hypot(v.X, v.Z)),
	}
}

func detectCollisions(objects []CollisionObject) []CollisionResult {
	out := make([]CollisionResult, 0, len(objects))
	for i, a := range objects {
		res := CollisionResult{ObjectID: a.ID}
		for j, b := range objects {
			if i == j {
				continue
			}
			d := a.Position.DistanceTo(b.Position)
			overlap := a.Radius + b.Radius - d
			if overlap <= 0 {
				continue
			}
			res.CollidedWith = append(res.CollidedWith, b.ID)
			res.CollisionPoints = append(res.CollisionPoints, lerpPoint(a.Position, b.Position))
			if overlap > res.PenetrationDepth {
				res.PenetrationDepth = overlap
			}
		}
		if len(res.CollidedWith) > 0 {
			out = append(out, res)
		}
	}
	return out
}

func lerpPoint(a, b world.Vec3) world.Vec3 {
	return world.Vec3{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
}

func buildingsInRadius(req RadiusReq) []world.RadiusHit {
	var hits []world.RadiusHit
	for _, c := range req.Candidates {
		d := c.Position.DistanceTo(req.Center)
		if d <= req.Radius {
			hits = append(hits, world.RadiusHit{BuildingID: c.ID, Distance: d})
		}
	}
	return hits
}
