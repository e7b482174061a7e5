package world

import (
	"math"
	"sort"
)

// Streamer tuning. Distances are world units, cadence is owned by the world
// loop (streamTickInterval).
const (
	streamEdgeThreshold  = 300.0 // pre-generate ahead when this close to a chunk edge
	streamMaxResident    = 25
	streamMaxGenPerTick  = 4
	streamMaxEvictPerTick = 2
	streamEvictManhattan = 3
)

// WorldStreamer keeps a ring of ready chunks around the bomber, pre-generates
// along the direction of travel and evicts what falls behind. Generation is
// dispatched to the backend; a pending table with deadlines guarantees the
// synchronous fallback runs when a worker never answers.
type WorldStreamer struct {
	store   *ChunkStore
	noise   *NoiseField
	seed    int64
	backend Backend

	nextMsgID func() uint64

	pending map[uint64]pendingReq
	byKey   map[ChunkKey]uint64

	disposing bool
}

func NewWorldStreamer(store *ChunkStore, noise *NoiseField, seed int64, backend Backend, nextMsgID func() uint64) *WorldStreamer {
	return &WorldStreamer{
		store:     store,
		noise:     noise,
		seed:      seed,
		backend:   backend,
		nextMsgID: nextMsgID,
		pending:   map[uint64]pendingReq{},
		byKey:     map[ChunkKey]uint64{},
	}
}

// SetDisposing gates new generation while the world shuts down or resets.
// In-flight requests are not cancelled; their results are discarded on
// arrival.
func (st *WorldStreamer) SetDisposing(v bool) { st.disposing = v }

// Reset drops all pending tracking, for world restart.
func (st *WorldStreamer) Reset() {
	st.pending = map[uint64]pendingReq{}
	st.byKey = map[ChunkKey]uint64{}
	st.disposing = false
}

// PendingCount reports outstanding generation requests.
func (st *WorldStreamer) PendingCount() int { return len(st.pending) }

// Tick runs one streaming pass: expire stale requests, top up the 1-ring,
// pre-generate ahead of the bomber, and evict far chunks.
func (st *WorldStreamer) Tick(now float64, bomberPos, bomberVel Vec3) {
	st.checkTimeouts(now)

	center := ChunkKeyAt(bomberPos.X, bomberPos.Z)

	gens := 0
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			if gens >= streamMaxGenPerTick {
				break
			}
			k := ChunkKey{CX: center.CX + dx, CZ: center.CZ + dz}
			if st.requestChunk(k, now) {
				gens++
			}
		}
	}

	// Lookahead: near a chunk edge, pull in the next chunks along whichever
	// axis carries most of the motion.
	if gens < streamMaxGenPerTick && st.edgeDistance(bomberPos) < streamEdgeThreshold {
		dirX, dirZ := 0, 0
		if math.Abs(bomberVel.X) >= math.Abs(bomberVel.Z) {
			if bomberVel.X >= 0 {
				dirX = 1
			} else {
				dirX = -1
			}
		} else {
			if bomberVel.Z >= 0 {
				dirZ = 1
			} else {
				dirZ = -1
			}
		}
		for step := 1; step <= 2 && gens < streamMaxGenPerTick; step++ {
			k := ChunkKey{CX: center.CX + dirX*step, CZ: center.CZ + dirZ*step}
			if st.requestChunk(k, now) {
				gens++
			}
		}
	}

	st.evictFar(center)
}

// requestChunk is idempotent per key: the pending placeholder in the store
// prevents duplicate in-flight generation. Returns true when a new request
// was issued.
func (st *WorldStreamer) requestChunk(k ChunkKey, now float64) bool {
	if st.disposing {
		return false
	}
	if st.store.Len() >= streamMaxResident {
		return false
	}
	if !st.store.MarkPending(k) {
		return false
	}
	if st.backend == nil {
		st.generateSync(k)
		return true
	}
	id := st.nextMsgID()
	if !st.backend.SubmitChunk(id, k) {
		// Queue full: do the work inline rather than stall the ring.
		st.generateSync(k)
		return true
	}
	st.pending[id] = pendingReq{key: k, deadline: now + workerTimeout}
	st.byKey[k] = id
	return true
}

// HandleResult reconciles a worker response. Returns false when the message
// id is not one of ours.
func (st *WorldStreamer) HandleResult(res BackendResult) bool {
	p, ok := st.pending[res.MessageID]
	if !ok {
		return false
	}
	delete(st.pending, res.MessageID)
	delete(st.byKey, p.key)

	if st.disposing {
		// Late result during shutdown: drop it and release the placeholder.
		st.store.Evict(p.key)
		return true
	}
	if res.Err != "" || res.Chunk == nil {
		// Malformed worker reply degrades to the synchronous path.
		st.generateSync(p.key)
		return true
	}
	st.store.Install(*res.Chunk)
	return true
}

func (st *WorldStreamer) checkTimeouts(now float64) {
	for id, p := range st.pending {
		if now < p.deadline {
			continue
		}
		delete(st.pending, id)
		delete(st.byKey, p.key)
		if st.disposing {
			st.store.Evict(p.key)
			continue
		}
		st.generateSync(p.key)
	}
}

// generateSync is the in-process fallback; it produces content identical to
// the worker path for the same key.
func (st *WorldStreamer) generateSync(k ChunkKey) {
	st.store.Install(GenerateChunkContent(st.noise, st.seed, k))
}

func (st *WorldStreamer) evictFar(center ChunkKey) {
	var far []ChunkKey
	for _, k := range st.store.ReadyKeys() {
		if abs(k.CX-center.CX)+abs(k.CZ-center.CZ) > streamEvictManhattan {
			far = append(far, k)
		}
	}
	// Evict in key order: ReadyKeys is map-ordered, and the resident set is
	// part of the state digest.
	sort.Slice(far, func(i, j int) bool {
		if far[i].CX != far[j].CX {
			return far[i].CX < far[j].CX
		}
		return far[i].CZ < far[j].CZ
	})
	if len(far) > streamMaxEvictPerTick {
		far = far[:streamMaxEvictPerTick]
	}
	for _, k := range far {
		st.store.Evict(k)
	}
}

// edgeDistance is the distance from pos to the nearest edge of its chunk.
func (st *WorldStreamer) edgeDistance(pos Vec3) float64 {
	k := ChunkKeyAt(pos.X, pos.Z)
	ox, oz := k.Origin()
	dx := math.Min(pos.X-ox, ox+ChunkSize-pos.X)
	dz := math.Min(pos.Z-oz, oz+ChunkSize-pos.Z)
	return math.Min(dx, dz)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
