package worker

import "ironrain.gg/internal/sim/world"

// Backend adapts the message-passing pool to the narrow interface the world
// loop consumes. One forwarding goroutine converts protocol responses into
// world results.
type Backend struct {
	pool *Pool
	out  chan world.BackendResult
	stop chan struct{}
}

var _ world.Backend = (*Backend)(nil)

func NewBackend(pool *Pool) *Backend {
	b := &Backend{
		pool: pool,
		out:  make(chan world.BackendResult, 64),
		stop: make(chan struct{}),
	}
	go b.forward()
	return b
}

func (b *Backend) Close() { close(b.stop) }

func (b *Backend) SubmitChunk(msgID uint64, key world.ChunkKey) bool {
	return b.pool.Submit(Request{
		Type:      MsgGenerateTerrainChunk,
		MessageID: msgID,
		Terrain: &TerrainReq{
			CX:     key.CX,
			CZ:     key.CZ,
			Size:   world.ChunkSize,
			Subdiv: world.ChunkSubdiv,
		},
	})
}

func (b *Backend) SubmitRadius(msgID uint64, center world.Vec3, candidates []world.RadiusCandidate, radius float64) bool {
	return b.pool.Submit(Request{
		Type:      MsgGetBuildingsInRadius,
		MessageID: msgID,
		Radius: &RadiusReq{
			Center:     center,
			Candidates: candidates,
			Radius:     radius,
		},
	})
}

func (b *Backend) Results() <-chan world.BackendResult { return b.out }

func (b *Backend) forward() {
	for {
		select {
		case <-b.stop:
			return
		case resp := <-b.pool.Responses():
			res := world.BackendResult{MessageID: resp.MessageID, Err: resp.Err}
			switch resp.Type {
			case MsgGenerateTerrainChunk:
				res.Chunk = resp.Terrain
			case MsgGetBuildingsInRadius:
				res.Radius = resp.Radius
			default:
				// Physics/collision responses are consumed by their own
				// callers, not the world loop.
				continue
			}
			select {
			case b.out <- res:
			case <-b.stop:
				return
			}
		}
	}
}
