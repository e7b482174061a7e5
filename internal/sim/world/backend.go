package world

// The world offloads chunk generation (and bulk radius scans) to background
// workers through this narrow interface. Results come back on a channel the
// world drains at tick boundaries; requests are correlated by message id and
// tracked in a pending table with a deadline, so a silent worker degrades to
// the synchronous fallback instead of blocking the loop.

type Backend interface {
	// SubmitChunk requests async generation of key. False means refused or
	// queue full; the caller falls back synchronously.
	SubmitChunk(msgID uint64, key ChunkKey) bool
	// SubmitRadius asks which candidates lie within radius of center.
	SubmitRadius(msgID uint64, center Vec3, candidates []RadiusCandidate, radius float64) bool
	// Results delivers completed responses in arrival order.
	Results() <-chan BackendResult
}

type RadiusCandidate struct {
	ID       string `json:"building_id"`
	Position Vec3   `json:"position"`
}

type RadiusHit struct {
	BuildingID string  `json:"building_id"`
	Distance   float64 `json:"distance"`
}

type BackendResult struct {
	MessageID uint64
	Err       string

	Chunk  *ChunkContent
	Radius []RadiusHit
}

// workerTimeout is how long a pending request may stay unanswered before the
// gameplay thread computes the result itself, seconds.
const workerTimeout = 5.0

type pendingReq struct {
	key      ChunkKey
	deadline float64
}
