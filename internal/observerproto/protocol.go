// Package observerproto defines the read-only presenter handshake. After
// SUBSCRIBE, observers receive the same per-tick OBS frames the pilot gets.
package observerproto

const Version = "1.0"

type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz  int     `json:"tick_rate_hz"`
	ChunkSize   float64 `json:"chunk_size"`
	ChunkSubdiv int     `json:"chunk_subdiv"`
	Seed        int64   `json:"seed"`
}
