package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PilotName       string `json:"pilot_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	PilotID         string      `json:"pilot_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz  int     `json:"tick_rate_hz"`
	ChunkSize   float64 `json:"chunk_size"`
	ChunkSubdiv int     `json:"chunk_subdiv"`
	Seed        int64   `json:"seed"`
}

// INPUT (client -> server): the polled key-state surface for one frame.
type InputMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Keys            KeyState `json:"keys"`
}

type KeyState struct {
	HeadingLeft  bool `json:"heading_left"`
	HeadingRight bool `json:"heading_right"`
	Climb        bool `json:"climb"`
	Dive         bool `json:"dive"`

	PanModifier  bool `json:"pan_modifier"`
	ZoomModifier bool `json:"zoom_modifier"`

	Bomb            bool `json:"bomb"`
	Missile         bool `json:"missile"`
	Countermeasures bool `json:"countermeasures"`

	CameraToggle bool `json:"camera_toggle"`
	CameraReset  bool `json:"camera_reset"`
}

// ACK (server -> client): outcome of an action intent. Refused intents carry
// a code; no world state changed.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"` // "bomb" | "missile" | "countermeasures"
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}

// OBS (server -> client, and to observers): the per-tick state surface
// consumed by presenters.
type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Now             float64 `json:"now"`

	Bomber      BomberState       `json:"bomber"`
	Projectiles []ProjectileState `json:"projectiles"`
	Buildings   []BuildingState   `json:"buildings"`
	Flares      [][3]float64      `json:"flares"`
	Score       ScoreState        `json:"score"`
	Camera      CameraState       `json:"camera"`
	Radar       *RadarState       `json:"radar,omitempty"`

	GameOver  bool    `json:"game_over"`
	RestartIn float64 `json:"restart_in"`
}

type BomberState struct {
	Position      [3]float64 `json:"position"`
	Heading       float64    `json:"heading"`
	Bank          float64    `json:"bank"`
	HealthPercent float64    `json:"health_percent"`
	Destroyed     bool       `json:"destroyed"`
	BayState      string     `json:"bay_state"`
	BayProgress   float64    `json:"bay_progress"`

	BombReadyIn    float64 `json:"bomb_ready_in"`
	MissileReadyIn float64 `json:"missile_ready_in"`
	FlaresReadyIn  float64 `json:"flares_ready_in"`
}

type ProjectileState struct {
	ID       string     `json:"id"`
	Kind     string     `json:"kind"`
	Position [3]float64 `json:"position"`
	Yaw      float64    `json:"yaw"`
	Pitch    float64    `json:"pitch"`
	Exploded bool       `json:"exploded"`

	// SAM only.
	LockProgress float64 `json:"lock_progress,omitempty"`
	Seduced      bool    `json:"seduced,omitempty"`
}

type BuildingState struct {
	ID        string     `json:"id"`
	Type      string     `json:"building_type"`
	Position  [3]float64 `json:"position"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Depth     float64    `json:"depth"`
	Target    bool       `json:"target"`
	Launcher  bool       `json:"launcher"`
	Destroyed bool       `json:"destroyed"`
}

type ScoreState struct {
	DestroyedBuildings int `json:"destroyed_buildings"`
	DestroyedTargets   int `json:"destroyed_targets"`
}

type CameraState struct {
	Mode         string  `json:"mode"`
	PanAngle     float64 `json:"pan_angle"`
	FollowHeight float64 `json:"follow_height"`
}

// RadarState is the throttled threat digest (100 ms cadence).
type RadarState struct {
	Launchers []RadarContact `json:"launchers"`
	Incoming  int            `json:"incoming"`
}

type RadarContact struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
	Bearing  float64 `json:"bearing"`
}

// EVENT (server -> client): gameplay lifecycle notifications.
type EventMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Tick            uint64     `json:"tick"`
	Event           string     `json:"event"`
	SubjectID       string     `json:"subject_id,omitempty"`
	Position        [3]float64 `json:"position,omitempty"`
	Value           float64    `json:"value,omitempty"`
}
