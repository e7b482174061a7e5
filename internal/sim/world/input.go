package world

// InputSnapshot is the polled key-state surface for one tick. The transport
// layer fills it from the player's INPUT messages; the core only reads it.
type InputSnapshot struct {
	HeadingLeft  bool `json:"heading_left"`
	HeadingRight bool `json:"heading_right"`
	Climb        bool `json:"climb"`
	Dive         bool `json:"dive"`

	// PanModifier reroutes the heading keys to camera panning; ZoomModifier
	// reroutes climb/dive to camera zoom.
	PanModifier  bool `json:"pan_modifier"`
	ZoomModifier bool `json:"zoom_modifier"`

	Bomb            bool `json:"bomb"`
	Missile         bool `json:"missile"`
	Countermeasures bool `json:"countermeasures"`

	CameraToggle bool `json:"camera_toggle"`
	CameraReset  bool `json:"camera_reset"`
}

// Refusal explains why an action intent did nothing. Empty means accepted.
type Refusal string

const (
	RefusalNone      Refusal = ""
	RefusalCooldown  Refusal = "cooldown"
	RefusalNoTarget  Refusal = "no_target"
	RefusalRunActive Refusal = "bombing_run_active"
	RefusalDestroyed Refusal = "destroyed"
)
