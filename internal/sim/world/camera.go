package world

// Camera state is presentation-side scalar state: the core only clamps,
// debounces and echoes it so presenters stay in sync with gameplay input.

type CameraMode string

const (
	CameraBomberLock CameraMode = "bomber-lock"
	CameraGroundLock CameraMode = "ground-lock"
)

const (
	cameraPanSpeed      = 1.0
	cameraZoomSpeed     = 2.0
	cameraFollowMin     = 20.0
	cameraFollowMax     = 250.0
	cameraFollowDefault = 100.0
	cameraToggleDebounce = 0.3
	cameraResetDebounce  = 0.5
)

type CameraController struct {
	PanAngle     float64
	FollowHeight float64
	Mode         CameraMode

	lastToggleAt float64
	lastResetAt  float64
}

func NewCameraController() *CameraController {
	return &CameraController{
		FollowHeight: cameraFollowDefault,
		Mode:         CameraBomberLock,
		lastToggleAt: -cameraToggleDebounce,
		lastResetAt:  -cameraResetDebounce,
	}
}

func (c *CameraController) Advance(in InputSnapshot, dt, now float64) {
	if in.PanModifier {
		if in.HeadingLeft {
			c.PanAngle += cameraPanSpeed * dt
		}
		if in.HeadingRight {
			c.PanAngle -= cameraPanSpeed * dt
		}
	}
	if in.ZoomModifier {
		if in.Climb {
			c.FollowHeight += cameraZoomSpeed * 60 * dt
		}
		if in.Dive {
			c.FollowHeight -= cameraZoomSpeed * 60 * dt
		}
		c.FollowHeight = clamp(c.FollowHeight, cameraFollowMin, cameraFollowMax)
	}
	if in.CameraToggle && now-c.lastToggleAt >= cameraToggleDebounce {
		c.lastToggleAt = now
		if c.Mode == CameraBomberLock {
			c.Mode = CameraGroundLock
		} else {
			c.Mode = CameraBomberLock
		}
	}
	if in.CameraReset && now-c.lastResetAt >= cameraResetDebounce {
		c.lastResetAt = now
		c.PanAngle = 0
		c.FollowHeight = cameraFollowDefault
		c.Mode = CameraBomberLock
	}
}
