package world

import "testing"

func TestCamera_PanAndZoomOnlyWithModifiers(t *testing.T) {
	c := NewCameraController()

	c.Advance(InputSnapshot{HeadingLeft: true}, testDt, 0)
	if c.PanAngle != 0 {
		t.Fatal("pan moved without modifier")
	}
	c.Advance(InputSnapshot{HeadingLeft: true, PanModifier: true}, testDt, 0.1)
	if c.PanAngle <= 0 {
		t.Fatalf("pan = %v, want > 0", c.PanAngle)
	}

	h := c.FollowHeight
	c.Advance(InputSnapshot{Climb: true, ZoomModifier: true}, testDt, 0.2)
	if c.FollowHeight <= h {
		t.Fatalf("zoom did not raise follow height: %v", c.FollowHeight)
	}
}

func TestCamera_FollowHeightClamped(t *testing.T) {
	c := NewCameraController()
	in := InputSnapshot{Dive: true, ZoomModifier: true}
	for i := 0; i < 60*30; i++ {
		c.Advance(in, testDt, float64(i)*testDt)
	}
	if c.FollowHeight != cameraFollowMin {
		t.Fatalf("follow height = %v, want %v", c.FollowHeight, cameraFollowMin)
	}
}

func TestCamera_ToggleDebounce(t *testing.T) {
	c := NewCameraController()

	c.Advance(InputSnapshot{CameraToggle: true}, testDt, 0)
	if c.Mode != CameraGroundLock {
		t.Fatalf("mode = %v after toggle", c.Mode)
	}
	// Held key inside the debounce window does not flip back.
	c.Advance(InputSnapshot{CameraToggle: true}, testDt, 0.1)
	if c.Mode != CameraGroundLock {
		t.Fatal("debounce failed")
	}
	c.Advance(InputSnapshot{CameraToggle: true}, testDt, cameraToggleDebounce+0.01)
	if c.Mode != CameraBomberLock {
		t.Fatal("toggle after debounce did not flip")
	}
}

func TestCamera_ResetRestoresDefaults(t *testing.T) {
	c := NewCameraController()
	c.PanAngle = 1.4
	c.FollowHeight = 200
	c.Mode = CameraGroundLock

	c.Advance(InputSnapshot{CameraReset: true}, testDt, 1)
	if c.PanAngle != 0 || c.FollowHeight != cameraFollowDefault || c.Mode != CameraBomberLock {
		t.Fatalf("reset left state %+v", c)
	}
}
