package sensor_test

import (
	"errors"
	"testing"

	"github.com/visiona/sensorctl/internal/driver/mock"
	"github.com/visiona/sensorctl/internal/geometry"
	"github.com/visiona/sensorctl/internal/imu"
	"github.com/visiona/sensorctl/internal/orient"
	"github.com/visiona/sensorctl/internal/sensor"
)

// newController builds a controller over a fresh mock driver with a
// static attitude source. Capabilities are all on unless the test says
// otherwise.
func newController(t *testing.T, cfg sensor.Config) (*sensor.Controller, *mock.Driver, *imu.Static) {
	t.Helper()
	drv := mock.New()
	att := imu.NewStatic(0, 0)
	ctl, err := sensor.New(drv, att, cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return ctl, drv, att
}

// undetected wraps the mock driver with a failing bus probe.
type undetected struct {
	*mock.Driver
}

func (undetected) Detected() bool { return false }

func TestNewRequiresDetectedSensor(t *testing.T) {
	_, err := sensor.New(undetected{mock.New()}, nil, sensor.Config{})
	if err == nil {
		t.Fatal("New() succeeded with no sensor on the bus")
	}
	var devErr *sensor.DeviceError
	if !errors.As(err, &devErr) || devErr.Code != sensor.CodeNotDetected {
		t.Errorf("New() error = %v, want CodeNotDetected", err)
	}
}

// TestResetAppliesOrientation validates that reset derives orientation
// from the attitude source using the wide 45° zones. Roll 220 is
// inside the upside-down sector [135, 225).
func TestResetAppliesOrientation(t *testing.T) {
	ctl, _, att := newController(t, sensor.Config{AutoRotation: true})
	att.Set(0, 220)

	if err := ctl.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	if got := ctl.Orientation(); got != orient.UpsideDown {
		t.Errorf("Orientation() after reset = %+v, want %+v", got, orient.UpsideDown)
	}
}

// TestSnapshotNarrowZoneKeepsOrientation validates the reset/snapshot
// asymmetry: roll 40 updates at reset (inside the 45° upright sector)
// but is a sector gap for snapshot's 35° zones, so a later capture
// keeps whatever orientation a prior update established.
func TestSnapshotNarrowZoneKeepsOrientation(t *testing.T) {
	ctl, _, att := newController(t, sensor.Config{AutoRotation: true})

	att.Set(0, 180)
	if err := ctl.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if err := ctl.SetFramesize(geometry.QVGA); err != nil {
		t.Fatalf("SetFramesize() failed: %v", err)
	}
	if err := ctl.SetPixformat(sensor.RGB565); err != nil {
		t.Fatalf("SetPixformat() failed: %v", err)
	}

	att.Set(0, 40) // gap between upright [325, 35) and rotated-left [55, 125)
	if _, err := ctl.Snapshot(0); err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if got := ctl.Orientation(); got != orient.UpsideDown {
		t.Errorf("Orientation() after gap reading = %+v, want unchanged %+v", got, orient.UpsideDown)
	}

	att.Set(0, 270) // rotated-right, inside the narrow zone
	if _, err := ctl.Snapshot(0); err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if got := ctl.Orientation(); got != orient.RotatedRight {
		t.Errorf("Orientation() = %+v, want %+v", got, orient.RotatedRight)
	}
}

// TestAutoRotationDisabled validates that attitude readings never touch
// the orientation bits while the feature is off.
func TestAutoRotationDisabled(t *testing.T) {
	ctl, _, att := newController(t, sensor.Config{AutoRotation: false})
	att.Set(0, 180)

	if err := ctl.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if got := ctl.Orientation(); got != orient.Upright {
		t.Errorf("Orientation() = %+v, want untouched %+v", got, orient.Upright)
	}
}

// badAttitude is an attitude source whose reads always fail.
type badAttitude struct{}

func (badAttitude) PitchRoll() (float64, float64, error) {
	return 0, 0, errors.New("i2c bus stuck")
}

// TestAttitudeFailureKeepsOrientation validates that an unreadable IMU
// behaves like a dead-zone reading: the call succeeds and the driver's
// current flags stay.
func TestAttitudeFailureKeepsOrientation(t *testing.T) {
	drv := mock.New()
	ctl, err := sensor.New(drv, badAttitude{}, sensor.Config{AutoRotation: true})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := ctl.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if got := ctl.Orientation(); got != orient.Upright {
		t.Errorf("Orientation() = %+v, want %+v", got, orient.Upright)
	}
}

// TestSetWindowingNeedsFramesize validates the precondition: windowing
// against an unset frame size fails before any driver call.
func TestSetWindowingNeedsFramesize(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})

	err := ctl.SetWindowing(geometry.Centered{W: 320, H: 240})
	var devErr *sensor.DeviceError
	if !errors.As(err, &devErr) || devErr.Code != sensor.CodeInvalidFramesize {
		t.Errorf("SetWindowing() error = %v, want CodeInvalidFramesize", err)
	}
}

// TestSetWindowingCentered validates the full negotiation path: a
// centered QVGA window in a VGA frame lands at (160, 120, 320, 240).
func TestSetWindowingCentered(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})

	if err := ctl.SetFramesize(geometry.VGA); err != nil {
		t.Fatalf("SetFramesize() failed: %v", err)
	}
	if err := ctl.SetWindowingValues([]int{320, 240}); err != nil {
		t.Fatalf("SetWindowingValues() failed: %v", err)
	}

	win, err := ctl.Windowing()
	if err != nil {
		t.Fatalf("Windowing() failed: %v", err)
	}
	if want := (geometry.Rect{X: 160, Y: 120, W: 320, H: 240}); win != want {
		t.Errorf("Windowing() = %v, want %v", win, want)
	}
}

// TestSetFramesizeResetsWindow validates that selecting a frame size
// restores the full-frame readout window.
func TestSetFramesizeResetsWindow(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})

	if err := ctl.SetFramesize(geometry.VGA); err != nil {
		t.Fatalf("SetFramesize() failed: %v", err)
	}
	if err := ctl.SetWindowingValues([]int{10, 10, 50, 50}); err != nil {
		t.Fatalf("SetWindowingValues() failed: %v", err)
	}
	if err := ctl.SetFramesize(geometry.QVGA); err != nil {
		t.Fatalf("SetFramesize() failed: %v", err)
	}

	win, err := ctl.Windowing()
	if err != nil {
		t.Fatalf("Windowing() failed: %v", err)
	}
	if want := (geometry.Rect{X: 0, Y: 0, W: 320, H: 240}); win != want {
		t.Errorf("Windowing() = %v, want full QVGA frame %v", win, want)
	}
}

// TestGettersFailUnconfigured validates that the three state getters
// fail with their device codes until the state is set.
func TestGettersFailUnconfigured(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})

	if _, err := ctl.Framesize(); err == nil {
		t.Error("Framesize() succeeded before SetFramesize")
	}
	if _, err := ctl.Pixformat(); err == nil {
		t.Error("Pixformat() succeeded before SetPixformat")
	}
	if _, err := ctl.Framerate(); err == nil {
		t.Error("Framerate() succeeded before SetFramerate")
	}

	if err := ctl.SetFramesize(geometry.QVGA); err != nil {
		t.Fatalf("SetFramesize() failed: %v", err)
	}
	w, err := ctl.Width()
	if err != nil {
		t.Fatalf("Width() failed: %v", err)
	}
	h, err := ctl.Height()
	if err != nil {
		t.Fatalf("Height() failed: %v", err)
	}
	if w != 320 || h != 240 {
		t.Errorf("native size = %dx%d, want 320x240", w, h)
	}
}

// TestCoercionRejectsBeforeDriver validates that out-of-domain values
// fail at the facade.
func TestCoercionRejectsBeforeDriver(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})

	if err := ctl.SetQuality(101); !errors.Is(err, sensor.ErrInvalidArgument) {
		t.Errorf("SetQuality(101) error = %v, want ErrInvalidArgument", err)
	}
	if err := ctl.SetGainCeiling(3); !errors.Is(err, sensor.ErrInvalidArgument) {
		t.Errorf("SetGainCeiling(3) error = %v, want ErrInvalidArgument", err)
	}
	if err := ctl.SetGainCeiling(16); err != nil {
		t.Errorf("SetGainCeiling(16) failed: %v", err)
	}
}

// TestSkipFramesCount validates frame-count skipping by observing the
// driver's sequence counter advance.
func TestSkipFramesCount(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})
	if err := ctl.SetFramesize(geometry.QVGA); err != nil {
		t.Fatalf("SetFramesize() failed: %v", err)
	}
	if err := ctl.SetPixformat(sensor.Grayscale); err != nil {
		t.Fatalf("SetPixformat() failed: %v", err)
	}

	if err := ctl.SkipFrames(3, 0); err != nil {
		t.Fatalf("SkipFrames() failed: %v", err)
	}

	frame, err := ctl.Snapshot(0)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if frame.Seq != 4 {
		t.Errorf("frame.Seq = %d, want 4 (three skipped + one kept)", frame.Seq)
	}
}

// TestSnapshotTimeoutError validates the driver timeout path surfaces
// as ErrTimeout.
func TestSnapshotTimeoutError(t *testing.T) {
	ctl, drv, _ := newController(t, sensor.Config{})
	if err := ctl.SetFramesize(geometry.QVGA); err != nil {
		t.Fatalf("SetFramesize() failed: %v", err)
	}
	if err := ctl.SetPixformat(sensor.Grayscale); err != nil {
		t.Fatalf("SetPixformat() failed: %v", err)
	}

	drv.ForceCode(sensor.CodeCaptureTimeout)
	if _, err := ctl.Snapshot(0); !errors.Is(err, sensor.ErrTimeout) {
		t.Errorf("Snapshot() error = %v, want ErrTimeout", err)
	}
}

// TestSetFramebuffers validates the unchanged-count no-op and the
// minimum of one buffer.
func TestSetFramebuffers(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})

	// The mock starts with one buffer; setting one again is a no-op
	// and must succeed.
	if err := ctl.SetFramebuffers(1); err != nil {
		t.Fatalf("SetFramebuffers(1) failed: %v", err)
	}

	err := ctl.SetFramebuffers(0)
	var devErr *sensor.DeviceError
	if !errors.As(err, &devErr) || devErr.Code != sensor.CodeInvalidArgument {
		t.Errorf("SetFramebuffers(0) error = %v, want CodeInvalidArgument", err)
	}

	if err := ctl.SetFramebuffers(3); err != nil {
		t.Fatalf("SetFramebuffers(3) failed: %v", err)
	}
	if got := ctl.Framebuffers(); got != 3 {
		t.Errorf("Framebuffers() = %d, want 3", got)
	}
}

func TestSetColorPalette(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})

	if _, ok := ctl.ColorPalette(); ok {
		t.Error("ColorPalette() reported a palette before any was set")
	}
	if err := ctl.SetColorPalette(sensor.PaletteIronbow); err != nil {
		t.Fatalf("SetColorPalette() failed: %v", err)
	}
	pal, ok := ctl.ColorPalette()
	if !ok || pal != sensor.PaletteIronbow {
		t.Errorf("ColorPalette() = %v, %v, want IRONBOW, true", pal, ok)
	}

	if err := ctl.SetColorPalette(sensor.Palette(99)); !errors.Is(err, sensor.ErrInvalidArgument) {
		t.Errorf("SetColorPalette(99) error = %v, want ErrInvalidArgument", err)
	}
}

// TestFrameAvailable validates the framebuffer occupancy report: empty
// until a capture lands, empty again after reset.
func TestFrameAvailable(t *testing.T) {
	ctl, _, _ := newController(t, sensor.Config{})
	if err := ctl.SetFramesize(geometry.QVGA); err != nil {
		t.Fatalf("SetFramesize() failed: %v", err)
	}
	if err := ctl.SetPixformat(sensor.Grayscale); err != nil {
		t.Fatalf("SetPixformat() failed: %v", err)
	}

	if ctl.FrameAvailable() {
		t.Error("FrameAvailable() = true before any capture")
	}
	if _, err := ctl.Snapshot(0); err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if !ctl.FrameAvailable() {
		t.Error("FrameAvailable() = false after a capture")
	}

	if err := ctl.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if ctl.FrameAvailable() {
		t.Error("FrameAvailable() = true after reset")
	}
}
