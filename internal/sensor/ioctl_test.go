package sensor_test

import (
	"errors"
	"testing"

	"github.com/visiona/sensorctl/internal/geometry"
	"github.com/visiona/sensorctl/internal/sensor"
)

func allCaps() sensor.Config {
	return sensor.Config{Capabilities: sensor.Capabilities{
		Autofocus:    true,
		MotionDetect: true,
	}}
}

// TestIoctlUnknownCode validates that an unknown code fails as
// unsupported without reaching the driver.
func TestIoctlUnknownCode(t *testing.T) {
	ctl, drv, _ := newController(t, allCaps())

	_, err := ctl.Ioctl(sensor.IoctlCode(9999))
	if !errors.Is(err, sensor.ErrUnsupported) {
		t.Errorf("Ioctl(9999) error = %v, want ErrUnsupported", err)
	}
	if n := drv.IoctlCalls(); n != 0 {
		t.Errorf("driver saw %d ioctl calls, want 0", n)
	}
}

// TestIoctlCapabilityGating validates that codes behind a disabled
// capability behave exactly like unknown codes.
func TestIoctlCapabilityGating(t *testing.T) {
	ctl, drv, _ := newController(t, sensor.Config{}) // no capabilities

	gated := []sensor.IoctlCode{
		sensor.TriggerAutoFocus,
		sensor.PauseAutoFocus,
		sensor.ResetAutoFocus,
		sensor.WaitOnAutoFocus,
		sensor.MotionDetectEnable,
		sensor.MotionDetectWindow,
		sensor.MotionDetectThreshold,
		sensor.MotionDetectClear,
		sensor.MotionOscEnable,
	}
	for _, code := range gated {
		if _, err := ctl.Ioctl(code); !errors.Is(err, sensor.ErrUnsupported) {
			t.Errorf("Ioctl(%s) error = %v, want ErrUnsupported", code, err)
		}
	}
	if n := drv.IoctlCalls(); n != 0 {
		t.Errorf("driver saw %d ioctl calls, want 0", n)
	}

	// With the capability on, the same codes dispatch.
	ctl, drv, _ = newController(t, allCaps())
	if _, err := ctl.Ioctl(sensor.TriggerAutoFocus); err != nil {
		t.Errorf("Ioctl(TRIGGER_AUTO_FOCUS) failed: %v", err)
	}
	if _, err := ctl.Ioctl(sensor.WaitOnAutoFocus); err != nil {
		t.Errorf("Ioctl(WAIT_ON_AUTO_FOCUS) failed: %v", err)
	}
	if n := drv.IoctlCalls(); n != 2 {
		t.Errorf("driver saw %d ioctl calls, want 2", n)
	}
}

// TestIoctlWindowShapes validates the window argument forms. A 2-tuple
// places the window at the origin; this is deliberately different from
// the windowing operation, which centers.
func TestIoctlWindowShapes(t *testing.T) {
	ctl, drv, _ := newController(t, allCaps())

	if _, err := ctl.Ioctl(sensor.SetReadoutWindow, []int{100, 80}); err != nil {
		t.Fatalf("Ioctl(SET_READOUT_WINDOW, (w, h)) failed: %v", err)
	}
	res, err := ctl.Ioctl(sensor.GetReadoutWindow)
	if err != nil {
		t.Fatalf("Ioctl(GET_READOUT_WINDOW) failed: %v", err)
	}
	if want := (geometry.Rect{X: 0, Y: 0, W: 100, H: 80}); res != want {
		t.Errorf("readout window = %v, want origin-placed %v", res, want)
	}

	// Full 4-tuple, inline ints.
	if _, err := ctl.Ioctl(sensor.SetReadoutWindow, 10, 20, 30, 40); err != nil {
		t.Fatalf("Ioctl(SET_READOUT_WINDOW, x, y, w, h) failed: %v", err)
	}
	res, err = ctl.Ioctl(sensor.GetReadoutWindow)
	if err != nil {
		t.Fatalf("Ioctl(GET_READOUT_WINDOW) failed: %v", err)
	}
	if want := (geometry.Rect{X: 10, Y: 20, W: 30, H: 40}); res != want {
		t.Errorf("readout window = %v, want %v", res, want)
	}

	// A 3-element shape is rejected before the driver sees it.
	calls := drv.IoctlCalls()
	if _, err := ctl.Ioctl(sensor.SetReadoutWindow, 10, 20, 30); !errors.Is(err, sensor.ErrArgumentShape) {
		t.Errorf("Ioctl(3 values) error = %v, want ErrArgumentShape", err)
	}
	if drv.IoctlCalls() != calls {
		t.Error("shape error reached the driver")
	}
}

// TestIoctlMissingArgument validates that insufficient arity is a
// shape error, not a device error.
func TestIoctlMissingArgument(t *testing.T) {
	ctl, drv, _ := newController(t, allCaps())

	cases := []struct {
		code sensor.IoctlCode
		args []any
	}{
		{sensor.SetTriggeredMode, nil},
		{sensor.ThermalRunCommand, nil},
		{sensor.ThermalSetAttribute, []any{1}},
		{sensor.ThermalGetAttribute, []any{1}},
		{sensor.ThermalSetMeasurementMode, nil},
		{sensor.ThermalSetMeasurementRange, []any{-10.0}},
		{sensor.MotionDetectThreshold, nil},
	}
	for _, tc := range cases {
		if _, err := ctl.Ioctl(tc.code, tc.args...); !errors.Is(err, sensor.ErrArgumentShape) {
			t.Errorf("Ioctl(%s, %v) error = %v, want ErrArgumentShape", tc.code, tc.args, err)
		}
	}
	if n := drv.IoctlCalls(); n != 0 {
		t.Errorf("driver saw %d ioctl calls, want 0", n)
	}
}

// TestIoctlTriggeredMode validates the int-in, bool-out pair.
func TestIoctlTriggeredMode(t *testing.T) {
	ctl, _, _ := newController(t, allCaps())

	if _, err := ctl.Ioctl(sensor.SetTriggeredMode, 1); err != nil {
		t.Fatalf("Ioctl(SET_TRIGGERED_MODE) failed: %v", err)
	}
	res, err := ctl.Ioctl(sensor.GetTriggeredMode)
	if err != nil {
		t.Fatalf("Ioctl(GET_TRIGGERED_MODE) failed: %v", err)
	}
	if res != true {
		t.Errorf("triggered mode = %v, want true", res)
	}
}

// TestIoctlThermalTemperatures validates the centi-Kelvin conversion:
// raw 29815 is 25.00°C.
func TestIoctlThermalTemperatures(t *testing.T) {
	ctl, _, _ := newController(t, allCaps())

	res, err := ctl.Ioctl(sensor.ThermalGetFPATemp)
	if err != nil {
		t.Fatalf("Ioctl(THERMAL_GET_FPA_TEMPERATURE) failed: %v", err)
	}
	if got := res.(float64); got < 24.999 || got > 25.001 {
		t.Errorf("FPA temperature = %v, want 25.0", got)
	}

	res, err = ctl.Ioctl(sensor.ThermalGetAuxTemp)
	if err != nil {
		t.Fatalf("Ioctl(THERMAL_GET_AUX_TEMPERATURE) failed: %v", err)
	}
	if got := res.(float64); got < 31.999 || got > 32.001 {
		t.Errorf("AUX temperature = %v, want 32.0", got)
	}
}

// TestIoctlThermalAttributes validates the buffer transfer rules: a
// zero-length transfer is a shape error in both directions, and reads
// return count 16-bit elements.
func TestIoctlThermalAttributes(t *testing.T) {
	ctl, drv, _ := newController(t, allCaps())

	if _, err := ctl.Ioctl(sensor.ThermalSetAttribute, 7, []byte{}); !errors.Is(err, sensor.ErrArgumentShape) {
		t.Errorf("set with empty buffer: error = %v, want ErrArgumentShape", err)
	}
	if _, err := ctl.Ioctl(sensor.ThermalGetAttribute, 7, 0); !errors.Is(err, sensor.ErrArgumentShape) {
		t.Errorf("get with zero count: error = %v, want ErrArgumentShape", err)
	}
	if n := drv.IoctlCalls(); n != 0 {
		t.Errorf("driver saw %d ioctl calls, want 0", n)
	}

	if _, err := ctl.Ioctl(sensor.ThermalSetAttribute, 7, []byte{0xAA, 0xBB, 0xCC, 0xDD}); err != nil {
		t.Fatalf("Ioctl(THERMAL_SET_ATTRIBUTE) failed: %v", err)
	}
	res, err := ctl.Ioctl(sensor.ThermalGetAttribute, 7, 2)
	if err != nil {
		t.Fatalf("Ioctl(THERMAL_GET_ATTRIBUTE) failed: %v", err)
	}
	data := res.([]byte)
	if len(data) != 4 {
		t.Fatalf("attribute read returned %d bytes, want 4 (two elements)", len(data))
	}
	if data[0] != 0xAA || data[3] != 0xDD {
		t.Errorf("attribute data = %x, want aabbccdd", data)
	}
}

// TestIoctlMeasurementModeRange validates the structured result shapes.
func TestIoctlMeasurementModeRange(t *testing.T) {
	ctl, _, _ := newController(t, allCaps())

	if _, err := ctl.Ioctl(sensor.ThermalSetMeasurementMode, 1); err != nil {
		t.Fatalf("Ioctl(THERMAL_SET_MEASUREMENT_MODE, 1) failed: %v", err)
	}
	res, err := ctl.Ioctl(sensor.ThermalGetMeasurementMode)
	if err != nil {
		t.Fatalf("Ioctl(THERMAL_GET_MEASUREMENT_MODE) failed: %v", err)
	}
	mode := res.(sensor.MeasurementMode)
	if !mode.Enabled || mode.HighTemp {
		t.Errorf("measurement mode = %+v, want enabled, low-temp", mode)
	}

	if _, err := ctl.Ioctl(sensor.ThermalSetMeasurementRange, -10.0, 140.0); err != nil {
		t.Fatalf("Ioctl(THERMAL_SET_MEASUREMENT_RANGE) failed: %v", err)
	}
	// Integer arguments are accepted where floats are expected.
	if _, err := ctl.Ioctl(sensor.ThermalSetMeasurementRange, 0, 400); err != nil {
		t.Fatalf("Ioctl(THERMAL_SET_MEASUREMENT_RANGE, ints) failed: %v", err)
	}
	res, err = ctl.Ioctl(sensor.ThermalGetMeasurementRange)
	if err != nil {
		t.Fatalf("Ioctl(THERMAL_GET_MEASUREMENT_RANGE) failed: %v", err)
	}
	rng := res.(sensor.MeasurementRange)
	if rng.Min != 0 || rng.Max != 400 {
		t.Errorf("measurement range = %+v, want [0, 400]", rng)
	}
}

// TestIoctlDeviceFailure validates that a nonzero driver code fails
// the call even for commands that produce results.
func TestIoctlDeviceFailure(t *testing.T) {
	ctl, drv, _ := newController(t, allCaps())

	drv.ForceCode(sensor.CodeCtlFailed)
	if _, err := ctl.Ioctl(sensor.ThermalGetWidth); err == nil {
		t.Error("Ioctl() succeeded despite a driver failure")
	}
}

func TestParseIoctl(t *testing.T) {
	code, err := sensor.ParseIoctl("THERMAL_GET_FPA_TEMPERATURE")
	if err != nil {
		t.Fatalf("ParseIoctl() failed: %v", err)
	}
	if code != sensor.ThermalGetFPATemp {
		t.Errorf("ParseIoctl() = %v, want ThermalGetFPATemp", code)
	}

	if _, err := sensor.ParseIoctl("NO_SUCH_CONTROL"); !errors.Is(err, sensor.ErrUnsupported) {
		t.Errorf("ParseIoctl(unknown) error = %v, want ErrUnsupported", err)
	}
}
