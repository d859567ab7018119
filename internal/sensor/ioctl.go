package sensor

import (
	"fmt"

	"github.com/visiona/sensorctl/internal/geometry"
)

// IoctlCode identifies a device-specific control operation. Codes,
// argument arities and result shapes are a stable contract with
// existing callers; never renumber.
type IoctlCode int

const (
	SetReadoutWindow IoctlCode = iota
	GetReadoutWindow
	SetTriggeredMode
	GetTriggeredMode

	// Autofocus control, capability-gated.
	TriggerAutoFocus
	PauseAutoFocus
	ResetAutoFocus
	WaitOnAutoFocus

	// Thermal imager attributes.
	ThermalGetWidth
	ThermalGetHeight
	ThermalGetRadiometry
	ThermalGetRefresh
	ThermalGetResolution
	ThermalRunCommand
	ThermalSetAttribute
	ThermalGetAttribute
	ThermalGetFPATemp
	ThermalGetAuxTemp
	ThermalSetMeasurementMode
	ThermalGetMeasurementMode
	ThermalSetMeasurementRange
	ThermalGetMeasurementRange

	// Motion detection, capability-gated.
	MotionDetectEnable
	MotionDetectWindow
	MotionDetectThreshold
	MotionDetectClear
	MotionOscEnable
)

// defaultAutoFocusWaitMS bounds WaitOnAutoFocus when the caller gives
// no timeout.
const defaultAutoFocusWaitMS = 5000

var ioctlNames = map[IoctlCode]string{
	SetReadoutWindow:           "SET_READOUT_WINDOW",
	GetReadoutWindow:           "GET_READOUT_WINDOW",
	SetTriggeredMode:           "SET_TRIGGERED_MODE",
	GetTriggeredMode:           "GET_TRIGGERED_MODE",
	TriggerAutoFocus:           "TRIGGER_AUTO_FOCUS",
	PauseAutoFocus:             "PAUSE_AUTO_FOCUS",
	ResetAutoFocus:             "RESET_AUTO_FOCUS",
	WaitOnAutoFocus:            "WAIT_ON_AUTO_FOCUS",
	ThermalGetWidth:            "THERMAL_GET_WIDTH",
	ThermalGetHeight:           "THERMAL_GET_HEIGHT",
	ThermalGetRadiometry:       "THERMAL_GET_RADIOMETRY",
	ThermalGetRefresh:          "THERMAL_GET_REFRESH",
	ThermalGetResolution:       "THERMAL_GET_RESOLUTION",
	ThermalRunCommand:          "THERMAL_RUN_COMMAND",
	ThermalSetAttribute:        "THERMAL_SET_ATTRIBUTE",
	ThermalGetAttribute:        "THERMAL_GET_ATTRIBUTE",
	ThermalGetFPATemp:          "THERMAL_GET_FPA_TEMPERATURE",
	ThermalGetAuxTemp:          "THERMAL_GET_AUX_TEMPERATURE",
	ThermalSetMeasurementMode:  "THERMAL_SET_MEASUREMENT_MODE",
	ThermalGetMeasurementMode:  "THERMAL_GET_MEASUREMENT_MODE",
	ThermalSetMeasurementRange: "THERMAL_SET_MEASUREMENT_RANGE",
	ThermalGetMeasurementRange: "THERMAL_GET_MEASUREMENT_RANGE",
	MotionDetectEnable:         "MD_ENABLE",
	MotionDetectWindow:         "MD_WINDOW",
	MotionDetectThreshold:      "MD_THRESHOLD",
	MotionDetectClear:          "MD_CLEAR",
	MotionOscEnable:            "OSC_ENABLE",
}

func (code IoctlCode) String() string {
	if name, ok := ioctlNames[code]; ok {
		return name
	}
	return fmt.Sprintf("IoctlCode(%d)", int(code))
}

// ParseIoctl looks up an ioctl code by its stable name.
func ParseIoctl(name string) (IoctlCode, error) {
	for code, n := range ioctlNames {
		if n == name {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown ioctl %q", ErrUnsupported, name)
}

// MeasurementMode is the result shape of ThermalGetMeasurementMode.
type MeasurementMode struct {
	Enabled  bool
	HighTemp bool
}

// MeasurementRange is the result shape of ThermalGetMeasurementRange,
// degrees Celsius.
type MeasurementRange struct {
	Min float64
	Max float64
}

// available reports whether code exists under the current capability
// configuration. Gated-off codes are indistinguishable from unknown
// ones.
func (c *Controller) available(code IoctlCode) bool {
	switch code {
	case TriggerAutoFocus, PauseAutoFocus, ResetAutoFocus, WaitOnAutoFocus:
		return c.caps.Autofocus
	case MotionDetectEnable, MotionDetectWindow, MotionDetectThreshold,
		MotionDetectClear, MotionOscEnable:
		return c.caps.MotionDetect
	}
	_, known := ioctlNames[code]
	return known
}

// Ioctl dispatches a device-specific control operation. Argument
// shapes are validated here, before any driver call; values are the
// driver's to judge. A nonzero driver code always fails the call, even
// when a partial result was produced.
func (c *Controller) Ioctl(code IoctlCode, args ...any) (any, error) {
	if !c.available(code) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, code)
	}

	switch code {
	case SetReadoutWindow, MotionDetectWindow:
		x, y, w, h, err := windowArgs(args)
		if err != nil {
			return nil, err
		}
		return c.run(code, x, y, w, h)

	case GetReadoutWindow:
		res, err := c.run(code)
		if err != nil {
			return nil, err
		}
		win, ok := res.(geometry.Rect)
		if !ok {
			return nil, fmt.Errorf("driver returned %T for %s", res, code)
		}
		return win, nil

	case SetTriggeredMode, ThermalRunCommand, MotionDetectEnable,
		MotionDetectThreshold, MotionOscEnable:
		v, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		return c.run(code, v)

	case GetTriggeredMode:
		v, err := c.runInt(code)
		if err != nil {
			return nil, err
		}
		return v != 0, nil

	case TriggerAutoFocus, PauseAutoFocus, ResetAutoFocus, MotionDetectClear:
		return c.run(code)

	case WaitOnAutoFocus:
		timeoutMS := defaultAutoFocusWaitMS
		if len(args) >= 1 {
			v, err := intArg(args, 0)
			if err != nil {
				return nil, err
			}
			timeoutMS = v
		}
		return c.run(code, timeoutMS)

	case ThermalGetWidth, ThermalGetHeight, ThermalGetRadiometry,
		ThermalGetRefresh, ThermalGetResolution:
		return c.runInt(code)

	case ThermalSetAttribute:
		command, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		data, err := bytesArg(args, 1)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: 0 bytes transferred", ErrArgumentShape)
		}
		// The payload is an array of 16-bit elements.
		return c.run(code, command, data, len(data)/2)

	case ThermalGetAttribute:
		command, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		count, err := intArg(args, 1)
		if err != nil {
			return nil, err
		}
		if count <= 0 {
			return nil, fmt.Errorf("%w: 0 bytes transferred", ErrArgumentShape)
		}
		res, err := c.run(code, command, count)
		if err != nil {
			return nil, err
		}
		data, ok := res.([]byte)
		if !ok {
			return nil, fmt.Errorf("driver returned %T for %s", res, code)
		}
		return data, nil

	case ThermalGetFPATemp, ThermalGetAuxTemp:
		raw, err := c.runInt(code)
		if err != nil {
			return nil, err
		}
		// Device reports centidegrees Kelvin.
		return float64(raw)/100 - 273.15, nil

	case ThermalSetMeasurementMode:
		enable, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		highTemp := 0
		if len(args) >= 2 {
			highTemp, err = intArg(args, 1)
			if err != nil {
				return nil, err
			}
		}
		return c.run(code, enable, highTemp)

	case ThermalGetMeasurementMode:
		res, err := c.run(code)
		if err != nil {
			return nil, err
		}
		v, ok := res.([2]int)
		if !ok {
			return nil, fmt.Errorf("driver returned %T for %s", res, code)
		}
		return MeasurementMode{Enabled: v[0] != 0, HighTemp: v[1] != 0}, nil

	case ThermalSetMeasurementRange:
		minC, err := floatArg(args, 0)
		if err != nil {
			return nil, err
		}
		maxC, err := floatArg(args, 1)
		if err != nil {
			return nil, err
		}
		return c.run(code, minC, maxC)

	case ThermalGetMeasurementRange:
		res, err := c.run(code)
		if err != nil {
			return nil, err
		}
		v, ok := res.([2]float64)
		if !ok {
			return nil, fmt.Errorf("driver returned %T for %s", res, code)
		}
		return MeasurementRange{Min: v[0], Max: v[1]}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupported, code)
}

// run forwards a parsed ioctl to the driver and funnels its code
// through the common failure path.
func (c *Controller) run(code IoctlCode, args ...any) (any, error) {
	res, dc := c.drv.Ioctl(code, args...)
	if dc != CodeOK {
		return nil, codeErr(dc)
	}
	return res, nil
}

// runInt is run for commands whose result is a single int.
func (c *Controller) runInt(code IoctlCode) (int, error) {
	res, err := c.run(code)
	if err != nil {
		return 0, err
	}
	v, ok := res.(int)
	if !ok {
		return 0, fmt.Errorf("driver returned %T for %s", res, code)
	}
	return v, nil
}

// intArg extracts the i-th argument as an int.
func intArg(args []any, i int) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%w: missing argument %d", ErrArgumentShape, i)
	}
	v, ok := args[i].(int)
	if !ok {
		return 0, fmt.Errorf("%w: argument %d must be an integer", ErrArgumentShape, i)
	}
	return v, nil
}

// floatArg extracts the i-th argument as a float, accepting ints.
func floatArg(args []any, i int) (float64, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%w: missing argument %d", ErrArgumentShape, i)
	}
	switch v := args[i].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: argument %d must be a number", ErrArgumentShape, i)
}

// bytesArg extracts the i-th argument as a byte buffer.
func bytesArg(args []any, i int) ([]byte, error) {
	if len(args) <= i {
		return nil, fmt.Errorf("%w: missing argument %d", ErrArgumentShape, i)
	}
	v, ok := args[i].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: argument %d must be bytes", ErrArgumentShape, i)
	}
	return v, nil
}

// windowArgs parses the recurring window argument shape: either a
// single []int of length 4 (x, y, w, h) or length 2 (w, h, placed at
// the origin), or the same values inline. Anything else is a shape
// error, raised before any driver call.
func windowArgs(args []any) (x, y, w, h int, err error) {
	vals, ok := windowValues(args)
	if !ok {
		return 0, 0, 0, 0, fmt.Errorf("%w: window must be (x, y, w, h) or (w, h)", ErrArgumentShape)
	}
	switch len(vals) {
	case 4:
		return vals[0], vals[1], vals[2], vals[3], nil
	case 2:
		return 0, 0, vals[0], vals[1], nil
	}
	return 0, 0, 0, 0, fmt.Errorf("%w: window must be (x, y, w, h) or (w, h)", ErrArgumentShape)
}

func windowValues(args []any) ([]int, bool) {
	if len(args) == 1 {
		vals, ok := args[0].([]int)
		return vals, ok
	}
	vals := make([]int, len(args))
	for i, a := range args {
		v, ok := a.(int)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}
