package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/visiona/sensorctl/internal/geometry"
	"github.com/visiona/sensorctl/internal/sensor"
)

// Command represents a control plane command
type Command struct {
	ID      string         `json:"id,omitempty"`
	Command string         `json:"command"`
	Params  map[string]any `json:"params,omitempty"`
}

// Response represents a command response
type Response struct {
	ID         string         `json:"id,omitempty"`
	CommandAck string         `json:"command_ack"`
	Status     string         `json:"status"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

// Dispatcher executes control commands against the sensor facade. It
// is broker-agnostic so command handling can be tested without MQTT.
type Dispatcher struct {
	ctl *sensor.Controller
}

// NewDispatcher creates a dispatcher bound to a controller
func NewDispatcher(ctl *sensor.Controller) *Dispatcher {
	return &Dispatcher{ctl: ctl}
}

// Execute runs one command and builds its response. Every command maps
// onto one facade operation; parameter decoding failures and facade
// errors both come back as an error response, never a panic.
func (d *Dispatcher) Execute(cmd Command) Response {
	resp := Response{ID: cmd.ID, CommandAck: cmd.Command}

	data, err := d.execute(cmd)
	if err != nil {
		resp.Status = "error"
		resp.Error = err.Error()
		return resp
	}
	resp.Status = "success"
	resp.Data = data
	return resp
}

func (d *Dispatcher) execute(cmd Command) (map[string]any, error) {
	switch cmd.Command {
	case "get_status":
		return d.status(), nil

	case "reset":
		return nil, d.ctl.Reset()

	case "sleep":
		enable, err := boolParam(cmd.Params, "enable")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.Sleep(enable)

	case "shutdown_sensor":
		enable, err := boolParam(cmd.Params, "enable")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.Shutdown(enable)

	case "snapshot":
		timeoutMS, _ := intParam(cmd.Params, "timeout_ms")
		frame, err := d.ctl.Snapshot(time.Duration(timeoutMS) * time.Millisecond)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"seq":       frame.Seq,
			"width":     frame.Width,
			"height":    frame.Height,
			"timestamp": frame.Timestamp.UTC().Format(time.RFC3339Nano),
		}, nil

	case "frame_available":
		return map[string]any{"available": d.ctl.FrameAvailable()}, nil

	case "skip_frames":
		n, _ := intParam(cmd.Params, "n")
		timeMS, _ := intParam(cmd.Params, "time_ms")
		return nil, d.ctl.SkipFrames(n, time.Duration(timeMS)*time.Millisecond)

	case "set_pixformat":
		name, err := stringParam(cmd.Params, "pixformat")
		if err != nil {
			return nil, err
		}
		pf, err := sensor.ParsePixformat(name)
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetPixformat(pf)

	case "get_pixformat":
		pf, err := d.ctl.Pixformat()
		if err != nil {
			return nil, err
		}
		return map[string]any{"pixformat": pf.String()}, nil

	case "set_framesize":
		name, err := stringParam(cmd.Params, "framesize")
		if err != nil {
			return nil, err
		}
		fs, err := geometry.ParseFrameSize(name)
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetFramesize(fs)

	case "get_framesize":
		fs, err := d.ctl.Framesize()
		if err != nil {
			return nil, err
		}
		w, h := fs.Size()
		return map[string]any{
			"framesize": fs.String(),
			"width":     w,
			"height":    h,
		}, nil

	case "set_framerate":
		fps, err := intParam(cmd.Params, "fps")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetFramerate(fps)

	case "get_framerate":
		fps, err := d.ctl.Framerate()
		if err != nil {
			return nil, err
		}
		return map[string]any{"fps": fps}, nil

	case "set_windowing":
		vals, err := intsParam(cmd.Params, "window")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetWindowingValues(vals)

	case "get_windowing":
		win, err := d.ctl.Windowing()
		if err != nil {
			return nil, err
		}
		return windowData(win), nil

	case "set_gainceiling":
		mult, err := intParam(cmd.Params, "gainceiling")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetGainCeiling(mult)

	case "set_brightness":
		return d.levelCommand(cmd, d.ctl.SetBrightness)
	case "set_contrast":
		return d.levelCommand(cmd, d.ctl.SetContrast)
	case "set_saturation":
		return d.levelCommand(cmd, d.ctl.SetSaturation)

	case "set_quality":
		q, err := intParam(cmd.Params, "quality")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetQuality(q)

	case "set_colorbar":
		enable, err := boolParam(cmd.Params, "enable")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetColorbar(enable)

	case "set_special_effect":
		sde, err := intParam(cmd.Params, "effect")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetSpecialEffect(sde)

	case "set_lens_correction":
		enable, err := boolParam(cmd.Params, "enable")
		if err != nil {
			return nil, err
		}
		radi, _ := intParam(cmd.Params, "radi")
		coef, _ := intParam(cmd.Params, "coef")
		return nil, d.ctl.SetLensCorrection(enable, radi, coef)

	case "set_auto_gain":
		enable, err := boolParam(cmd.Params, "enable")
		if err != nil {
			return nil, err
		}
		gainDB := floatParamOr(cmd.Params, "gain_db", sensor.UnsetGain)
		ceilingDB := floatParamOr(cmd.Params, "gain_db_ceiling", sensor.UnsetGain)
		return nil, d.ctl.SetAutoGain(enable, gainDB, ceilingDB)

	case "get_gain_db":
		v, err := d.ctl.GainDB()
		if err != nil {
			return nil, err
		}
		return map[string]any{"gain_db": v}, nil

	case "set_auto_exposure":
		enable, err := boolParam(cmd.Params, "enable")
		if err != nil {
			return nil, err
		}
		exposureUS := sensor.UnsetExposure
		if v, err := intParam(cmd.Params, "exposure_us"); err == nil {
			exposureUS = v
		}
		return nil, d.ctl.SetAutoExposure(enable, exposureUS)

	case "get_exposure_us":
		v, err := d.ctl.ExposureUS()
		if err != nil {
			return nil, err
		}
		return map[string]any{"exposure_us": v}, nil

	case "set_auto_whitebal":
		enable, err := boolParam(cmd.Params, "enable")
		if err != nil {
			return nil, err
		}
		r := floatParamOr(cmd.Params, "r_gain_db", sensor.UnsetGain)
		g := floatParamOr(cmd.Params, "g_gain_db", sensor.UnsetGain)
		b := floatParamOr(cmd.Params, "b_gain_db", sensor.UnsetGain)
		return nil, d.ctl.SetAutoWhitebal(enable, r, g, b)

	case "get_rgb_gain_db":
		r, g, b, err := d.ctl.RGBGainDB()
		if err != nil {
			return nil, err
		}
		return map[string]any{"r_gain_db": r, "g_gain_db": g, "b_gain_db": b}, nil

	case "set_hmirror":
		return d.flagCommand(cmd, d.ctl.SetHMirror)
	case "get_hmirror":
		return map[string]any{"enabled": d.ctl.HMirror()}, nil
	case "set_vflip":
		return d.flagCommand(cmd, d.ctl.SetVFlip)
	case "get_vflip":
		return map[string]any{"enabled": d.ctl.VFlip()}, nil
	case "set_transpose":
		return d.flagCommand(cmd, d.ctl.SetTranspose)
	case "get_transpose":
		return map[string]any{"enabled": d.ctl.Transpose()}, nil

	case "set_auto_rotation":
		enable, err := boolParam(cmd.Params, "enable")
		if err != nil {
			return nil, err
		}
		d.ctl.SetAutoRotation(enable)
		return nil, nil

	case "get_auto_rotation":
		return map[string]any{"enabled": d.ctl.AutoRotation()}, nil

	case "set_color_palette":
		name, err := stringParam(cmd.Params, "palette")
		if err != nil {
			return nil, err
		}
		pal, err := sensor.ParsePalette(name)
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetColorPalette(pal)

	case "get_color_palette":
		pal, ok := d.ctl.ColorPalette()
		if !ok {
			return map[string]any{"palette": nil}, nil
		}
		return map[string]any{"palette": pal.String()}, nil

	case "set_framebuffers":
		count, err := intParam(cmd.Params, "count")
		if err != nil {
			return nil, err
		}
		return nil, d.ctl.SetFramebuffers(count)

	case "get_framebuffers":
		return map[string]any{"count": d.ctl.Framebuffers()}, nil

	case "ioctl":
		return d.ioctlCommand(cmd)

	case "write_reg":
		addr, err := intParam(cmd.Params, "address")
		if err != nil {
			return nil, err
		}
		value, err := intParam(cmd.Params, "value")
		if err != nil {
			return nil, err
		}
		d.ctl.WriteReg(addr, value)
		return nil, nil

	case "read_reg":
		addr, err := intParam(cmd.Params, "address")
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": d.ctl.ReadReg(addr)}, nil
	}

	return nil, fmt.Errorf("unknown command: %s", cmd.Command)
}

// ioctlCommand forwards an ioctl by its stable name. The facade
// validates argument shapes; here only JSON decoding happens.
func (d *Dispatcher) ioctlCommand(cmd Command) (map[string]any, error) {
	name, err := stringParam(cmd.Params, "request")
	if err != nil {
		return nil, err
	}
	code, err := sensor.ParseIoctl(name)
	if err != nil {
		return nil, err
	}

	var args []any
	if raw, ok := cmd.Params["args"].([]any); ok {
		args, err = ioctlArgs(code, raw)
		if err != nil {
			return nil, err
		}
	}

	res, err := d.ctl.Ioctl(code, args...)
	if err != nil {
		return nil, err
	}
	return ioctlData(res), nil
}

// ioctlArgs converts JSON-decoded arguments into the shapes the ioctl
// surface expects: integral numbers become ints, number arrays become
// []int, and the attribute payload of THERMAL_SET_ATTRIBUTE becomes
// bytes.
func ioctlArgs(code sensor.IoctlCode, raw []any) ([]any, error) {
	args := make([]any, 0, len(raw))
	for i, a := range raw {
		switch v := a.(type) {
		case float64:
			if v == float64(int(v)) {
				args = append(args, int(v))
			} else {
				args = append(args, v)
			}
		case []any:
			if code == sensor.ThermalSetAttribute && i == 1 {
				buf, err := byteArray(v)
				if err != nil {
					return nil, err
				}
				args = append(args, buf)
				continue
			}
			vals, err := intArray(v)
			if err != nil {
				return nil, err
			}
			args = append(args, vals)
		default:
			args = append(args, a)
		}
	}
	return args, nil
}

func intArray(raw []any) ([]int, error) {
	vals := make([]int, len(raw))
	for i, a := range raw {
		f, ok := a.(float64)
		if !ok || f != float64(int(f)) {
			return nil, fmt.Errorf("array element %d is not an integer", i)
		}
		vals[i] = int(f)
	}
	return vals, nil
}

func byteArray(raw []any) ([]byte, error) {
	buf := make([]byte, len(raw))
	for i, a := range raw {
		f, ok := a.(float64)
		if !ok || f != float64(int(f)) || f < 0 || f > 255 {
			return nil, fmt.Errorf("attribute byte %d must be in [0, 255]", i)
		}
		buf[i] = byte(f)
	}
	return buf, nil
}

func ioctlData(res any) map[string]any {
	switch v := res.(type) {
	case nil:
		return nil
	case geometry.Rect:
		return windowData(v)
	case sensor.MeasurementMode:
		return map[string]any{"enabled": v.Enabled, "high_temp": v.HighTemp}
	case sensor.MeasurementRange:
		return map[string]any{"min_c": v.Min, "max_c": v.Max}
	default:
		return map[string]any{"result": v}
	}
}

func windowData(r geometry.Rect) map[string]any {
	return map[string]any{"x": r.X, "y": r.Y, "width": r.W, "height": r.H}
}

// status reports the current facade state; getters that fail because
// nothing was configured yet are simply omitted.
func (d *Dispatcher) status() map[string]any {
	data := map[string]any{
		"orientation": map[string]any{
			"hmirror":   d.ctl.HMirror(),
			"vflip":     d.ctl.VFlip(),
			"transpose": d.ctl.Transpose(),
		},
		"auto_rotation": d.ctl.AutoRotation(),
		"framebuffers":  d.ctl.Framebuffers(),
	}
	if pf, err := d.ctl.Pixformat(); err == nil {
		data["pixformat"] = pf.String()
	}
	if fs, err := d.ctl.Framesize(); err == nil {
		data["framesize"] = fs.String()
	}
	if fps, err := d.ctl.Framerate(); err == nil {
		data["fps"] = fps
	}
	if win, err := d.ctl.Windowing(); err == nil {
		data["window"] = windowData(win)
	}
	return data
}

func (d *Dispatcher) levelCommand(cmd Command, set func(int) error) (map[string]any, error) {
	level, err := intParam(cmd.Params, "level")
	if err != nil {
		return nil, err
	}
	return nil, set(level)
}

func (d *Dispatcher) flagCommand(cmd Command, set func(bool) error) (map[string]any, error) {
	enable, err := boolParam(cmd.Params, "enable")
	if err != nil {
		return nil, err
	}
	return nil, set(enable)
}

var errMissingParam = errors.New("missing parameter")

// intParam extracts an integer parameter. JSON numbers decode as
// float64, so both representations are accepted.
func intParam(params map[string]any, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errMissingParam, key)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	}
	return 0, fmt.Errorf("parameter %s must be an integer", key)
}

func floatParamOr(params map[string]any, key string, def float64) float64 {
	switch n := params[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return def
}

func boolParam(params map[string]any, key string) (bool, error) {
	v, ok := params[key].(bool)
	if !ok {
		return false, fmt.Errorf("missing or invalid '%s' parameter (expected bool)", key)
	}
	return v, nil
}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok {
		return "", fmt.Errorf("missing or invalid '%s' parameter (expected string)", key)
	}
	return v, nil
}

func intsParam(params map[string]any, key string) ([]int, error) {
	raw, ok := params[key].([]any)
	if !ok {
		return nil, fmt.Errorf("missing or invalid '%s' parameter (expected array of integers)", key)
	}
	vals := make([]int, len(raw))
	for i, a := range raw {
		n, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("parameter %s[%d] must be an integer", key, i)
		}
		vals[i] = int(n)
	}
	return vals, nil
}
