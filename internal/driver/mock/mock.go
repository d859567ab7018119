// Package mock implements a synthetic in-memory sensor driver. It
// backs tests and lets the service run on machines without the
// hardware attached, the same role the mock stream plays for the
// capture pipeline.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/visiona/sensorctl/internal/geometry"
	"github.com/visiona/sensorctl/internal/sensor"
)

// Thermal constants reported by the synthetic imager. Temperatures are
// raw centidegrees Kelvin (29815 = 25.00°C).
const (
	thermalWidth      = 160
	thermalHeight     = 120
	thermalRadiometry = 1
	thermalRefresh    = 27
	thermalResolution = 14
	fpaTempRaw        = 29815
	auxTempRaw        = 30515
)

// Driver is an in-memory sensor.Driver. All state lives behind one
// mutex; snapshots synthesize frame metadata and fire the registered
// callbacks inline.
type Driver struct {
	mu sync.Mutex

	framesize    geometry.FrameSize
	pixformat    sensor.Pixformat
	framerate    int
	window       geometry.Rect
	hmirror      bool
	vflip        bool
	transpose    bool
	palette      sensor.Palette
	paletteSet   bool
	framebuffers int
	seq          uint64
	pending      int
	sleeping     bool
	poweredDown  bool

	// Ioctl-backed state.
	readout      geometry.Rect
	triggered    int
	thermalAttrs map[int][]byte
	measureMode  [2]int
	measureRange [2]float64
	mdEnabled    int
	mdWindow     geometry.Rect
	mdThreshold  int
	oscEnabled   int

	vsyncCb func(level uint32)
	frameCb func()
	regs    map[int]int

	// forceCode, when nonzero, fails the next operation with that
	// code. Test knob.
	forceCode sensor.DeviceCode

	ioctlCalls int
}

// New returns a detected mock driver with one framebuffer.
func New() *Driver {
	return &Driver{
		framebuffers: 1,
		thermalAttrs: make(map[int][]byte),
		measureRange: [2]float64{-10, 140},
	}
}

// ForceCode makes the next fallible operation return code. Zero
// clears the knob.
func (d *Driver) ForceCode(code sensor.DeviceCode) {
	d.mu.Lock()
	d.forceCode = code
	d.mu.Unlock()
}

// IoctlCalls returns how many ioctls reached the driver. Tests use it
// to prove shape errors never touch the hardware path.
func (d *Driver) IoctlCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ioctlCalls
}

// takeForced consumes the forced code, if any. Caller holds d.mu.
func (d *Driver) takeForced() sensor.DeviceCode {
	code := d.forceCode
	d.forceCode = sensor.CodeOK
	return code
}

func (d *Driver) Detected() bool { return true }

func (d *Driver) Reset() sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.framesize = geometry.FrameSizeInvalid
	d.pixformat = sensor.PixformatInvalid
	d.framerate = 0
	d.window = geometry.Rect{}
	d.hmirror, d.vflip, d.transpose = false, false, false
	d.sleeping = false
	d.poweredDown = false
	d.pending = 0
	slog.Debug("mock sensor reset")
	return sensor.CodeOK
}

func (d *Driver) Sleep(enable bool) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.sleeping = enable
	return sensor.CodeOK
}

func (d *Driver) Shutdown(enable bool) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.poweredDown = enable
	return sensor.CodeOK
}

func (d *Driver) SetPixformat(f sensor.Pixformat) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.pixformat = f
	return sensor.CodeOK
}

func (d *Driver) SetFramesize(fs geometry.FrameSize) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	if !fs.Valid() {
		return sensor.CodeInvalidFramesize
	}
	d.framesize = fs
	d.window = fs.Bounds()
	d.readout = fs.Bounds()
	return sensor.CodeOK
}

func (d *Driver) SetFramerate(fps int) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	if fps <= 0 {
		return sensor.CodeInvalidFramerate
	}
	d.framerate = fps
	return sensor.CodeOK
}

func (d *Driver) SetWindowing(w geometry.Rect) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.window = w
	return sensor.CodeOK
}

func (d *Driver) SetGainCeiling(sensor.GainCeiling) sensor.DeviceCode { return d.simple() }
func (d *Driver) SetBrightness(int) sensor.DeviceCode                 { return d.simple() }
func (d *Driver) SetContrast(int) sensor.DeviceCode                   { return d.simple() }
func (d *Driver) SetSaturation(int) sensor.DeviceCode                 { return d.simple() }
func (d *Driver) SetQuality(int) sensor.DeviceCode                    { return d.simple() }
func (d *Driver) SetColorbar(bool) sensor.DeviceCode                  { return d.simple() }
func (d *Driver) SetSpecialEffect(int) sensor.DeviceCode              { return d.simple() }
func (d *Driver) SetLensCorrection(bool, int, int) sensor.DeviceCode  { return d.simple() }

func (d *Driver) simple() sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.takeForced()
}

func (d *Driver) SetAutoGain(bool, float64, float64) sensor.DeviceCode { return d.simple() }

func (d *Driver) GainDB() (float64, sensor.DeviceCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return 0, code
	}
	return 12.0, sensor.CodeOK
}

func (d *Driver) SetAutoExposure(bool, int) sensor.DeviceCode { return d.simple() }

func (d *Driver) ExposureUS() (int, sensor.DeviceCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return 0, code
	}
	return 33000, sensor.CodeOK
}

func (d *Driver) SetAutoWhitebal(bool, float64, float64, float64) sensor.DeviceCode {
	return d.simple()
}

func (d *Driver) RGBGainDB() (r, g, b float64, code sensor.DeviceCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return 0, 0, 0, code
	}
	return 1.5, 1.0, 2.1, sensor.CodeOK
}

func (d *Driver) SetHMirror(enable bool) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.hmirror = enable
	return sensor.CodeOK
}

func (d *Driver) HMirror() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hmirror
}

func (d *Driver) SetVFlip(enable bool) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.vflip = enable
	return sensor.CodeOK
}

func (d *Driver) VFlip() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vflip
}

func (d *Driver) SetTranspose(enable bool) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.transpose = enable
	return sensor.CodeOK
}

func (d *Driver) Transpose() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transpose
}

func (d *Driver) SetColorPalette(p sensor.Palette) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.palette = p
	d.paletteSet = true
	return sensor.CodeOK
}

func (d *Driver) ColorPalette() (sensor.Palette, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.palette, d.paletteSet
}

func (d *Driver) SetFramebuffers(count int) sensor.DeviceCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.takeForced(); code != sensor.CodeOK {
		return code
	}
	d.framebuffers = count
	return sensor.CodeOK
}

func (d *Driver) Framebuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framebuffers
}

// Snapshot synthesizes one frame of metadata and fires the vsync and
// frame-ready callbacks inline, standing in for the capture interrupt.
func (d *Driver) Snapshot(time.Duration) (sensor.Frame, sensor.DeviceCode) {
	d.mu.Lock()
	if code := d.takeForced(); code != sensor.CodeOK {
		d.mu.Unlock()
		return sensor.Frame{}, code
	}
	if !d.framesize.Valid() {
		d.mu.Unlock()
		return sensor.Frame{}, sensor.CodeInvalidFramesize
	}
	if d.pixformat == sensor.PixformatInvalid {
		d.mu.Unlock()
		return sensor.Frame{}, sensor.CodeInvalidPixformat
	}
	d.seq++
	d.pending = 1 // the framebuffer now holds the latest capture
	frame := sensor.Frame{
		Seq:       d.seq,
		Width:     d.window.W,
		Height:    d.window.H,
		Pixformat: d.pixformat,
		Timestamp: time.Now(),
	}
	vsync := d.vsyncCb
	frameCb := d.frameCb
	d.mu.Unlock()

	if vsync != nil {
		vsync(1)
		vsync(0)
	}
	if frameCb != nil {
		frameCb()
	}
	return frame, sensor.CodeOK
}

func (d *Driver) FrameAvailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending > 0
}

func (d *Driver) SetVsyncCallback(fn func(level uint32)) {
	d.mu.Lock()
	d.vsyncCb = fn
	d.mu.Unlock()
}

func (d *Driver) SetFrameCallback(fn func()) {
	d.mu.Lock()
	d.frameCb = fn
	d.mu.Unlock()
}

// Ioctl services the device-specific controls against in-memory
// state. Shapes were validated by the registry; only values are
// checked here.
func (d *Driver) Ioctl(code sensor.IoctlCode, args ...any) (any, sensor.DeviceCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ioctlCalls++
	if forced := d.takeForced(); forced != sensor.CodeOK {
		return nil, forced
	}

	switch code {
	case sensor.SetReadoutWindow:
		d.readout = geometry.Rect{
			X: args[0].(int), Y: args[1].(int),
			W: args[2].(int), H: args[3].(int),
		}
		return nil, sensor.CodeOK
	case sensor.GetReadoutWindow:
		return d.readout, sensor.CodeOK
	case sensor.SetTriggeredMode:
		d.triggered = args[0].(int)
		return nil, sensor.CodeOK
	case sensor.GetTriggeredMode:
		return d.triggered, sensor.CodeOK
	case sensor.TriggerAutoFocus, sensor.PauseAutoFocus, sensor.ResetAutoFocus,
		sensor.WaitOnAutoFocus:
		return nil, sensor.CodeOK
	case sensor.ThermalGetWidth:
		return thermalWidth, sensor.CodeOK
	case sensor.ThermalGetHeight:
		return thermalHeight, sensor.CodeOK
	case sensor.ThermalGetRadiometry:
		return thermalRadiometry, sensor.CodeOK
	case sensor.ThermalGetRefresh:
		return thermalRefresh, sensor.CodeOK
	case sensor.ThermalGetResolution:
		return thermalResolution, sensor.CodeOK
	case sensor.ThermalRunCommand:
		return nil, sensor.CodeOK
	case sensor.ThermalSetAttribute:
		command := args[0].(int)
		data := args[1].([]byte)
		d.thermalAttrs[command] = append([]byte(nil), data...)
		return nil, sensor.CodeOK
	case sensor.ThermalGetAttribute:
		command := args[0].(int)
		count := args[1].(int)
		buf := make([]byte, count*2)
		copy(buf, d.thermalAttrs[command])
		return buf, sensor.CodeOK
	case sensor.ThermalGetFPATemp:
		return fpaTempRaw, sensor.CodeOK
	case sensor.ThermalGetAuxTemp:
		return auxTempRaw, sensor.CodeOK
	case sensor.ThermalSetMeasurementMode:
		d.measureMode = [2]int{args[0].(int), args[1].(int)}
		return nil, sensor.CodeOK
	case sensor.ThermalGetMeasurementMode:
		return d.measureMode, sensor.CodeOK
	case sensor.ThermalSetMeasurementRange:
		d.measureRange = [2]float64{args[0].(float64), args[1].(float64)}
		return nil, sensor.CodeOK
	case sensor.ThermalGetMeasurementRange:
		return d.measureRange, sensor.CodeOK
	case sensor.MotionDetectEnable:
		d.mdEnabled = args[0].(int)
		return nil, sensor.CodeOK
	case sensor.MotionDetectWindow:
		d.mdWindow = geometry.Rect{
			X: args[0].(int), Y: args[1].(int),
			W: args[2].(int), H: args[3].(int),
		}
		return nil, sensor.CodeOK
	case sensor.MotionDetectThreshold:
		d.mdThreshold = args[0].(int)
		return nil, sensor.CodeOK
	case sensor.MotionDetectClear:
		d.mdEnabled = 0
		return nil, sensor.CodeOK
	case sensor.MotionOscEnable:
		d.oscEnabled = args[0].(int)
		return nil, sensor.CodeOK
	}
	return nil, sensor.CodeCtlUnsupported
}

func (d *Driver) WriteReg(addr, value int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.regs == nil {
		d.regs = make(map[int]int)
	}
	d.regs[addr] = value
}

func (d *Driver) ReadReg(addr int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[addr]
}
