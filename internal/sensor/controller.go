package sensor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/visiona/sensorctl/internal/geometry"
	"github.com/visiona/sensorctl/internal/imu"
	"github.com/visiona/sensorctl/internal/orient"
)

// Default frame-settle budget for SkipFrames, per the sensor vendor's
// recommendation.
const defaultSkipBudget = 300 * time.Millisecond

// Capabilities records which optional hardware features are configured
// in. Ioctl codes for a disabled capability behave as unknown codes.
type Capabilities struct {
	Autofocus    bool
	MotionDetect bool
}

// Config parameterizes a Controller.
type Config struct {
	Capabilities Capabilities
	AutoRotation bool
}

// Controller is the control facade over a sensor Driver. All
// operations run synchronously on the caller's goroutine; the only
// shared state is the configuration mirror and the two callback slots,
// both mutex-protected.
type Controller struct {
	drv      Driver
	attitude imu.AttitudeSource
	caps     Capabilities

	mu           sync.Mutex
	framesize    geometry.FrameSize
	pixformat    Pixformat
	framerate    int
	window       geometry.Rect
	autoRotation bool

	cbMu         sync.RWMutex
	vsyncHandler func(level uint32)
	frameHandler func()
}

// New builds a Controller over drv. attitude may be nil on boards
// without an IMU; auto-rotation is then inert. New fails when no
// sensor answers on the bus, mirroring the probe the scripting module
// performs at import.
func New(drv Driver, attitude imu.AttitudeSource, cfg Config) (*Controller, error) {
	if !drv.Detected() {
		return nil, codeErr(CodeNotDetected)
	}
	return &Controller{
		drv:          drv,
		attitude:     attitude,
		caps:         cfg.Capabilities,
		autoRotation: cfg.AutoRotation,
	}, nil
}

// Detected reports whether the sensor answered the bus probe.
func (c *Controller) Detected() bool {
	return c.drv.Detected()
}

// Reset resets the sensor and, when auto-rotation is enabled, applies
// an initial orientation using the wide reset zones.
func (c *Controller) Reset() error {
	if err := codeErr(c.drv.Reset()); err != nil {
		return err
	}

	c.mu.Lock()
	c.framesize = geometry.FrameSizeInvalid
	c.pixformat = PixformatInvalid
	c.framerate = 0
	c.window = geometry.Rect{}
	c.mu.Unlock()

	return c.autoRotate(orient.ResetZones)
}

// Sleep toggles the sensor's low-power sleep state.
func (c *Controller) Sleep(enable bool) error {
	return codeErr(c.drv.Sleep(enable))
}

// Shutdown toggles the sensor's power-down state.
func (c *Controller) Shutdown(enable bool) error {
	return codeErr(c.drv.Shutdown(enable))
}

// autoRotate recomputes orientation flags from a fresh attitude
// reading and applies them through the three independent driver
// setters. A dead-zone or out-of-sector reading leaves the driver's
// current flags in place.
func (c *Controller) autoRotate(z orient.Zones) error {
	c.mu.Lock()
	enabled := c.autoRotation
	c.mu.Unlock()
	if !enabled || c.attitude == nil {
		return nil
	}

	pitch, roll, err := c.attitude.PitchRoll()
	if err != nil {
		// An unreadable IMU is treated like a dead-zone reading:
		// keep whatever orientation the driver already has.
		slog.Warn("attitude read failed, keeping orientation", "error", err)
		return nil
	}

	flags, ok := orient.Classify(pitch, roll, z)
	if !ok {
		return nil
	}

	// Three independent register bits; ordering is not significant.
	if err := codeErr(c.drv.SetHMirror(flags.Mirror)); err != nil {
		return err
	}
	if err := codeErr(c.drv.SetVFlip(flags.Flip)); err != nil {
		return err
	}
	return codeErr(c.drv.SetTranspose(flags.Transpose))
}

// Snapshot captures one frame, re-deriving orientation first with the
// narrow snapshot zones. timeout bounds the frame wait; zero lets the
// driver apply its default.
func (c *Controller) Snapshot(timeout time.Duration) (Frame, error) {
	if err := c.autoRotate(orient.SnapshotZones); err != nil {
		return Frame{}, err
	}
	frame, code := c.drv.Snapshot(timeout)
	if code != CodeOK {
		return Frame{}, codeErr(code)
	}
	return frame, nil
}

// SkipFrames captures and discards frames to let the sensor settle
// after a configuration change. With n <= 0 it skips for the given
// budget (default 300ms when budget is zero); with n > 0 it skips n
// frames, stopping early once a nonzero budget elapses.
func (c *Controller) SkipFrames(n int, budget time.Duration) error {
	start := time.Now()

	if n <= 0 {
		if budget == 0 {
			budget = defaultSkipBudget
		}
		for time.Since(start) < budget {
			if _, err := c.Snapshot(0); err != nil {
				return err
			}
		}
		return nil
	}

	for i := 0; i < n; i++ {
		if budget > 0 && time.Since(start) >= budget {
			break
		}
		if _, err := c.Snapshot(0); err != nil {
			return err
		}
	}
	return nil
}

// FrameAvailable reports whether a captured frame is waiting in the
// driver's buffer queue.
func (c *Controller) FrameAvailable() bool {
	return c.drv.FrameAvailable()
}

// SetPixformat selects the capture pixel format.
func (c *Controller) SetPixformat(f Pixformat) error {
	if err := codeErr(c.drv.SetPixformat(f)); err != nil {
		return err
	}
	c.mu.Lock()
	c.pixformat = f
	c.mu.Unlock()
	return nil
}

// Pixformat returns the active pixel format, failing when none is set.
func (c *Controller) Pixformat() (Pixformat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pixformat == PixformatInvalid {
		return PixformatInvalid, codeErr(CodeInvalidPixformat)
	}
	return c.pixformat, nil
}

// SetFramesize selects the capture resolution and resets the readout
// window to the full frame.
func (c *Controller) SetFramesize(fs geometry.FrameSize) error {
	if !fs.Valid() {
		return fmt.Errorf("%w: bad frame size", ErrInvalidArgument)
	}
	if err := codeErr(c.drv.SetFramesize(fs)); err != nil {
		return err
	}
	c.mu.Lock()
	c.framesize = fs
	c.window = fs.Bounds()
	c.mu.Unlock()
	return nil
}

// Framesize returns the active frame size, failing when none is set.
func (c *Controller) Framesize() (geometry.FrameSize, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.framesize.Valid() {
		return geometry.FrameSizeInvalid, codeErr(CodeInvalidFramesize)
	}
	return c.framesize, nil
}

// Width returns the native frame width of the active frame size.
func (c *Controller) Width() (int, error) {
	fs, err := c.Framesize()
	if err != nil {
		return 0, err
	}
	w, _ := fs.Size()
	return w, nil
}

// Height returns the native frame height of the active frame size.
func (c *Controller) Height() (int, error) {
	fs, err := c.Framesize()
	if err != nil {
		return 0, err
	}
	_, h := fs.Size()
	return h, nil
}

// SetFramerate sets the target capture rate in frames per second.
func (c *Controller) SetFramerate(fps int) error {
	if err := codeErr(c.drv.SetFramerate(fps)); err != nil {
		return err
	}
	c.mu.Lock()
	c.framerate = fps
	c.mu.Unlock()
	return nil
}

// Framerate returns the active frame rate, failing when none is set.
func (c *Controller) Framerate() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.framerate == 0 {
		return 0, codeErr(CodeInvalidFramerate)
	}
	return c.framerate, nil
}

// SetWindowing resolves a crop request against the active frame bounds
// and applies the clipped window to the driver. A frame size must be
// set first.
func (c *Controller) SetWindowing(req geometry.Request) error {
	c.mu.Lock()
	fs := c.framesize
	c.mu.Unlock()
	if !fs.Valid() {
		return codeErr(CodeInvalidFramesize)
	}

	win, err := geometry.Resolve(fs.Bounds(), req)
	if err != nil {
		return err
	}
	if err := codeErr(c.drv.SetWindowing(win)); err != nil {
		return err
	}

	c.mu.Lock()
	c.window = win
	c.mu.Unlock()
	return nil
}

// SetWindowingValues is SetWindowing over a raw integer sequence:
// (w, h) centers the window, (x, y, w, h) places it explicitly.
func (c *Controller) SetWindowingValues(vals []int) error {
	req, err := geometry.FromValues(vals)
	if err != nil {
		return err
	}
	return c.SetWindowing(req)
}

// Windowing returns the active readout window. Always valid once a
// frame size is set; no further validation is performed.
func (c *Controller) Windowing() (geometry.Rect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.framesize.Valid() {
		return geometry.Rect{}, codeErr(CodeInvalidFramesize)
	}
	return c.window, nil
}

// SetGainCeiling sets the auto-gain ceiling from a user-facing
// multiple in {2, 4, 8, 16, 32, 64, 128}.
func (c *Controller) SetGainCeiling(multiple int) error {
	gain, err := gainCeilingFromMultiple(multiple)
	if err != nil {
		return err
	}
	return codeErr(c.drv.SetGainCeiling(gain))
}

// SetQuality sets the JPEG compression quality from the user scale
// [0, 100], higher is better.
func (c *Controller) SetQuality(quality int) error {
	q, err := DeviceQuality(quality)
	if err != nil {
		return err
	}
	return codeErr(c.drv.SetQuality(q))
}

// SetBrightness adjusts sensor brightness.
func (c *Controller) SetBrightness(level int) error {
	return codeErr(c.drv.SetBrightness(level))
}

// SetContrast adjusts sensor contrast.
func (c *Controller) SetContrast(level int) error {
	return codeErr(c.drv.SetContrast(level))
}

// SetSaturation adjusts sensor saturation.
func (c *Controller) SetSaturation(level int) error {
	return codeErr(c.drv.SetSaturation(level))
}

// SetColorbar toggles the sensor's test-pattern output.
func (c *Controller) SetColorbar(enable bool) error {
	return codeErr(c.drv.SetColorbar(enable))
}

// SetSpecialEffect selects a sensor digital effect.
func (c *Controller) SetSpecialEffect(sde int) error {
	return codeErr(c.drv.SetSpecialEffect(sde))
}

// SetLensCorrection configures the sensor's lens shading correction.
func (c *Controller) SetLensCorrection(enable bool, radius, coef int) error {
	return codeErr(c.drv.SetLensCorrection(enable, radius, coef))
}

// SetAutoGain enables or disables auto gain. gainDB fixes the manual
// gain when disabling; ceilingDB caps the auto algorithm. Pass
// UnsetGain for either to keep the driver default.
func (c *Controller) SetAutoGain(enable bool, gainDB, ceilingDB float64) error {
	return codeErr(c.drv.SetAutoGain(enable, gainDB, ceilingDB))
}

// GainDB reads back the current sensor gain in dB.
func (c *Controller) GainDB() (float64, error) {
	gain, code := c.drv.GainDB()
	if code != CodeOK {
		return 0, codeErr(code)
	}
	return gain, nil
}

// SetAutoExposure enables or disables auto exposure. exposureUS fixes
// the manual exposure when disabling; UnsetExposure keeps the driver
// default.
func (c *Controller) SetAutoExposure(enable bool, exposureUS int) error {
	return codeErr(c.drv.SetAutoExposure(enable, exposureUS))
}

// ExposureUS reads back the current exposure in microseconds.
func (c *Controller) ExposureUS() (int, error) {
	us, code := c.drv.ExposureUS()
	if code != CodeOK {
		return 0, codeErr(code)
	}
	return us, nil
}

// SetAutoWhitebal enables or disables auto white balance. The three
// channel gains fix the manual balance when disabling; pass UnsetGain
// to keep driver defaults.
func (c *Controller) SetAutoWhitebal(enable bool, rGainDB, gGainDB, bGainDB float64) error {
	return codeErr(c.drv.SetAutoWhitebal(enable, rGainDB, gGainDB, bGainDB))
}

// RGBGainDB reads back the white-balance channel gains in dB.
func (c *Controller) RGBGainDB() (r, g, b float64, err error) {
	r, g, b, code := c.drv.RGBGainDB()
	if code != CodeOK {
		return 0, 0, 0, codeErr(code)
	}
	return r, g, b, nil
}

// SetHMirror sets the horizontal mirror bit.
func (c *Controller) SetHMirror(enable bool) error {
	return codeErr(c.drv.SetHMirror(enable))
}

// HMirror reads the horizontal mirror bit.
func (c *Controller) HMirror() bool { return c.drv.HMirror() }

// SetVFlip sets the vertical flip bit.
func (c *Controller) SetVFlip(enable bool) error {
	return codeErr(c.drv.SetVFlip(enable))
}

// VFlip reads the vertical flip bit.
func (c *Controller) VFlip() bool { return c.drv.VFlip() }

// SetTranspose sets the transpose bit.
func (c *Controller) SetTranspose(enable bool) error {
	return codeErr(c.drv.SetTranspose(enable))
}

// Transpose reads the transpose bit.
func (c *Controller) Transpose() bool { return c.drv.Transpose() }

// Orientation reads all three orientation bits at once.
func (c *Controller) Orientation() orient.Flags {
	return orient.Flags{
		Mirror:    c.drv.HMirror(),
		Flip:      c.drv.VFlip(),
		Transpose: c.drv.Transpose(),
	}
}

// SetAutoRotation toggles IMU-driven orientation correction.
func (c *Controller) SetAutoRotation(enable bool) {
	c.mu.Lock()
	c.autoRotation = enable
	c.mu.Unlock()
}

// AutoRotation reports whether IMU-driven orientation correction is
// enabled.
func (c *Controller) AutoRotation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoRotation
}

// SetColorPalette selects a thermal false-color palette.
func (c *Controller) SetColorPalette(p Palette) error {
	switch p {
	case PaletteRainbow, PaletteIronbow:
	default:
		return fmt.Errorf("%w: bad color palette", ErrInvalidArgument)
	}
	return codeErr(c.drv.SetColorPalette(p))
}

// ColorPalette returns the active palette; ok is false when the driver
// carries a custom table that matches neither known palette.
func (c *Controller) ColorPalette() (Palette, bool) {
	return c.drv.ColorPalette()
}

// SetFramebuffers sets the driver's capture buffer count. A no-op when
// the count is unchanged.
func (c *Controller) SetFramebuffers(count int) error {
	if c.drv.Framebuffers() == count {
		return nil
	}
	if count < 1 {
		return codeErr(CodeInvalidArgument)
	}
	return codeErr(c.drv.SetFramebuffers(count))
}

// Framebuffers returns the driver's capture buffer count.
func (c *Controller) Framebuffers() int {
	return c.drv.Framebuffers()
}

// WriteReg pokes a raw sensor register. Debug use only.
func (c *Controller) WriteReg(addr, value int) {
	c.drv.WriteReg(addr, value)
}

// ReadReg peeks a raw sensor register. Debug use only.
func (c *Controller) ReadReg(addr int) int {
	return c.drv.ReadReg(addr)
}
