package sensor

import (
	"fmt"
	"time"

	"github.com/visiona/sensorctl/internal/geometry"
)

// Pixformat identifies a pixel format of the capture path.
type Pixformat int

const (
	PixformatInvalid Pixformat = iota
	Binary                     // 1BPP binary
	Grayscale                  // 8BPP grayscale
	RGB565                     // 16BPP RGB565
	Bayer                      // 8BPP raw bayer
	YUV422                     // 16BPP YUV422
	JPEG                       // compressed
)

var pixformatNames = map[Pixformat]string{
	Binary: "BINARY", Grayscale: "GRAYSCALE", RGB565: "RGB565",
	Bayer: "BAYER", YUV422: "YUV422", JPEG: "JPEG",
}

func (p Pixformat) String() string {
	if name, ok := pixformatNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Pixformat(%d)", int(p))
}

// ParsePixformat looks up a pixel format by name, e.g. "RGB565".
func ParsePixformat(name string) (Pixformat, error) {
	for p, n := range pixformatNames {
		if n == name {
			return p, nil
		}
	}
	return PixformatInvalid, fmt.Errorf("unknown pixel format %q", name)
}

// GainCeiling is the device-side auto-gain ceiling enumeration.
type GainCeiling int

const (
	GainCeiling2X GainCeiling = iota
	GainCeiling4X
	GainCeiling8X
	GainCeiling16X
	GainCeiling32X
	GainCeiling64X
	GainCeiling128X
)

// Palette identifies a thermal false-color lookup table. The tables
// themselves are owned by the driver.
type Palette int

const (
	PaletteRainbow Palette = iota
	PaletteIronbow
)

var paletteNames = map[Palette]string{
	PaletteRainbow: "RAINBOW",
	PaletteIronbow: "IRONBOW",
}

func (p Palette) String() string {
	if name, ok := paletteNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Palette(%d)", int(p))
}

// ParsePalette looks up a palette by name.
func ParsePalette(name string) (Palette, error) {
	for p, n := range paletteNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown palette %q", ErrInvalidArgument, name)
}

// Frame describes a captured frame. Pixel storage lives with the
// driver's framebuffer; the facade only sees metadata.
type Frame struct {
	Seq       uint64
	Width     int
	Height    int
	Pixformat Pixformat
	Timestamp time.Time
}

// Driver is the hardware collaborator behind the facade. Every
// operation returns a DeviceCode: zero on success, a driver-owned
// nonzero code otherwise. Getters for orientation bits and counters
// mirror device registers and cannot fail.
//
// Callback setters install a handler invoked from the driver's
// hardware-event context; passing nil uninstalls it.
type Driver interface {
	Detected() bool
	Reset() DeviceCode
	Sleep(enable bool) DeviceCode
	Shutdown(enable bool) DeviceCode

	SetPixformat(f Pixformat) DeviceCode
	SetFramesize(fs geometry.FrameSize) DeviceCode
	SetFramerate(fps int) DeviceCode
	SetWindowing(w geometry.Rect) DeviceCode
	SetGainCeiling(g GainCeiling) DeviceCode
	SetBrightness(level int) DeviceCode
	SetContrast(level int) DeviceCode
	SetSaturation(level int) DeviceCode
	SetQuality(q int) DeviceCode
	SetColorbar(enable bool) DeviceCode
	SetSpecialEffect(sde int) DeviceCode
	SetLensCorrection(enable bool, radius, coef int) DeviceCode

	SetAutoGain(enable bool, gainDB, ceilingDB float64) DeviceCode
	GainDB() (float64, DeviceCode)
	SetAutoExposure(enable bool, exposureUS int) DeviceCode
	ExposureUS() (int, DeviceCode)
	SetAutoWhitebal(enable bool, rGainDB, gGainDB, bGainDB float64) DeviceCode
	RGBGainDB() (r, g, b float64, code DeviceCode)

	SetHMirror(enable bool) DeviceCode
	HMirror() bool
	SetVFlip(enable bool) DeviceCode
	VFlip() bool
	SetTranspose(enable bool) DeviceCode
	Transpose() bool

	SetColorPalette(p Palette) DeviceCode
	ColorPalette() (p Palette, ok bool)

	SetFramebuffers(count int) DeviceCode
	Framebuffers() int

	Snapshot(timeout time.Duration) (Frame, DeviceCode)
	FrameAvailable() bool

	SetVsyncCallback(fn func(level uint32))
	SetFrameCallback(fn func())

	// Ioctl performs a device-specific control operation. Arguments
	// and result are already parsed and typed by the registry; the
	// driver validates values, not shapes.
	Ioctl(code IoctlCode, args ...any) (any, DeviceCode)

	WriteReg(addr, value int)
	ReadReg(addr int) int
}
