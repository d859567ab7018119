package geometry

import "fmt"

// FrameSize identifies one of the sensor's named capture resolutions.
// The zero value is invalid; a frame size must be configured before
// geometry queries are meaningful.
type FrameSize int

const (
	FrameSizeInvalid FrameSize = iota

	// C/SIF resolutions.
	QQCIF // 88x72
	QCIF  // 176x144
	CIF   // 352x288
	QQSIF // 88x60
	QSIF  // 176x120
	SIF   // 352x240

	// VGA resolutions.
	QQQQVGA  // 40x30
	QQQVGA   // 80x60
	QQVGA    // 160x120
	QVGA     // 320x240
	VGA      // 640x480
	HQQQQVGA // 40x20
	HQQQVGA  // 80x40
	HQQVGA   // 160x80
	HQVGA    // 240x160
	HVGA     // 480x320

	// Square power-of-two resolutions.
	B64X32   // 64x32
	B64X64   // 64x64
	B128X64  // 128x64
	B128X128 // 128x128
	B160X160 // 160x160
	B320X320 // 320x320

	// Other.
	LCD    // 128x160
	QQVGA2 // 128x160
	WVGA   // 720x480
	WVGA2  // 752x480
	SVGA   // 800x600
	XGA    // 1024x768
	WXGA   // 1280x768
	SXGA   // 1280x1024
	SXGAM  // 1280x960
	UXGA   // 1600x1200
	HD     // 1280x720
	FHD    // 1920x1080
	QHD    // 2560x1440
	QXGA   // 2048x1536
	WQXGA  // 2560x1600
	WQXGA2 // 2592x1944
)

// resolution maps each frame size to its native (width, height).
// Populated once at startup, immutable afterwards.
var resolution = map[FrameSize][2]int{
	QQCIF:    {88, 72},
	QCIF:     {176, 144},
	CIF:      {352, 288},
	QQSIF:    {88, 60},
	QSIF:     {176, 120},
	SIF:      {352, 240},
	QQQQVGA:  {40, 30},
	QQQVGA:   {80, 60},
	QQVGA:    {160, 120},
	QVGA:     {320, 240},
	VGA:      {640, 480},
	HQQQQVGA: {40, 20},
	HQQQVGA:  {80, 40},
	HQQVGA:   {160, 80},
	HQVGA:    {240, 160},
	HVGA:     {480, 320},
	B64X32:   {64, 32},
	B64X64:   {64, 64},
	B128X64:  {128, 64},
	B128X128: {128, 128},
	B160X160: {160, 160},
	B320X320: {320, 320},
	LCD:      {128, 160},
	QQVGA2:   {128, 160},
	WVGA:     {720, 480},
	WVGA2:    {752, 480},
	SVGA:     {800, 600},
	XGA:      {1024, 768},
	WXGA:     {1280, 768},
	SXGA:     {1280, 1024},
	SXGAM:    {1280, 960},
	UXGA:     {1600, 1200},
	HD:       {1280, 720},
	FHD:      {1920, 1080},
	QHD:      {2560, 1440},
	QXGA:     {2048, 1536},
	WQXGA:    {2560, 1600},
	WQXGA2:   {2592, 1944},
}

var frameSizeNames = map[FrameSize]string{
	QQCIF: "QQCIF", QCIF: "QCIF", CIF: "CIF",
	QQSIF: "QQSIF", QSIF: "QSIF", SIF: "SIF",
	QQQQVGA: "QQQQVGA", QQQVGA: "QQQVGA", QQVGA: "QQVGA",
	QVGA: "QVGA", VGA: "VGA",
	HQQQQVGA: "HQQQQVGA", HQQQVGA: "HQQQVGA", HQQVGA: "HQQVGA",
	HQVGA: "HQVGA", HVGA: "HVGA",
	B64X32: "64X32", B64X64: "64X64", B128X64: "128X64",
	B128X128: "128X128", B160X160: "160X160", B320X320: "320X320",
	LCD: "LCD", QQVGA2: "QQVGA2", WVGA: "WVGA", WVGA2: "WVGA2",
	SVGA: "SVGA", XGA: "XGA", WXGA: "WXGA", SXGA: "SXGA",
	SXGAM: "SXGAM", UXGA: "UXGA", HD: "HD", FHD: "FHD",
	QHD: "QHD", QXGA: "QXGA", WQXGA: "WQXGA", WQXGA2: "WQXGA2",
}

var frameSizeByName = func() map[string]FrameSize {
	m := make(map[string]FrameSize, len(frameSizeNames))
	for fs, name := range frameSizeNames {
		m[name] = fs
	}
	return m
}()

// Valid reports whether fs names a known frame size.
func (fs FrameSize) Valid() bool {
	_, ok := resolution[fs]
	return ok
}

// Size returns the native width and height of fs. It panics when fs is
// not a known frame size; callers gate on Valid first.
func (fs FrameSize) Size() (w, h int) {
	r, ok := resolution[fs]
	if !ok {
		panic(fmt.Sprintf("geometry: unknown frame size %d", fs))
	}
	return r[0], r[1]
}

// Bounds returns the full-frame rectangle of fs, origin (0, 0).
func (fs FrameSize) Bounds() Rect {
	w, h := fs.Size()
	return Rect{W: w, H: h}
}

func (fs FrameSize) String() string {
	if name, ok := frameSizeNames[fs]; ok {
		return name
	}
	return fmt.Sprintf("FrameSize(%d)", int(fs))
}

// ParseFrameSize looks up a frame size by its name, e.g. "VGA".
func ParseFrameSize(name string) (FrameSize, error) {
	if fs, ok := frameSizeByName[name]; ok {
		return fs, nil
	}
	return FrameSizeInvalid, fmt.Errorf("unknown frame size %q", name)
}
