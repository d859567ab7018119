// Package uart drives a sensor attached through a USB-CDC bench
// bridge. The bridge firmware exposes the sensor's control surface as
// a small register file behind an ASCII-framed packet protocol:
//
//	"   #" <len:4 hex> <type:4> <payload...> <crc:4>
//
// with WREG/RREG exchanges for register access and asynchronous FRAM,
// VSYN and FRDY packets for capture events. Device-specific controls
// (the ioctl surface) are not routed over the bridge.
package uart

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/visiona/sensorctl/internal/geometry"
	"github.com/visiona/sensorctl/internal/sensor"
)

// bridgePort is the subset of serial.Port the driver uses.
type bridgePort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Driver implements sensor.Driver over a serial bridge. Command
// exchanges and event packets share the port, so every read path holds
// readMu, and events seen while waiting for a response are dispatched
// opportunistically.
type Driver struct {
	port bridgePort

	readMu sync.Mutex

	mu           sync.Mutex
	chipID       uint16
	hmirror      bool
	vflip        bool
	transpose    bool
	framebuffers int
	seq          uint64
	vsyncCb      func(level uint32)
	frameCb      func()
}

// Open connects to the bridge on the named serial port and probes the
// sensor.
func Open(portName string) (*Driver, error) {
	p, err := serial.Open(portName, &serial.Mode{}) // USB-CDC, mode is ignored
	if err != nil {
		return nil, fmt.Errorf("failed to open bridge port: %w", err)
	}

	d := &Driver{port: p, framebuffers: 1}

	id, err := d.readRegister(regChipID)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to probe sensor: %w", err)
	}
	d.chipID = binary.BigEndian.Uint16(id)

	return d, nil
}

// Close releases the serial port.
func (d *Driver) Close() error {
	return d.port.Close()
}

func (d *Driver) Detected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chipID != 0
}

func (d *Driver) Reset() sensor.DeviceCode {
	return d.writeCode(regControl, ctlReset)
}

func (d *Driver) Sleep(enable bool) sensor.DeviceCode {
	return d.writeCode(regPower, boolBit(enable, pwrSleep))
}

func (d *Driver) Shutdown(enable bool) sensor.DeviceCode {
	return d.writeCode(regPower, boolBit(enable, pwrShutdown))
}

func (d *Driver) SetPixformat(f sensor.Pixformat) sensor.DeviceCode {
	return d.writeCode(regPixformat, uint8(f))
}

func (d *Driver) SetFramesize(fs geometry.FrameSize) sensor.DeviceCode {
	return d.writeCode(regFramesize, uint8(fs))
}

func (d *Driver) SetFramerate(fps int) sensor.DeviceCode {
	if fps <= 0 || fps > 255 {
		return sensor.CodeInvalidFramerate
	}
	return d.writeCode(regFramerate, uint8(fps))
}

func (d *Driver) SetWindowing(w geometry.Rect) sensor.DeviceCode {
	regs := []struct {
		reg register
		val uint16
	}{
		{regWindowX, uint16(w.X)},
		{regWindowY, uint16(w.Y)},
		{regWindowW, uint16(w.W)},
		{regWindowH, uint16(w.H)},
	}
	for _, r := range regs {
		if err := d.writeRegister16(r.reg, r.val); err != nil {
			return sensor.CodeIOError
		}
	}
	return sensor.CodeOK
}

func (d *Driver) SetGainCeiling(g sensor.GainCeiling) sensor.DeviceCode {
	return d.writeCode(regGainCeil, uint8(g))
}

func (d *Driver) SetBrightness(level int) sensor.DeviceCode {
	return d.writeCode(regBrightness, int8Byte(level))
}

func (d *Driver) SetContrast(level int) sensor.DeviceCode {
	return d.writeCode(regContrast, int8Byte(level))
}

func (d *Driver) SetSaturation(level int) sensor.DeviceCode {
	return d.writeCode(regSaturation, int8Byte(level))
}

func (d *Driver) SetQuality(q int) sensor.DeviceCode {
	return d.writeCode(regQuality, uint8(q))
}

func (d *Driver) SetColorbar(enable bool) sensor.DeviceCode {
	return d.writeCode(regColorbar, boolBit(enable, 0x01))
}

func (d *Driver) SetSpecialEffect(sde int) sensor.DeviceCode {
	return d.writeCode(regEffect, uint8(sde))
}

// SetLensCorrection is not routed over the bridge.
func (d *Driver) SetLensCorrection(bool, int, int) sensor.DeviceCode {
	return sensor.CodeCtlUnsupported
}

func (d *Driver) SetAutoGain(enable bool, gainDB, ceilingDB float64) sensor.DeviceCode {
	return d.setAutoBit(autoGain, enable)
}

func (d *Driver) GainDB() (float64, sensor.DeviceCode) {
	v, err := d.readRegister(regGain)
	if err != nil {
		return 0, sensor.CodeIOError
	}
	return float64(v[0]) / 4, sensor.CodeOK // 0.25 dB steps
}

func (d *Driver) SetAutoExposure(enable bool, exposureUS int) sensor.DeviceCode {
	if code := d.setAutoBit(autoExposure, enable); code != sensor.CodeOK {
		return code
	}
	if !enable && exposureUS != sensor.UnsetExposure {
		if err := d.writeRegister32(regExposure, uint32(exposureUS)); err != nil {
			return sensor.CodeIOError
		}
	}
	return sensor.CodeOK
}

func (d *Driver) ExposureUS() (int, sensor.DeviceCode) {
	v, err := d.readRegister(regExposure)
	if err != nil {
		return 0, sensor.CodeIOError
	}
	return int(binary.BigEndian.Uint32(v)), sensor.CodeOK
}

func (d *Driver) SetAutoWhitebal(enable bool, _, _, _ float64) sensor.DeviceCode {
	return d.setAutoBit(autoWhitebal, enable)
}

// RGBGainDB is not routed over the bridge.
func (d *Driver) RGBGainDB() (r, g, b float64, code sensor.DeviceCode) {
	return 0, 0, 0, sensor.CodeCtlUnsupported
}

func (d *Driver) SetHMirror(enable bool) sensor.DeviceCode {
	d.mu.Lock()
	d.hmirror = enable
	d.mu.Unlock()
	return d.writeOrient()
}

func (d *Driver) HMirror() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hmirror
}

func (d *Driver) SetVFlip(enable bool) sensor.DeviceCode {
	d.mu.Lock()
	d.vflip = enable
	d.mu.Unlock()
	return d.writeOrient()
}

func (d *Driver) VFlip() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vflip
}

func (d *Driver) SetTranspose(enable bool) sensor.DeviceCode {
	d.mu.Lock()
	d.transpose = enable
	d.mu.Unlock()
	return d.writeOrient()
}

func (d *Driver) Transpose() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transpose
}

// SetColorPalette is not routed over the bridge.
func (d *Driver) SetColorPalette(sensor.Palette) sensor.DeviceCode {
	return sensor.CodeCtlUnsupported
}

func (d *Driver) ColorPalette() (sensor.Palette, bool) {
	return 0, false
}

// Framebuffers are host memory; the bridge has no say in the count.
func (d *Driver) SetFramebuffers(count int) sensor.DeviceCode {
	d.mu.Lock()
	d.framebuffers = count
	d.mu.Unlock()
	return sensor.CodeOK
}

func (d *Driver) Framebuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framebuffers
}

// Snapshot arms a capture and waits for the FRAM packet carrying the
// frame header: seq (4 bytes), width and height (2 bytes each),
// big-endian. timeout bounds the wait; zero means one second.
func (d *Driver) Snapshot(timeout time.Duration) (sensor.Frame, sensor.DeviceCode) {
	if timeout == 0 {
		timeout = time.Second
	}
	if err := d.writeRegister(regCapture, 0x01); err != nil {
		return sensor.Frame{}, sensor.CodeIOError
	}

	d.readMu.Lock()
	defer d.readMu.Unlock()

	if err := d.port.SetReadTimeout(timeout); err != nil {
		return sensor.Frame{}, sensor.CodeIOError
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		packetType, data, err := d.readPacket()
		if err != nil {
			return sensor.Frame{}, sensor.CodeCaptureTimeout
		}
		d.dispatchEvent(packetType)
		if packetType != "FRAM" || len(data) < 8 {
			continue
		}
		d.mu.Lock()
		d.seq = uint64(binary.BigEndian.Uint32(data[0:4]))
		seq := d.seq
		d.mu.Unlock()
		return sensor.Frame{
			Seq:       seq,
			Width:     int(binary.BigEndian.Uint16(data[4:6])),
			Height:    int(binary.BigEndian.Uint16(data[6:8])),
			Timestamp: time.Now(),
		}, sensor.CodeOK
	}
	return sensor.Frame{}, sensor.CodeCaptureTimeout
}

func (d *Driver) FrameAvailable() bool { return false }

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

// Ioctl: device-specific controls are not routed over the bridge.
func (d *Driver) Ioctl(sensor.IoctlCode, ...any) (any, sensor.DeviceCode) {
	return nil, sensor.CodeCtlUnsupported
}

func (d *Driver) WriteReg(addr, value int) {
	_ = d.writeRegister(register{Address: uint8(addr), Length: 1}, uint8(value))
}

func (d *Driver) ReadReg(addr int) int {
	v, err := d.readRegister(register{Address: uint8(addr), Length: 1})
	if err != nil {
		return 0
	}
	return int(v[0])
}

// dispatchEvent forwards an asynchronous event packet to the
// registered callback, if any.
func (d *Driver) dispatchEvent(packetType string) {
	d.mu.Lock()
	vsync := d.vsyncCb
	frame := d.frameCb
	d.mu.Unlock()

	switch packetType {
	case "VSYN":
		if vsync != nil {
			vsync(1)
		}
	case "FRDY":
		if frame != nil {
			frame()
		}
	}
}

func (d *Driver) writeOrient() sensor.DeviceCode {
	d.mu.Lock()
	var bits uint8
	if d.hmirror {
		bits |= orientMirror
	}
	if d.vflip {
		bits |= orientFlip
	}
	if d.transpose {
		bits |= orientTranspose
	}
	d.mu.Unlock()
	return d.writeCode(regOrient, bits)
}

func (d *Driver) setAutoBit(bit uint8, enable bool) sensor.DeviceCode {
	cur, err := d.readRegister(regAutoCtrl)
	if err != nil {
		return sensor.CodeIOError
	}
	v := cur[0]
	if enable {
		v |= bit
	} else {
		v &^= bit
	}
	return d.writeCode(regAutoCtrl, v)
}

// writeCode wraps writeRegister into a DeviceCode result.
func (d *Driver) writeCode(reg register, value uint8) sensor.DeviceCode {
	if err := d.writeRegister(reg, value); err != nil {
		return sensor.CodeIOError
	}
	return sensor.CodeOK
}

func (d *Driver) writeRegister(reg register, value uint8) error {
	if reg.ReadOnly {
		return fmt.Errorf("register %02X is read-only", reg.Address)
	}
	_, err := d.sendCommand(fmt.Sprintf("WREG%02X%02XXXXX", reg.Address, value))
	if err != nil {
		return fmt.Errorf("failed to write register: %w", err)
	}
	return nil
}

func (d *Driver) writeRegister16(reg register, value uint16) error {
	if err := d.writeRegister(register{Address: reg.Address, Length: 1}, uint8(value>>8)); err != nil {
		return err
	}
	return d.writeRegister(register{Address: reg.Address + 1, Length: 1}, uint8(value))
}

func (d *Driver) writeRegister32(reg register, value uint32) error {
	for i := uint8(0); i < 4; i++ {
		shift := (3 - i) * 8
		if err := d.writeRegister(register{Address: reg.Address + i, Length: 1}, uint8(value>>shift)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) readRegister(reg register) ([]byte, error) {
	var responseData []byte
	for i := uint8(0); i < reg.Length; i++ {
		response, err := d.sendCommand(fmt.Sprintf("RREG%02XXXXXXX", reg.Address+i))
		if err != nil {
			return nil, fmt.Errorf("failed to read register: %w", err)
		}
		if len(response) == 0 {
			return nil, fmt.Errorf("failed to read register: empty response")
		}
		responseData = append(responseData, response...)
	}

	value, err := hex.DecodeString(string(responseData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode register value: %w", err)
	}
	return value, nil
}

// sendCommand frames cmd, writes it and reads packets until the
// response with the matching type arrives. Event packets seen along
// the way are dispatched.
func (d *Driver) sendCommand(cmd string) ([]byte, error) {
	cmdType := cmd[0:4]

	framed := fmt.Sprintf("   #%04X%s", len(cmd), cmd)
	if _, err := d.port.Write([]byte(framed)); err != nil {
		return nil, fmt.Errorf("failed to write to bridge: %w", err)
	}

	d.readMu.Lock()
	defer d.readMu.Unlock()

	for {
		packetType, data, err := d.readPacket()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if packetType == cmdType {
			return data, nil
		}
		d.dispatchEvent(packetType)
	}
}

// readPacket scans to the next "   #" marker and decodes one packet.
// Caller holds readMu.
func (d *Driver) readPacket() (packetType string, data []byte, err error) {
	header := make([]byte, 12)
	if _, err = io.ReadFull(d.port, header); err != nil {
		return "", nil, fmt.Errorf("failed to read header: %w", err)
	}
	for string(header[:4]) != "   #" {
		copy(header, header[1:])
		if _, err = io.ReadFull(d.port, header[11:]); err != nil {
			return "", nil, fmt.Errorf("failed to sync to packet: %w", err)
		}
	}

	packetType = string(header[8:12])

	rawLen, err := hex.DecodeString(string(header[4:8]))
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode packet length: %w", err)
	}
	// The length field covers the type and length fields themselves, so
	// anything below 8 cannot be a well-formed packet.
	lenField := binary.BigEndian.Uint16(rawLen)
	if lenField < 8 {
		return "", nil, fmt.Errorf("invalid packet length %d", lenField)
	}
	dataLength := lenField - 8

	data = make([]byte, dataLength)
	if _, err = io.ReadFull(d.port, data); err != nil {
		return "", nil, fmt.Errorf("failed to read payload: %w", err)
	}

	crc := make([]byte, 4)
	if _, err = io.ReadFull(d.port, crc); err != nil {
		return "", nil, fmt.Errorf("failed to read CRC: %w", err)
	}

	return packetType, data, nil
}

func boolBit(enable bool, bit uint8) uint8 {
	if enable {
		return bit
	}
	return 0
}

func int8Byte(v int) uint8 {
	if v < -128 {
		v = -128
	}
	if v > 127 {
		v = 127
	}
	return uint8(int8(v))
}
