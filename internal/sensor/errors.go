package sensor

import (
	"errors"
	"fmt"
)

var (
	// ErrArgumentShape flags a call with the wrong argument arity or
	// type. No driver call is made.
	ErrArgumentShape = errors.New("invalid argument shape")

	// ErrInvalidArgument flags a value outside its legal domain, e.g.
	// a gain ceiling not in the supported set.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported flags an unknown ioctl code, or one whose
	// hardware capability is not configured in.
	ErrUnsupported = errors.New("operation not supported")

	// ErrTimeout flags a bounded wait that elapsed.
	ErrTimeout = errors.New("operation timed out")
)

// DeviceCode is the integer status every driver operation returns.
// Zero is success; the nonzero values are owned by the driver
// collaborator and consumed opaquely here.
type DeviceCode int

const (
	CodeOK               DeviceCode = 0
	CodeCtlFailed        DeviceCode = -1
	CodeCtlUnsupported   DeviceCode = -2
	CodeNotDetected      DeviceCode = -3
	CodeUnsupportedChip  DeviceCode = -4
	CodeInitFailed       DeviceCode = -5
	CodeIOError          DeviceCode = -6
	CodeCaptureFailed    DeviceCode = -7
	CodeCaptureTimeout   DeviceCode = -8
	CodeInvalidFramesize DeviceCode = -9
	CodeInvalidPixformat DeviceCode = -10
	CodeInvalidWindow    DeviceCode = -11
	CodeInvalidFramerate DeviceCode = -12
	CodeInvalidArgument  DeviceCode = -13
	CodeFramebuffer      DeviceCode = -14
	CodeWouldBlock       DeviceCode = -15
)

// codeText maps device codes to human-readable messages.
var codeText = map[DeviceCode]string{
	CodeCtlFailed:        "sensor control failed",
	CodeCtlUnsupported:   "unsupported sensor control",
	CodeNotDetected:      "failed to detect the image sensor",
	CodeUnsupportedChip:  "image sensor is not supported",
	CodeInitFailed:       "failed to initialize the image sensor",
	CodeIOError:          "sensor bus I/O error",
	CodeCaptureFailed:    "failed to capture the frame",
	CodeCaptureTimeout:   "failed to capture the frame in time",
	CodeInvalidFramesize: "frame size is not supported or not set",
	CodeInvalidPixformat: "pixel format is not supported or not set",
	CodeInvalidWindow:    "invalid readout window",
	CodeInvalidFramerate: "invalid frame rate",
	CodeInvalidArgument:  "invalid argument",
	CodeFramebuffer:      "frame buffer error",
	CodeWouldBlock:       "no frame available",
}

// DeviceError wraps a nonzero DeviceCode returned by the driver.
type DeviceError struct {
	Code DeviceCode
}

func (e *DeviceError) Error() string {
	if text, ok := codeText[e.Code]; ok {
		return text
	}
	return fmt.Sprintf("device error %d", e.Code)
}

// Is lets errors.Is(err, ErrTimeout) match a capture-timeout device
// code, so callers handle driver-side and facade-side timeouts alike.
func (e *DeviceError) Is(target error) bool {
	return target == ErrTimeout && e.Code == CodeCaptureTimeout
}

// codeErr translates a DeviceCode into an error, nil on success.
func codeErr(code DeviceCode) error {
	if code == CodeOK {
		return nil
	}
	return &DeviceError{Code: code}
}
