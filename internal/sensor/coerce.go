package sensor

import (
	"fmt"
	"math"
)

// UnsetGain is the sentinel for auto-gain and white-balance overrides
// the caller left unspecified; the driver applies its own default.
var UnsetGain = math.NaN()

// UnsetExposure is the sentinel for an unspecified exposure override.
const UnsetExposure = -1

// DeviceQuality converts a user compression quality in [0, 100]
// (higher is better) to the device scale [0, 255] (lower is better).
// Integer arithmetic, truncating division.
func DeviceQuality(quality int) (int, error) {
	if quality < 0 || quality > 100 {
		return 0, fmt.Errorf("%w: quality %d outside [0, 100]", ErrInvalidArgument, quality)
	}
	quality = 100 - quality // invert: user scale is reversed
	return 255 * quality / 100, nil
}

// gainCeilingFromMultiple maps the user-facing gain multiple onto the
// device enumeration. Only the discrete powers of two up to 128 exist.
func gainCeilingFromMultiple(multiple int) (GainCeiling, error) {
	switch multiple {
	case 2:
		return GainCeiling2X, nil
	case 4:
		return GainCeiling4X, nil
	case 8:
		return GainCeiling8X, nil
	case 16:
		return GainCeiling16X, nil
	case 32:
		return GainCeiling32X, nil
	case 64:
		return GainCeiling64X, nil
	case 128:
		return GainCeiling128X, nil
	default:
		return 0, fmt.Errorf("%w: gain ceiling %d not in {2, 4, 8, 16, 32, 64, 128}", ErrInvalidArgument, multiple)
	}
}
