package uart

// Register map of the bench bridge firmware. Multi-byte registers are
// big-endian and read one byte per RREG exchange.
type register struct {
	Address  uint8
	Length   uint8
	ReadOnly bool
}

var (
	regChipID     = register{Address: 0x00, Length: 2, ReadOnly: true}
	regControl    = register{Address: 0x02, Length: 1}
	regPower      = register{Address: 0x03, Length: 1}
	regPixformat  = register{Address: 0x04, Length: 1}
	regFramesize  = register{Address: 0x05, Length: 1}
	regFramerate  = register{Address: 0x06, Length: 1}
	regWindowX    = register{Address: 0x08, Length: 2}
	regWindowY    = register{Address: 0x0A, Length: 2}
	regWindowW    = register{Address: 0x0C, Length: 2}
	regWindowH    = register{Address: 0x0E, Length: 2}
	regOrient     = register{Address: 0x10, Length: 1}
	regQuality    = register{Address: 0x11, Length: 1}
	regBrightness = register{Address: 0x12, Length: 1}
	regContrast   = register{Address: 0x13, Length: 1}
	regSaturation = register{Address: 0x14, Length: 1}
	regGainCeil   = register{Address: 0x15, Length: 1}
	regColorbar   = register{Address: 0x16, Length: 1}
	regEffect     = register{Address: 0x17, Length: 1}
	regAutoCtrl   = register{Address: 0x18, Length: 1}
	regGain       = register{Address: 0x19, Length: 1}
	regExposure   = register{Address: 0x1A, Length: 4}
	regCapture    = register{Address: 0x20, Length: 1}
)

// regControl bits.
const (
	ctlReset = 0x01
)

// regPower bits.
const (
	pwrSleep    = 0x01
	pwrShutdown = 0x02
)

// regOrient bits.
const (
	orientMirror    = 0x01
	orientFlip      = 0x02
	orientTranspose = 0x04
)

// regAutoCtrl bits.
const (
	autoGain     = 0x01
	autoExposure = 0x02
	autoWhitebal = 0x04
)
