// Package orient derives sensor orientation flags from inertial
// pitch/roll readings.
//
// The sensor can mirror, flip and transpose its readout independently.
// Only four of the eight flag combinations are produced here, one per
// cardinal roll angle, so the captured image stays upright no matter
// how the device is held. Near pitch 90 and 270 the roll reading is
// unreliable, so a dead zone suppresses updates there and whatever
// flags the driver already carries stay in effect.
package orient

// Flags are the three independent orientation transforms the driver
// applies as register bits. The classifier only ever emits one of the
// four cardinal combinations below.
type Flags struct {
	Mirror    bool
	Flip      bool
	Transpose bool
}

// The four legal classifier outputs.
var (
	Upright      = Flags{Mirror: false, Flip: false, Transpose: false}
	RotatedLeft  = Flags{Mirror: false, Flip: true, Transpose: true}
	UpsideDown   = Flags{Mirror: true, Flip: true, Transpose: false}
	RotatedRight = Flags{Mirror: true, Flip: false, Transpose: true}
)

// Zones parameterizes the classifier: the pitch dead zone half-width
// around 90/270 and the roll active zone half-width around each
// cardinal angle, both in degrees.
type Zones struct {
	PitchDeadzone  float64
	RollActivezone float64
}

// Two call sites, two parameterizations. Reset uses the full 45° roll
// range to establish a confident initial orientation; Snapshot narrows
// to 35° so readings near a sector boundary cannot oscillate between
// captures. Keep these distinct.
var (
	ResetZones    = Zones{PitchDeadzone: 10, RollActivezone: 45}
	SnapshotZones = Zones{PitchDeadzone: 10, RollActivezone: 35}
)

// Classify maps a pitch/roll reading (degrees, [0, 360)) to orientation
// flags. ok is false when no update should be applied: either pitch is
// inside the dead zone around 90 or 270, or roll falls outside every
// active sector.
//
// Sector bounds are inclusive on the lower edge and exclusive on the
// upper edge, and the upright sector wraps across 0/360. The exact
// comparisons are load-bearing: they guarantee adjacent sectors cannot
// both match at a shared boundary.
func Classify(pitch, roll float64, z Zones) (flags Flags, ok bool) {
	d := z.PitchDeadzone
	if !((pitch <= 90-d || 90+d < pitch) && (pitch <= 270-d || 270+d < pitch)) {
		return Flags{}, false
	}

	a := z.RollActivezone
	switch {
	case 360-a <= roll || roll < 0+a: // center is 0/360, upright
		return Upright, true
	case 270-a <= roll && roll < 270+a: // center is 270, rotated right
		return RotatedRight, true
	case 180-a <= roll && roll < 180+a: // center is 180, upside down
		return UpsideDown, true
	case 90-a <= roll && roll < 90+a: // center is 90, rotated left
		return RotatedLeft, true
	}
	return Flags{}, false
}
