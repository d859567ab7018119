// Package imu abstracts the attitude source consumed by the
// orientation controller. Acquisition itself (I2C, fusion, calibration)
// lives with the hardware; this package only defines the reading
// contract and a static source for tests and IMU-less boards.
package imu

import "sync"

// AttitudeSource reports the device attitude in degrees, both in
// [0, 360). Readings are taken fresh on every call; nothing is cached
// between invocations.
type AttitudeSource interface {
	PitchRoll() (pitch, roll float64, err error)
}

// Static is an AttitudeSource with a settable fixed reading. Useful on
// boards without an IMU and in tests.
type Static struct {
	mu    sync.RWMutex
	pitch float64
	roll  float64
}

// NewStatic returns a Static source reporting the given attitude.
func NewStatic(pitch, roll float64) *Static {
	return &Static{pitch: pitch, roll: roll}
}

// PitchRoll returns the current fixed reading.
func (s *Static) PitchRoll() (pitch, roll float64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pitch, s.roll, nil
}

// Set replaces the fixed reading.
func (s *Static) Set(pitch, roll float64) {
	s.mu.Lock()
	s.pitch = pitch
	s.roll = roll
	s.mu.Unlock()
}
