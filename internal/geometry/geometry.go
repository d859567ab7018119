// Package geometry implements crop-window negotiation against the
// sensor's native frame bounds.
//
// A caller requests a region of interest either as a centered (w, h)
// pair or as an explicit (x, y, w, h) box. Resolve validates the
// request against the full frame and clips it so the driver is never
// asked for a window outside the readout array.
package geometry

import (
	"errors"
	"fmt"
)

var (
	// ErrBadShape is returned when a window request is neither a
	// (w, h) pair nor an (x, y, w, h) box.
	ErrBadShape = errors.New("window must be (x, y, w, h) or (w, h)")

	// ErrInvalidDimensions is returned when a requested window has a
	// width or height below one pixel.
	ErrInvalidDimensions = errors.New("invalid window dimensions")

	// ErrNoOverlap is returned when a requested window has no area in
	// common with the full frame.
	ErrNoOverlap = errors.New("window does not overlap the frame")
)

// Rect is an integer pixel rectangle. W and H are at least 1 for any
// rectangle produced by Resolve.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Overlaps reports whether r and o share a nonzero-area intersection.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Intersect returns the intersection of r and o. Only meaningful when
// Overlaps(o) is true.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.W, o.X+o.W)
	y2 := min(r.Y+r.H, o.Y+o.H)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.X, r.Y, r.W, r.H)
}

// Request is a window request: either Centered or Box.
type Request interface {
	// place positions the request inside the full frame, without
	// validating or clipping it.
	place(full Rect) Rect
}

// Centered requests a w-by-h window centered on the full frame.
// Centering uses integer division, so odd remainders land one pixel
// toward the origin.
type Centered struct {
	W int
	H int
}

func (c Centered) place(full Rect) Rect {
	return Rect{
		X: full.W/2 - c.W/2,
		Y: full.H/2 - c.H/2,
		W: c.W,
		H: c.H,
	}
}

// Box requests an explicit window, used exactly as given.
type Box struct {
	X int
	Y int
	W int
	H int
}

func (b Box) place(Rect) Rect {
	return Rect(b)
}

// FromValues builds a Request from a raw integer sequence: a 2-tuple is
// a Centered request, a 4-tuple a Box. Any other length fails with
// ErrBadShape. This is the wire shape used by the windowing operation
// and the readout-window and motion-window ioctls alike.
func FromValues(vals []int) (Request, error) {
	switch len(vals) {
	case 2:
		return Centered{W: vals[0], H: vals[1]}, nil
	case 4:
		return Box{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
	default:
		return nil, ErrBadShape
	}
}

// Resolve validates req against the full frame and returns the clipped
// window. Validation is fail-fast: dimensions first, then overlap, then
// the request is clipped to the intersection so it never exceeds the
// native bounds even when it partially overflows them.
func Resolve(full Rect, req Request) (Rect, error) {
	r := req.place(full)

	if r.W < 1 || r.H < 1 {
		return Rect{}, ErrInvalidDimensions
	}
	if !r.Overlaps(full) {
		return Rect{}, ErrNoOverlap
	}
	return r.Intersect(full), nil
}
