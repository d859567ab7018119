package geometry_test

import (
	"errors"
	"testing"

	"github.com/visiona/sensorctl/internal/geometry"
)

var vga = geometry.Rect{X: 0, Y: 0, W: 640, H: 480}

// TestResolveCentered validates centered placement: a (w, h) request is
// placed at (full.w/2 - w/2, full.h/2 - h/2) with truncating division.
func TestResolveCentered(t *testing.T) {
	cases := []struct {
		name string
		req  geometry.Centered
		want geometry.Rect
	}{
		{"qvga in vga", geometry.Centered{W: 320, H: 240}, geometry.Rect{X: 160, Y: 120, W: 320, H: 240}},
		{"odd size truncates", geometry.Centered{W: 321, H: 241}, geometry.Rect{X: 160, Y: 120, W: 321, H: 241}},
		{"full frame", geometry.Centered{W: 640, H: 480}, vga},
		{"single pixel", geometry.Centered{W: 1, H: 1}, geometry.Rect{X: 320, Y: 240, W: 1, H: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := geometry.Resolve(vga, tc.req)
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Resolve() = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestResolveExplicit validates explicit (x, y, w, h) placement with
// clipping to the frame bounds.
func TestResolveExplicit(t *testing.T) {
	cases := []struct {
		name string
		req  geometry.Box
		want geometry.Rect
	}{
		{"interior", geometry.Box{X: 10, Y: 20, W: 100, H: 50}, geometry.Rect{X: 10, Y: 20, W: 100, H: 50}},
		{"clips right edge", geometry.Box{X: 600, Y: 0, W: 100, H: 100}, geometry.Rect{X: 600, Y: 0, W: 40, H: 100}},
		{"clips bottom edge", geometry.Box{X: 0, Y: 400, W: 100, H: 200}, geometry.Rect{X: 0, Y: 400, W: 100, H: 80}},
		{"negative origin clips to zero", geometry.Box{X: -50, Y: -50, W: 100, H: 100}, geometry.Rect{X: 0, Y: 0, W: 50, H: 50}},
		{"oversized clips to full", geometry.Box{X: -100, Y: -100, W: 10000, H: 10000}, vga},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := geometry.Resolve(vga, tc.req)
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Resolve() = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestResolveErrors validates the failure order: dimension check first,
// overlap check second. A request with both defects reports dimensions.
func TestResolveErrors(t *testing.T) {
	cases := []struct {
		name string
		req  geometry.Request
		want error
	}{
		{"zero width", geometry.Box{X: 0, Y: 0, W: 0, H: 100}, geometry.ErrInvalidDimensions},
		{"zero height", geometry.Centered{W: 100, H: 0}, geometry.ErrInvalidDimensions},
		{"negative width", geometry.Box{X: 0, Y: 0, W: -5, H: 100}, geometry.ErrInvalidDimensions},
		{"fully right of frame", geometry.Box{X: 640, Y: 0, W: 10, H: 10}, geometry.ErrNoOverlap},
		{"fully below frame", geometry.Box{X: 0, Y: 480, W: 10, H: 10}, geometry.ErrNoOverlap},
		{"fully left of frame", geometry.Box{X: -20, Y: 0, W: 10, H: 10}, geometry.ErrNoOverlap},
		{"disjoint and zero height", geometry.Box{X: 1000, Y: 1000, W: 10, H: 0}, geometry.ErrInvalidDimensions},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := geometry.Resolve(vga, tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("Resolve() error = %v, want %v", err, tc.want)
			}
		})
	}
}

// TestFromValues validates the raw sequence forms: 2 values center,
// 4 values place explicitly, anything else is a shape error.
func TestFromValues(t *testing.T) {
	req, err := geometry.FromValues([]int{320, 240})
	if err != nil {
		t.Fatalf("FromValues(2) failed: %v", err)
	}
	win, err := geometry.Resolve(vga, req)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if want := (geometry.Rect{X: 160, Y: 120, W: 320, H: 240}); win != want {
		t.Errorf("centered window = %v, want %v", win, want)
	}

	req, err = geometry.FromValues([]int{10, 20, 30, 40})
	if err != nil {
		t.Fatalf("FromValues(4) failed: %v", err)
	}
	win, err = geometry.Resolve(vga, req)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if want := (geometry.Rect{X: 10, Y: 20, W: 30, H: 40}); win != want {
		t.Errorf("explicit window = %v, want %v", win, want)
	}

	for _, vals := range [][]int{nil, {1}, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		if _, err := geometry.FromValues(vals); !errors.Is(err, geometry.ErrBadShape) {
			t.Errorf("FromValues(%v) error = %v, want ErrBadShape", vals, err)
		}
	}
}

func TestRectOverlaps(t *testing.T) {
	a := geometry.Rect{X: 0, Y: 0, W: 10, H: 10}

	if !a.Overlaps(geometry.Rect{X: 9, Y: 9, W: 5, H: 5}) {
		t.Error("corner overlap not detected")
	}
	// Edge-adjacent rectangles share no pixels.
	if a.Overlaps(geometry.Rect{X: 10, Y: 0, W: 5, H: 5}) {
		t.Error("adjacent rect reported as overlapping")
	}
	if a.Overlaps(geometry.Rect{X: 0, Y: 10, W: 5, H: 5}) {
		t.Error("adjacent rect reported as overlapping")
	}
}
