// Package detector locates the four outer corners of a rectangular
// high-density symbol in a binary image, starting from a seed point that is
// believed to lie inside the symbol.
//
// Detection runs in three stages. The seed rectangle is grown outward, one
// side at a time, until every side rests on the first light line beyond the
// dark pixels it crossed, or on the last line inside the image when the
// symbol reaches the image edge on that side. Each corner of the grown rectangle is then searched,
// inside a margin proportional to the expected module count, for the most
// extreme dark pixel. Finally each corner is pulled inward by half a module so
// that it lands on the center of the corner module rather than on the
// quiet-zone edge.
//
// The detector only reads the bitmap and keeps no state between calls, so
// independent detections may run concurrently over the same bitmap.
package detector

import (
	"fmt"

	"github.com/ericlevine/cornerscan"
)

// Bitmap is the read-only binary image the detector scans. Get reports
// whether the pixel at (x, y) is dark. *bitutil.BitMatrix satisfies it.
type Bitmap interface {
	Width() int
	Height() int
	Get(x, y int) bool
}

// Request describes one detection: the seed center, the seed diameter and
// the expected number of modules per symbol side.
type Request struct {
	SeedSize   int
	X, Y       int
	MatrixSize int
}

// Bounds is the integer rectangle produced by boundary expansion. Each edge
// is a pixel line: the first all-light line outside the symbol, or the last
// line inside the image when the symbol touches the image edge on that side.
type Bounds struct {
	Left, Right, Up, Down int
}

// Width returns Right-Left.
func (b Bounds) Width() int { return b.Right - b.Left }

// Height returns Down-Up.
func (b Bounds) Height() int { return b.Down - b.Up }

// Corners holds the four corrected corner centers in the order top-left,
// top-right, bottom-right, bottom-left.
type Corners [4]cornerscan.ResultPoint

// At returns the corner of quadrant q.
func (c Corners) At(q Quadrant) cornerscan.ResultPoint { return c[q] }

// TopLeft returns the top-left corner.
func (c Corners) TopLeft() cornerscan.ResultPoint { return c[TopLeft] }

// TopRight returns the top-right corner.
func (c Corners) TopRight() cornerscan.ResultPoint { return c[TopRight] }

// BottomRight returns the bottom-right corner.
func (c Corners) BottomRight() cornerscan.ResultPoint { return c[BottomRight] }

// BottomLeft returns the bottom-left corner.
func (c Corners) BottomLeft() cornerscan.ResultPoint { return c[BottomLeft] }

// Points returns the corners as a slice in clockwise order from top-left.
func (c Corners) Points() []cornerscan.ResultPoint {
	return []cornerscan.ResultPoint{c[0], c[1], c[2], c[3]}
}

// Detect finds the four corner centers of the symbol around the seed in req.
// Every failure wraps cornerscan.ErrNotFound.
func Detect(image Bitmap, req Request) (Corners, error) {
	corners, _, err := DetectWithBounds(image, req)
	return corners, err
}

// DetectWithBounds is Detect that also returns the expanded rectangle the
// corners were extracted from.
func DetectWithBounds(image Bitmap, req Request) (Corners, Bounds, error) {
	d, err := newCornerDetector(image, req)
	if err != nil {
		return Corners{}, Bounds{}, err
	}
	return d.detect()
}

// cornerDetector holds the per-call inputs. It is never reused.
type cornerDetector struct {
	image  Bitmap
	width  int
	height int
	seed   Bounds
	// modules2 is twice the requested matrix size; both the margin bias and
	// the center correction are expressed in half modules.
	modules2 int
}

func newCornerDetector(image Bitmap, req Request) (*cornerDetector, error) {
	if req.MatrixSize < 1 || req.SeedSize < 0 {
		return nil, fmt.Errorf("%w: invalid request (seed size %d, matrix size %d)",
			cornerscan.ErrNotFound, req.SeedSize, req.MatrixSize)
	}
	w := image.Width()
	h := image.Height()

	halfsize := req.SeedSize / 2
	seed := Bounds{
		Left:  req.X - halfsize,
		Right: req.X + halfsize,
		Up:    req.Y - halfsize,
		Down:  req.Y + halfsize,
	}
	if seed.Up < 0 || seed.Left < 0 || seed.Down >= h || seed.Right >= w {
		return nil, fmt.Errorf("%w: seed rectangle %+v outside %dx%d image",
			cornerscan.ErrNotFound, seed, w, h)
	}
	return &cornerDetector{
		image:    image,
		width:    w,
		height:   h,
		seed:     seed,
		modules2: req.MatrixSize * 2,
	}, nil
}

func (d *cornerDetector) detect() (Corners, Bounds, error) {
	bounds, err := d.expand()
	if err != nil {
		return Corners{}, Bounds{}, err
	}
	raw, err := d.findCorners(bounds)
	if err != nil {
		return Corners{}, Bounds{}, err
	}
	return centerCorners(raw, d.modules2), bounds, nil
}

// containsBlackPoint checks whether a line segment contains a dark pixel.
// When horizontal is true, fixed is the y coordinate and a..b are x values.
// When horizontal is false, fixed is the x coordinate and a..b are y values.
// Both ends are inclusive.
func (d *cornerDetector) containsBlackPoint(a, b, fixed int, horizontal bool) bool {
	if horizontal {
		for x := a; x <= b; x++ {
			if d.image.Get(x, fixed) {
				return true
			}
		}
	} else {
		for y := a; y <= b; y++ {
			if d.image.Get(fixed, y) {
				return true
			}
		}
	}
	return false
}
