package detector

import (
	"fmt"
	"image"

	"github.com/ericlevine/cornerscan"
)

// Quadrant names one corner of the symbol. Its value is the corner's index
// in Corners.
type Quadrant int

const (
	TopLeft Quadrant = iota
	TopRight
	BottomRight
	BottomLeft
)

// quadrants lists the corners in result order.
var quadrants = [...]Quadrant{TopLeft, TopRight, BottomRight, BottomLeft}

func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case BottomLeft:
		return "bottom-left"
	default:
		return fmt.Sprintf("quadrant(%d)", int(q))
	}
}

// maximizeX reports whether the corner is the largest dark x in its area.
func (q Quadrant) maximizeX() bool { return q == TopRight || q == BottomRight }

// maximizeY reports whether the corner is the largest dark y in its area.
func (q Quadrant) maximizeY() bool { return q == BottomRight || q == BottomLeft }

// inward returns the unit direction, per axis, that points from the corner
// toward the inside of the symbol.
func (q Quadrant) inward() (sx, sy float32) {
	sx, sy = 1, 1
	if q.maximizeX() {
		sx = -1
	}
	if q.maximizeY() {
		sy = -1
	}
	return sx, sy
}

// Reference sizes of the corner search heuristic. The ratio between them and
// the float32 arithmetic they enter are part of the detector's tuning.
const (
	areaReference   float32 = 16
	marginReference float32 = 4
)

// cornerMargins sizes the corner search areas of one detection.
type cornerMargins struct {
	// deltaX and deltaY are how far an area reaches outside the bounds.
	deltaX, deltaY        int
	areaWidth, areaHeight int
}

func newCornerMargins(b Bounds, modules2 int) cornerMargins {
	width := float32(b.Width())
	height := float32(b.Height())
	sampler := areaReference / float32(modules2)
	sampler2 := marginReference / float32(modules2)
	deltaX := int(width * sampler2)
	deltaY := int(height * sampler2)
	return cornerMargins{
		deltaX:     deltaX,
		deltaY:     deltaY,
		areaWidth:  deltaX + int(width*sampler),
		areaHeight: deltaY + int(height*sampler),
	}
}

// area returns the search rectangle of quadrant q. It straddles the matching
// corner of b, reaching deltaX/deltaY outside and the rest of the area
// inside. Max is exclusive.
//
//	A-------              -------B
//	|   b.Up               |     |
//	|   ---|--------------|---   |
//	|   |  |              |  |   |
//	-------                -------
//	    |                    |
//	-------                -------
//	|   |  |              |  |   |
//	|   ---|--------------|---   |
//	|      |   b.Down     |      |
//	D-------              -------C
func (q Quadrant) area(b Bounds, m cornerMargins) image.Rectangle {
	var r image.Rectangle
	if q.maximizeX() {
		r.Max.X = b.Right + m.deltaX
		r.Min.X = r.Max.X - m.areaWidth
	} else {
		r.Min.X = b.Left - m.deltaX
		r.Max.X = r.Min.X + m.areaWidth
	}
	if q.maximizeY() {
		r.Max.Y = b.Down + m.deltaY
		r.Min.Y = r.Max.Y - m.areaHeight
	} else {
		r.Min.Y = b.Up - m.deltaY
		r.Max.Y = r.Min.Y + m.areaHeight
	}
	return r
}

// findCorners extracts the raw corner of every quadrant of b.
func (d *cornerDetector) findCorners(b Bounds) (Corners, error) {
	m := newCornerMargins(b, d.modules2)
	var raw Corners
	for _, q := range quadrants {
		p, err := d.cornerFromArea(q, q.area(b, m))
		if err != nil {
			return Corners{}, err
		}
		raw[q] = p
	}
	return raw, nil
}

// cornerFromArea scans area, clipped to the image, and returns the extreme
// dark x and the extreme dark y sought by q. The two coordinates may come
// from different pixels.
func (d *cornerDetector) cornerFromArea(q Quadrant, area image.Rectangle) (cornerscan.ResultPoint, error) {
	area = area.Intersect(image.Rect(0, 0, d.width, d.height))
	maxX, maxY := q.maximizeX(), q.maximizeY()

	found := false
	resX, resY := 0, 0
	for x := area.Min.X; x < area.Max.X; x++ {
		for y := area.Min.Y; y < area.Max.Y; y++ {
			if !d.image.Get(x, y) {
				continue
			}
			if !found {
				resX, resY, found = x, y, true
				continue
			}
			if maxX {
				resX = max(resX, x)
			} else {
				resX = min(resX, x)
			}
			if maxY {
				resY = max(resY, y)
			} else {
				resY = min(resY, y)
			}
		}
	}
	if !found {
		return cornerscan.ResultPoint{}, fmt.Errorf("%w: no dark pixel in %s corner area %v",
			cornerscan.ErrNotFound, q, area)
	}
	return cornerscan.ResultPoint{X: float64(resX), Y: float64(resY)}, nil
}
