package detector

import (
	"fmt"

	"github.com/ericlevine/cornerscan"
)

// side identifies one edge of the search rectangle.
type side int

const (
	sideRight side = iota
	sideBottom
	sideLeft
	sideTop
)

// expansionOrder is the order sides are grown within one pass. Bottom and
// top scan with the left/right range already updated in the same pass.
var expansionOrder = [...]side{sideRight, sideBottom, sideLeft, sideTop}

func (s side) String() string {
	switch s {
	case sideRight:
		return "right"
	case sideBottom:
		return "bottom"
	case sideLeft:
		return "left"
	case sideTop:
		return "top"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// sideState records whether a dark pixel has ever been seen on a side. Until
// it has, the side keeps moving across light lines looking for the symbol.
type sideState struct {
	found bool
}

// expand grows the seed rectangle until a full pass moves no side.
//
//	.___.
//	|   |    right, bottom, left, top, repeat
//	.___.
func (d *cornerDetector) expand() (Bounds, error) {
	b := d.seed
	var states [len(expansionOrder)]sideState
	for {
		moved := false
		for _, s := range expansionOrder {
			var grown bool
			var err error
			b, grown, err = d.growSide(b, s, &states[s])
			if err != nil {
				return Bounds{}, err
			}
			moved = moved || grown
		}
		if !moved {
			return b, nil
		}
	}
}

// growSide pushes side s outward while its scan line holds a dark pixel, and
// across light lines while no dark pixel has been seen on it yet. A side that
// already touched the symbol and reaches the image edge stays on the last
// line inside the image; one that reaches the edge without ever touching a
// dark pixel fails the detection.
func (d *cornerDetector) growSide(b Bounds, s side, st *sideState) (Bounds, bool, error) {
	grown := false
	for {
		if d.lineContainsBlack(b, s) {
			st.found = true
		} else if st.found {
			return b, grown, nil
		}
		next, ok := d.step(b, s)
		if !ok {
			if st.found {
				return b, grown, nil
			}
			return Bounds{}, grown, fmt.Errorf("%w: size exceeded on %s side", cornerscan.ErrNotFound, s)
		}
		b = next
		grown = true
	}
}

// lineContainsBlack scans the current line of side s.
func (d *cornerDetector) lineContainsBlack(b Bounds, s side) bool {
	switch s {
	case sideRight:
		return d.containsBlackPoint(b.Up, b.Down, b.Right, false)
	case sideBottom:
		return d.containsBlackPoint(b.Left, b.Right, b.Down, true)
	case sideLeft:
		return d.containsBlackPoint(b.Up, b.Down, b.Left, false)
	default:
		return d.containsBlackPoint(b.Left, b.Right, b.Up, true)
	}
}

// step moves side s one pixel outward, reporting false if that would leave
// the image.
func (d *cornerDetector) step(b Bounds, s side) (Bounds, bool) {
	switch s {
	case sideRight:
		if b.Right+1 >= d.width {
			return b, false
		}
		b.Right++
	case sideBottom:
		if b.Down+1 >= d.height {
			return b, false
		}
		b.Down++
	case sideLeft:
		if b.Left-1 < 0 {
			return b, false
		}
		b.Left--
	default:
		if b.Up-1 < 0 {
			return b, false
		}
		b.Up--
	}
	return b, true
}
