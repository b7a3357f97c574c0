package detector

import "github.com/ericlevine/cornerscan"

// centerCorners moves each raw corner inward by half a module on both axes.
// The module size is estimated from the top edge (x) and the right edge (y)
// of the raw corners.
func centerCorners(raw Corners, modules2 int) Corners {
	n := float32(modules2)
	xCorrection := (float32(raw[TopRight].X) - float32(raw[TopLeft].X)) / n
	yCorrection := (float32(raw[BottomRight].Y) - float32(raw[TopRight].Y)) / n

	var out Corners
	for _, q := range quadrants {
		sx, sy := q.inward()
		out[q] = cornerscan.ResultPoint{
			X: float64(float32(raw[q].X) + sx*xCorrection),
			Y: float64(float32(raw[q].Y) + sy*yCorrection),
		}
	}
	return out
}
