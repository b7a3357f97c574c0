// Package cornerscan locates the four corners of a rectangular two-dimensional
// symbol in a binarized image. The detector itself lives in the detector
// package; this package holds the shared point, bitmap and luminance types.
package cornerscan

import (
	"fmt"
	"math"
)

// ResultPoint represents a point of interest in an image.
type ResultPoint struct {
	X, Y float64
}

// String formats the point as "(x,y)" with two decimals.
func (p ResultPoint) String() string {
	return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y)
}

// Distance returns the distance between two points.
func Distance(a, b ResultPoint) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y))
}
