package binarizer

import (
	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/bitutil"
)

const (
	blockSizePower   = 3
	blockSize        = 1 << blockSizePower
	minimumDimension = blockSize * 5
	minDynamicRange  = 24
)

// Hybrid thresholds each 8x8 block against the average black point of the
// surrounding 5x5 blocks. It copes with shadows and gradients in camera
// frames; images smaller than 40 pixels on a side fall back to the global
// histogram.
type Hybrid struct {
	*GlobalHistogram
}

// NewHybrid creates a new Hybrid binarizer.
func NewHybrid(source cornerscan.LuminanceSource) *Hybrid {
	return &Hybrid{GlobalHistogram: NewGlobalHistogram(source)}
}

// BlackMatrix returns the binarized matrix using local thresholding.
func (h *Hybrid) BlackMatrix() (*bitutil.BitMatrix, error) {
	source := h.LuminanceSource()
	width := source.Width()
	height := source.Height()
	if width < minimumDimension || height < minimumDimension {
		return h.GlobalHistogram.BlackMatrix()
	}

	g := blockGrid{
		luminances: source.Matrix(),
		width:      width,
		height:     height,
		subWidth:   (width + blockSize - 1) >> blockSizePower,
		subHeight:  (height + blockSize - 1) >> blockSizePower,
	}
	blackPoints := g.blackPoints()
	matrix := bitutil.NewBitMatrix(width, height)
	g.threshold(blackPoints, matrix)
	return matrix, nil
}

// blockGrid views a luminance buffer as blockSize x blockSize tiles. The last
// row and column of tiles are shifted inward so they stay inside the image.
type blockGrid struct {
	luminances          []byte
	width, height       int
	subWidth, subHeight int
}

func (g blockGrid) offset(bx, by int) (xoffset, yoffset int) {
	return min(bx<<blockSizePower, g.width-blockSize), min(by<<blockSizePower, g.height-blockSize)
}

// blackPoints estimates one black point per block. Low contrast blocks take
// half their minimum, or the neighbours' estimate when that is darker, so a
// flat block inside a symbol is not mistaken for background.
func (g blockGrid) blackPoints() [][]int {
	points := make([][]int, g.subHeight)
	for by := range points {
		points[by] = make([]int, g.subWidth)
		for bx := range points[by] {
			xoffset, yoffset := g.offset(bx, by)
			sum, mn, mx := g.blockStats(xoffset, yoffset)

			average := sum >> (blockSizePower * 2)
			if mx-mn <= minDynamicRange {
				average = mn / 2
				if by > 0 && bx > 0 {
					neighbours := (points[by-1][bx] + 2*points[by][bx-1] + points[by-1][bx-1]) / 4
					if mn < neighbours {
						average = neighbours
					}
				}
			}
			points[by][bx] = average
		}
	}
	return points
}

// blockStats returns the luminance sum, minimum and maximum of one block.
// Once a row shows enough contrast the remaining rows only feed the sum.
func (g blockGrid) blockStats(xoffset, yoffset int) (sum, mn, mx int) {
	mn = 0xFF
	for yy := 0; yy < blockSize; yy++ {
		row := g.luminances[(yoffset+yy)*g.width+xoffset:]
		for _, p := range row[:blockSize] {
			pixel := int(p)
			sum += pixel
			mn = min(mn, pixel)
			mx = max(mx, pixel)
		}
		if mx-mn > minDynamicRange {
			for yy++; yy < blockSize; yy++ {
				row = g.luminances[(yoffset+yy)*g.width+xoffset:]
				for _, p := range row[:blockSize] {
					sum += int(p)
				}
			}
		}
	}
	return sum, mn, mx
}

// threshold sets every pixel darker than or equal to its 5x5 block
// neighbourhood average.
func (g blockGrid) threshold(blackPoints [][]int, matrix *bitutil.BitMatrix) {
	for by := 0; by < g.subHeight; by++ {
		top := clamp(by, 2, g.subHeight-3)
		for bx := 0; bx < g.subWidth; bx++ {
			left := clamp(bx, 2, g.subWidth-3)
			sum := 0
			for z := -2; z <= 2; z++ {
				row := blackPoints[top+z]
				sum += row[left-2] + row[left-1] + row[left] + row[left+1] + row[left+2]
			}
			average := sum / 25

			xoffset, yoffset := g.offset(bx, by)
			for yy := 0; yy < blockSize; yy++ {
				offset := (yoffset+yy)*g.width + xoffset
				for xx := 0; xx < blockSize; xx++ {
					if int(g.luminances[offset+xx]) <= average {
						matrix.Set(xoffset+xx, yoffset+yy)
					}
				}
			}
		}
	}
}

// clamp keeps v within [lo, hi], preferring lo when the range is empty.
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
