// Package binarizer turns greyscale luminance into the bit matrix the corner
// detector scans.
package binarizer

import (
	"fmt"

	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/bitutil"
)

const (
	luminanceBits    = 5
	luminanceShift   = 8 - luminanceBits
	luminanceBuckets = 1 << luminanceBits
)

// Kind selects a binarizer implementation.
type Kind string

const (
	KindHybrid    Kind = "hybrid"
	KindHistogram Kind = "histogram"
)

// ParseKind validates a binarizer name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindHybrid, KindHistogram:
		return k, nil
	default:
		return "", fmt.Errorf("unknown binarizer %q (want %q or %q)", s, KindHybrid, KindHistogram)
	}
}

// New returns the binarizer of the given kind over source.
func New(kind Kind, source cornerscan.LuminanceSource) (cornerscan.Binarizer, error) {
	switch kind {
	case KindHybrid:
		return NewHybrid(source), nil
	case KindHistogram:
		return NewGlobalHistogram(source), nil
	default:
		return nil, fmt.Errorf("unknown binarizer %q", kind)
	}
}

// GlobalHistogram picks a single black point for the whole image from a
// histogram sampled over its central rows. Fast, but weak on uneven lighting.
type GlobalHistogram struct {
	source cornerscan.LuminanceSource
}

// NewGlobalHistogram creates a new GlobalHistogram binarizer.
func NewGlobalHistogram(source cornerscan.LuminanceSource) *GlobalHistogram {
	return &GlobalHistogram{source: source}
}

// LuminanceSource returns the underlying source.
func (g *GlobalHistogram) LuminanceSource() cornerscan.LuminanceSource {
	return g.source
}

// Width returns the image width.
func (g *GlobalHistogram) Width() int { return g.source.Width() }

// Height returns the image height.
func (g *GlobalHistogram) Height() int { return g.source.Height() }

// BlackMatrix thresholds every pixel against one estimated black point. It
// returns ErrNotFound when the histogram has no usable contrast.
func (g *GlobalHistogram) BlackMatrix() (*bitutil.BitMatrix, error) {
	width := g.source.Width()
	height := g.source.Height()

	var buckets [luminanceBuckets]int
	row := make([]byte, width)
	for y := 1; y < 5; y++ {
		row = g.source.Row(height*y/5, row)
		for x := width / 5; x < width*4/5; x++ {
			buckets[row[x]>>luminanceShift]++
		}
	}
	blackPoint, err := estimateBlackPoint(buckets[:])
	if err != nil {
		return nil, err
	}

	matrix := bitutil.NewBitMatrix(width, height)
	luminances := g.source.Matrix()
	for y := 0; y < height; y++ {
		offset := y * width
		for x := 0; x < width; x++ {
			if int(luminances[offset+x]) < blackPoint {
				matrix.Set(x, y)
			}
		}
	}
	return matrix, nil
}

// estimateBlackPoint finds the two tallest, well separated histogram peaks
// and returns the deepest valley between them, favouring the dark side.
func estimateBlackPoint(buckets []int) (int, error) {
	numBuckets := len(buckets)
	maxBucketCount := 0
	firstPeak := 0
	firstPeakSize := 0
	for x, count := range buckets {
		if count > firstPeakSize {
			firstPeak = x
			firstPeakSize = count
		}
		maxBucketCount = max(maxBucketCount, count)
	}

	secondPeak := 0
	secondPeakScore := 0
	for x, count := range buckets {
		dist := x - firstPeak
		if score := count * dist * dist; score > secondPeakScore {
			secondPeak = x
			secondPeakScore = score
		}
	}

	if firstPeak > secondPeak {
		firstPeak, secondPeak = secondPeak, firstPeak
	}
	if secondPeak-firstPeak <= numBuckets/16 {
		return 0, fmt.Errorf("%w: luminance histogram has no contrast", cornerscan.ErrNotFound)
	}

	bestValley := secondPeak - 1
	bestValleyScore := -1
	for x := secondPeak - 1; x > firstPeak; x-- {
		fromFirst := x - firstPeak
		score := fromFirst * fromFirst * (secondPeak - x) * (maxBucketCount - buckets[x])
		if score > bestValleyScore {
			bestValley = x
			bestValleyScore = score
		}
	}
	return bestValley << luminanceShift, nil
}
