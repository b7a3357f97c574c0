package scan

import (
	"image"
	"math"
	"slices"

	"github.com/ericlevine/cornerscan/detector"
)

const minSeedSize = 2

// seedRequests lists the detector requests to try, in order. The seed is
// centred on opts.Seed or the image centre. Its base size comes from
// opts.SeedSize, then the configured SeedSize, then SeedFraction of the
// smaller image side; each configured attempt scales that base. Sizes that
// round to one already listed are skipped.
func (s *Scanner) seedRequests(width, height int, opts Options) []detector.Request {
	center := image.Pt(width/2, height/2)
	if opts.Seed != nil {
		center = *opts.Seed
	}

	base := opts.SeedSize
	if base == 0 {
		base = s.cfg.SeedSize
	}
	if base == 0 {
		base = int(s.cfg.SeedFraction * float64(min(width, height)))
	}
	base = max(base, minSeedSize)

	matrixSize := opts.MatrixSize
	if matrixSize == 0 {
		matrixSize = s.cfg.MatrixSize
	}

	var sizes []int
	requests := make([]detector.Request, 0, len(s.cfg.SeedAttempts))
	for _, scale := range s.cfg.SeedAttempts {
		size := max(minSeedSize, int(math.Round(float64(base)*scale)))
		if slices.Contains(sizes, size) {
			continue
		}
		sizes = append(sizes, size)
		requests = append(requests, detector.Request{
			SeedSize:   size,
			X:          center.X,
			Y:          center.Y,
			MatrixSize: matrixSize,
		})
	}
	return requests
}
