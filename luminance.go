package cornerscan

import "github.com/ericlevine/cornerscan/bitutil"

// LuminanceSource exposes 8-bit greyscale values of an image, 0 being black.
type LuminanceSource interface {
	// Row fills and returns row y, reusing row when it is large enough.
	Row(y int, row []byte) []byte
	// Matrix returns all values row-major.
	Matrix() []byte
	Width() int
	Height() int
}

// Binarizer thresholds a LuminanceSource into dark and light pixels.
type Binarizer interface {
	BlackMatrix() (*bitutil.BitMatrix, error)
	LuminanceSource() LuminanceSource
	Width() int
	Height() int
}

// BinaryBitmap caches the black matrix produced by a Binarizer so several
// detection attempts over one image binarize it only once.
type BinaryBitmap struct {
	binarizer Binarizer
	matrix    *bitutil.BitMatrix
}

func NewBinaryBitmap(binarizer Binarizer) *BinaryBitmap {
	return &BinaryBitmap{binarizer: binarizer}
}

func (b *BinaryBitmap) Width() int  { return b.binarizer.Width() }
func (b *BinaryBitmap) Height() int { return b.binarizer.Height() }

// BlackMatrix binarizes on first use. A failed attempt is not cached.
func (b *BinaryBitmap) BlackMatrix() (*bitutil.BitMatrix, error) {
	if b.matrix == nil {
		m, err := b.binarizer.BlackMatrix()
		if err != nil {
			return nil, err
		}
		b.matrix = m
	}
	return b.matrix, nil
}
