package cornerscan

import (
	"image"

	"github.com/ericlevine/cornerscan/bitutil"
)

// ImageLuminanceSource holds the 8-bit luminance of an image, row-major with
// the origin at the top-left of the image bounds.
type ImageLuminanceSource struct {
	luminances []byte
	width      int
	height     int
}

// NewImageLuminanceSource computes the luminance of img as
// (306*R + 601*G + 117*B + 512) / 1024. Pixels are composited over white
// first, so transparent areas read as light background.
func NewImageLuminanceSource(img image.Image) *ImageLuminanceSource {
	if g, ok := img.(*image.Gray); ok {
		return NewGrayImageLuminanceSource(g)
	}
	b := img.Bounds()
	s := newSource(b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			bg := 0xffff - a
			r8, g8, b8 := (r+bg)>>8, (g+bg)>>8, (bl+bg)>>8
			s.luminances[i] = byte((306*r8 + 601*g8 + 117*b8 + 0x200) >> 10)
			i++
		}
	}
	return s
}

// NewGrayImageLuminanceSource copies the pixels of img unchanged.
func NewGrayImageLuminanceSource(img *image.Gray) *ImageLuminanceSource {
	b := img.Bounds()
	s := newSource(b.Dx(), b.Dy())
	for y := 0; y < s.height; y++ {
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(s.luminances[y*s.width:(y+1)*s.width], img.Pix[start:])
	}
	return s
}

func newSource(width, height int) *ImageLuminanceSource {
	return &ImageLuminanceSource{
		luminances: make([]byte, width*height),
		width:      width,
		height:     height,
	}
}

// Row copies row y into row, allocating when it is too short. It returns
// nil for rows outside the image.
func (s *ImageLuminanceSource) Row(y int, row []byte) []byte {
	if y < 0 || y >= s.height {
		return nil
	}
	if len(row) < s.width {
		row = make([]byte, s.width)
	}
	copy(row, s.luminances[y*s.width:(y+1)*s.width])
	return row
}

// Matrix returns a copy of all luminance values.
func (s *ImageLuminanceSource) Matrix() []byte {
	return append([]byte(nil), s.luminances...)
}

func (s *ImageLuminanceSource) Width() int  { return s.width }
func (s *ImageLuminanceSource) Height() int { return s.height }

// BitMatrixToImage renders m as a greyscale image with dark pixels black and
// light pixels white.
func BitMatrixToImage(m *bitutil.BitMatrix) *image.Gray {
	img := image.NewGray(m.Bounds())
	for y := 0; y < m.Height(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+m.Width()]
		for x := range row {
			if m.Get(x, y) {
				row[x] = 0x00
			} else {
				row[x] = 0xff
			}
		}
	}
	return img
}
