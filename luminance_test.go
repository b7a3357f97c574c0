package cornerscan

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ericlevine/cornerscan/bitutil"
)

func TestImageLuminanceSourceRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.Set(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(2, 0, color.NRGBA{A: 0})
	img.Set(3, 0, color.NRGBA{A: 128})

	s := NewImageLuminanceSource(img)
	if s.Width() != 4 || s.Height() != 1 {
		t.Fatalf("size = %dx%d, want 4x1", s.Width(), s.Height())
	}
	row := s.Row(0, nil)
	// Half transparent black blends to mid grey over white.
	want := []byte{255, byte((306*255 + 0x200) >> 10), 255, 127}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("luminance[%d] = %d, want %d", i, row[i], want[i])
		}
	}
}

func TestImageLuminanceSourceGraySubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)

	s := NewImageLuminanceSource(sub)
	if got, want := s.Matrix(), []byte{5, 6, 9, 10}; string(got) != string(want) {
		t.Errorf("matrix = %v, want %v", got, want)
	}
	if s.Row(-1, nil) != nil || s.Row(2, nil) != nil {
		t.Error("out of range rows should be nil")
	}

	buf := make([]byte, 8)
	if row := s.Row(1, buf); &row[0] != &buf[0] || row[0] != 9 {
		t.Error("Row should reuse a large enough buffer")
	}

	m := s.Matrix()
	m[0] = 99
	if s.Matrix()[0] != 5 {
		t.Error("Matrix should return a copy")
	}
}

type countingBinarizer struct {
	Binarizer
	calls int
	err   error
}

func (c *countingBinarizer) BlackMatrix() (*bitutil.BitMatrix, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return bitutil.NewBitMatrix(4, 4), nil
}

func (c *countingBinarizer) Width() int  { return 4 }
func (c *countingBinarizer) Height() int { return 4 }

func TestBinaryBitmapCachesMatrix(t *testing.T) {
	b := &countingBinarizer{}
	bitmap := NewBinaryBitmap(b)
	first, err := bitmap.BlackMatrix()
	if err != nil {
		t.Fatal(err)
	}
	second, _ := bitmap.BlackMatrix()
	if first != second || b.calls != 1 {
		t.Errorf("binarizer called %d times, want 1", b.calls)
	}
	if bitmap.Width() != 4 || bitmap.Height() != 4 {
		t.Errorf("size = %dx%d", bitmap.Width(), bitmap.Height())
	}
}

func TestBinaryBitmapRetriesAfterError(t *testing.T) {
	b := &countingBinarizer{err: ErrNotFound}
	bitmap := NewBinaryBitmap(b)
	if _, err := bitmap.BlackMatrix(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	b.err = nil
	if _, err := bitmap.BlackMatrix(); err != nil || b.calls != 2 {
		t.Errorf("calls = %d, err = %v", b.calls, err)
	}
}

func TestBitMatrixToImage(t *testing.T) {
	m := bitutil.ParseStringMatrix("X.\n.X\n", "X", ".")
	img := BitMatrixToImage(m)
	if img.GrayAt(0, 0).Y != 0 || img.GrayAt(1, 0).Y != 255 || img.GrayAt(1, 1).Y != 0 {
		t.Errorf("pixels = %v", img.Pix)
	}
}

func TestResultPoint(t *testing.T) {
	a := ResultPoint{X: 1, Y: 2}
	b := ResultPoint{X: 4, Y: 6}
	if d := Distance(a, b); math.Abs(d-5) > 1e-9 {
		t.Errorf("Distance = %v, want 5", d)
	}
	if s := (ResultPoint{X: 15.954, Y: 33.05}).String(); s != "(15.95,33.05)" {
		t.Errorf("String = %q", s)
	}
}
