package binarizer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/bitutil"
)

// grayImage returns a w x h image of luminance bg with a dark (0) square of
// side size at (left, top).
func grayImage(w, h int, bg uint8, left, top, size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := bg
			if x >= left && x < left+size && y >= top && y < top+size {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func checkMatrix(t *testing.T, m *bitutil.BitMatrix, left, top, size int) {
	t.Helper()
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			want := x >= left && x < left+size && y >= top && y < top+size
			if m.Get(x, y) != want {
				t.Fatalf("bit (%d,%d) = %v, want %v", x, y, m.Get(x, y), want)
			}
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"hybrid", "histogram"} {
		k, err := ParseKind(s)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
		if string(k) != s {
			t.Errorf("ParseKind(%q) = %q", s, k)
		}
	}
	if _, err := ParseKind("otsu"); err == nil {
		t.Error("ParseKind(otsu) succeeded")
	}
}

func TestNew(t *testing.T) {
	source := cornerscan.NewGrayImageLuminanceSource(grayImage(8, 8, 255, 0, 0, 0))

	b, err := New(KindHybrid, source)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*Hybrid); !ok {
		t.Errorf("New(hybrid) = %T", b)
	}

	b, err = New(KindHistogram, source)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*GlobalHistogram); !ok {
		t.Errorf("New(histogram) = %T", b)
	}
	if b.LuminanceSource() != source || b.Width() != 8 || b.Height() != 8 {
		t.Error("binarizer does not expose its source")
	}

	if _, err := New(Kind("none"), source); err == nil {
		t.Error("New(none) succeeded")
	}
}

func TestGlobalHistogramSplitsDarkAndLight(t *testing.T) {
	source := cornerscan.NewGrayImageLuminanceSource(grayImage(50, 50, 255, 10, 10, 30))
	m, err := NewGlobalHistogram(source).BlackMatrix()
	if err != nil {
		t.Fatal(err)
	}
	checkMatrix(t, m, 10, 10, 30)
}

func TestGlobalHistogramNoContrast(t *testing.T) {
	source := cornerscan.NewGrayImageLuminanceSource(grayImage(30, 30, 0, 0, 0, 0))
	_, err := NewGlobalHistogram(source).BlackMatrix()
	if !errors.Is(err, cornerscan.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHybridLocalThreshold(t *testing.T) {
	source := cornerscan.NewGrayImageLuminanceSource(grayImage(64, 64, 255, 16, 16, 32))
	m, err := NewHybrid(source).BlackMatrix()
	if err != nil {
		t.Fatal(err)
	}
	checkMatrix(t, m, 16, 16, 32)
}

func TestHybridUnevenSize(t *testing.T) {
	// 61x45 leaves partial blocks on the right and bottom edges.
	source := cornerscan.NewGrayImageLuminanceSource(grayImage(61, 45, 230, 20, 10, 25))
	m, err := NewHybrid(source).BlackMatrix()
	if err != nil {
		t.Fatal(err)
	}
	checkMatrix(t, m, 20, 10, 25)
}

func TestHybridSmallImageFallsBack(t *testing.T) {
	source := cornerscan.NewGrayImageLuminanceSource(grayImage(20, 20, 0, 0, 0, 0))
	_, err := NewHybrid(source).BlackMatrix()
	if !errors.Is(err, cornerscan.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound from the histogram fallback", err)
	}
}

func BenchmarkHybrid(b *testing.B) {
	source := cornerscan.NewGrayImageLuminanceSource(grayImage(640, 480, 220, 200, 120, 240))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := NewHybrid(source).BlackMatrix(); err != nil {
			b.Fatal(err)
		}
	}
}
