// Package bitutil provides the packed bit matrix used to hold binarized images.
package bitutil

import (
	"fmt"
	"image"
	"strings"
)

// BitMatrix is a width x height grid of bits, packed 32 to a word with each
// row starting on a fresh word. x is the column and y the row, with the origin
// at the top-left. A set bit is a dark pixel.
//
// Bits past width in the last word of a row are always zero.
type BitMatrix struct {
	width   int
	height  int
	rowSize int
	data    []uint32
}

// NewBitMatrix returns an all-light matrix. It panics unless both
// dimensions are positive.
func NewBitMatrix(width, height int) *BitMatrix {
	if width < 1 || height < 1 {
		panic(fmt.Sprintf("bitmatrix: invalid size %dx%d", width, height))
	}
	rowSize := (width + 31) / 32
	return &BitMatrix{
		width:   width,
		height:  height,
		rowSize: rowSize,
		data:    make([]uint32, rowSize*height),
	}
}

// ParseStringMatrix builds a matrix from newline separated rows made of
// dark and light tokens. Blank lines are skipped. It panics on unknown
// characters or rows of differing length, so it is meant for fixtures.
func ParseStringMatrix(repr, dark, light string) *BitMatrix {
	var rows [][]bool
	for _, line := range strings.FieldsFunc(repr, func(r rune) bool { return r == '\n' || r == '\r' }) {
		var row []bool
		for rest := line; rest != ""; {
			if after, ok := strings.CutPrefix(rest, dark); ok {
				row, rest = append(row, true), after
			} else if after, ok := strings.CutPrefix(rest, light); ok {
				row, rest = append(row, false), after
			} else {
				panic(fmt.Sprintf("bitmatrix: unexpected %q in row %d", rest[:1], len(rows)))
			}
		}
		if len(row) == 0 {
			continue
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			panic(fmt.Sprintf("bitmatrix: row %d has %d cells, want %d", len(rows), len(row), len(rows[0])))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		panic("bitmatrix: empty representation")
	}

	bm := NewBitMatrix(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, dark := range row {
			if dark {
				bm.Set(x, y)
			}
		}
	}
	return bm
}

// locate returns the word index and mask addressing (x, y).
func (bm *BitMatrix) locate(x, y int) (int, uint32) {
	return y*bm.rowSize + x>>5, 1 << uint(x&31)
}

// Get reports whether (x, y) is dark.
func (bm *BitMatrix) Get(x, y int) bool {
	i, mask := bm.locate(x, y)
	return bm.data[i]&mask != 0
}

// Set marks (x, y) dark.
func (bm *BitMatrix) Set(x, y int) {
	i, mask := bm.locate(x, y)
	bm.data[i] |= mask
}

// FlipAll inverts every pixel.
func (bm *BitMatrix) FlipAll() {
	tail := ^uint32(0)
	if r := bm.width & 31; r != 0 {
		tail = 1<<uint(r) - 1
	}
	for i := range bm.data {
		bm.data[i] = ^bm.data[i]
		if i%bm.rowSize == bm.rowSize-1 {
			bm.data[i] &= tail
		}
	}
}

// SetRegion marks the width x height rectangle at (left, top) dark. The
// region must lie inside the matrix.
func (bm *BitMatrix) SetRegion(left, top, width, height int) {
	region := image.Rect(left, top, left+width, top+height)
	if left < 0 || top < 0 || width < 1 || height < 1 || !region.In(bm.Bounds()) {
		panic(fmt.Sprintf("bitmatrix: region %v outside %v", region, bm.Bounds()))
	}
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			bm.Set(x, y)
		}
	}
}

// Bounds returns the matrix rectangle anchored at the origin.
func (bm *BitMatrix) Bounds() image.Rectangle {
	return image.Rect(0, 0, bm.width, bm.height)
}

// EnclosingRectangle returns the smallest rectangle holding every dark
// pixel, or false if there is none. Max is exclusive.
func (bm *BitMatrix) EnclosingRectangle() (image.Rectangle, bool) {
	var r image.Rectangle
	found := false
	for y := 0; y < bm.height; y++ {
		for x := 0; x < bm.width; x++ {
			if !bm.Get(x, y) {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if found {
				r = r.Union(px)
			} else {
				r, found = px, true
			}
		}
	}
	return r, found
}

func (bm *BitMatrix) Width() int  { return bm.width }
func (bm *BitMatrix) Height() int { return bm.height }

// Clone returns a deep copy.
func (bm *BitMatrix) Clone() *BitMatrix {
	c := *bm
	c.data = append([]uint32(nil), bm.data...)
	return &c
}

// String renders the matrix with "X " for dark and "  " for light pixels.
func (bm *BitMatrix) String() string {
	return bm.StringWithChars("X ", "  ")
}

// StringWithChars renders one line per row using the given tokens.
func (bm *BitMatrix) StringWithChars(dark, light string) string {
	var sb strings.Builder
	sb.Grow(bm.height * (bm.width*max(len(dark), len(light)) + 1))
	for y := 0; y < bm.height; y++ {
		for x := 0; x < bm.width; x++ {
			if bm.Get(x, y) {
				sb.WriteString(dark)
			} else {
				sb.WriteString(light)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
