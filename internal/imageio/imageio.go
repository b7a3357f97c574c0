// Package imageio loads input images and writes debug images.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/bitutil"
)

// SupportedExtensions lists the file extensions Load accepts.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsSupported reports whether path has a supported image extension.
func IsSupported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// Metadata describes a decoded image.
type Metadata struct {
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Format    string `json:"format" yaml:"format"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
}

// Load opens and decodes an image file, applying its EXIF orientation.
func Load(path string) (image.Image, Metadata, error) {
	if !IsSupported(path) {
		return nil, Metadata{}, fmt.Errorf("%w: %s", cornerscan.ErrUnsupportedImage, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-provided input path
	if err != nil {
		return nil, Metadata{}, err
	}
	img, meta, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	meta.Path = path
	meta.SizeBytes = int64(len(data))
	return img, meta, nil
}

// Decode decodes an image from r. Unknown or corrupt data yields an error
// wrapping cornerscan.ErrUnsupportedImage.
func Decode(r io.ReadSeeker) (image.Image, Metadata, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, Metadata{}, unsupported(err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, Metadata{}, err
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, Metadata{}, unsupported(err)
	}
	b := img.Bounds()
	return img, Metadata{Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

// SaveBinarized writes a bit matrix as an image, set bits black. The format
// follows the extension of path.
func SaveBinarized(path string, matrix *bitutil.BitMatrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return imaging.Save(cornerscan.BitMatrixToImage(matrix), path)
}

func unsupported(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return fmt.Errorf("%w: unknown format", cornerscan.ErrUnsupportedImage)
	}
	return fmt.Errorf("%w: %v", cornerscan.ErrUnsupportedImage, err)
}
