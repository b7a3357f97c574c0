package cornerscan

import "errors"

var (
	// ErrNotFound is returned when no four-corner detection could be produced.
	ErrNotFound = errors.New("symbol not found")

	// ErrUnsupportedImage is returned when an input file is not a supported image.
	ErrUnsupportedImage = errors.New("unsupported image")

	// ErrInvalidConfig is returned when configuration values fail validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
