package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/internal/imageio"
	"github.com/ericlevine/cornerscan/internal/scan"
)

// detectResponse is the body of a successful POST /v1/detect.
type detectResponse struct {
	RequestID  string        `json:"request_id"`
	Corners    [4]scan.Point `json:"corners"`
	Bounds     scan.Rect     `json:"bounds"`
	Seed       scan.Seed     `json:"seed"`
	ModuleSize float64       `json:"module_size"`
	Attempts   int           `json:"attempts"`
	Inverted   bool          `json:"inverted"`
	ElapsedMS  float64       `json:"elapsed_ms"`
}

func (s *Server) handleDetect(c *gin.Context) {
	rid := c.GetString(requestIDKey)
	limit := s.cfg.MaxUploadBytes

	if c.Request.ContentLength > limit {
		s.fail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
			return
		}
		s.fail(c, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	opts, err := detectOptions(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	opts.ID = rid

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "could not read image")
		return
	}
	s.scanner.Metrics().ObserveUpload(header.Size)

	img, _, err := imageio.Decode(bytes.NewReader(data))
	if err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.scanner.ScanImage(c.Request.Context(), img, opts)
	switch {
	case err == nil:
	case errors.Is(err, cornerscan.ErrNotFound):
		s.fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.fail(c, http.StatusGatewayTimeout, err.Error())
		return
	default:
		s.log.Error("detection failed", zap.String("request_id", rid), zap.Error(err))
		s.fail(c, http.StatusInternalServerError, "detection failed")
		return
	}

	c.JSON(http.StatusOK, detectResponse{
		RequestID:  rid,
		Corners:    res.Corners,
		Bounds:     res.Bounds,
		Seed:       res.Seed,
		ModuleSize: res.ModuleSize,
		Attempts:   res.Attempts,
		Inverted:   res.Inverted,
		ElapsedMS:  res.ElapsedMS,
	})
}

// detectOptions reads the optional seed_x, seed_y, seed_size and
// matrix_size form fields. seed_x and seed_y must be given together.
func detectOptions(c *gin.Context) (scan.Options, error) {
	var opts scan.Options

	x, hasX, err := formInt(c, "seed_x")
	if err != nil {
		return opts, err
	}
	y, hasY, err := formInt(c, "seed_y")
	if err != nil {
		return opts, err
	}
	if hasX != hasY {
		return opts, errors.New("seed_x and seed_y must be given together")
	}
	if hasX {
		opts.Seed = &image.Point{X: x, Y: y}
	}

	if opts.SeedSize, _, err = formInt(c, "seed_size"); err != nil {
		return opts, err
	}
	if opts.SeedSize < 0 {
		return opts, errors.New("seed_size must not be negative")
	}
	if opts.MatrixSize, _, err = formInt(c, "matrix_size"); err != nil {
		return opts, err
	}
	if opts.MatrixSize < 0 {
		return opts, errors.New("matrix_size must not be negative")
	}
	return opts, nil
}

func formInt(c *gin.Context, key string) (int, bool, error) {
	raw, ok := c.GetPostForm(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %q is not an integer", key, raw)
	}
	return v, true, nil
}

func (s *Server) fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.GetString(requestIDKey),
		"error":      msg,
	})
}
