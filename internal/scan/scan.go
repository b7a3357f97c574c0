// Package scan drives corner detection over decoded images: binarization,
// seed selection and retries, a watchdog timeout and batch fan-out.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/binarizer"
	"github.com/ericlevine/cornerscan/bitutil"
	"github.com/ericlevine/cornerscan/detector"
	"github.com/ericlevine/cornerscan/internal/config"
	"github.com/ericlevine/cornerscan/internal/imageio"
	"github.com/ericlevine/cornerscan/internal/logger"
	"github.com/ericlevine/cornerscan/internal/metrics"
)

// Options override the configured seed for one scan. Zero values fall back
// to the scanner's configuration. ID labels the scan in logs and the result
// (empty means a new UUID). Seed is the seed centre (nil means the image
// centre). DumpDir, when set, receives the binarized image as a PNG.
type Options struct {
	ID         string
	Seed       *image.Point
	SeedSize   int
	MatrixSize int
	DumpDir    string
}

// Scanner locates symbol corners in images. It is safe for concurrent use.
type Scanner struct {
	cfg     config.DetectConfig
	kind    binarizer.Kind
	workers int
	metrics *metrics.Metrics
	log     *zap.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMetrics records scans on m instead of a private registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

// WithWorkers sets the number of goroutines ScanFiles uses.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Scanner from the detect section of the configuration.
func New(cfg config.DetectConfig, opts ...Option) (*Scanner, error) {
	kind, err := binarizer.ParseKind(cfg.Binarizer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cornerscan.ErrInvalidConfig, err)
	}
	if cfg.MatrixSize < 1 || len(cfg.SeedAttempts) == 0 || cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: detect settings need a matrix size, seed attempts and a timeout", cornerscan.ErrInvalidConfig)
	}

	s := &Scanner{
		cfg:     cfg,
		kind:    kind,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.log == nil {
		s.log = logger.Log()
	}
	return s, nil
}

// Metrics returns the instruments the scanner records on.
func (s *Scanner) Metrics() *metrics.Metrics {
	return s.metrics
}

// ScanImage binarizes img and searches it for a symbol. Failures wrap
// cornerscan.ErrNotFound when no symbol was found and
// context.DeadlineExceeded when the watchdog fired.
func (s *Scanner) ScanImage(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	return s.scan(ctx, img, opts, "")
}

func (s *Scanner) scan(ctx context.Context, img image.Image, opts Options, name string) (*Result, error) {
	start := time.Now()
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	log := s.log.With(zap.String("id", id))
	if name != "" {
		log = log.With(zap.String("image", name))
	}

	matrix, err := s.binarize(img)
	if err != nil {
		s.metrics.ObserveDetection(outcomeOf(err), time.Since(start), 0)
		log.Debug("binarization failed", zap.Error(err))
		return nil, err
	}
	if opts.DumpDir != "" {
		s.dump(log, matrix, opts.DumpDir, name, id)
	}

	res, attempts, err := s.locate(ctx, matrix, opts)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveDetection(outcomeOf(err), elapsed, attempts)
		log.Debug("no symbol corners",
			zap.Int("attempts", attempts),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, err
	}

	res.ID = id
	res.Elapsed = elapsed
	res.ElapsedMS = float64(elapsed.Microseconds()) / 1000
	s.metrics.ObserveDetection(metrics.OutcomeFound, elapsed, res.Attempts)
	log.Info("found symbol corners",
		zap.Int64("elapsed_ms", elapsed.Milliseconds()),
		zap.Int("seed_x", res.Seed.X),
		zap.Int("seed_y", res.Seed.Y),
		zap.Int("seed_size", res.Seed.Size),
		zap.Any("bounds", res.Bounds),
		zap.Int("attempts", res.Attempts),
		zap.Bool("inverted", res.Inverted))
	return res, nil
}

func (s *Scanner) binarize(img image.Image) (*bitutil.BitMatrix, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBinarize(time.Since(start)) }()

	b, err := binarizer.New(s.kind, cornerscan.NewImageLuminanceSource(img))
	if err != nil {
		return nil, err
	}
	return cornerscan.NewBinaryBitmap(b).BlackMatrix()
}

func (s *Scanner) dump(log *zap.Logger, matrix *bitutil.BitMatrix, dir, name, id string) {
	stem := id
	if name != "" {
		stem = stripExt(filepath.Base(name))
	}
	path := filepath.Join(dir, stem+".binarized.png")
	if err := imageio.SaveBinarized(path, matrix); err != nil {
		log.Warn("could not write binarized image", zap.String("path", path), zap.Error(err))
	}
}

type located struct {
	res      *Result
	attempts int
	err      error
}

// locate runs the seed search under the configured timeout. On expiry the
// search goroutine is abandoned; it only reads the matrix and stops at its
// next attempt.
func (s *Scanner) locate(ctx context.Context, matrix *bitutil.BitMatrix, opts Options) (*Result, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan located, 1)
	go func() {
		res, attempts, err := s.search(ctx, matrix, opts)
		done <- located{res: res, attempts: attempts, err: err}
	}()

	select {
	case l := <-done:
		return l.res, l.attempts, l.err
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("corner search stopped after %v: %w", s.cfg.Timeout, ctx.Err())
	}
}

// search tries every seed request on the matrix, then on its inverse when
// TryInverted is set, and returns the first detection.
func (s *Scanner) search(ctx context.Context, matrix *bitutil.BitMatrix, opts Options) (*Result, int, error) {
	requests := s.seedRequests(matrix.Width(), matrix.Height(), opts)
	variants := []bool{false}
	if s.cfg.TryInverted {
		variants = append(variants, true)
	}

	attempts := 0
	var lastErr error
	for _, inverted := range variants {
		bm := matrix
		if inverted {
			bm = matrix.Clone()
			bm.FlipAll()
		}
		for _, req := range requests {
			if err := ctx.Err(); err != nil {
				return nil, attempts, err
			}
			attempts++
			corners, bounds, err := detector.DetectWithBounds(bm, req)
			if err == nil {
				res := newResult(corners, bounds, req, matrix.Width(), matrix.Height())
				res.Attempts = attempts
				res.Inverted = inverted
				return res, attempts, nil
			}
			if !errors.Is(err, cornerscan.ErrNotFound) {
				return nil, attempts, err
			}
			lastErr = err
			s.log.Debug("seed attempt failed",
				zap.Int("seed_size", req.SeedSize),
				zap.Bool("inverted", inverted),
				zap.Error(err))
		}
	}
	return nil, attempts, fmt.Errorf("no corners after %d seed attempts: %w", attempts, lastErr)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	case errors.Is(err, cornerscan.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

func stripExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
