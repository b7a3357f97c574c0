package scan

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ericlevine/cornerscan/internal/imageio"
)

// ScanFile loads the image at path and scans it.
func (s *Scanner) ScanFile(ctx context.Context, path string, opts Options) (*Result, error) {
	img, _, err := imageio.Load(path)
	if err != nil {
		return nil, err
	}
	return s.scan(ctx, img, opts, path)
}

type fileJob struct {
	index int
	path  string
}

// ScanFiles scans paths on a pool of worker goroutines. Results keep the
// order of paths. Once ctx is done no new files are started and the
// remaining entries carry ctx.Err().
func (s *Scanner) ScanFiles(ctx context.Context, paths []string, opts Options) []FileResult {
	results := make([]FileResult, len(paths))
	for i, p := range paths {
		results[i].Path = p
	}
	if len(paths) == 0 {
		return results
	}

	workers := min(s.workers, len(paths))
	jobs := make(chan fileJob)
	started := make([]bool, len(paths))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := s.ScanFile(ctx, job.path, opts)
				results[job.index].Result = res
				results[job.index].Err = err
			}
		}()
	}

dispatch:
	for i, p := range paths {
		select {
		case jobs <- fileJob{index: i, path: p}:
			started[i] = true
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	skipped := 0
	for i := range results {
		if !started[i] {
			results[i].Err = ctx.Err()
			skipped++
		}
	}
	if skipped > 0 {
		s.log.Warn("batch cancelled", zap.Int("skipped", skipped), zap.Int("total", len(paths)))
	}
	return results
}
