package cmd

import (
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ericlevine/cornerscan/internal/logger"
	"github.com/ericlevine/cornerscan/internal/metrics"
	"github.com/ericlevine/cornerscan/internal/scan"
)

func (a *app) detectCommand() *cobra.Command {
	var (
		seedX, seedY int
		dumpDir      string
	)

	cmd := &cobra.Command{
		Use:   "detect <image> [image...]",
		Short: "Find symbol corners in image files",
		Long: `Find the four corners of a 2D symbol in each image and print them in
top-left, top-right, bottom-right, bottom-left order.

The seed rectangle is centred on the image unless --seed-x and --seed-y are
given. When no seed size is set it is a fraction of the smaller image side,
and failed detections are retried with scaled seeds.

Examples:
  cornerscan detect label.png
  cornerscan detect --seed-x 120 --seed-y 80 --seed-size 12 photo.jpg
  cornerscan detect --format yaml --workers 8 --metrics-textfile /var/lib/node_exporter/cornerscan.prom scans/*.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			format, err := scan.ParseFormat(cfg.Output.Format)
			if err != nil {
				return err
			}

			opts := scan.Options{DumpDir: dumpDir}
			switch {
			case seedX >= 0 && seedY >= 0:
				opts.Seed = &image.Point{X: seedX, Y: seedY}
			case seedX >= 0 || seedY >= 0:
				return errors.New("--seed-x and --seed-y must be given together")
			}

			m := metrics.New()
			scanner, err := scan.New(cfg.Detect,
				scan.WithMetrics(m),
				scan.WithWorkers(cfg.Batch.Workers),
				scan.WithLogger(logger.Log()))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			results := scanner.ScanFiles(ctx, args, opts)
			if err := scan.Encode(cmd.OutOrStdout(), format, results); err != nil {
				return fmt.Errorf("write results: %w", err)
			}

			if cfg.Metrics.Textfile != "" {
				if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					logger.Log().Warn("could not write metrics textfile",
						zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
				}
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(results))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&seedX, "seed-x", -1, "seed centre x (default image centre)")
	f.IntVar(&seedY, "seed-y", -1, "seed centre y (default image centre)")
	f.Int("seed-size", 0, "seed rectangle side in pixels (0 derives it from the image size)")
	f.Int("matrix-size", 20, "modules per symbol side")
	f.String("binarizer", "hybrid", "binarizer: hybrid or histogram")
	f.Bool("try-inverted", false, "also search for light-on-dark symbols")
	f.Duration("timeout", 0, "per-image detection timeout (default from config, 2s)")
	f.StringP("format", "f", "text", "output format: text, json or yaml")
	f.Int("workers", 0, "parallel workers (default number of CPUs)")
	f.String("metrics-textfile", "", "write Prometheus metrics to this file when done")
	f.StringVar(&dumpDir, "dump-binarized", "", "write each binarized image into this directory")

	a.bind(cmd, "detect.seed_size", "seed-size")
	a.bind(cmd, "detect.matrix_size", "matrix-size")
	a.bind(cmd, "detect.binarizer", "binarizer")
	a.bind(cmd, "detect.try_inverted", "try-inverted")
	a.bind(cmd, "detect.timeout", "timeout")
	a.bind(cmd, "output.format", "format")
	a.bind(cmd, "batch.workers", "workers")
	a.bind(cmd, "metrics.textfile", "metrics-textfile")
	return cmd
}
