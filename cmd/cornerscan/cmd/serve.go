package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ericlevine/cornerscan/internal/logger"
	"github.com/ericlevine/cornerscan/internal/metrics"
	"github.com/ericlevine/cornerscan/internal/scan"
	"github.com/ericlevine/cornerscan/internal/server"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP detection API",
		Long: `Start an HTTP server for corner detection.

Endpoints:
  POST /v1/detect  multipart upload (field "image"; optional seed_x, seed_y,
                   seed_size, matrix_size)
  GET  /healthz    health check
  GET  /metrics    Prometheus metrics

Examples:
  cornerscan serve
  cornerscan serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			scanner, err := scan.New(cfg.Detect,
				scan.WithMetrics(metrics.New().WithRuntimeCollectors()),
				scan.WithLogger(logger.Log()))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg.Server, scanner, logger.Log()).Run(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Int64("max-upload-bytes", 10<<20, "largest accepted upload")
	a.bind(cmd, "server.addr", "addr")
	a.bind(cmd, "server.max_upload_bytes", "max-upload-bytes")
	return cmd
}
