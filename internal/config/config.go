// Package config loads cornerscan settings from files, the environment and
// command-line flags.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/binarizer"
)

// Config is the complete configuration for the cornerscan CLI and server.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detect  DetectConfig  `mapstructure:"detect" yaml:"detect" json:"detect"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch" json:"batch"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// DetectConfig controls binarization and the corner search. MatrixSize is
// the expected number of modules per symbol side. A zero SeedSize derives the
// seed from SeedFraction and the image size; SeedAttempts scales it for each
// retry. TryInverted also searches the inverted bit matrix for light-on-dark
// symbols.
type DetectConfig struct {
	MatrixSize   int           `mapstructure:"matrix_size" yaml:"matrix_size" json:"matrix_size"`
	SeedSize     int           `mapstructure:"seed_size" yaml:"seed_size" json:"seed_size"`
	SeedFraction float64       `mapstructure:"seed_fraction" yaml:"seed_fraction" json:"seed_fraction"`
	SeedAttempts []float64     `mapstructure:"seed_attempts" yaml:"seed_attempts" json:"seed_attempts"`
	Binarizer    string        `mapstructure:"binarizer" yaml:"binarizer" json:"binarizer"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	TryInverted  bool          `mapstructure:"try_inverted" yaml:"try_inverted" json:"try_inverted"`
}

// BatchConfig controls multi-file runs.
type BatchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// OutputConfig controls result formatting.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" json:"max_upload_bytes"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace" yaml:"shutdown_grace" json:"shutdown_grace"`
}

// MetricsConfig configures metric export for batch runs.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile"`
}

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"text", "json", "yaml"}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Detect: DetectConfig{
			MatrixSize:   20,
			SeedFraction: 0.1,
			SeedAttempts: []float64{1, 0.5, 2},
			Binarizer:    string(binarizer.KindHybrid),
			Timeout:      2 * time.Second,
		},
		Batch: BatchConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
			ShutdownGrace:  10 * time.Second,
		},
	}
}

// Validate checks every setting and returns an error wrapping
// cornerscan.ErrInvalidConfig for the first invalid one.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return invalid("log level %q (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validFormats, c.Output.Format) {
		return invalid("output format %q (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	d := c.Detect
	if d.MatrixSize < 1 {
		return invalid("detect.matrix_size %d (must be positive)", d.MatrixSize)
	}
	if d.SeedSize < 0 {
		return invalid("detect.seed_size %d (must not be negative)", d.SeedSize)
	}
	if d.SeedFraction <= 0 || d.SeedFraction > 1 {
		return invalid("detect.seed_fraction %v (must be in (0, 1])", d.SeedFraction)
	}
	if len(d.SeedAttempts) == 0 {
		return invalid("detect.seed_attempts is empty")
	}
	for _, a := range d.SeedAttempts {
		if a <= 0 {
			return invalid("detect.seed_attempts entry %v (must be positive)", a)
		}
	}
	if _, err := binarizer.ParseKind(d.Binarizer); err != nil {
		return fmt.Errorf("%w: %v", cornerscan.ErrInvalidConfig, err)
	}
	if d.Timeout <= 0 {
		return invalid("detect.timeout %v (must be positive)", d.Timeout)
	}

	if c.Batch.Workers <= 0 {
		return invalid("batch.workers %d (must be positive)", c.Batch.Workers)
	}
	if c.Server.Addr == "" {
		return invalid("server.addr is empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return invalid("server.max_upload_bytes %d (must be positive)", c.Server.MaxUploadBytes)
	}
	if c.Server.ShutdownGrace < 0 {
		return invalid("server.shutdown_grace %v (must not be negative)", c.Server.ShutdownGrace)
	}
	return nil
}

// EffectiveLogLevel returns "debug" when Verbose is set, LogLevel otherwise.
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{cornerscan.ErrInvalidConfig}, args...)...)
}
