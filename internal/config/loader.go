package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "cornerscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CORNERSCAN"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoaderWithViper creates a loader on a caller-owned viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads configFile, or searches the standard locations when it is
// empty, merges environment variables and defaults, and validates the
// result. A missing file in the search locations is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg, err := l.Current()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Current unmarshals the loader's present state without validating it.
// Commands call it after flag parsing so bound flags take effect.
func (l *Loader) Current() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		l.v.AddConfigPath(filepath.Join(configDir, "cornerscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "cornerscan"))
	}

	l.v.AddConfigPath("/etc/cornerscan")
}

// setupEnvironmentVariables maps detect.matrix_size to
// CORNERSCAN_DETECT_MATRIX_SIZE and so on.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options. Every key
// needs a default for AutomaticEnv to reach it during Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("detect.matrix_size", d.Detect.MatrixSize)
	l.v.SetDefault("detect.seed_size", d.Detect.SeedSize)
	l.v.SetDefault("detect.seed_fraction", d.Detect.SeedFraction)
	l.v.SetDefault("detect.seed_attempts", d.Detect.SeedAttempts)
	l.v.SetDefault("detect.binarizer", d.Detect.Binarizer)
	l.v.SetDefault("detect.timeout", d.Detect.Timeout)
	l.v.SetDefault("detect.try_inverted", d.Detect.TryInverted)

	l.v.SetDefault("batch.workers", d.Batch.Workers)

	l.v.SetDefault("output.format", d.Output.Format)

	l.v.SetDefault("server.addr", d.Server.Addr)
	l.v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	l.v.SetDefault("server.shutdown_grace", d.Server.ShutdownGrace)

	l.v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}
