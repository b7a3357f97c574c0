// Package cmd implements the cornerscan command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ericlevine/cornerscan/internal/config"
	"github.com/ericlevine/cornerscan/internal/logger"
)

// app carries state shared by the commands of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds the command tree on a fresh viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "cornerscan",
		Short: "Locate the corners of 2D symbols in images",
		Long: `cornerscan finds the four corners of a square two-dimensional symbol
(a Data Matrix style code) in an image. It binarizes the image, grows a seed
rectangle until it encloses the symbol, then estimates the centre of each
corner module.

Examples:
  cornerscan detect label.png
  cornerscan detect --matrix-size 14 --format json scans/*.jpg
  cornerscan serve --addr :8080`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $XDG_CONFIG_HOME/cornerscan, /etc/cornerscan)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	a.bind(root, "verbose", "verbose")
	a.bind(root, "log_level", "log-level")

	root.AddCommand(a.detectCommand(), a.serveCommand(), newVersionCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := NewRootCommand().Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// setup loads configuration after flag parsing and installs the logger.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	loader := config.NewLoaderWithViper(a.v)
	cfg, err := loader.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if err := logger.Init(cfg.EffectiveLogLevel(), cfg.Verbose); err != nil {
		return err
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Log().Debug("loaded config file", zap.String("path", used))
	}
	return nil
}

// bind ties a flag of cmd to a configuration key. Persistent flags are
// looked up first.
func (a *app) bind(cmd *cobra.Command, key, flagName string) {
	f := cmd.PersistentFlags().Lookup(flagName)
	if f == nil {
		f = cmd.Flags().Lookup(flagName)
	}
	if err := a.v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flagName, err))
	}
}
