package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/ericlevine/cornerscan/cmd/cornerscan/cmd.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip configuration loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cornerscan version %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
