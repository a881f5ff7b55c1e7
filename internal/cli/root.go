// Package cli implements tokengatectl, the operator tool that replays
// scenarios against an in-memory deployment.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X tokengate/internal/cli.Version=...".
var Version = "dev"

// RootOptions holds global flags.
type RootOptions struct {
	Verbose bool
	Format  string
}

var validFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tokengatectl",
		Short: "Operate and simulate permissioned token deployments",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log token operations to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tokengatectl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tokengatectl %s\n", Version)
		},
	}
}
