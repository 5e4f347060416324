// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing
// and flag binding. Command execution is delegated to handler functions in the
// handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/madhurranjan/vagrant-aws/cmd/vagrant-aws/handlers"
)

// Root returns the root command for the vagrant-aws CLI.
func Root() *cobra.Command {
	var logFormat string

	cmd := &cobra.Command{
		Use:           "vagrant-aws",
		Short:         "Provision EC2 machines with automatic rollback",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return handlers.SetLogFormat(logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logFormat, "log-format", handlers.LogFormatText, "Status output format (text or json)")

	cmd.AddCommand(Up())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Version())

	return cmd
}
