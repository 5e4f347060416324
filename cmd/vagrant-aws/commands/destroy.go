package commands

import (
	"github.com/spf13/cobra"

	"github.com/madhurranjan/vagrant-aws/cmd/vagrant-aws/handlers"
)

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "destroy [machine...]",
		Short: "Terminate machines and release their resources",
		Long: `Destroy removes everything created for a machine:
  - the elastic IP association (and the address itself if it was allocated)
  - the instance, together with volumes marked delete-on-termination
  - the machine's recorded state

Example:
  vagrant-aws destroy -c machines.yaml web

WARNING: This operation is irreversible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Destroy(cmd.Context(), configPath, args, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "machines.yaml", "Path to machine configuration file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}
