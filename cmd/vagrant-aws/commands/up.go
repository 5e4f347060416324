package commands

import (
	"github.com/spf13/cobra"

	"github.com/madhurranjan/vagrant-aws/cmd/vagrant-aws/handlers"
)

// Up returns the up command.
func Up() *cobra.Command {
	var (
		configPath  string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "up [machine...]",
		Short: "Create and boot machines",
		Long: `Up launches one EC2 instance per machine and waits until it is reachable.

For each machine the instance is launched, EBS volumes are created and
attached, an elastic IP is associated when configured, and SSH is polled
until the machine accepts connections. Machines that already have an
instance are skipped. Machines are provisioned concurrently; large batches
are admitted gradually.

If a step fails or the command is interrupted (Ctrl-C), everything created
for the machine is destroyed again.

Example:
  vagrant-aws up -c machines.yaml web db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Up(cmd.Context(), configPath, args, metricsFile)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "machines.yaml", "Path to machine configuration file")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")

	return cmd
}
