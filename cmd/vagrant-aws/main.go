// Package main is the entry point for the vagrant-aws CLI.
//
// vagrant-aws provisions EC2 instances described in a machine file and
// rolls them back cleanly when provisioning fails or is interrupted.
//
// Commands: up, destroy, version.
//
// For detailed usage information, run:
//
//	vagrant-aws --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/madhurranjan/vagrant-aws/cmd/vagrant-aws/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Cancelling the context interrupts running attempts, which then roll back.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
