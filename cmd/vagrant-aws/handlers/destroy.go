package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/metadata"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/destroy"
)

var newDestroyer = func(client ec2.Client, store metadata.Store, cfg *config.Config, observer provisioning.Observer) provisioning.Destroyer {
	return destroy.New(client, store, destroy.WithConfig(cfg), destroy.WithObserver(observer))
}

// Destroy handles the destroy command.
//
// Machines are destroyed one at a time so confirmation prompts do not
// interleave. A declined prompt skips the machine.
func Destroy(ctx context.Context, configPath string, names []string, force bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	machines, err := selectMachines(cfg, names)
	if err != nil {
		return err
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}

	timeouts := config.LoadTimeouts()
	observer := newObserver()
	clients := make(map[string]ec2.Client)

	var errs []error
	for _, m := range machines {
		client, ok := clients[m.Region]
		if !ok {
			client, err = newEC2Client(ctx, m.Region, cfg.Profile, timeouts)
			if err != nil {
				return fmt.Errorf("failed to create EC2 client for %s: %w", m.Region, err)
			}
			clients[m.Region] = client
		}

		derr := destroyMachine(ctx, newDestroyer(client, store, cfg, observer), m.Name, force, timeouts.Delete)
		switch {
		case errors.Is(derr, destroy.ErrDeclined):
			log.Printf("Skipping %s", m.Name)
		case derr != nil:
			errs = append(errs, fmt.Errorf("%s: %w", m.Name, derr))
		}
	}
	return errors.Join(errs...)
}

func destroyMachine(ctx context.Context, d provisioning.Destroyer, name string, force bool, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return d.Destroy(ctx, provisioning.DestroyRequest{
		Machine:        name,
		Force:          force,
		ValidateConfig: true,
	})
}
